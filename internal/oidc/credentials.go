package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/arogya-ai/arogya/backend/internal/config"
	"github.com/arogya-ai/arogya/backend/pkg/logger"
)

const securetokenIssuer = "https://securetoken.google.com/"

// serviceCredentials is the subset of a service-account key file we need.
type serviceCredentials struct {
	ProjectID string `json:"project_id"`
}

// IssuerFromCredentials derives issuer and audience from a service credential
// file: tokens minted for project P are issued by securetoken.google.com/P with aud P.
func IssuerFromCredentials(path string) (issuer, audience string, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("read identity credentials: %w", err)
	}
	var sc serviceCredentials
	if err := json.Unmarshal(b, &sc); err != nil {
		return "", "", fmt.Errorf("parse identity credentials: %w", err)
	}
	if sc.ProjectID == "" {
		return "", "", errors.New("identity credentials missing project_id")
	}
	return securetokenIssuer + sc.ProjectID, sc.ProjectID, nil
}

// ResolveIssuer returns the configured issuer/client id, falling back to the credential file.
func ResolveIssuer(cfg config.IdentityConfig) (issuer, clientID string, err error) {
	issuer = strings.TrimRight(cfg.Issuer, "/")
	clientID = cfg.ClientID
	if issuer != "" && clientID != "" {
		return issuer, clientID, nil
	}
	if cfg.CredentialsPath == "" {
		return "", "", errors.New("identity provider not configured (set OIDC_ISSUER/OIDC_CLIENT_ID or IDENTITY_CREDENTIALS_PATH)")
	}
	ci, aud, err := IssuerFromCredentials(cfg.CredentialsPath)
	if err != nil {
		return "", "", err
	}
	if issuer == "" {
		issuer = ci
	}
	if clientID == "" {
		clientID = aud
	}
	return issuer, clientID, nil
}

// NewFromConfig builds the real verifier, or the insecure one when that fails
// and ALLOW_INSECURE_TOKEN is set.
func NewFromConfig(ctx context.Context, cfg config.IdentityConfig) (TokenVerifier, error) {
	issuer, clientID, err := ResolveIssuer(cfg)
	if err == nil {
		var ver *Verifier
		ver, err = NewVerifier(ctx, issuer, clientID)
		if err == nil {
			logger.Infof("OIDC verifier ready: issuer=%s", issuer)
			return ver, nil
		}
	}
	if cfg.AllowInsecure {
		logger.Warnf("enabling insecure token verifier (integration mode): %v", err)
		return NewInsecureVerifier(), nil
	}
	return nil, err
}
