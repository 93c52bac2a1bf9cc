// Package auth turns an identity-provider ID token into a local user record and
// a server-side session.
package auth

import (
	"context"
	"strings"

	"github.com/arogya-ai/arogya/backend/internal/apperr"
	"github.com/arogya-ai/arogya/backend/internal/config"
	"github.com/arogya-ai/arogya/backend/internal/models"
	"github.com/arogya-ai/arogya/backend/internal/oidc"
	"github.com/arogya-ai/arogya/backend/internal/sessions"
	"github.com/arogya-ai/arogya/backend/internal/tokens"
	"github.com/arogya-ai/arogya/backend/internal/users"
	"github.com/arogya-ai/arogya/backend/pkg/logger"
	"github.com/arogya-ai/arogya/backend/pkg/metrics"
)

// Result is an established login.
type Result struct {
	User    *models.User
	Created bool
	Session *sessions.Session
	// Cookie is the signed value to hand to the browser.
	Cookie string
}

type Provisioner struct {
	cfg       *config.Config
	verifier  oidc.TokenVerifier
	users     *users.Service
	sessions  *sessions.Service
	blacklist *sessions.Blacklist
}

// NewProvisioner wires the login workflow. bl may be nil when Redis is absent.
func NewProvisioner(cfg *config.Config, v oidc.TokenVerifier, u *users.Service, s *sessions.Service, bl *sessions.Blacklist) *Provisioner {
	return &Provisioner{cfg: cfg, verifier: v, users: u, sessions: s, blacklist: bl}
}

// Login verifies idToken, creates the user record if absent and opens a session.
// Nothing is written when verification fails.
func (p *Provisioner) Login(ctx context.Context, idToken string) (*Result, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		metrics.Provisioning.WithLabelValues("rejected").Inc()
		return nil, apperr.NewValidation("idToken is required")
	}
	if p.verifier == nil {
		metrics.Provisioning.WithLabelValues("rejected").Inc()
		return nil, apperr.NewAuthentication("Authentication failed", errNoVerifier)
	}

	tok, err := p.verifier.Verify(ctx, idToken)
	if err != nil {
		logger.Warnf("session_login: token rejected: %v", err)
		metrics.Provisioning.WithLabelValues("rejected").Inc()
		return nil, apperr.NewAuthentication("Authentication failed", err)
	}
	var claims users.Claims
	if err := tok.Claims(&claims); err != nil {
		metrics.Provisioning.WithLabelValues("rejected").Inc()
		return nil, apperr.NewAuthentication("Authentication failed", err)
	}

	u, created, err := p.users.Provision(ctx, claims)
	if err != nil {
		logger.Errorf("session_login: provisioning failed: %v", err)
		metrics.Provisioning.WithLabelValues("error").Inc()
		return nil, apperr.NewAuthentication("Authentication failed", err)
	}
	if created {
		logger.Infof("session_login: provisioned user %s", u.ID)
		metrics.Provisioning.WithLabelValues("created").Inc()
	} else {
		metrics.Provisioning.WithLabelValues("existing").Inc()
	}

	sess, err := p.sessions.CreateSession(ctx, u.ID, p.cfg.Session.TTL)
	if err != nil {
		logger.Errorf("session_login: session store failed: %v", err)
		return nil, apperr.NewUpstream("Could not establish a session", err)
	}
	cookie, err := tokens.GenerateSessionToken(p.cfg, sess)
	if err != nil {
		_ = p.sessions.Delete(ctx, sess.ID)
		logger.Errorf("session_login: signing session cookie failed: %v", err)
		return nil, apperr.NewUpstream("Could not establish a session", err)
	}
	return &Result{User: u, Created: created, Session: sess, Cookie: cookie}, nil
}

// Authenticate resolves a signed cookie value to a live session. It returns
// nil, nil, nil for anything that is not a valid, unrevoked, unexpired session;
// an error means a store could not be reached.
func (p *Provisioner) Authenticate(ctx context.Context, cookie string) (*sessions.Session, *tokens.SessionClaims, error) {
	if cookie == "" {
		return nil, nil, nil
	}
	claims, err := tokens.ParseSessionToken(p.cfg, cookie)
	if err != nil {
		logger.Debugf("session cookie rejected: %v", err)
		return nil, nil, nil
	}
	revoked, err := p.blacklist.Contains(ctx, cookie)
	if err != nil {
		return nil, nil, err
	}
	if revoked {
		return nil, nil, nil
	}
	sess, err := p.sessions.Validate(ctx, claims.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if sess == nil || sess.Sub != claims.Subject {
		return nil, nil, nil
	}
	return sess, claims, nil
}

// Logout deletes the session and revokes its cookie for the rest of its lifetime.
func (p *Provisioner) Logout(ctx context.Context, sess *sessions.Session, claims *tokens.SessionClaims, cookie string) error {
	if sess == nil {
		return nil
	}
	if err := p.sessions.Delete(ctx, sess.ID); err != nil {
		return err
	}
	if claims == nil {
		return nil
	}
	return p.blacklist.Add(ctx, cookie, claims.Remaining())
}

// CurrentUser loads the stored record for a session subject.
func (p *Provisioner) CurrentUser(ctx context.Context, sub string) (*models.User, error) {
	return p.users.GetBySub(ctx, sub)
}
