package tokens

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/arogya-ai/arogya/backend/internal/config"
	"github.com/arogya-ai/arogya/backend/internal/sessions"
)

func seg(b string) string { return base64.RawURLEncoding.EncodeToString([]byte(b)) }

func testConfig(secret string) *config.Config {
	cfg := &config.Config{}
	cfg.Session.Secret = secret
	return cfg
}

func testSession(ttl time.Duration) *sessions.Session {
	now := time.Now().UTC()
	return &sessions.Session{ID: "sid-1", Sub: "user-123", CreatedAt: now, ExpiresAt: now.Add(ttl)}
}

func TestGenerateSessionToken_RoundTrip(t *testing.T) {
	cfg := testConfig("test-secret-32-bytes-should-be-long-enough")

	tokenStr, err := GenerateSessionToken(cfg, testSession(2*time.Minute))
	if err != nil {
		t.Fatalf("GenerateSessionToken error: %v", err)
	}
	claims, err := ParseSessionToken(cfg, tokenStr)
	if err != nil {
		t.Fatalf("ParseSessionToken error: %v", err)
	}
	if claims.SessionID != "sid-1" || claims.Subject != "user-123" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if r := claims.Remaining(); r <= 0 || r > 2*time.Minute {
		t.Fatalf("unexpected remaining lifetime: %v", r)
	}
}

func TestGenerateSessionToken_RequiresSecret(t *testing.T) {
	if _, err := GenerateSessionToken(testConfig(""), testSession(time.Minute)); err == nil {
		t.Fatalf("expected error without a session secret")
	}
}

func TestParseSessionToken_Expired(t *testing.T) {
	cfg := testConfig("another-secret-32-bytes-longgggg")
	tokenStr, err := GenerateSessionToken(cfg, testSession(-time.Minute))
	if err != nil {
		t.Fatalf("GenerateSessionToken error: %v", err)
	}
	if _, err := ParseSessionToken(cfg, tokenStr); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestParseSessionToken_WrongSecretFails(t *testing.T) {
	tokenStr, err := GenerateSessionToken(testConfig("secret-one-32-bytes-xxxxxxxxxxxxxxxx"), testSession(time.Minute))
	if err != nil {
		t.Fatalf("GenerateSessionToken error: %v", err)
	}
	if _, err := ParseSessionToken(testConfig("different-secret-xxxxxxxxxxxxxxxx"), tokenStr); err == nil {
		t.Fatalf("expected parse to fail with wrong secret")
	}
}

func TestParseSessionToken_Malformed(t *testing.T) {
	if _, err := ParseSessionToken(testConfig("x"), "not.a.jwt"); err == nil {
		t.Fatalf("expected parse to fail for malformed token")
	}
}

// Rejected when alg=none (unsigned token)
func TestParseSessionToken_AlgNoneRejected(t *testing.T) {
	tok := seg(`{"alg":"none"}`) + "." + seg(`{"sid":"s","sub":"u-none","exp":9999999999}`) + "."
	if _, err := ParseSessionToken(testConfig("x"), tok); err == nil {
		t.Fatalf("expected parse to reject alg=none token")
	}
}

// Tampering with payload must fail signature verification
func TestParseSessionToken_TamperedPayload(t *testing.T) {
	cfg := testConfig("tamper-test-secret-32-bytes-xxxxxxx")
	tokenStr, err := GenerateSessionToken(cfg, testSession(5*time.Minute))
	if err != nil {
		t.Fatalf("GenerateSessionToken error: %v", err)
	}
	parts := strings.Split(tokenStr, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token parts")
	}
	payloadBytes, _ := base64.RawURLEncoding.DecodeString(parts[1])
	parts[1] = seg(strings.Replace(string(payloadBytes), "user-123", "attacker", 1))
	if _, err := ParseSessionToken(cfg, strings.Join(parts, ".")); err == nil {
		t.Fatalf("expected signature verification to fail for tampered token")
	}
}
