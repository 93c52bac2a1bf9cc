package middleware

import (
	"context"
	"net/http"

	"github.com/arogya-ai/arogya/backend/internal/sessions"
	"github.com/arogya-ai/arogya/backend/internal/tokens"
	"github.com/arogya-ai/arogya/backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Context keys set by LoadSession.
const (
	SessionKey = "session"
	ClaimsKey  = "session_claims"
	SubjectKey = "sub"
	CookieKey  = "session_cookie"
)

// SessionAuthenticator resolves a cookie value to a live session, returning a
// nil session when the cookie is not (or no longer) valid.
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, cookie string) (*sessions.Session, *tokens.SessionClaims, error)
}

// LoadSession attaches the caller's session to the context when the cookie is
// valid. It never rejects a request; use RequirePage or RequireAPI for that.
func LoadSession(cookieName string, a SessionAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(cookieName)
		if err != nil || raw == "" {
			c.Next()
			return
		}
		sess, claims, err := a.Authenticate(c.Request.Context(), raw)
		if err != nil {
			logger.Errorf("session lookup failed: %v", err)
			c.Next()
			return
		}
		if sess != nil {
			c.Set(SessionKey, sess)
			c.Set(ClaimsKey, claims)
			c.Set(SubjectKey, sess.Sub)
			c.Set(CookieKey, raw)
		}
		c.Next()
	}
}

// SessionFrom returns the session attached by LoadSession.
func SessionFrom(c *gin.Context) (*sessions.Session, bool) {
	v, ok := c.Get(SessionKey)
	if !ok {
		return nil, false
	}
	s, ok := v.(*sessions.Session)
	return s, ok && s != nil
}

// ClaimsFrom returns the parsed cookie claims attached by LoadSession.
func ClaimsFrom(c *gin.Context) *tokens.SessionClaims {
	if v, ok := c.Get(ClaimsKey); ok {
		if cl, ok := v.(*tokens.SessionClaims); ok {
			return cl
		}
	}
	return nil
}

// RequirePage redirects anonymous visitors to loginPath.
func RequirePage(loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := SessionFrom(c); !ok {
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAPI rejects anonymous callers with a 401 JSON body.
func RequireAPI() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := SessionFrom(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "Not authenticated"})
			return
		}
		c.Next()
	}
}
