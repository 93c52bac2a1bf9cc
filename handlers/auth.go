package handlers

import (
	"net/http"

	"github.com/arogya-ai/arogya/backend/internal/apperr"
	"github.com/arogya-ai/arogya/backend/pkg/logger"
	"github.com/arogya-ai/arogya/backend/pkg/middleware"
	"github.com/gin-gonic/gin"
)

// SessionLoginRequest carries the ID token obtained by the browser SDK.
type SessionLoginRequest struct {
	IDToken string `json:"idToken"`
}

// SessionLogin exchanges an identity-provider ID token for a session cookie.
func (h *Handler) SessionLogin(c *gin.Context) {
	var req SessionLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Debugf("session_login: bad body: %v", err)
	}
	res, err := h.auth.Login(c.Request.Context(), req.IDToken)
	if err != nil {
		c.JSON(apperr.Status(err), gin.H{"status": "error", "message": apperr.PublicMessage(err)})
		return
	}

	h.setSessionCookie(c, res.Cookie, int(h.cfg.Session.TTL.Seconds()))
	msg := "Login successful"
	if res.Created {
		msg = "Account created"
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": msg})
}

// Logout destroys the session and its chat history, then returns to the landing page.
func (h *Handler) Logout(c *gin.Context) {
	if sess, ok := middleware.SessionFrom(c); ok {
		ctx := c.Request.Context()
		if err := h.auth.Logout(ctx, sess, middleware.ClaimsFrom(c), c.GetString(middleware.CookieKey)); err != nil {
			logger.Errorf("logout: %v", err)
		}
		if err := h.chat.Forget(ctx, sess.ID); err != nil {
			logger.Warnf("logout: clearing chat history: %v", err)
		}
	}
	h.setSessionCookie(c, "", -1)
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) Me(c *gin.Context) {
	u, err := h.auth.CurrentUser(c.Request.Context(), c.GetString(middleware.SubjectKey))
	if err != nil {
		logger.Errorf("api/me: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "user lookup failed"})
		return
	}
	if u == nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *Handler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.Session.CookieName, value, maxAge, "/", "", h.cfg.Server.Production(), true)
}
