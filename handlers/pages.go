package handlers

import (
	"net/http"

	"github.com/arogya-ai/arogya/backend/pkg/logger"
	"github.com/arogya-ai/arogya/backend/pkg/middleware"
	"github.com/gin-gonic/gin"
)

func (h *Handler) Index(c *gin.Context) {
	_, signedIn := middleware.SessionFrom(c)
	c.HTML(http.StatusOK, "index.html", gin.H{"Title": "Welcome", "SignedIn": signedIn})
}

func (h *Handler) LoginPage(c *gin.Context) { h.authPage(c, "login.html", "Log in") }

func (h *Handler) SignupPage(c *gin.Context) { h.authPage(c, "signup.html", "Sign up") }

// authPage sends signed-in visitors straight to the dashboard.
func (h *Handler) authPage(c *gin.Context, name, title string) {
	if _, ok := middleware.SessionFrom(c); ok {
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}
	c.HTML(http.StatusOK, name, gin.H{"Title": title, "Identity": h.identity})
}

func (h *Handler) Dashboard(c *gin.Context) {
	sub := c.GetString(middleware.SubjectKey)
	u, err := h.auth.CurrentUser(c.Request.Context(), sub)
	if err != nil {
		logger.Warnf("dashboard: user lookup for %s failed: %v", sub, err)
	}
	c.HTML(http.StatusOK, "dashboard.html", gin.H{"Title": "Dashboard", "SignedIn": true, "User": u})
}
