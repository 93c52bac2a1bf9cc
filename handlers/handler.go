package handlers

import (
	"html/template"
	"net/http"

	"github.com/arogya-ai/arogya/backend/internal/auth"
	"github.com/arogya-ai/arogya/backend/internal/chat"
	"github.com/arogya-ai/arogya/backend/internal/config"
	"github.com/arogya-ai/arogya/backend/pkg/middleware"
	"github.com/arogya-ai/arogya/backend/web"
	"github.com/gin-gonic/gin"
)

// IdentityPage is the public identity-provider config rendered into the
// login and signup pages for the browser SDK.
type IdentityPage struct {
	WebAPIKey string
	ProjectID string
}

// Handler holds dependencies for every route.
type Handler struct {
	cfg      *config.Config
	auth     *auth.Provisioner
	chat     *chat.Service
	identity IdentityPage
}

func New(cfg *config.Config, p *auth.Provisioner, c *chat.Service, identity IdentityPage) *Handler {
	return &Handler{cfg: cfg, auth: p, chat: c, identity: identity}
}

// SessionMiddleware loads the caller's session from the cookie. Install it
// before Register and before any limiter that keys on the subject.
func (h *Handler) SessionMiddleware() gin.HandlerFunc {
	return middleware.LoadSession(h.cfg.Session.CookieName, h.auth)
}

// Register installs templates, static assets and all page and API routes.
func (h *Handler) Register(r *gin.Engine) {
	tmpl := template.Must(template.ParseFS(web.Templates(), "*.html"))
	r.SetHTMLTemplate(tmpl)
	r.StaticFS("/static", http.FS(web.Static()))

	r.GET("/", h.Index)
	r.GET("/login", h.LoginPage)
	r.GET("/signup", h.SignupPage)
	r.GET("/dashboard", middleware.RequirePage("/login"), h.Dashboard)
	r.GET("/logout", h.Logout)

	r.POST("/session_login", h.SessionLogin)
	r.POST("/chat", h.Chat)

	api := r.Group("/api")
	api.GET("/me", middleware.RequireAPI(), h.Me)
}
