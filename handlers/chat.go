package handlers

import (
	"net/http"
	"strings"

	"github.com/arogya-ai/arogya/backend/internal/apperr"
	"github.com/arogya-ai/arogya/backend/pkg/metrics"
	"github.com/arogya-ai/arogya/backend/pkg/middleware"
	"github.com/gin-gonic/gin"
)

type ChatRequest struct {
	Message string `json:"message"`
}

// Chat relays one message to the AI provider within the caller's session.
// An empty message is rejected before the session is looked at.
func (h *Handler) Chat(c *gin.Context) {
	var req ChatRequest
	_ = c.ShouldBindJSON(&req)
	if strings.TrimSpace(req.Message) == "" {
		metrics.ChatRequests.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message cannot be empty"})
		return
	}
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		metrics.ChatRequests.WithLabelValues("unauthenticated").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	reply, err := h.chat.Reply(c.Request.Context(), sess.ID, req.Message)
	if err != nil {
		outcome := "upstream_error"
		if apperr.KindOf(err) == apperr.Validation {
			outcome = "invalid"
		}
		metrics.ChatRequests.WithLabelValues(outcome).Inc()
		c.JSON(apperr.Status(err), gin.H{"error": apperr.PublicMessage(err)})
		return
	}
	metrics.ChatRequests.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}
