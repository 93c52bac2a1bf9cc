package ai

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of an exchange history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider turns an exchange history into the next assistant reply.
type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}
