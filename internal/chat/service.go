package chat

import (
	"context"
	"strings"
	"time"

	"github.com/arogya-ai/arogya/backend/internal/ai"
	"github.com/arogya-ai/arogya/backend/internal/apperr"
	"github.com/arogya-ai/arogya/backend/pkg/logger"
)

const (
	msgEmpty    = "Message cannot be empty"
	msgUpstream = "Failed to get a response from the AI."
)

// Options configure the relay.
type Options struct {
	SystemPrompt string
	// Window is the number of turns replayed per call; 0 sends only the new message.
	// Odd values are rounded down so replay always starts on a user turn.
	Window  int
	Timeout time.Duration
}

// Service relays user messages to the AI provider under a fixed system instruction.
type Service struct {
	provider ai.Provider
	history  HistoryStore
	opts     Options
}

// NewService builds the relay. history may be nil, which behaves like Window 0.
func NewService(provider ai.Provider, history HistoryStore, opts Options) *Service {
	if opts.Window < 0 {
		opts.Window = 0
	}
	opts.Window -= opts.Window % 2
	return &Service{provider: provider, history: history, opts: opts}
}

func (s *Service) remembers(key string) bool {
	return s.history != nil && s.opts.Window > 0 && key != ""
}

// Reply sends message, preceded by the conversation stored under key, and
// returns the provider's text verbatim. Turns are recorded only after a
// successful reply.
func (s *Service) Reply(ctx context.Context, key, message string) (string, error) {
	text := strings.TrimSpace(message)
	if text == "" {
		return "", apperr.NewValidation(msgEmpty)
	}

	msgs := make([]ai.Message, 0, s.opts.Window+2)
	if s.opts.SystemPrompt != "" {
		msgs = append(msgs, ai.Message{Role: ai.RoleSystem, Content: s.opts.SystemPrompt})
	}
	if s.remembers(key) {
		past, err := s.history.Load(ctx, key, s.opts.Window)
		if err != nil {
			logger.Warnf("chat: history load failed, replying without context: %v", err)
		} else {
			msgs = append(msgs, past...)
		}
	}
	userTurn := ai.Message{Role: ai.RoleUser, Content: text}
	msgs = append(msgs, userTurn)

	callCtx := ctx
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}
	reply, err := s.provider.Chat(callCtx, msgs)
	if err != nil {
		logger.Errorf("chat: provider call failed: %v", err)
		return "", apperr.NewUpstream(msgUpstream, err)
	}

	if s.remembers(key) {
		if err := s.history.Append(ctx, key, s.opts.Window, userTurn, ai.Message{Role: ai.RoleAssistant, Content: reply}); err != nil {
			logger.Warnf("chat: history append failed: %v", err)
		}
	}
	return reply, nil
}

// Forget drops the conversation stored under key.
func (s *Service) Forget(ctx context.Context, key string) error {
	if s.history == nil || key == "" {
		return nil
	}
	return s.history.Clear(ctx, key)
}
