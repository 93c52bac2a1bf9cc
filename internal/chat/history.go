package chat

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/arogya-ai/arogya/backend/internal/ai"
	"github.com/redis/go-redis/v9"
)

// HistoryStore keeps the exchange history of one conversation, keyed by session.
type HistoryStore interface {
	// Load returns at most limit of the most recent turns, oldest first.
	Load(ctx context.Context, key string, limit int) ([]ai.Message, error)
	// Append adds turns and keeps only the newest maxLen.
	Append(ctx context.Context, key string, maxLen int, msgs ...ai.Message) error
	Clear(ctx context.Context, key string) error
}

// RedisHistory stores each conversation as a Redis list of JSON turns that
// expires ttl after its last write.
type RedisHistory struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisHistory(client *redis.Client, ttl time.Duration) *RedisHistory {
	return &RedisHistory{client: client, prefix: "chat:history:", ttl: ttl}
}

func (h *RedisHistory) key(k string) string { return h.prefix + k }

func (h *RedisHistory) Load(ctx context.Context, key string, limit int) ([]ai.Message, error) {
	if limit <= 0 {
		return nil, nil
	}
	raw, err := h.client.LRange(ctx, h.key(key), int64(-limit), -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]ai.Message, 0, len(raw))
	for _, r := range raw {
		var m ai.Message
		if err := json.Unmarshal([]byte(r), &m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (h *RedisHistory) Append(ctx context.Context, key string, maxLen int, msgs ...ai.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	vals := make([]interface{}, 0, len(msgs))
	for _, m := range msgs {
		b, err := json.Marshal(m)
		if err != nil {
			return err
		}
		vals = append(vals, b)
	}
	k := h.key(key)
	_, err := h.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.RPush(ctx, k, vals...)
		if maxLen > 0 {
			p.LTrim(ctx, k, int64(-maxLen), -1)
		}
		if h.ttl > 0 {
			p.Expire(ctx, k, h.ttl)
		}
		return nil
	})
	return err
}

func (h *RedisHistory) Clear(ctx context.Context, key string) error {
	return h.client.Del(ctx, h.key(key)).Err()
}

// MemoryHistory is the in-process HistoryStore used when Redis is not configured.
// Histories live until Clear or process exit.
type MemoryHistory struct {
	mu    sync.Mutex
	turns map[string][]ai.Message
}

func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{turns: make(map[string][]ai.Message)}
}

func (h *MemoryHistory) Load(_ context.Context, key string, limit int) ([]ai.Message, error) {
	if limit <= 0 {
		return nil, nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	all := h.turns[key]
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	out := make([]ai.Message, len(all))
	copy(out, all)
	return out, nil
}

func (h *MemoryHistory) Append(_ context.Context, key string, maxLen int, msgs ...ai.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	all := append(h.turns[key], msgs...)
	if maxLen > 0 && len(all) > maxLen {
		all = append([]ai.Message(nil), all[len(all)-maxLen:]...)
	}
	h.turns[key] = all
	return nil
}

func (h *MemoryHistory) Clear(_ context.Context, key string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.turns, key)
	return nil
}
