package config

import (
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017/testdb")
	t.Setenv("MONGODB_DATABASE", "arogya_test")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("SESSION_SECRET", "testsecret123456789012345678901234")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.MongoDB.URI == "" || cfg.Redis.Host == "" {
		t.Fatalf("unexpected empty config values: %+v", cfg)
	}
	if cfg.Redis.Addr() != "localhost:6379" {
		t.Fatalf("unexpected redis addr: %q", cfg.Redis.Addr())
	}
	if cfg.Session.TTL != 10080*time.Minute {
		t.Fatalf("unexpected session ttl: %v", cfg.Session.TTL)
	}
	if cfg.Chat.HistoryTTL != cfg.Session.TTL {
		t.Fatalf("history ttl should default to session ttl, got %v", cfg.Chat.HistoryTTL)
	}
	if cfg.AI.SystemPrompt != DefaultSystemPrompt {
		t.Fatalf("expected default system prompt")
	}
}

func TestLoadConfig_MissingMongoURI(t *testing.T) {
	t.Setenv("MONGODB_URI", "")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error when MONGODB_URI is empty")
	}
}

func TestLoadConfig_GoogleAPIKeyFallback(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("AI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "g-key")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.AI.APIKey != "g-key" {
		t.Fatalf("expected GOOGLE_API_KEY fallback, got %q", cfg.AI.APIKey)
	}
}

func TestLoadConfig_StatelessChat(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("CHAT_HISTORY_WINDOW", "-3")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Chat.HistoryWindow != 0 {
		t.Fatalf("negative window should clamp to 0, got %d", cfg.Chat.HistoryWindow)
	}
}

func TestLoad_SkipsValidation(t *testing.T) {
	t.Setenv("MONGODB_URI", "")
	t.Setenv("AI_MODEL", "gemini-2.0-flash")

	cfg := Load()
	if cfg.AI.Model != "gemini-2.0-flash" {
		t.Fatalf("unexpected model: %q", cfg.AI.Model)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected Validate to reject an empty MONGODB_URI")
	}
}
