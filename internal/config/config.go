package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultSystemPrompt is the coach persona sent with every chat call unless
// AI_SYSTEM_PROMPT overrides it.
const DefaultSystemPrompt = `You are "Arogya AI," a friendly, encouraging, and motivational AI Health and Fitness Coach. Your primary goal is to help users achieve their health goals through personalized diet and fitness guidance. You are not a medical professional.

*Personality:*
- *Tone:* Always be positive, supportive, and non-judgmental.
- *Language:* Use simple, clear, and encouraging language.
- *Persona:* Act like a knowledgeable personal trainer who is partnering with the user on their health journey.

*Core Functions:*
1. *Onboarding:* When you meet a new user, ask for their primary goal (e.g., weight loss, muscle gain, maintenance), current weight, height, and general activity level.
2. *Meal Planning:* Generate personalized daily meal plans based on the user's goals and a target calorie count.
3. *Workout Guidance:* Suggest simple, effective workouts based on the user's goal.

*Crucial Rules & Constraints:*
- *Medical Disclaimer:* At the beginning of the first conversation, you MUST state: "Remember, I am an AI coach, not a medical doctor. Please consult with a healthcare professional before making any significant changes to your diet or exercise routine."
- *Data Privacy:* Do not ask for personally identifiable information beyond what is necessary for coaching.
`

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Identity  IdentityConfig
	Session   SessionConfig
	AI        AIConfig
	Chat      ChatConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Production reports whether cookies should be marked Secure.
func (s ServerConfig) Production() bool {
	return s.Environment == "production"
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port, or "" when Redis is not configured.
func (r RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	return r.Host + ":" + r.Port
}

// IdentityConfig describes the external identity provider whose ID tokens are
// accepted by POST /session_login.
type IdentityConfig struct {
	Issuer          string
	ClientID        string
	CredentialsPath string
	WebAPIKey       string
	AllowInsecure   bool
}

type SessionConfig struct {
	Secret     string
	TTL        time.Duration
	CookieName string
}

type AIConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	Timeout      time.Duration
	SystemPrompt string
}

type ChatConfig struct {
	// HistoryWindow is the number of turns replayed to the provider; 0 disables history.
	HistoryWindow int
	HistoryTTL    time.Duration
}

type RateLimitConfig struct {
	Enabled       bool
	RPS           float64
	Burst         int
	UseRedis      bool
	WindowSeconds int
}

// LoadConfig loads configuration from environment variables and .env file
// and validates it for the server.
func LoadConfig() (*Config, error) {
	cfg := Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads configuration without validation. Tools that never touch the
// document store use it directly.
func Load() *Config {
	_ = godotenv.Load(".env")

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "5000")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("MONGODB_DATABASE", "arogya")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SESSION_TTL", 10080)
	v.SetDefault("SESSION_COOKIE", "arogya_session")
	v.SetDefault("AI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai/")
	v.SetDefault("AI_MODEL", "gemini-1.5-flash")
	v.SetDefault("AI_TIMEOUT", 60)
	v.SetDefault("AI_SYSTEM_PROMPT", DefaultSystemPrompt)
	v.SetDefault("CHAT_HISTORY_WINDOW", 20)
	v.SetDefault("CHAT_HISTORY_TTL", 0)
	v.SetDefault("RATE_LIMIT_ENABLED", false)
	v.SetDefault("RATE_LIMIT_RPS", 2)
	v.SetDefault("RATE_LIMIT_BURST", 5)
	v.SetDefault("RATE_LIMIT_USE_REDIS", false)
	v.SetDefault("RATE_LIMIT_WINDOW", 1)
	// Gemini keys are commonly exported as GOOGLE_API_KEY
	_ = v.BindEnv("AI_API_KEY", "AI_API_KEY", "GOOGLE_API_KEY")

	sessionTTL := time.Duration(v.GetInt("SESSION_TTL")) * time.Minute
	historyTTL := time.Duration(v.GetInt("CHAT_HISTORY_TTL")) * time.Minute
	if historyTTL <= 0 {
		historyTTL = sessionTTL
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("SERVER_PORT"),
			Host:         v.GetString("SERVER_HOST"),
			Environment:  v.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 90 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:      v.GetString("MONGODB_URI"),
			Database: v.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Identity: IdentityConfig{
			Issuer:          v.GetString("OIDC_ISSUER"),
			ClientID:        v.GetString("OIDC_CLIENT_ID"),
			CredentialsPath: v.GetString("IDENTITY_CREDENTIALS_PATH"),
			WebAPIKey:       v.GetString("IDENTITY_WEB_API_KEY"),
			AllowInsecure:   v.GetBool("ALLOW_INSECURE_TOKEN"),
		},
		Session: SessionConfig{
			Secret:     os.Getenv("SESSION_SECRET"),
			TTL:        sessionTTL,
			CookieName: v.GetString("SESSION_COOKIE"),
		},
		AI: AIConfig{
			APIKey:       v.GetString("AI_API_KEY"),
			BaseURL:      v.GetString("AI_BASE_URL"),
			Model:        v.GetString("AI_MODEL"),
			Timeout:      time.Duration(v.GetInt("AI_TIMEOUT")) * time.Second,
			SystemPrompt: v.GetString("AI_SYSTEM_PROMPT"),
		},
		Chat: ChatConfig{
			HistoryWindow: v.GetInt("CHAT_HISTORY_WINDOW"),
			HistoryTTL:    historyTTL,
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("RATE_LIMIT_ENABLED"),
			RPS:           v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         v.GetInt("RATE_LIMIT_BURST"),
			UseRedis:      v.GetBool("RATE_LIMIT_USE_REDIS"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW"),
		},
	}

	if cfg.Chat.HistoryWindow < 0 {
		cfg.Chat.HistoryWindow = 0
	}
	return cfg
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	if c.MongoDB.URI == "" {
		return fmt.Errorf("environment variable MONGODB_URI is required")
	}
	return nil
}
