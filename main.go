package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arogya-ai/arogya/backend/handlers"
	"github.com/arogya-ai/arogya/backend/internal/ai"
	"github.com/arogya-ai/arogya/backend/internal/auth"
	"github.com/arogya-ai/arogya/backend/internal/chat"
	"github.com/arogya-ai/arogya/backend/internal/config"
	"github.com/arogya-ai/arogya/backend/internal/database"
	"github.com/arogya-ai/arogya/backend/internal/oidc"
	"github.com/arogya-ai/arogya/backend/internal/sessions"
	"github.com/arogya-ai/arogya/backend/internal/users"
	"github.com/arogya-ai/arogya/backend/pkg/logger"
	"github.com/arogya-ai/arogya/backend/pkg/metrics"
	"github.com/arogya-ai/arogya/backend/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var startTime = time.Now()

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	if cfg.Session.Secret == "" {
		logger.Warnf("SESSION_SECRET is not set; session_login will fail")
	}
	if cfg.Server.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	logger.Infof("config loaded: env=%s redis=%v ai_model=%s history_window=%d",
		cfg.Server.Environment, cfg.Redis.Addr() != "", cfg.AI.Model, cfg.Chat.HistoryWindow)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis is optional: sessions, history and the shared limiter fall back when it is absent.
	var rdb *redis.Client
	if addr := cfg.Redis.Addr(); addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s): %v", addr, err)
			_ = rdb.Close()
			rdb = nil
		} else {
			logger.Infof("connected to Redis at %s", addr)
			defer func() { _ = rdb.Close() }()
		}
	}

	// The document store is required; refuse to serve without it.
	mongoClient, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5, time.Second,
		func(attempt int, err error) {
			logger.Warnf("attempt %d/5: failed to connect to MongoDB: %v", attempt, err)
		})
	if err != nil {
		logger.Fatalf("document store unavailable: %v", err)
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()
	db := mongoClient.Database(cfg.MongoDB.Database)
	logger.Infof("connected to MongoDB database %q", cfg.MongoDB.Database)

	userSvc := users.NewService(users.NewMongoUserRepository(db.Collection("users")))

	var srepo sessions.Repository
	if rdb != nil {
		srepo = sessions.NewRedisRepository(rdb, "session:")
		logger.Infof("using Redis for session storage")
	} else {
		mrepo, err := sessions.NewMongoRepository(ctx, db.Collection("sessions"))
		if err != nil {
			logger.Fatalf("failed to prepare session collection: %v", err)
		}
		srepo = mrepo
		logger.Infof("using MongoDB for session storage")
	}
	sessionsSvc := sessions.NewService(srepo)
	blacklist := sessions.NewBlacklist(rdb)

	verifier, err := oidc.NewFromConfig(ctx, cfg.Identity)
	if err != nil {
		logger.Warnf("identity verifier unavailable, session_login will reject every token: %v", err)
	}
	identity := handlers.IdentityPage{WebAPIKey: cfg.Identity.WebAPIKey, ProjectID: cfg.Identity.ClientID}
	if _, clientID, err := oidc.ResolveIssuer(cfg.Identity); err == nil {
		identity.ProjectID = clientID
	}

	if cfg.AI.APIKey == "" {
		logger.Warnf("AI_API_KEY is not set; chat requests will fail upstream")
	}
	provider := ai.NewOpenAIProvider(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Model)
	logger.Infof("AI provider: %s model=%s", provider.Name(), provider.Model())

	var history chat.HistoryStore
	if rdb != nil {
		history = chat.NewRedisHistory(rdb, cfg.Chat.HistoryTTL)
	} else {
		history = chat.NewMemoryHistory()
	}
	relay := chat.NewService(provider, history, chat.Options{
		SystemPrompt: cfg.AI.SystemPrompt,
		Window:       cfg.Chat.HistoryWindow,
		Timeout:      cfg.AI.Timeout,
	})

	provisioner := auth.NewProvisioner(cfg, verifier, userSvc, sessionsSvc, blacklist)
	h := handlers.New(cfg, provisioner, relay, identity)

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.RequestLogger(), gin.Recovery())
	r.Use(h.SessionMiddleware())
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && rdb != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
		logger.Infof("rate limiter enabled: rps=%.2f burst=%d redis=%v", cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.RateLimit.UseRedis && rdb != nil)
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", readiness(mongoClient, rdb, cfg.Redis.Addr() != "", verifier != nil))

	h.Register(r)
	handlers.RegisterSwagger(r)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("graceful shutdown failed: %v", err)
	}
}

// readiness answers 200 only when the document store answers a ping and, if
// Redis was configured, Redis does too.
func readiness(mc *mongo.Client, rdb *redis.Client, redisConfigured, verifierReady bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		deps := map[string]bool{"identity": verifierReady}
		deps["mongo"] = mc.Ping(ctx, readpref.Primary()) == nil
		ready := deps["mongo"]
		if redisConfigured {
			deps["redis"] = rdb != nil && rdb.Ping(ctx).Err() == nil
			ready = ready && deps["redis"]
		}

		status, label := http.StatusOK, "ready"
		if !ready {
			status, label = http.StatusServiceUnavailable, "not_ready"
		}
		c.JSON(status, gin.H{"status": label, "deps": deps, "uptime": time.Since(startTime).String()})
	}
}
