package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hireloop/matchrank/internal/cache"
	"github.com/hireloop/matchrank/internal/config"
	"github.com/hireloop/matchrank/internal/db"
	dbRedis "github.com/hireloop/matchrank/internal/db/redis"
	logpkg "github.com/hireloop/matchrank/internal/logger"
	"github.com/hireloop/matchrank/internal/metrics"
	"github.com/hireloop/matchrank/internal/ratelimit"
	docrepo "github.com/hireloop/matchrank/internal/repository/document"
	"github.com/hireloop/matchrank/internal/retry"
	chiTransport "github.com/hireloop/matchrank/internal/transport/chi"
	openaiTransport "github.com/hireloop/matchrank/internal/transport/openai"
	chatuc "github.com/hireloop/matchrank/internal/usecase/chat"
	documentuc "github.com/hireloop/matchrank/internal/usecase/document"
	embeddinguc "github.com/hireloop/matchrank/internal/usecase/embedding"
	healthuc "github.com/hireloop/matchrank/internal/usecase/health"
	rankuc "github.com/hireloop/matchrank/internal/usecase/rank"
	"github.com/hireloop/matchrank/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting matchrank API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.Bool("shared_cache", cfg.SharedCacheEnabled()),
	)

	// Optional shared embedding cache
	var store db.Store
	if cfg.SharedCacheEnabled() {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create shared cache store", zap.Error(err))
		}
		defer store.Close()

		ctx := context.Background()
		readiness := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, readiness); err != nil {
			logger.Fatal("Shared cache not ready", zap.Error(err))
		}
		logger.Info("Connected to shared cache", zap.Strings("addrs", cfg.Database.Addrs))
	}

	// Register domain metrics explicitly (no init())
	metrics.Register()

	// Build the embedding provider pipeline
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	memory := cache.New(cache.Config[[]float32]{
		MaxEntries: cfg.Cache.MaxEntries,
		MaxBytes:   cfg.Cache.MaxBytes,
		TTL:        time.Duration(cfg.Cache.TTLSec) * time.Second,
		SizeOf:     func(v []float32) int64 { return int64(len(v)) * 4 },
	})

	limiter := ratelimit.New(ratelimit.Config{
		Window:      time.Duration(cfg.RateLimit.WindowSec) * time.Second,
		MaxRequests: cfg.RateLimit.MaxRequests,
	})

	retries := retry.NewController()
	retryCfg := retry.Config{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   time.Duration(cfg.Retry.BaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(cfg.Retry.MaxDelayMs) * time.Millisecond,
		Multiplier:  cfg.Retry.Multiplier,
	}

	var shared db.KVStore
	if store != nil {
		shared = store
	}

	provider := embeddinguc.NewProvider(embeddinguc.ProviderConfig{
		Inner:         base,
		Checker:       base,
		Memory:        memory,
		Shared:        shared,
		SharedTTL:     time.Duration(cfg.Cache.SharedTTLSec) * time.Second,
		Limiter:       limiter,
		Retries:       retries,
		RetryConfig:   retryCfg,
		Identity:      cfg.Embedding.Provider,
		Dimensions:    cfg.Embedding.Dimensions,
		MaxInputChars: cfg.Embedding.MaxInputChars,
		Logger:        logger,
	})
	logger.Info("Embedding provider created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	completer := openaiTransport.NewCompleter(&openaiTransport.CompleterConfig{
		APIKey:      cfg.Embedding.APIKey,
		BaseURL:     cfg.Embedding.BaseURL,
		Model:       cfg.Chat.Model,
		MaxTokens:   cfg.Chat.MaxTokens,
		Temperature: cfg.Chat.Temperature,
		Provider:    cfg.Embedding.Provider,
		Logger:      logger,
	})

	// Repositories and use case services
	repo := docrepo.NewStore()

	weights := rankuc.Weights{
		Vector:  cfg.Ranking.VectorWeight,
		Lexical: cfg.Ranking.LexicalWeight,
	}
	docSvc := documentuc.New(repo, provider, logger)
	rankSvc := rankuc.New(repo, provider, weights, logger)
	chatSvc := chatuc.New(rankSvc, repo, completer, retries, retryCfg, logger)

	var pinger healthuc.StorePinger
	if store != nil {
		pinger = store
	}
	healthSvc := healthuc.New(provider, pinger)

	// Create chi server
	server := chiTransport.NewServer(docSvc, rankSvc, chatSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
