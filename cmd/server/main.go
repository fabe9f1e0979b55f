package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"estate-suggest/internal/config"
	"estate-suggest/internal/handler"
	"estate-suggest/internal/logger"
	"estate-suggest/internal/repository"
	"estate-suggest/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var _ service.AuditSink = (*repository.PostgresRepository)(nil)

const (
	shutdownTimeout        = 10 * time.Second
	limiterCleanupInterval = time.Minute
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	zlog.Info("estate suggestion service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	if err := run(cfg, zlog); err != nil {
		zlog.Error("server exited with error", zap.Error(err))
		_ = zlog.Sync()
		os.Exit(1)
	}
	_ = zlog.Sync()
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	var opts []service.Option
	if cfg.Audit.Enabled {
		repo, err := repository.NewPostgresRepository(
			cfg.GetPostgreSQLDSN(),
			cfg.PostgreSQL.MaxConnections,
			cfg.PostgreSQL.MaxIdleConnections,
		)
		if err != nil {
			return err
		}
		// closed after the server has stopped and audit writes have drained
		defer repo.Close()

		schemaCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = repo.EnsureSchema(schemaCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to prepare audit schema: %w", err)
		}

		opts = append(opts, service.WithAuditSink(repo))
		zlog.Info("audit log enabled", zap.String("table", "suggestion_logs"))
	}

	// Initialize chat client and service
	chatClient := service.NewOpenAIClient(&cfg.Mistral, zlog)
	suggestService, initErr := service.NewSuggestService(&cfg.Mistral, chatClient, service.NewKeywordFilter(), zlog, opts...)
	var suggester handler.Suggester
	if initErr != nil {
		// keep serving so callers get a clear configuration error
		zlog.Error("suggestion service is not configured, set MISTRAL_API_KEY", zap.Error(initErr))
	} else {
		suggester = suggestService
		zlog.Info("suggestion service initialized",
			zap.String("api_base", cfg.Mistral.APIBase),
			zap.String("chat_model", cfg.Mistral.ChatModel),
			zap.Int("timeout_seconds", cfg.Mistral.Timeout),
		)
	}

	limiter := handler.NewIPRateLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst, zlog)
	go limiter.RunCleanup(ctx, limiterCleanupInterval, time.Duration(cfg.RateLimit.IdleTimeout)*time.Second)

	router, err := handler.NewRouter(handler.RouterConfig{
		Log:            zlog,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		TrustedProxies: cfg.Server.TrustedProxies,
		RateLimiter:    limiter,
		Suggest:        handler.NewSuggestHandler(suggester, initErr, zlog),
		Build: handler.BuildInfo{
			Version:   Version,
			BuildTime: BuildTime,
			GitCommit: GitCommit,
		},
	})
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		zlog.Info("starting server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Wait for interrupt signal or a listen failure
	var runErr error
	select {
	case <-ctx.Done():
		zlog.Info("shutting down server")
	case err := <-serveErr:
		runErr = fmt.Errorf("failed to start server: %w", err)
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("server shutdown failed", zap.Error(err))
	}
	if suggestService != nil {
		suggestService.Wait()
	}

	zlog.Info("server stopped")
	return runErr
}
