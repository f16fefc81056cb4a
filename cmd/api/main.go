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

	"github.com/diagnosis/visitor-pass/internal/http/handlers"
	"github.com/diagnosis/visitor-pass/internal/notify"
	"github.com/diagnosis/visitor-pass/internal/platform/badge"
	"github.com/diagnosis/visitor-pass/internal/platform/mailer"
	"github.com/diagnosis/visitor-pass/internal/platform/otp"
	"github.com/diagnosis/visitor-pass/internal/repo"
	"github.com/diagnosis/visitor-pass/internal/repo/memory"
	"github.com/diagnosis/visitor-pass/internal/repo/postgres"
	"github.com/diagnosis/visitor-pass/internal/service"
	"github.com/diagnosis/visitor-pass/pkg/config"
	"github.com/diagnosis/visitor-pass/pkg/database"
	"github.com/diagnosis/visitor-pass/pkg/events"
	"github.com/diagnosis/visitor-pass/pkg/logger"
	"github.com/joho/godotenv"
)

const rateLimitCleanupInterval = 10 * time.Minute

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("Could not read .env file", "error", err)
	}
	if err := run(); err != nil {
		logger.Error("Visitor pass service failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	go cleanupRateLimits(ctx, store.RateLimits)

	otpStore, err := openOTPStore(ctx, cfg)
	if err != nil {
		return err
	}
	go otp.Run(ctx, otpStore, cfg.OTP.SweepInterval)

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.NATS.URL != "" {
		bus, err := events.NewNATSEventBus(cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("connect to nats: %w", err)
		}
		publisher = bus
	}
	defer publisher.Close()

	dispatcher := notify.NewDispatcher(mailer.New(cfg.Email), cfg.Server.FrontendURL, cfg.Email.Async)
	defer dispatcher.Close()

	svc := service.New(service.Deps{
		Config:   cfg,
		Store:    store,
		Events:   publisher,
		Notifier: dispatcher,
		OTP:      otp.NewVerifier(otpStore, cfg.OTP.TTL),
		Badges:   badge.NewRenderer(cfg.Upload.Dir),
	})

	srv := &http.Server{
		Addr: ":" + cfg.Server.Port,
		Handler: handlers.NewRouter(handlers.RouterDeps{
			Config:     cfg,
			Services:   svc,
			RateLimits: store.RateLimits,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Deferred cleanup must wait for Shutdown to drain in-flight requests.
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		logger.Info("Shutting down visitor pass service...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Visitor pass service shutdown error", "error", err)
		}
	}()

	logger.Info("Starting visitor pass service",
		"port", cfg.Server.Port,
		"storage", cfg.Database.Driver,
		"otp_store", cfg.OTP.Store,
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-drained
	logger.Info("Visitor pass service stopped")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (repo.Store, func(), error) {
	if cfg.Database.Driver == "memory" {
		logger.Warn("Using in-memory storage; data is lost on restart")
		return memory.New().Store(), func() {}, nil
	}

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return repo.Store{}, nil, fmt.Errorf("connect to database: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return repo.Store{}, nil, err
		}
	}

	return postgres.New(pool), pool.Close, nil
}

// cleanupRateLimits prunes ended rate limit windows until ctx is done.
func cleanupRateLimits(ctx context.Context, limits repo.RateCounter) {
	t := time.NewTicker(rateLimitCleanupInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n, err := limits.CleanupExpired(ctx); err != nil {
				logger.Warn("Rate limit cleanup failed", "error", err)
			} else if n > 0 {
				logger.Debug("Rate limit windows removed", "count", n)
			}
		}
	}
}

func openOTPStore(ctx context.Context, cfg *config.Config) (otp.Store, error) {
	if cfg.OTP.Store != "redis" {
		return otp.NewMemoryStore(), nil
	}
	client, err := otp.NewRedisClient(ctx, cfg.Redis.URL, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return otp.NewRedisStore(client), nil
}
