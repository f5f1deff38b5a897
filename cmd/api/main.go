// Package main is the entry point for the booking API server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/topclass/bookingguard/internal/cache"
	"github.com/topclass/bookingguard/internal/config"
	"github.com/topclass/bookingguard/internal/database"
	"github.com/topclass/bookingguard/internal/handlers"
	"github.com/topclass/bookingguard/internal/idgen"
	"github.com/topclass/bookingguard/internal/ratelimit"
	"github.com/topclass/bookingguard/internal/repository"
	"github.com/topclass/bookingguard/internal/server"
	"github.com/topclass/bookingguard/internal/services"
	"github.com/topclass/bookingguard/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(os.Stdout, cfg.App.LogLevel).With("service", "bookingguard", "env", cfg.App.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checks := map[string]handlers.CheckFunc{}

	limiters, closeRedis, err := buildLimiters(ctx, cfg, log, checks)
	if err != nil {
		return err
	}
	defer closeRedis()

	repo, closeDB, err := buildRepository(ctx, cfg, log)
	if err != nil {
		_ = limiters.Close()
		return err
	}
	defer closeDB()
	checks["bookings"] = repo.HealthCheck

	bookings := services.NewBookingService(
		repo,
		idgen.NewBookingIDGenerator(idgen.DefaultPrefix, nil),
		cfg.Schedule.MaxBookingsPerSlot,
		log,
	)

	srv, err := server.New(cfg, log, server.Deps{
		Limiters: limiters,
		Bookings: bookings,
		Forms:    services.NewFormService(log),
		Photos:   services.NewPhotoService(services.DefaultTicketTTL),
	})
	if err != nil {
		_ = limiters.Close()
		return err
	}
	for name, check := range checks {
		srv.HealthHandler().AddCheck(name, check)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		_ = limiters.Close()
		return err
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// buildLimiters creates one limiter per profile on the configured backend.
func buildLimiters(ctx context.Context, cfg *config.Config, log *logger.Logger, checks map[string]handlers.CheckFunc) (*ratelimit.Set, func(), error) {
	profiles := server.LimiterProfiles(cfg.Rate)

	if !cfg.RedisEnabled() {
		set, err := ratelimit.NewMemorySet(profiles, ratelimit.WithCleanupInterval(cfg.Rate.CleanupInterval))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create rate limiters: %w", err)
		}
		log.Info("rate limiting enabled", "backend", config.BackendMemory)
		return set, func() {}, nil
	}

	client, err := cache.NewClient(ctx, &cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	set, err := ratelimit.NewRedisSet(client.Client, profiles)
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to create rate limiters: %w", err)
	}
	checks["redis"] = client.HealthCheck

	log.Info("rate limiting enabled", "backend", config.BackendRedis, "redis", cfg.Redis.Address())
	return set, func() {
		if err := client.Close(); err != nil {
			log.Error("failed to close redis client", "error", err)
		}
	}, nil
}

// buildRepository opens Postgres and applies migrations, or falls back to
// the in-memory store when no database is configured.
func buildRepository(ctx context.Context, cfg *config.Config, log *logger.Logger) (repository.BookingRepository, func(), error) {
	if !cfg.DatabaseEnabled() {
		log.Warn("DB_HOST not set, bookings are kept in memory")
		return repository.NewMemoryBookingRepository(), func() {}, nil
	}

	pool, err := database.NewPool(ctx, &cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	if err := migrate(ctx, pool, log); err != nil {
		pool.Close()
		return nil, nil, err
	}

	return repository.NewPostgresBookingRepository(pool), pool.Close, nil
}

func migrate(ctx context.Context, pool *database.Pool, log *logger.Logger) error {
	migrations, err := database.Migrations()
	if err != nil {
		return err
	}
	applied, err := database.NewMigrator(pool, migrations).Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Info("migrations applied", "count", applied)
	return nil
}
