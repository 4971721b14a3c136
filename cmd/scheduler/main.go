package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fieldvisits_backend/internal/adapters"
	authadapter "fieldvisits_backend/internal/auth/adapter"
	authrepo "fieldvisits_backend/internal/auth/repository"
	authservice "fieldvisits_backend/internal/auth/service"
	"fieldvisits_backend/internal/email"
	"fieldvisits_backend/internal/events"
	"fieldvisits_backend/internal/notification"
	propertyrepo "fieldvisits_backend/internal/properties/repository"
	"fieldvisits_backend/internal/scheduler"
	"fieldvisits_backend/internal/visits"
	"fieldvisits_backend/platform/config"
	"fieldvisits_backend/platform/db"
	"fieldvisits_backend/platform/logger"
	"fieldvisits_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg, db.PoolOptions{ApplicationName: "fieldvisits-scheduler", MaxConns: 10})
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}
	notification.New(sender, cfg.GetVisitsLocation(), log).RegisterHandlers(eventBus)

	users := authrepo.New(pool)
	visitsModule := visits.NewModule(visits.Deps{
		Pool:        pool,
		Validator:   validator.New(),
		Bus:         eventBus,
		Log:         log,
		Config:      cfg,
		Properties:  adapters.NewVisitsPropertyReader(propertyrepo.New(pool)),
		Agents:      authadapter.NewAgentDirectoryAdapter(users),
		Credentials: authservice.New(users, cfg, log),
	})

	g, gctx := errgroup.WithContext(ctx)

	sweep := scheduler.NewMissedVisitSweep(visitsModule.Service, log, cfg.GetMissedVisitSweepInterval(), cfg.GetMissedVisitGrace())
	g.Go(func() error {
		sweep.Run(gctx)
		return nil
	})

	if cfg.GetRedisURL() != "" {
		worker, err := scheduler.NewWorker(cfg, visitsModule.Service, log)
		if err != nil {
			log.Error("failed to initialize scheduler worker", "error", err)
			panic("failed to initialize scheduler worker: " + err.Error())
		}
		g.Go(func() error {
			worker.Run(gctx)
			return nil
		})
		log.Info("missed visit worker started", "queue", cfg.GetAsynqQueueName())
	} else {
		log.Warn("REDIS_URL not configured; running the periodic sweep only")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("scheduler stopped with error", "error", err)
	}
	log.Info("scheduler stopped")
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
