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

	"fieldvisits_backend/internal/adapters"
	"fieldvisits_backend/internal/adapters/storage"
	"fieldvisits_backend/internal/auth"
	authadapter "fieldvisits_backend/internal/auth/adapter"
	"fieldvisits_backend/internal/email"
	"fieldvisits_backend/internal/events"
	apphttp "fieldvisits_backend/internal/http"
	"fieldvisits_backend/internal/http/router"
	"fieldvisits_backend/internal/maps"
	"fieldvisits_backend/internal/notification"
	"fieldvisits_backend/internal/properties"
	"fieldvisits_backend/internal/scheduler"
	"fieldvisits_backend/internal/visits"
	"fieldvisits_backend/internal/visits/lock"
	visitservice "fieldvisits_backend/internal/visits/service"
	"fieldvisits_backend/platform/config"
	"fieldvisits_backend/platform/db"
	"fieldvisits_backend/platform/logger"
	"fieldvisits_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const storageBucketEnsureErrMsg = "failed to ensure storage bucket exists"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg, db.PoolOptions{ApplicationName: "fieldvisits-api"})
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
	log.Info("database connection established")

	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	missedScheduler, closeScheduler := initMissedVisitScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	locker, closeLocker, err := initAgentLocker(cfg, log)
	if err != nil {
		log.Error("failed to initialize agent locker", "error", err)
		panic("failed to initialize agent locker: " + err.Error())
	}
	if closeLocker != nil {
		defer closeLocker()
	}

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	val := validator.New()

	var storageSvc storage.StorageService
	if cfg.IsMinIOEnabled() {
		minioSvc, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		ensureBucket(ctx, log, minioSvc, "visit-attachments", cfg.GetMinioBucketVisitAttachments())
		storageSvc = minioSvc
		log.Info("storage service initialized", "visitAttachmentsBucket", cfg.GetMinioBucketVisitAttachments())
	} else {
		log.Warn("MINIO_ENDPOINT not configured; visit attachments disabled")
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	notificationModule := notification.New(sender, cfg.GetVisitsLocation(), log)
	notificationModule.RegisterHandlers(eventBus)

	authModule, err := auth.NewModule(pool, cfg, log, val)
	if err != nil {
		log.Error("failed to initialize auth module", "error", err)
		panic("failed to initialize auth module: " + err.Error())
	}

	mapsModule := maps.NewModule(cfg, log)
	propertiesModule := properties.NewModule(pool, val, adapters.NewPropertiesGeocoder(mapsModule.Service()), log)

	visitDeps := visits.Deps{
		Pool:        pool,
		Validator:   val,
		Bus:         eventBus,
		Log:         log,
		Config:      cfg,
		Properties:  adapters.NewVisitsPropertyReader(propertiesModule.Repository()),
		Agents:      authadapter.NewAgentDirectoryAdapter(authModule.Repository()),
		Credentials: authModule.Service(),
		Locker:      locker,
	}
	if missedScheduler != nil {
		visitDeps.Missed = missedScheduler
	}
	if storageSvc != nil {
		visitDeps.Storage = storageSvc
		visitDeps.AttachmentBucket = cfg.GetMinioBucketVisitAttachments()
	}
	visitsModule := visits.NewModule(visitDeps)

	// Set visit counter on properties module (breaks circular dependency)
	propertiesModule.SetVisitCounter(visitsModule.Service)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: pool,
		Modules: []apphttp.Module{
			authModule,
			mapsModule,
			propertiesModule,
			visitsModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// ensureBucket wraps the retry logic for verifying a MinIO bucket exists.
func ensureBucket(ctx context.Context, log *logger.Logger, storageSvc storage.StorageService, name, bucket string) {
	if err := withRetry(ctx, log, "ensure "+name+" bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error(storageBucketEnsureErrMsg, "error", err, "bucket", bucket)
		panic(storageBucketEnsureErrMsg + ": " + err.Error())
	}
}

func initMissedVisitScheduler(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; per-visit missed checks disabled, relying on the sweep")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize missed visit scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

// initAgentLocker returns nil for the postgres backend so the visits module
// falls back to advisory locks on its own pool.
func initAgentLocker(cfg config.LockConfig, log *logger.Logger) (visitservice.AgentLocker, func(), error) {
	switch cfg.GetAgentLockBackend() {
	case config.LockBackendLocal:
		log.Warn("agent lock is process local; run a single API instance")
		return lock.NewLocal(), nil, nil
	case config.LockBackendRedis:
		opt, err := redis.ParseURL(cfg.GetRedisURL())
		if err != nil {
			return nil, nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opt)
		log.Info("agent lock backed by redis", "addr", opt.Addr)
		return lock.NewRedis(client, log), func() { _ = client.Close() }, nil
	default:
		log.Info("agent lock backed by postgres advisory locks")
		return nil, nil, nil
	}
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
