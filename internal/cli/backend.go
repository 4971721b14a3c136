package cli

import (
	"context"
	"fmt"
	"time"

	"fieldvisits_backend/internal/adapters"
	"fieldvisits_backend/internal/auth"
	authadapter "fieldvisits_backend/internal/auth/adapter"
	authrepo "fieldvisits_backend/internal/auth/repository"
	authservice "fieldvisits_backend/internal/auth/service"
	"fieldvisits_backend/internal/events"
	propertyrepo "fieldvisits_backend/internal/properties/repository"
	"fieldvisits_backend/internal/visits"
	visitservice "fieldvisits_backend/internal/visits/service"
	"fieldvisits_backend/platform/config"
	"fieldvisits_backend/platform/db"
	"fieldvisits_backend/platform/logger"
	"fieldvisits_backend/platform/validator"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
)

type dbBackend struct {
	cfg    *config.Config
	users  *authservice.Service
	visits *visitservice.Service
}

// OpenPostgres loads configuration from the environment and connects to the
// database. Events raised by maintenance commands are logged, not delivered.
func OpenPostgres(ctx context.Context) (Backend, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Env)

	pool, err := db.NewPool(ctx, cfg, db.PoolOptions{ApplicationName: "fieldctl", MaxConns: 4, MinConns: 1})
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}

	bus := events.NewInMemoryBus(log)
	users := authrepo.New(pool)
	usersSvc := authservice.New(users, cfg, log)
	visitsModule := visits.NewModule(visits.Deps{
		Pool:        pool,
		Validator:   validator.New(),
		Bus:         bus,
		Log:         log,
		Config:      cfg,
		Properties:  adapters.NewVisitsPropertyReader(propertyrepo.New(pool)),
		Agents:      authadapter.NewAgentDirectoryAdapter(users),
		Credentials: usersSvc,
	})

	backend := &dbBackend{cfg: cfg, users: usersSvc, visits: visitsModule.Service}
	return backend, func() {
		bus.Wait()
		pool.Close()
	}, nil
}

func (b *dbBackend) Migrate(ctx context.Context) error {
	return db.RunMigrations(ctx, b.cfg)
}

func (b *dbBackend) MigrationStatus(ctx context.Context) ([]MigrationRow, error) {
	statuses, err := db.MigrationStatus(ctx, b.cfg)
	if err != nil {
		return nil, err
	}
	rows := make([]MigrationRow, 0, len(statuses))
	for _, s := range statuses {
		row := MigrationRow{Applied: s.State == goose.StateApplied, AppliedAt: s.AppliedAt}
		if s.Source != nil {
			row.Version = s.Source.Version
			row.Path = s.Source.Path
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (b *dbBackend) CreateUser(ctx context.Context, in authservice.CreateUserInput) (auth.Profile, error) {
	return b.users.CreateUser(ctx, in)
}

func (b *dbBackend) ResetPassword(ctx context.Context, email, newPassword string) error {
	return b.users.ResetPassword(ctx, email, newPassword)
}

func (b *dbBackend) MarkMissedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	return b.visits.MarkMissedBefore(ctx, cutoff)
}

func (b *dbBackend) ClearAgentVisits(ctx context.Context, agentID uuid.UUID) (int64, error) {
	return b.visits.ClearAgentVisits(ctx, agentID)
}

var _ Backend = (*dbBackend)(nil)
