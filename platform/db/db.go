// Package db provides database connection infrastructure.
// This is part of the platform layer and contains no business logic.
package db

import (
	"context"
	"fmt"
	"time"

	"fieldvisits_backend/platform/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolOptions tunes the connection pool. Zero values keep the defaults.
type PoolOptions struct {
	ApplicationName string
	MaxConns        int32
	MinConns        int32
}

// NewPool creates a connection pool whose sessions run in UTC so timestamps
// round-trip unchanged regardless of the server's TimeZone setting.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, opts ...PoolOptions) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	o := PoolOptions{ApplicationName: "fieldvisits", MaxConns: 25, MinConns: 2}
	if len(opts) > 0 {
		if opts[0].ApplicationName != "" {
			o.ApplicationName = opts[0].ApplicationName
		}
		if opts[0].MaxConns > 0 {
			o.MaxConns = opts[0].MaxConns
		}
		if opts[0].MinConns > 0 {
			o.MinConns = opts[0].MinConns
		}
	}

	poolConfig.MaxConns = o.MaxConns
	poolConfig.MinConns = o.MinConns
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute
	poolConfig.ConnConfig.RuntimeParams["application_name"] = o.ApplicationName
	poolConfig.ConnConfig.RuntimeParams["timezone"] = "UTC"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}
