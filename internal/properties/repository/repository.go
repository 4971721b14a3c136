package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("property not found")
	// ErrInUse is returned when visits still reference the property.
	ErrInUse = errors.New("property is referenced by visits")
)

const pgForeignKeyViolation = "23503"

// Property is a row of the properties table.
type Property struct {
	ID         uuid.UUID
	Address    string
	ClientName *string
	Lat        *float64
	Lng        *float64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Store defines the property data operations the service depends on.
type Store interface {
	List(ctx context.Context) ([]Property, error)
	GetByID(ctx context.Context, id uuid.UUID) (Property, error)
	Create(ctx context.Context, p Property) (Property, error)
	Update(ctx context.Context, p Property) (Property, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const propertyColumns = `id, address, client_name, lat, lng, created_at, updated_at`

func scanProperty(row pgx.Row) (Property, error) {
	var p Property
	err := row.Scan(&p.ID, &p.Address, &p.ClientName, &p.Lat, &p.Lng, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *Repository) List(ctx context.Context) ([]Property, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+propertyColumns+` FROM properties ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()

	properties := make([]Property, 0)
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		properties = append(properties, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate properties: %w", err)
	}
	return properties, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Property, error) {
	p, err := scanProperty(r.pool.QueryRow(ctx, `SELECT `+propertyColumns+` FROM properties WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Property{}, ErrNotFound
	}
	if err != nil {
		return Property{}, fmt.Errorf("get property: %w", err)
	}
	return p, nil
}

func (r *Repository) Create(ctx context.Context, p Property) (Property, error) {
	created, err := scanProperty(r.pool.QueryRow(ctx, `
		INSERT INTO properties (id, address, client_name, lat, lng)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+propertyColumns,
		p.ID, p.Address, p.ClientName, p.Lat, p.Lng,
	))
	if err != nil {
		return Property{}, fmt.Errorf("insert property: %w", err)
	}
	return created, nil
}

func (r *Repository) Update(ctx context.Context, p Property) (Property, error) {
	updated, err := scanProperty(r.pool.QueryRow(ctx, `
		UPDATE properties
		SET address = $2, client_name = $3, lat = $4, lng = $5, updated_at = now()
		WHERE id = $1
		RETURNING `+propertyColumns,
		p.ID, p.Address, p.ClientName, p.Lat, p.Lng,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Property{}, ErrNotFound
	}
	if err != nil {
		return Property{}, fmt.Errorf("update property: %w", err)
	}
	return updated, nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM properties WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return ErrInUse
		}
		return fmt.Errorf("delete property: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Store = (*Repository)(nil)
