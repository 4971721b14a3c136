package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fieldvisits_backend/internal/visits/domain"
	"fieldvisits_backend/internal/visits/geofence"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides database operations for visits
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new visits repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const visitColumns = `v.id, v.agent_id, v.property_id, v.scheduled_start, v.estimated_duration, v.type,
	v.notes, v.client_name, v.client_phone, v.status, v.actual_start, v.actual_end,
	v.check_in_lat, v.check_in_lng, v.check_out_lat, v.check_out_lng, v.outcome,
	v.created_by, v.created_at, v.updated_at`

const propertyColumns = `p.id, p.address, p.client_name, p.lat, p.lng`

// visitRow mirrors the visits table; nullable columns are pointers.
type visitRow struct {
	ID                uuid.UUID
	AgentID           uuid.UUID
	PropertyID        uuid.UUID
	ScheduledStart    time.Time
	EstimatedDuration int
	Type              string
	Notes             *string
	ClientName        *string
	ClientPhone       *string
	Status            string
	ActualStart       *time.Time
	ActualEnd         *time.Time
	CheckInLat        *float64
	CheckInLng        *float64
	CheckOutLat       *float64
	CheckOutLng       *float64
	Outcome           *string
	CreatedBy         *uuid.UUID
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type propertyRow struct {
	ID         uuid.UUID
	Address    string
	ClientName *string
	Lat        *float64
	Lng        *float64
}

func (r *visitRow) targets() []any {
	return []any{
		&r.ID, &r.AgentID, &r.PropertyID, &r.ScheduledStart, &r.EstimatedDuration, &r.Type,
		&r.Notes, &r.ClientName, &r.ClientPhone, &r.Status, &r.ActualStart, &r.ActualEnd,
		&r.CheckInLat, &r.CheckInLng, &r.CheckOutLat, &r.CheckOutLng, &r.Outcome,
		&r.CreatedBy, &r.CreatedAt, &r.UpdatedAt,
	}
}

func (p *propertyRow) targets() []any {
	return []any{&p.ID, &p.Address, &p.ClientName, &p.Lat, &p.Lng}
}

func (r visitRow) toDomain() domain.Visit {
	v := domain.Visit{
		ID:                r.ID,
		AgentID:           r.AgentID,
		PropertyID:        r.PropertyID,
		ScheduledStart:    r.ScheduledStart,
		EstimatedDuration: r.EstimatedDuration,
		Type:              domain.Type(r.Type),
		Notes:             r.Notes,
		ClientName:        r.ClientName,
		ClientPhone:       r.ClientPhone,
		Status:            domain.Status(r.Status),
		ActualStart:       r.ActualStart,
		ActualEnd:         r.ActualEnd,
		CheckIn:           coords(r.CheckInLat, r.CheckInLng),
		CheckOut:          coords(r.CheckOutLat, r.CheckOutLng),
		CreatedBy:         r.CreatedBy,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
	if r.Outcome != nil {
		o := domain.Outcome(*r.Outcome)
		v.Outcome = &o
	}
	return v
}

func (p propertyRow) toDomain() *domain.Property {
	return &domain.Property{
		ID:          p.ID,
		Address:     p.Address,
		ClientName:  p.ClientName,
		Coordinates: coords(p.Lat, p.Lng),
	}
}

func coords(lat, lng *float64) *geofence.Coordinates {
	if lat == nil || lng == nil {
		return nil
	}
	return &geofence.Coordinates{Lat: *lat, Lng: *lng}
}

func latLng(c *geofence.Coordinates) (lat, lng *float64) {
	if c == nil {
		return nil, nil
	}
	return &c.Lat, &c.Lng
}

func outcomeText(o *domain.Outcome) *string {
	if o == nil {
		return nil
	}
	s := string(*o)
	return &s
}

// Create inserts a new visit
func (r *Repository) Create(ctx context.Context, v *domain.Visit) error {
	query := `
		INSERT INTO visits (
			id, agent_id, property_id, scheduled_start, estimated_duration, type, notes,
			client_name, client_phone, status, created_by, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)`

	_, err := r.pool.Exec(ctx, query,
		v.ID, v.AgentID, v.PropertyID, v.ScheduledStart, v.EstimatedDuration, string(v.Type), v.Notes,
		v.ClientName, v.ClientPhone, string(v.Status), v.CreatedBy, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create visit: %w", err)
	}

	return nil
}

// GetByID retrieves a visit with its property
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Visit, error) {
	query := `SELECT ` + visitColumns + `, ` + propertyColumns + `
		FROM visits v JOIN properties p ON p.id = v.property_id
		WHERE v.id = $1`

	var (
		row  visitRow
		prop propertyRow
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(append(row.targets(), prop.targets()...)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.VisitNotFound()
		}
		return nil, fmt.Errorf("failed to get visit: %w", err)
	}

	v := row.toDomain()
	v.Property = prop.toDomain()
	return &v, nil
}

// UpdateLifecycle writes the lifecycle fields of v provided the stored status
// is still from. A lost race surfaces as invalid_state.
func (r *Repository) UpdateLifecycle(ctx context.Context, v *domain.Visit, from domain.Status) error {
	inLat, inLng := latLng(v.CheckIn)
	outLat, outLng := latLng(v.CheckOut)

	query := `
		UPDATE visits SET
			status = $3,
			actual_start = $4,
			actual_end = $5,
			check_in_lat = $6,
			check_in_lng = $7,
			check_out_lat = $8,
			check_out_lng = $9,
			outcome = $10,
			notes = $11,
			updated_at = $12
		WHERE id = $1 AND status = $2`

	result, err := r.pool.Exec(ctx, query,
		v.ID, string(from), string(v.Status), v.ActualStart, v.ActualEnd,
		inLat, inLng, outLat, outLng, outcomeText(v.Outcome), v.Notes, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update visit lifecycle: %w", err)
	}

	if result.RowsAffected() == 0 {
		var current string
		err := r.pool.QueryRow(ctx, `SELECT status FROM visits WHERE id = $1`, v.ID).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.VisitNotFound()
		}
		if err != nil {
			return fmt.Errorf("failed to reload visit status: %w", err)
		}
		return domain.InvalidState(domain.Status(current), "update")
	}

	return nil
}

// Delete removes a visit
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM visits WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete visit: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.VisitNotFound()
	}

	return nil
}

// ListForAgentBetween returns an agent's visits starting in [from, to), all statuses.
func (r *Repository) ListForAgentBetween(ctx context.Context, agentID uuid.UUID, from, to time.Time) ([]domain.Visit, error) {
	query := `SELECT ` + visitColumns + `
		FROM visits v
		WHERE v.agent_id = $1 AND v.scheduled_start >= $2 AND v.scheduled_start < $3
		ORDER BY v.scheduled_start ASC`

	rows, err := r.pool.Query(ctx, query, agentID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list agent visits: %w", err)
	}
	defer rows.Close()

	var items []domain.Visit
	for rows.Next() {
		var row visitRow
		if err := rows.Scan(row.targets()...); err != nil {
			return nil, fmt.Errorf("failed to scan visit: %w", err)
		}
		items = append(items, row.toDomain())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate visits: %w", err)
	}

	return items, nil
}

// List retrieves visits with their properties, filtered by params
func (r *Repository) List(ctx context.Context, params domain.ListParams) ([]domain.Visit, error) {
	baseQuery := `FROM visits v JOIN properties p ON p.id = v.property_id WHERE 1=1`
	args := []interface{}{}
	argIndex := 1

	addFilter(&baseQuery, &args, &argIndex, params.ID != nil, " AND v.id = $%d", derefUUID(params.ID))
	addFilter(&baseQuery, &args, &argIndex, params.AgentID != nil, " AND v.agent_id = $%d", derefUUID(params.AgentID))
	addFilter(&baseQuery, &args, &argIndex, params.From != nil, " AND v.scheduled_start >= $%d", derefTime(params.From))
	addFilter(&baseQuery, &args, &argIndex, params.To != nil, " AND v.scheduled_start < $%d", derefTime(params.To))
	addFilter(&baseQuery, &args, &argIndex, params.Outcome != nil, " AND v.outcome = $%d", derefOutcome(params.Outcome))
	addFilter(&baseQuery, &args, &argIndex, params.Status != nil, " AND v.status = $%d", derefStatus(params.Status))

	selectQuery := `SELECT ` + visitColumns + `, ` + propertyColumns + ` ` + baseQuery + ` ORDER BY v.scheduled_start ASC`

	rows, err := r.pool.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}
	defer rows.Close()

	items := []domain.Visit{}
	for rows.Next() {
		var (
			row  visitRow
			prop propertyRow
		)
		if err := rows.Scan(append(row.targets(), prop.targets()...)...); err != nil {
			return nil, fmt.Errorf("failed to scan visit: %w", err)
		}
		v := row.toDomain()
		v.Property = prop.toDomain()
		items = append(items, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate visits: %w", err)
	}

	return items, nil
}

// CountByProperty returns the number of visits referencing a property
func (r *Repository) CountByProperty(ctx context.Context, propertyID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM visits WHERE property_id = $1`, propertyID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count property visits: %w", err)
	}
	return count, nil
}

// ListPendingEndedBefore returns pending visits whose scheduled window closed before cutoff
func (r *Repository) ListPendingEndedBefore(ctx context.Context, cutoff time.Time) ([]domain.Visit, error) {
	query := `SELECT ` + visitColumns + `
		FROM visits v
		WHERE v.status = 'PENDING'
		AND v.scheduled_start + make_interval(mins => v.estimated_duration) < $1
		ORDER BY v.scheduled_start ASC`

	rows, err := r.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue visits: %w", err)
	}
	defer rows.Close()

	var items []domain.Visit
	for rows.Next() {
		var row visitRow
		if err := rows.Scan(row.targets()...); err != nil {
			return nil, fmt.Errorf("failed to scan visit: %w", err)
		}
		items = append(items, row.toDomain())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate visits: %w", err)
	}

	return items, nil
}

// DeleteByAgent removes every visit of an agent and returns how many were removed
func (r *Repository) DeleteByAgent(ctx context.Context, agentID uuid.UUID) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM visits WHERE agent_id = $1`, agentID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete agent visits: %w", err)
	}
	return result.RowsAffected(), nil
}

func addFilter(query *string, args *[]interface{}, argIndex *int, condition bool, clause string, value interface{}) {
	if !condition {
		return
	}
	*query += fmt.Sprintf(clause, *argIndex)
	*args = append(*args, value)
	*argIndex++
}

func derefUUID(id *uuid.UUID) interface{} {
	if id == nil {
		return nil
	}
	return *id
}

func derefTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

func derefOutcome(o *domain.Outcome) interface{} {
	if o == nil {
		return nil
	}
	return string(*o)
}

func derefStatus(s *domain.Status) interface{} {
	if s == nil {
		return nil
	}
	return string(*s)
}
