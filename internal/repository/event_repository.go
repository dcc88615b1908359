package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/doorlist/doorlist/internal/domain"
)

type EventRepository interface {
	Create(ctx context.Context, orgID uuid.UUID, req *domain.CreateEventRequest) (*domain.Event, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error)
	ListByOrg(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]domain.Event, error)
	ListActive(ctx context.Context, limit, offset int) ([]domain.Event, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.EventPatch) (*domain.Event, error)
	Archive(ctx context.Context, id uuid.UUID) (bool, error)
}

type eventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) EventRepository {
	return &eventRepository{pool: pool}
}

const eventCols = `id, organization_id, title, description, location,
starts_at, ends_at, active, type, flyer_url, settings, created_at, updated_at`

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var (
		e        domain.Event
		settings []byte
	)
	err := row.Scan(
		&e.ID, &e.OrganizationID, &e.Title, &e.Description, &e.Location,
		&e.StartsAt, &e.EndsAt, &e.Active, &e.Type, &e.FlyerURL, &settings,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(settings) > 0 {
		var s domain.EventSettings
		if err := json.Unmarshal(settings, &s); err != nil {
			return nil, err
		}
		e.Settings = &s
	}
	return &e, nil
}

func settingsJSON(s *domain.EventSettings) ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

func (r *eventRepository) Create(ctx context.Context, orgID uuid.UUID, req *domain.CreateEventRequest) (*domain.Event, error) {
	const q = `INSERT INTO events (
		id, organization_id, title, description, location,
		starts_at, ends_at, active, type, flyer_url, settings
	) VALUES ($1,$2,$3,$4,$5,$6,$7,true,$8,$9,$10)
	RETURNING ` + eventCols

	settings, err := settingsJSON(req.Settings)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanEvent(r.pool.QueryRow(ctx, q,
		uuid.New(), orgID, req.Title, req.Description, req.Location,
		req.StartsAt, req.EndsAt, req.Type, req.FlyerURL, settings,
	))
}

func (r *eventRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	const q = `SELECT ` + eventCols + ` FROM events WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	e, err := scanEvent(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return e, err
}

func (r *eventRepository) ListByOrg(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]domain.Event, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	const q = `SELECT ` + eventCols + ` FROM events WHERE organization_id=$1 ORDER BY starts_at DESC LIMIT $2 OFFSET $3`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, orgID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectEvents(rows)
}

func (r *eventRepository) ListActive(ctx context.Context, limit, offset int) ([]domain.Event, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	const q = `SELECT ` + eventCols + ` FROM events WHERE active=true AND starts_at > now() - interval '1 day'
		ORDER BY starts_at ASC LIMIT $1 OFFSET $2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectEvents(rows)
}

func collectEvents(rows pgx.Rows) ([]domain.Event, error) {
	var events []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (r *eventRepository) Update(ctx context.Context, id uuid.UUID, patch domain.EventPatch) (*domain.Event, error) {
	const q = `
		UPDATE events
		SET
			title       = COALESCE($2, title),
			description = COALESCE($3, description),
			location    = COALESCE($4, location),
			starts_at   = COALESCE($5, starts_at),
			ends_at     = COALESCE($6, ends_at),
			flyer_url   = COALESCE($7, flyer_url),
			settings    = COALESCE($8, settings),
			updated_at  = now()
		WHERE id=$1
		RETURNING ` + eventCols

	settings, err := settingsJSON(patch.Settings)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	e, err := scanEvent(r.pool.QueryRow(ctx, q,
		id, patch.Title, patch.Description, patch.Location,
		patch.StartsAt, patch.EndsAt, patch.FlyerURL, settings,
	))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return e, err
}

func (r *eventRepository) Archive(ctx context.Context, id uuid.UUID) (bool, error) {
	const q = `UPDATE events SET active=false, updated_at=now() WHERE id=$1 AND active=true`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}
