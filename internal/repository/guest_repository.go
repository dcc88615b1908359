package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/doorlist/doorlist/internal/domain"
)

type GuestRepository interface {
	Create(ctx context.Context, g *domain.Guest) (*domain.Guest, error)
	GetByEventAndID(ctx context.Context, eventID, id uuid.UUID) (*domain.Guest, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID, limit, offset int) ([]domain.Guest, error)
	CountByEvent(ctx context.Context, eventID uuid.UUID) (int, error)
	CheckIn(ctx context.Context, eventID, id uuid.UUID, at time.Time) (*domain.Guest, error)
	Approve(ctx context.Context, eventID, id uuid.UUID) (*domain.Guest, error)
}

type guestRepository struct {
	pool *pgxpool.Pool
}

func NewGuestRepository(pool *pgxpool.Pool) GuestRepository {
	return &guestRepository{pool: pool}
}

const guestCols = `id, event_id, name, phone, email, qr_payload, source,
checked_in, checked_in_at, requires_approval, is_approved, created_at, updated_at`

func scanGuest(row pgx.Row) (*domain.Guest, error) {
	var g domain.Guest
	err := row.Scan(
		&g.ID, &g.EventID, &g.Name, &g.Phone, &g.Email, &g.QRPayload, &g.Source,
		&g.CheckedIn, &g.CheckedInAt, &g.RequiresApproval, &g.IsApproved,
		&g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *guestRepository) Create(ctx context.Context, g *domain.Guest) (*domain.Guest, error) {
	const q = `INSERT INTO guests (
		id, event_id, name, phone, email, qr_payload, source,
		checked_in, requires_approval, is_approved
	) VALUES ($1,$2,$3,$4,$5,$6,$7,false,$8,$9)
	RETURNING ` + guestCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanGuest(r.pool.QueryRow(ctx, q,
		g.ID, g.EventID, g.Name, g.Phone, g.Email, g.QRPayload, g.Source,
		g.RequiresApproval, g.IsApproved,
	))
}

func (r *guestRepository) GetByEventAndID(ctx context.Context, eventID, id uuid.UUID) (*domain.Guest, error) {
	const q = `SELECT ` + guestCols + ` FROM guests WHERE id=$1 AND event_id=$2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	g, err := scanGuest(r.pool.QueryRow(ctx, q, id, eventID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return g, err
}

func (r *guestRepository) ListByEvent(ctx context.Context, eventID uuid.UUID, limit, offset int) ([]domain.Guest, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	const q = `SELECT ` + guestCols + ` FROM guests WHERE event_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, eventID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var guests []domain.Guest
	for rows.Next() {
		g, err := scanGuest(rows)
		if err != nil {
			return nil, err
		}
		guests = append(guests, *g)
	}
	return guests, rows.Err()
}

func (r *guestRepository) CountByEvent(ctx context.Context, eventID uuid.UUID) (int, error) {
	const q = `SELECT count(*) FROM guests WHERE event_id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var n int
	err := r.pool.QueryRow(ctx, q, eventID).Scan(&n)
	return n, err
}

// CheckIn flips the checked-in flag with a conditional update so that two
// concurrent scans of the same pass race on the database row, not in the
// application. Returns nil when no not-yet-checked-in row matched; the
// caller re-reads to tell a repeat scan from a missing guest.
func (r *guestRepository) CheckIn(ctx context.Context, eventID, id uuid.UUID, at time.Time) (*domain.Guest, error) {
	const q = `UPDATE guests
		SET checked_in=true, checked_in_at=$3, updated_at=now()
		WHERE id=$1 AND event_id=$2 AND checked_in=false
		RETURNING ` + guestCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	g, err := scanGuest(r.pool.QueryRow(ctx, q, id, eventID, at))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return g, err
}

func (r *guestRepository) Approve(ctx context.Context, eventID, id uuid.UUID) (*domain.Guest, error) {
	const q = `UPDATE guests
		SET is_approved=true, updated_at=now()
		WHERE id=$1 AND event_id=$2
		RETURNING ` + guestCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	g, err := scanGuest(r.pool.QueryRow(ctx, q, id, eventID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return g, err
}
