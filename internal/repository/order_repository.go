package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/doorlist/doorlist/internal/domain"
)

type OrderRepository interface {
	Create(ctx context.Context, o *domain.TicketOrder) (*domain.TicketOrder, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.TicketOrder, error)
	GetByIntentID(ctx context.Context, intentID string) (*domain.TicketOrder, error)
	MarkPaid(ctx context.Context, id, guestID uuid.UUID) (*domain.TicketOrder, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID, limit, offset int) ([]domain.TicketOrder, error)
}

type orderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &orderRepository{pool: pool}
}

const orderCols = `id, event_id, buyer_name, buyer_email, buyer_phone, quantity,
amount_cents, currency, status, stripe_intent_id, guest_id, created_at, updated_at`

func scanOrder(row pgx.Row) (*domain.TicketOrder, error) {
	var o domain.TicketOrder
	err := row.Scan(
		&o.ID, &o.EventID, &o.BuyerName, &o.BuyerEmail, &o.BuyerPhone, &o.Quantity,
		&o.AmountCents, &o.Currency, &o.Status, &o.StripeIntentID, &o.GuestID,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) Create(ctx context.Context, o *domain.TicketOrder) (*domain.TicketOrder, error) {
	const q = `INSERT INTO ticket_orders (
		id, event_id, buyer_name, buyer_email, buyer_phone, quantity,
		amount_cents, currency, status, stripe_intent_id
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,'pending',$9)
	RETURNING ` + orderCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanOrder(r.pool.QueryRow(ctx, q,
		o.ID, o.EventID, o.BuyerName, o.BuyerEmail, o.BuyerPhone, o.Quantity,
		o.AmountCents, o.Currency, o.StripeIntentID,
	))
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.TicketOrder, error) {
	const q = `SELECT ` + orderCols + ` FROM ticket_orders WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	o, err := scanOrder(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return o, err
}

func (r *orderRepository) GetByIntentID(ctx context.Context, intentID string) (*domain.TicketOrder, error) {
	const q = `SELECT ` + orderCols + ` FROM ticket_orders WHERE stripe_intent_id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	o, err := scanOrder(r.pool.QueryRow(ctx, q, intentID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return o, err
}

// MarkPaid settles a pending order; repeated webhook deliveries find no
// pending row and return nil.
func (r *orderRepository) MarkPaid(ctx context.Context, id, guestID uuid.UUID) (*domain.TicketOrder, error) {
	const q = `UPDATE ticket_orders
		SET status='paid', guest_id=$2, updated_at=now()
		WHERE id=$1 AND status='pending'
		RETURNING ` + orderCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	o, err := scanOrder(r.pool.QueryRow(ctx, q, id, guestID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return o, err
}

func (r *orderRepository) ListByEvent(ctx context.Context, eventID uuid.UUID, limit, offset int) ([]domain.TicketOrder, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	const q = `SELECT ` + orderCols + ` FROM ticket_orders WHERE event_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, eventID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.TicketOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}
