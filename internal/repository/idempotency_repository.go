package repository

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IdempotencyRepository deduplicates public registrations replayed with
// the same Idempotency-Key header.
type IdempotencyRepository interface {
	// CheckOrCreate returns the guest recorded under the key, if any.
	// When guestID is non-zero it records the key for later replays.
	CheckOrCreate(ctx context.Context, key string, guestID uuid.UUID) (existingGuestID uuid.UUID, err error)
	CleanupExpired(ctx context.Context) (int64, error)
}

type idempotencyRepository struct {
	pool *pgxpool.Pool
}

func NewIdempotencyRepository(pool *pgxpool.Pool) IdempotencyRepository {
	return &idempotencyRepository{pool: pool}
}

func (r *idempotencyRepository) CheckOrCreate(ctx context.Context, key string, guestID uuid.UUID) (uuid.UUID, error) {
	// Hash the key for privacy and consistent length
	hasher := sha256.New()
	hasher.Write([]byte(key))
	keyHash := fmt.Sprintf("%x", hasher.Sum(nil))

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var existing uuid.UUID
	const checkQuery = `SELECT guest_id FROM guest_idempotency WHERE key_hash = $1`
	err := r.pool.QueryRow(ctx, checkQuery, keyHash).Scan(&existing)

	if err == nil {
		return existing, nil
	}

	if err != pgx.ErrNoRows {
		return uuid.Nil, err
	}

	if guestID != uuid.Nil {
		const insertQuery = `
			INSERT INTO guest_idempotency (key_hash, guest_id, expires_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (key_hash) DO NOTHING`

		expiresAt := time.Now().Add(24 * time.Hour)
		if _, err := r.pool.Exec(ctx, insertQuery, keyHash, guestID, expiresAt); err != nil {
			return uuid.Nil, err
		}
	}

	return uuid.Nil, nil
}

func (r *idempotencyRepository) CleanupExpired(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	const query = `DELETE FROM guest_idempotency WHERE expires_at < now()`
	result, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}
