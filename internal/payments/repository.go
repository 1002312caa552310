package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// dbtx is the subset of pgxpool.Pool the repository uses, so tests can
// substitute pgxmock.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository persists payment intents, failed attempts and processed
// webhook events.
type PostgresRepository struct {
	db dbtx
}

// NewPostgresRepository creates a payments repository over a pgx pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("payments: nil pgx pool")
	}
	return &PostgresRepository{db: pool}
}

func newPostgresRepositoryWithDB(db dbtx) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// InsertIntent records a created payment intent.
func (r *PostgresRepository) InsertIntent(ctx context.Context, reference, intentID string, amountCents int64, currency, status string) error {
	const q = `
		INSERT INTO payments (reference_number, intent_id, amount_cents, currency, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		ON CONFLICT (intent_id) DO NOTHING`
	if _, err := r.db.Exec(ctx, q, reference, intentID, amountCents, currency, status); err != nil {
		return fmt.Errorf("payments: insert intent: %w", err)
	}
	return nil
}

// UpdateStatusByIntentID moves a payment record to a new provider status.
func (r *PostgresRepository) UpdateStatusByIntentID(ctx context.Context, intentID, status string) error {
	const q = `UPDATE payments SET status = $2, updated_at = now() WHERE intent_id = $1`
	if _, err := r.db.Exec(ctx, q, intentID, status); err != nil {
		return fmt.Errorf("payments: update intent status: %w", err)
	}
	return nil
}

// RecordFailedAttempt implements AttemptRecorder.
func (r *PostgresRepository) RecordFailedAttempt(ctx context.Context, attempt FailedAttempt) error {
	const q = `
		INSERT INTO failed_payment_attempts
			(reference_number, error_code, error_message, card_brand, card_last4, card_expiry, holder_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())`
	_, err := r.db.Exec(ctx, q,
		attempt.Reference, attempt.Code, attempt.Message,
		attempt.CardBrand, attempt.CardLast4, attempt.CardExpiry, attempt.HolderName)
	if err != nil {
		return fmt.Errorf("payments: record failed attempt: %w", err)
	}
	return nil
}

// ListFailedAttempts returns the most recent failed attempts for a reference.
func (r *PostgresRepository) ListFailedAttempts(ctx context.Context, reference string, limit int) ([]FailedAttempt, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
		SELECT reference_number, error_code, error_message, card_brand, card_last4, card_expiry, holder_name
		FROM failed_payment_attempts
		WHERE reference_number = $1
		ORDER BY created_at DESC
		LIMIT $2`
	rows, err := r.db.Query(ctx, q, reference, limit)
	if err != nil {
		return nil, fmt.Errorf("payments: list failed attempts: %w", err)
	}
	defer rows.Close()

	var attempts []FailedAttempt
	for rows.Next() {
		var a FailedAttempt
		if err := rows.Scan(&a.Reference, &a.Code, &a.Message, &a.CardBrand, &a.CardLast4, &a.CardExpiry, &a.HolderName); err != nil {
			return nil, fmt.Errorf("payments: scan failed attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// AlreadyProcessed reports whether a webhook event was already handled.
func (r *PostgresRepository) AlreadyProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM processed_events WHERE provider = $1 AND event_id = $2)`
	var exists bool
	if err := r.db.QueryRow(ctx, q, provider, eventID).Scan(&exists); err != nil {
		return false, fmt.Errorf("payments: processed lookup: %w", err)
	}
	return exists, nil
}

// MarkProcessed records a handled webhook event. Returns false when another
// delivery won the race.
func (r *PostgresRepository) MarkProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	const q = `
		INSERT INTO processed_events (provider, event_id, processed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (provider, event_id) DO NOTHING`
	tag, err := r.db.Exec(ctx, q, provider, eventID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("payments: mark processed: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
