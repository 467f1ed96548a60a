// internal/infra/database/postgres_profile_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"silah_dispatcher/internal/domain/recipient"
)

const premiumSubscriptionStatus = "premium"

// PostgresProfileRepository is the recipient directory and activity log over 'profiles'
// and 'interactions'.
type PostgresProfileRepository struct {
	db *sql.DB
}

func NewPostgresProfileRepository(db *sql.DB) *PostgresProfileRepository {
	return &PostgresProfileRepository{db: db}
}

func (r *PostgresProfileRepository) ListAllIDs(ctx context.Context) ([]string, error) {
	return r.queryIDs(ctx, `SELECT id FROM profiles`)
}

func (r *PostgresProfileRepository) ListActiveSince(ctx context.Context, since time.Time) ([]string, error) {
	return r.queryIDs(ctx, `SELECT id FROM profiles WHERE last_seen_at >= $1`, since)
}

func (r *PostgresProfileRepository) ListPremiumIDs(ctx context.Context) ([]string, error) {
	return r.queryIDs(ctx, `SELECT id FROM profiles WHERE subscription_status = $1`, premiumSubscriptionStatus)
}

func (r *PostgresProfileRepository) ListActiveStreaks(ctx context.Context) ([]recipient.StreakState, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, current_streak FROM profiles WHERE current_streak > 0`)
	if err != nil {
		return nil, fmt.Errorf("error querying active streaks: %w", err)
	}
	defer rows.Close()

	states := make([]recipient.StreakState, 0)
	for rows.Next() {
		var st recipient.StreakState
		if err := rows.Scan(&st.UserID, &st.CurrentStreak); err != nil {
			return nil, fmt.Errorf("error scanning streak row: %w", err)
		}
		states = append(states, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating streak rows: %w", err)
	}
	return states, nil
}

func (r *PostgresProfileRepository) HasActivitySince(ctx context.Context, userID string, since time.Time) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM interactions WHERE user_id = $1 AND created_at >= $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, since).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking activity for user %s: %w", userID, err)
	}
	return exists, nil
}

func (r *PostgresProfileRepository) queryIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying profile ids: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}
