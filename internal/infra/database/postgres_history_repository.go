// internal/infra/database/postgres_history_repository.go
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"silah_dispatcher/internal/domain/delivery"
)

// PostgresHistoryRepository appends delivery records to 'notification_history'.
type PostgresHistoryRepository struct {
	db *sql.DB
}

func NewPostgresHistoryRepository(db *sql.DB) *PostgresHistoryRepository {
	return &PostgresHistoryRepository{db: db}
}

func (r *PostgresHistoryRepository) Append(ctx context.Context, rec *delivery.Record) error {
	data, err := json.Marshal(rec.Data)
	if err != nil {
		return fmt.Errorf("error encoding delivery record data: %w", err)
	}
	query := `INSERT INTO notification_history (id, user_id, notification_type, title, body, data, sent_at, status)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = r.db.ExecContext(ctx, query,
		rec.ID, rec.UserID, rec.NotificationType, rec.Title, rec.Body, string(data), rec.SentAt, rec.Status,
	)
	if err != nil {
		return fmt.Errorf("error inserting delivery record for user %s: %w", rec.UserID, err)
	}
	return nil
}
