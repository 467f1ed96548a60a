// internal/infra/database/postgres_device_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"

	"silah_dispatcher/internal/domain/device"
)

type PostgresDeviceRepository struct {
	db *sql.DB
}

func NewPostgresDeviceRepository(db *sql.DB) *PostgresDeviceRepository {
	return &PostgresDeviceRepository{db: db}
}

func (r *PostgresDeviceRepository) ListActive(ctx context.Context, userID string) ([]device.Endpoint, error) {
	query := `SELECT user_id, token, platform, is_active
               FROM fcm_tokens
               WHERE user_id = $1 AND is_active = TRUE`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying endpoints for user %s: %w", userID, err)
	}
	defer rows.Close()

	endpoints := make([]device.Endpoint, 0)
	for rows.Next() {
		var ep device.Endpoint
		if err := rows.Scan(&ep.UserID, &ep.Token, &ep.Platform, &ep.IsActive); err != nil {
			return nil, fmt.Errorf("error scanning endpoint row: %w", err)
		}
		endpoints = append(endpoints, ep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating endpoint rows: %w", err)
	}
	return endpoints, nil
}
