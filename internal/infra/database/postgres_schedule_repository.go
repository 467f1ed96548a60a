// internal/infra/database/postgres_schedule_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"silah_dispatcher/internal/domain/schedule"

	"github.com/lib/pq"
)

type PostgresScheduleRepository struct {
	db *sql.DB
}

func NewPostgresScheduleRepository(db *sql.DB) *PostgresScheduleRepository {
	return &PostgresScheduleRepository{db: db}
}

func (r *PostgresScheduleRepository) ListDue(ctx context.Context, hour int) ([]*schedule.Schedule, error) {
	query := `SELECT s.id, s.user_id, s.relative_id, COALESCE(rel.full_name, ''), s.frequency,
                      s.days_of_week, s.interval_days, s.notification_hour, s.created_at, s.last_sent_at, s.is_active
               FROM notification_schedules s
               LEFT JOIN relatives rel ON rel.id = s.relative_id
               WHERE s.is_active = TRUE AND s.notification_hour = $1
               ORDER BY s.created_at`
	rows, err := r.db.QueryContext(ctx, query, hour)
	if err != nil {
		return nil, fmt.Errorf("error querying due schedules: %w", err)
	}
	defer rows.Close()

	schedules := make([]*schedule.Schedule, 0)
	for rows.Next() {
		var (
			s        schedule.Schedule
			days     pq.Int64Array
			interval sql.NullInt64
		)
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.RelativeID, &s.RelativeName, &s.Frequency,
			&days, &interval, &s.NotificationHour, &s.CreatedAt, &s.LastSentAt, &s.IsActive,
		); err != nil {
			return nil, fmt.Errorf("error scanning schedule row: %w", err)
		}
		s.DaysOfWeek = make([]int, len(days))
		for i, d := range days {
			s.DaysOfWeek[i] = int(d)
		}
		if interval.Valid {
			s.IntervalDays = int(interval.Int64)
		}
		schedules = append(schedules, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schedule rows: %w", err)
	}
	return schedules, nil
}

func (r *PostgresScheduleRepository) MarkSent(ctx context.Context, id string, sentAt, dayStart time.Time) (bool, error) {
	query := `UPDATE notification_schedules
               SET last_sent_at = $1
               WHERE id = $2 AND (last_sent_at IS NULL OR last_sent_at < $3)`
	res, err := r.db.ExecContext(ctx, query, sentAt, id, dayStart)
	if err != nil {
		return false, fmt.Errorf("error marking schedule %s sent: %w", id, err)
	}
	return affected(res)
}
