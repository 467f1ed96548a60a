// internal/infra/database/postgres_announcement_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"silah_dispatcher/internal/domain/announcement"

	"github.com/lib/pq"
)

type PostgresAnnouncementRepository struct {
	db *sql.DB
}

func NewPostgresAnnouncementRepository(db *sql.DB) *PostgresAnnouncementRepository {
	return &PostgresAnnouncementRepository{db: db}
}

func (r *PostgresAnnouncementRepository) ListDue(ctx context.Context, now time.Time) ([]*announcement.Announcement, error) {
	query := `SELECT id, title, body, target_audience, custom_user_ids, scheduled_for, status, sent_at, created_at
               FROM announcements
               WHERE status = $1 AND scheduled_for IS NOT NULL AND scheduled_for <= $2
               ORDER BY scheduled_for ASC`
	rows, err := r.db.QueryContext(ctx, query, announcement.StatusScheduled, now)
	if err != nil {
		return nil, fmt.Errorf("error querying due announcements: %w", err)
	}
	defer rows.Close()

	list := make([]*announcement.Announcement, 0)
	for rows.Next() {
		var (
			a      announcement.Announcement
			custom pq.StringArray
		)
		if err := rows.Scan(
			&a.ID, &a.Title, &a.Body, &a.TargetRule, &custom,
			&a.ScheduledFor, &a.Status, &a.SentAt, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning announcement row: %w", err)
		}
		a.CustomRecipientIDs = []string(custom)
		list = append(list, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating announcement rows: %w", err)
	}
	return list, nil
}

func (r *PostgresAnnouncementRepository) Claim(ctx context.Context, id string) (bool, error) {
	return r.transition(ctx, id, announcement.StatusScheduled, announcement.StatusSending)
}

func (r *PostgresAnnouncementRepository) RevertToDraft(ctx context.Context, id string) (bool, error) {
	return r.transition(ctx, id, announcement.StatusSending, announcement.StatusDraft)
}

func (r *PostgresAnnouncementRepository) MarkSent(ctx context.Context, id string, sentAt time.Time, res announcement.Result) (bool, error) {
	query := `UPDATE announcements
               SET status = $1, sent_at = $2, recipients_count = $3, sent_count = $4, failed_count = $5, updated_at = NOW()
               WHERE id = $6 AND status = $7`
	result, err := r.db.ExecContext(ctx, query,
		announcement.StatusSent, sentAt, res.Recipients, res.Sent, res.Failed,
		id, announcement.StatusSending,
	)
	if err != nil {
		return false, fmt.Errorf("error marking announcement %s sent: %w", id, err)
	}
	return affected(result)
}

func (r *PostgresAnnouncementRepository) transition(ctx context.Context, id string, from, to announcement.Status) (bool, error) {
	query := `UPDATE announcements SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`
	res, err := r.db.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return false, fmt.Errorf("error moving announcement %s from %s to %s: %w", id, from, to, err)
	}
	return affected(res)
}
