// internal/domain/schedule/repository.go
package schedule

import (
	"context"
	"time"
)

// Repository reads reminder schedules and records that they fired.
type Repository interface {
	// ListDue returns active schedules whose notification_hour equals hour.
	ListDue(ctx context.Context, hour int) ([]*Schedule, error)
	// MarkSent sets last_sent_at unless the schedule was already marked on or after dayStart.
	// It reports whether a row was updated.
	MarkSent(ctx context.Context, id string, sentAt, dayStart time.Time) (bool, error)
}
