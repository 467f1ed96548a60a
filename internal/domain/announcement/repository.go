// internal/domain/announcement/repository.go
package announcement

import (
	"context"
	"time"
)

// Repository reads due announcements and performs guarded status transitions.
// Every transition method only touches the row while it is still in the expected prior
// status and reports whether it did.
type Repository interface {
	// ListDue returns scheduled announcements with scheduled_for at or before now.
	ListDue(ctx context.Context, now time.Time) ([]*Announcement, error)
	// Claim moves scheduled -> sending.
	Claim(ctx context.Context, id string) (bool, error)
	// MarkSent moves sending -> sent and stores sentAt and the counters.
	MarkSent(ctx context.Context, id string, sentAt time.Time, res Result) (bool, error)
	// RevertToDraft moves sending -> draft.
	RevertToDraft(ctx context.Context, id string) (bool, error)
}
