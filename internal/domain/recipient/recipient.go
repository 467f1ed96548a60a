// internal/domain/recipient/recipient.go
package recipient

import (
	"context"
	"time"
)

// StreakState is a user's engagement counter. It is maintained elsewhere.
type StreakState struct {
	UserID        string
	CurrentStreak int
}

// Directory is the read-only recipient directory ('profiles').
// Result ordering is unspecified.
type Directory interface {
	ListAllIDs(ctx context.Context) ([]string, error)
	ListActiveSince(ctx context.Context, since time.Time) ([]string, error)
	ListPremiumIDs(ctx context.Context) ([]string, error)
	// ListActiveStreaks returns users whose current streak is above zero.
	ListActiveStreaks(ctx context.Context) ([]StreakState, error)
}

// ActivityLog answers whether a user interacted with a relative since a given instant.
type ActivityLog interface {
	HasActivitySince(ctx context.Context, userID string, since time.Time) (bool, error)
}
