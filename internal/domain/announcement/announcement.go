// internal/domain/announcement/announcement.go
package announcement

import (
	"database/sql"
	"time"
)

// TargetRule selects who receives a broadcast.
type TargetRule string

const (
	TargetAll     TargetRule = "all"
	TargetActive  TargetRule = "active"  // seen within the trailing activity window
	TargetPremium TargetRule = "premium" // active subscription entitlement
	TargetCustom  TargetRule = "custom"  // explicit CustomRecipientIDs
)

// Status is the lifecycle state of an announcement.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusScheduled Status = "scheduled"
	StatusSending   Status = "sending"
	StatusSent      Status = "sent"
	StatusFailed    Status = "failed"
)

// Announcement is an admin-authored broadcast notification.
// Corresponds to the 'announcements' table.
type Announcement struct {
	ID                 string
	Title              string
	Body               string
	TargetRule         TargetRule
	CustomRecipientIDs []string
	ScheduledFor       sql.NullTime
	Status             Status
	SentAt             sql.NullTime
	CreatedAt          time.Time
}

// Result carries the counters persisted when an announcement is marked sent.
type Result struct {
	Recipients int
	Sent       int
	Failed     int
}
