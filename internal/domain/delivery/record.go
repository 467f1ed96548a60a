// internal/domain/delivery/record.go
package delivery

import (
	"context"
	"time"
)

// RecordStatus summarises a recipient's outcome for one batch.
type RecordStatus string

const (
	RecordSent   RecordStatus = "sent"
	RecordFailed RecordStatus = "failed"
)

// Record is an append-only audit row ('notification_history'), one per recipient per batch.
type Record struct {
	ID               string
	UserID           string
	NotificationType Type
	Title            string
	Body             string
	Data             map[string]string
	SentAt           time.Time
	Status           RecordStatus
}

// Sink appends audit records.
type Sink interface {
	Append(ctx context.Context, rec *Record) error
}
