// internal/domain/schedule/schedule.go
package schedule

import (
	"database/sql"
	"time"
)

// Frequency selects which recurrence rule a schedule follows.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyCustom  Frequency = "custom"
)

// Schedule is a per-relative reminder rule owned by a user.
// Corresponds to the 'notification_schedules' table joined with 'relatives'.
type Schedule struct {
	ID               string
	UserID           string
	RelativeID       string
	RelativeName     string
	Frequency        Frequency
	DaysOfWeek       []int     // 0=Sunday .. 6=Saturday, weekly only
	IntervalDays     int       // custom only
	NotificationHour int       // 0-23 in the reference timezone
	CreatedAt        time.Time // anchor for monthly and custom rules
	LastSentAt       sql.NullTime
	IsActive         bool
}
