package schedule

import (
	"math"
	"time"
)

// DefaultReferenceZone is the fixed UTC+3 zone all day/hour arithmetic uses unless configured otherwise.
var DefaultReferenceZone = time.FixedZone("UTC+3", 3*60*60)

// ShouldFire reports whether s is due on the calendar day of now, evaluated in loc.
// Hour bucketing is the caller's job; this is the same-day eligibility check only.
//
// Monthly rules compare day-of-month with the anchor, so an anchor on the 31st never
// fires in shorter months.
func ShouldFire(s Schedule, now time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = DefaultReferenceZone
	}
	local := now.In(loc)

	switch s.Frequency {
	case FrequencyDaily:
		return true
	case FrequencyWeekly:
		wd := int(local.Weekday())
		for _, d := range s.DaysOfWeek {
			if d == wd {
				return true
			}
		}
		return false
	case FrequencyMonthly:
		return local.Day() == s.CreatedAt.In(loc).Day()
	case FrequencyCustom:
		if s.IntervalDays <= 0 {
			return false
		}
		if now.Before(s.CreatedAt) {
			return false
		}
		return ElapsedDays(s.CreatedAt, now)%s.IntervalDays == 0
	default:
		return false
	}
}

// SentToday reports whether the schedule already fired on now's calendar day in loc.
func SentToday(s Schedule, now time.Time, loc *time.Location) bool {
	if !s.LastSentAt.Valid {
		return false
	}
	return !s.LastSentAt.Time.Before(StartOfDay(now, loc))
}

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = DefaultReferenceZone
	}
	l := t.In(loc)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, loc)
}

// ElapsedDays is the number of whole 24-hour periods from anchor to now, rounded down.
// A schedule anchored at 20:00 reaches one elapsed day at 20:00 the next day, not at midnight.
func ElapsedDays(anchor, now time.Time) int {
	return int(math.Floor(float64(now.Sub(anchor)) / float64(24*time.Hour)))
}
