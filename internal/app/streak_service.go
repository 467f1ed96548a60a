// internal/app/streak_service.go
package app

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"silah_dispatcher/internal/domain/delivery"
	"silah_dispatcher/internal/domain/recipient"
	"silah_dispatcher/internal/domain/schedule"

	"github.com/sirupsen/logrus"
)

// StreakReport is the result of one streak-risk pass.
type StreakReport struct {
	Checked    int
	AlertsSent int
	Skipped    int
}

// StreakService warns users whose streak will break because they have not interacted today.
type StreakService struct {
	directory  recipient.Directory
	activity   recipient.ActivityLog
	dispatcher *Dispatcher
	loc        *time.Location
	logger     *logrus.Entry
	now        func() time.Time
}

func NewStreakService(dir recipient.Directory, activity recipient.ActivityLog, d *Dispatcher, loc *time.Location, logger *logrus.Entry) *StreakService {
	if loc == nil {
		loc = schedule.DefaultReferenceZone
	}
	return &StreakService{
		directory:  dir,
		activity:   activity,
		dispatcher: d,
		loc:        loc,
		logger:     logger,
		now:        time.Now,
	}
}

// Run checks every user with a positive streak, one at a time. A failed activity check
// skips that user only.
func (s *StreakService) Run(ctx context.Context) (StreakReport, error) {
	var report StreakReport
	dayStart := schedule.StartOfDay(s.now(), s.loc)

	candidates, err := s.directory.ListActiveStreaks(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list active streaks: %w", err)
	}
	report.Checked = len(candidates)
	if len(candidates) == 0 {
		s.logger.Info("No users with an active streak.")
		return report, nil
	}

	var batch *Batch
	for _, c := range candidates {
		log := s.logger.WithFields(logrus.Fields{"user_id": c.UserID, "streak": c.CurrentStreak})

		if c.CurrentStreak <= 0 {
			report.Skipped++
			continue
		}
		active, err := s.activity.HasActivitySince(ctx, c.UserID, dayStart)
		if err != nil {
			log.WithError(err).Error("Failed to check today's activity")
			report.Skipped++
			continue
		}
		if active {
			report.Skipped++
			continue
		}

		if batch == nil {
			batch, err = s.dispatcher.Begin(ctx)
			if err != nil {
				return report, err
			}
		}
		out := batch.Send(ctx, c.UserID, streakNotification(c.CurrentStreak))
		if out.Sent > 0 {
			report.AlertsSent++
		} else {
			log.Warn("Streak alert reached no endpoint")
			report.Skipped++
		}
	}

	s.logger.WithFields(logrus.Fields{
		"checked":     report.Checked,
		"alerts_sent": report.AlertsSent,
		"skipped":     report.Skipped,
	}).Info("Streak check completed.")
	return report, nil
}

func streakNotification(streak int) delivery.Notification {
	return delivery.Notification{
		Type:  delivery.TypeStreakAlert,
		Title: "🔥 سلسلتك في خطر!",
		Body:  fmt.Sprintf("لديك سلسلة %d يوم من صلة الرحم. تواصل مع أحد أقاربك اليوم حتى لا تنقطع!", streak),
		Data:  map[string]string{"streak_count": strconv.Itoa(streak)},
	}
}
