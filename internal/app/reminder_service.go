// internal/app/reminder_service.go
package app

import (
	"context"
	"fmt"
	"time"

	"silah_dispatcher/internal/domain/delivery"
	"silah_dispatcher/internal/domain/schedule"

	"github.com/sirupsen/logrus"
)

// ReminderReport is the result of one reminder pass.
type ReminderReport struct {
	Checked int
	Sent    int
	Skipped int
	Failed  int
}

// ReminderService fires per-relative reminder schedules for the current hour bucket.
type ReminderService struct {
	schedules  schedule.Repository
	dispatcher *Dispatcher
	loc        *time.Location
	logger     *logrus.Entry
	now        func() time.Time
}

func NewReminderService(repo schedule.Repository, d *Dispatcher, loc *time.Location, logger *logrus.Entry) *ReminderService {
	if loc == nil {
		loc = schedule.DefaultReferenceZone
	}
	return &ReminderService{
		schedules:  repo,
		dispatcher: d,
		loc:        loc,
		logger:     logger,
		now:        time.Now,
	}
}

// Run selects active schedules in the current hour bucket, sends the ones due today and
// marks them sent. A schedule whose send reached no endpoint stays unmarked and is retried
// in its next eligible window.
func (s *ReminderService) Run(ctx context.Context) (ReminderReport, error) {
	var report ReminderReport
	now := s.now().In(s.loc)
	dayStart := schedule.StartOfDay(now, s.loc)
	log := s.logger.WithField("hour", now.Hour())

	candidates, err := s.schedules.ListDue(ctx, now.Hour())
	if err != nil {
		return report, fmt.Errorf("failed to list due schedules: %w", err)
	}
	report.Checked = len(candidates)
	if len(candidates) == 0 {
		log.Info("No schedules in the current hour bucket.")
		return report, nil
	}
	log.Infof("Found %d schedule(s) in the current hour bucket.", len(candidates))

	var batch *Batch
	for _, sch := range candidates {
		itemLog := log.WithFields(logrus.Fields{"schedule_id": sch.ID, "user_id": sch.UserID})

		if !sch.IsActive || !schedule.ShouldFire(*sch, now, s.loc) {
			report.Skipped++
			continue
		}
		if schedule.SentToday(*sch, now, s.loc) {
			itemLog.Debug("Schedule already fired today, skipping")
			report.Skipped++
			continue
		}

		if batch == nil {
			batch, err = s.dispatcher.Begin(ctx)
			if err != nil {
				return report, err
			}
		}

		out := batch.Send(ctx, sch.UserID, reminderNotification(sch))
		report.Sent += out.Sent
		report.Failed += out.Failed
		if out.Sent == 0 {
			itemLog.Warn("Reminder reached no endpoint; leaving schedule unmarked")
			continue
		}

		updated, err := s.schedules.MarkSent(ctx, sch.ID, now, dayStart)
		if err != nil {
			itemLog.WithError(err).Error("Failed to update last_sent_at")
			continue
		}
		if !updated {
			itemLog.Warn("Schedule was already marked by another run")
		}
	}

	log.WithFields(logrus.Fields{
		"checked": report.Checked,
		"sent":    report.Sent,
		"skipped": report.Skipped,
		"failed":  report.Failed,
	}).Info("Reminder pass completed.")
	return report, nil
}

func reminderNotification(sch *schedule.Schedule) delivery.Notification {
	name := sch.RelativeName
	if name == "" {
		name = "أحد أقاربك"
	}
	return delivery.Notification{
		Type:  delivery.TypeReminder,
		Title: "تذكير بصلة الرحم 💚",
		Body:  fmt.Sprintf("حان وقت التواصل مع %s", name),
		Data: map[string]string{
			"relative_id": sch.RelativeID,
			"schedule_id": sch.ID,
		},
	}
}
