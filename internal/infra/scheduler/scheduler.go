package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"silah_dispatcher/internal/app"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// JobRunner runs a dispatch job by name.
type JobRunner interface {
	Run(ctx context.Context, job string) error
}

// Specs maps each job to its cron expression.
type Specs struct {
	Reminders     string // e.g. "0 * * * *" (top of every hour)
	Announcements string // e.g. "*/15 * * * *"
	Streaks       string // e.g. "0 20 * * *" (once a day, evening)
}

type NotificationScheduler struct {
	cronEngine *cron.Cron
	runner     JobRunner
	specs      Specs
	jobTimeout time.Duration
	logger     *logrus.Entry
}

// NewNotificationScheduler evaluates every spec in loc, the reference timezone, so the hourly
// tick lines up with the notification_hour buckets.
func NewNotificationScheduler(runner JobRunner, specs Specs, loc *time.Location, jobTimeout time.Duration, logger *logrus.Entry) *NotificationScheduler {
	return &NotificationScheduler{
		cronEngine: cron.New(cron.WithLocation(loc)),
		runner:     runner,
		specs:      specs,
		jobTimeout: jobTimeout,
		logger:     logger,
	}
}

// Start registers the jobs and starts the cron engine.
func (s *NotificationScheduler) Start() error {
	s.logger.Info("Starting notification scheduler...")

	jobs := []struct {
		name string
		spec string
	}{
		{app.JobReminders, s.specs.Reminders},
		{app.JobAnnouncements, s.specs.Announcements},
		{app.JobStreaks, s.specs.Streaks},
	}
	for _, j := range jobs {
		name := j.name
		if _, err := s.cronEngine.AddFunc(j.spec, func() { s.execute(name) }); err != nil {
			return fmt.Errorf("could not add %s cron job: %w", name, err)
		}
		s.logger.WithFields(logrus.Fields{"job": name, "spec": j.spec}).Info("Cron job registered.")
	}

	s.cronEngine.Start()
	s.logger.Info("Notification scheduler started with jobs.")
	return nil
}

func (s *NotificationScheduler) execute(job string) {
	log := s.logger.WithField("job", job)
	log.Info("Cron job triggered.")

	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	if err := s.runner.Run(ctx, job); err != nil {
		if errors.Is(err, app.ErrJobLocked) {
			log.Info("Previous run still in progress, tick skipped.")
			return
		}
		log.WithError(err).Error("Cron job failed.")
	}
}

func (s *NotificationScheduler) Stop() {
	s.logger.Info("Stopping notification scheduler...")
	ctx := s.cronEngine.Stop() // waits for running jobs
	<-ctx.Done()
	s.logger.Info("Notification scheduler gracefully stopped.")
}
