// internal/app/jobs.go
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"silah_dispatcher/internal/infra/metrics"

	"github.com/sirupsen/logrus"
)

var ErrJobLocked = fmt.Errorf("job is already running")

// Job names shared by the scheduler, the HTTP surface and the ops chat.
const (
	JobReminders     = "send-scheduled-reminders"
	JobAnnouncements = "send-scheduled-announcements"
	JobStreaks       = "check-streak-alerts"
)

// Locker guards a job against overlapping invocations.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// RunReporter receives a one-line summary after every job run.
type RunReporter interface {
	ReportRun(ctx context.Context, job, summary string, runErr error)
}

// Jobs runs the dispatch jobs under a per-job lock and records run metrics.
type Jobs struct {
	reminders     *ReminderService
	announcements *AnnouncementService
	streaks       *StreakService
	locker        Locker
	lockTTL       time.Duration
	reporter      RunReporter
	logger        *logrus.Entry
}

func NewJobs(
	reminders *ReminderService,
	announcements *AnnouncementService,
	streaks *StreakService,
	locker Locker,
	lockTTL time.Duration,
	logger *logrus.Entry,
) *Jobs {
	return &Jobs{
		reminders:     reminders,
		announcements: announcements,
		streaks:       streaks,
		locker:        locker,
		lockTTL:       lockTTL,
		logger:        logger,
	}
}

// SetReporter installs the optional run reporter.
func (j *Jobs) SetReporter(r RunReporter) {
	j.reporter = r
}

func (j *Jobs) Reminders(ctx context.Context) (ReminderReport, error) {
	var rep ReminderReport
	err := j.guard(ctx, JobReminders, func(ctx context.Context) (string, error) {
		var err error
		rep, err = j.reminders.Run(ctx)
		return fmt.Sprintf("checked=%d sent=%d skipped=%d failed=%d", rep.Checked, rep.Sent, rep.Skipped, rep.Failed), err
	})
	return rep, err
}

func (j *Jobs) Announcements(ctx context.Context) (AnnouncementReport, error) {
	var rep AnnouncementReport
	err := j.guard(ctx, JobAnnouncements, func(ctx context.Context) (string, error) {
		var err error
		rep, err = j.announcements.Run(ctx)
		return fmt.Sprintf("processed=%d reverted=%d unconfirmed=%d sent=%d failed=%d",
			rep.Processed, rep.Reverted, rep.Unconfirmed, rep.Sent, rep.Failed), err
	})
	return rep, err
}

func (j *Jobs) Streaks(ctx context.Context) (StreakReport, error) {
	var rep StreakReport
	err := j.guard(ctx, JobStreaks, func(ctx context.Context) (string, error) {
		var err error
		rep, err = j.streaks.Run(ctx)
		return fmt.Sprintf("checked=%d alerts_sent=%d skipped=%d", rep.Checked, rep.AlertsSent, rep.Skipped), err
	})
	return rep, err
}

// Run dispatches by job name; it backs the cron and chat triggers.
func (j *Jobs) Run(ctx context.Context, job string) error {
	var err error
	switch job {
	case JobReminders:
		_, err = j.Reminders(ctx)
	case JobAnnouncements:
		_, err = j.Announcements(ctx)
	case JobStreaks:
		_, err = j.Streaks(ctx)
	default:
		err = fmt.Errorf("unknown job %q", job)
	}
	return err
}

func (j *Jobs) guard(ctx context.Context, job string, run func(context.Context) (string, error)) error {
	log := j.logger.WithField("job", job)
	lockKey := "job:" + job

	if j.locker != nil {
		acquired, err := j.locker.TryLock(ctx, lockKey, j.lockTTL)
		switch {
		case err != nil:
			// Stores guard every transition, so an unavailable lock only loses overlap protection.
			log.WithError(err).Warn("Job lock unavailable, running unguarded")
		case !acquired:
			log.Info("Job already running, skipping")
			metrics.JobRuns.WithLabelValues(job, metrics.ResultLocked).Inc()
			return ErrJobLocked
		default:
			defer func() {
				if err := j.locker.Unlock(context.Background(), lockKey); err != nil {
					log.WithError(err).Warn("Failed to release job lock")
				}
			}()
		}
	}

	start := time.Now()
	summary, err := run(ctx)
	metrics.JobDuration.WithLabelValues(job).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.JobRuns.WithLabelValues(job, metrics.ResultFailure).Inc()
		log.WithError(err).Error("Job failed")
	} else {
		metrics.JobRuns.WithLabelValues(job, metrics.ResultSuccess).Inc()
	}
	if j.reporter != nil && !errors.Is(err, context.Canceled) {
		j.reporter.ReportRun(ctx, job, summary, err)
	}
	return err
}
