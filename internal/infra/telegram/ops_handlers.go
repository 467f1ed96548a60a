// internal/infra/telegram/ops_handlers.go
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"silah_dispatcher/internal/app"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// JobRunner runs a dispatch job by name.
type JobRunner interface {
	Run(ctx context.Context, job string) error
}

var opsCommands = map[string]string{
	"/run_reminders":     app.JobReminders,
	"/run_announcements": app.JobAnnouncements,
	"/run_streaks":       app.JobStreaks,
}

// RegisterOpsHandlers lets the admin chat trigger a job run. Any other sender is refused.
func RegisterOpsHandlers(ctx context.Context, b *telebot.Bot, runner JobRunner, adminTelegramID int64, jobTimeout time.Duration, baseLogger *logrus.Entry) {
	for command, job := range opsCommands {
		command, job := command, job
		b.Handle(command, func(c telebot.Context) error {
			handlerLogger := baseLogger.WithFields(logrus.Fields{
				"handler":   command,
				"sender_id": c.Sender().ID,
			})
			handlerLogger.Info("Command received")

			if c.Sender().ID != adminTelegramID {
				handlerLogger.Warn("Unauthorized access attempt")
				return c.Send("You are not allowed to run this command.")
			}

			runCtx, cancel := context.WithTimeout(ctx, jobTimeout)
			defer cancel()
			return c.Send(runCommand(runCtx, runner, job))
		})
	}

	b.Handle("/help", func(c telebot.Context) error {
		if c.Sender().ID != adminTelegramID {
			return c.Send("No commands are available to you.")
		}
		return c.Send(helpText())
	})
}

// runCommand executes job and returns the chat reply. The run summary itself is
// posted by the OpsReporter.
func runCommand(ctx context.Context, runner JobRunner, job string) string {
	err := runner.Run(ctx, job)
	switch {
	case err == nil:
		return fmt.Sprintf("%s finished.", job)
	case errors.Is(err, app.ErrJobLocked):
		return fmt.Sprintf("%s is already running.", job)
	default:
		return fmt.Sprintf("%s failed: %v", job, err)
	}
}

func helpText() string {
	var sb strings.Builder
	sb.WriteString("Available commands:\n\n")
	sb.WriteString("/run_reminders - send reminders due in the current hour\n")
	sb.WriteString("/run_announcements - send due scheduled announcements\n")
	sb.WriteString("/run_streaks - send streak-risk alerts now\n")
	sb.WriteString("/help - show this message")
	return sb.String()
}
