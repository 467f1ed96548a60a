// internal/infra/telegram/reporter.go
package telegram

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// OpsReporter posts a one-line summary of each job run to the admin chat.
type OpsReporter struct {
	client      MessageSender
	adminChatID int64
	logger      *logrus.Entry
}

func NewOpsReporter(client MessageSender, adminChatID int64, logger *logrus.Entry) *OpsReporter {
	return &OpsReporter{client: client, adminChatID: adminChatID, logger: logger}
}

func (r *OpsReporter) ReportRun(_ context.Context, job, summary string, runErr error) {
	if err := r.client.SendMessage(r.adminChatID, formatRun(job, summary, runErr)); err != nil {
		r.logger.WithError(err).WithField("job", job).Warn("Failed to post run summary to admin chat")
	}
}

func formatRun(job, summary string, runErr error) string {
	if runErr != nil {
		return fmt.Sprintf("❌ %s failed: %v (%s)", job, runErr, summary)
	}
	return fmt.Sprintf("✅ %s: %s", job, summary)
}
