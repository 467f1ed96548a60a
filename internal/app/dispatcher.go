// internal/app/dispatcher.go
package app

import (
	"context"
	"fmt"
	"time"

	"silah_dispatcher/internal/domain/delivery"
	"silah_dispatcher/internal/domain/device"
	"silah_dispatcher/internal/infra/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	defaultSound       = "default"
	priorityHigh       = "high"
	defaultSendTimeout = 5 * time.Second
)

// DispatcherConfig tunes the fan-out.
type DispatcherConfig struct {
	AndroidChannel string
	// SendInterval is the minimum spacing between consecutive recipient sends. Zero disables pacing.
	SendInterval time.Duration
	SendTimeout  time.Duration
}

// Dispatcher fans a notification out to every active endpoint of each recipient.
type Dispatcher struct {
	devices        device.Directory
	tokens         delivery.TokenSource
	sender         delivery.Sender
	audit          delivery.Sink
	limiter        *rate.Limiter
	sendTimeout    time.Duration
	androidChannel string
	logger         *logrus.Entry
	now            func() time.Time
}

func NewDispatcher(
	devices device.Directory,
	tokens delivery.TokenSource,
	sender delivery.Sender,
	audit delivery.Sink,
	cfg DispatcherConfig,
	logger *logrus.Entry,
) *Dispatcher {
	limit := rate.Inf
	if cfg.SendInterval > 0 {
		limit = rate.Every(cfg.SendInterval)
	}
	timeout := cfg.SendTimeout
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &Dispatcher{
		devices:        devices,
		tokens:         tokens,
		sender:         sender,
		audit:          audit,
		limiter:        rate.NewLimiter(limit, 1),
		sendTimeout:    timeout,
		androidChannel: cfg.AndroidChannel,
		logger:         logger,
		now:            time.Now,
	}
}

// Batch is one authenticated dispatch pass. The bearer token is obtained once in Begin
// and reused for every send in the batch.
type Batch struct {
	d           *Dispatcher
	accessToken string
}

// Begin authenticates against the push provider and opens a batch.
func (d *Dispatcher) Begin(ctx context.Context) (*Batch, error) {
	token, err := d.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate with push provider: %w", err)
	}
	return &Batch{d: d, accessToken: token}, nil
}

// Dispatch sends n to every recipient in a single batch and aggregates the outcomes.
// Per-recipient and per-endpoint failures are counted, not returned.
func (d *Dispatcher) Dispatch(ctx context.Context, recipientIDs []string, n delivery.Notification) (delivery.Tally, error) {
	var tally delivery.Tally
	if len(recipientIDs) == 0 {
		return tally, nil
	}
	batch, err := d.Begin(ctx)
	if err != nil {
		return tally, err
	}
	for _, id := range recipientIDs {
		if err := ctx.Err(); err != nil {
			return tally, fmt.Errorf("dispatch interrupted after %d recipients: %w", tally.Recipients, err)
		}
		tally.Add(batch.Send(ctx, id, n))
	}
	return tally, nil
}

// Send delivers n to every active endpoint of recipientID and appends one audit record.
// A recipient without endpoints, or whose lookup fails, yields a zero outcome.
func (b *Batch) Send(ctx context.Context, recipientID string, n delivery.Notification) delivery.Outcome {
	d := b.d
	log := d.logger.WithFields(logrus.Fields{
		"user_id":           recipientID,
		"notification_type": n.Type,
	})

	if err := d.limiter.Wait(ctx); err != nil {
		log.WithError(err).Warn("Send pacing interrupted")
		return delivery.Outcome{}
	}

	endpoints, err := d.devices.ListActive(ctx, recipientID)
	if err != nil {
		log.WithError(err).Error("Failed to list delivery endpoints")
		metrics.RecipientsSkipped.WithLabelValues("lookup_error").Inc()
		return delivery.Outcome{}
	}
	if len(endpoints) == 0 {
		log.Debug("No active delivery endpoints, skipping recipient")
		metrics.RecipientsSkipped.WithLabelValues("no_endpoints").Inc()
		return delivery.Outcome{}
	}

	data := payloadData(n)
	var out delivery.Outcome
	for _, ep := range endpoints {
		if !ep.IsActive || ep.Token == "" {
			continue
		}
		msg := buildMessage(ep, n, data, d.androidChannel)

		sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
		err := d.sender.Send(sendCtx, b.accessToken, msg)
		cancel()

		if err != nil {
			out.Failed++
			metrics.PushAttempts.WithLabelValues(string(n.Type), metrics.ResultFailure).Inc()
			log.WithError(err).WithField("platform", ep.Platform).Warn("Push send failed")
			continue
		}
		out.Sent++
		metrics.PushAttempts.WithLabelValues(string(n.Type), metrics.ResultSuccess).Inc()
	}

	status := delivery.RecordFailed
	if out.Sent > 0 {
		status = delivery.RecordSent
	}
	rec := &delivery.Record{
		ID:               uuid.NewString(),
		UserID:           recipientID,
		NotificationType: n.Type,
		Title:            n.Title,
		Body:             n.Body,
		Data:             data,
		SentAt:           d.now(),
		Status:           status,
	}
	if err := d.audit.Append(ctx, rec); err != nil {
		log.WithError(err).Error("Failed to append delivery record")
	}

	log.WithFields(logrus.Fields{"sent": out.Sent, "failed": out.Failed}).Debug("Recipient dispatched")
	return out
}

// payloadData copies the type-specific keys and stamps the notification type.
func payloadData(n delivery.Notification) map[string]string {
	data := make(map[string]string, len(n.Data)+1)
	for k, v := range n.Data {
		data[k] = v
	}
	data["type"] = string(n.Type)
	return data
}

func buildMessage(ep device.Endpoint, n delivery.Notification, data map[string]string, channel string) delivery.Message {
	hints := delivery.PlatformHints{
		Sound:    defaultSound,
		Priority: priorityHigh,
	}
	if ep.Platform == device.PlatformAndroid {
		hints.AndroidChannel = channel
	}
	return delivery.Message{
		Token:    ep.Token,
		Platform: string(ep.Platform),
		Title:    n.Title,
		Body:     n.Body,
		Data:     data,
		Hints:    hints,
	}
}
