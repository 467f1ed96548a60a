package app

import (
	"context"
	"fmt"

	"silah_dispatcher/internal/domain/delivery"

	"github.com/sirupsen/logrus"
)

var ErrInvalidPushRequest = fmt.Errorf("invalid push request")

const maxDirectRecipients = 1000

// PushRequest is an on-demand push to explicit users.
type PushRequest struct {
	UserIDs []string
	Title   string
	Body    string
	Type    string
	Data    map[string]string
}

// PushService sends ad-hoc notifications through the shared dispatcher.
type PushService struct {
	dispatcher *Dispatcher
	logger     *logrus.Entry
}

func NewPushService(d *Dispatcher, logger *logrus.Entry) *PushService {
	return &PushService{dispatcher: d, logger: logger}
}

// Send validates req and dispatches it to every listed user.
func (s *PushService) Send(ctx context.Context, req PushRequest) (delivery.Tally, error) {
	ids := dedupe(req.UserIDs)
	if len(ids) == 0 {
		return delivery.Tally{}, fmt.Errorf("%w: at least one user id is required", ErrInvalidPushRequest)
	}
	if len(ids) > maxDirectRecipients {
		return delivery.Tally{}, fmt.Errorf("%w: at most %d user ids per request", ErrInvalidPushRequest, maxDirectRecipients)
	}
	if req.Title == "" || req.Body == "" {
		return delivery.Tally{}, fmt.Errorf("%w: title and body are required", ErrInvalidPushRequest)
	}

	nType := delivery.Type(req.Type)
	if nType == "" {
		nType = delivery.TypeDirect
	}
	data := make(map[string]string, len(req.Data))
	for k, v := range req.Data {
		if k == "type" {
			continue
		}
		data[k] = v
	}

	tally, err := s.dispatcher.Dispatch(ctx, ids, delivery.Notification{
		Type:  nType,
		Title: req.Title,
		Body:  req.Body,
		Data:  data,
	})
	if err != nil {
		return tally, err
	}
	s.logger.WithFields(logrus.Fields{
		"recipients": tally.Recipients,
		"sent":       tally.Sent,
		"failed":     tally.Failed,
	}).Info("Direct push completed.")
	return tally, nil
}
