// internal/app/announcement_service.go
package app

import (
	"context"
	"fmt"
	"time"

	"silah_dispatcher/internal/domain/announcement"
	"silah_dispatcher/internal/domain/delivery"

	"github.com/sirupsen/logrus"
)

// stateWriteTimeout bounds each post-dispatch status write. These writes are detached from
// the job context and still run after it expires.
const stateWriteTimeout = 10 * time.Second

// AnnouncementReport is the result of one announcement pass. Sent and Failed count only
// announcements that reached "sent"; Unconfirmed counts the ones that were dispatched but
// could not be marked.
type AnnouncementReport struct {
	Processed   int
	Reverted    int
	Unconfirmed int
	Sent        int
	Failed      int
}

// AnnouncementService delivers scheduled broadcasts whose time has come.
type AnnouncementService struct {
	announcements announcement.Repository
	resolver      *Resolver
	dispatcher    *Dispatcher
	logger        *logrus.Entry
	now           func() time.Time
}

func NewAnnouncementService(repo announcement.Repository, r *Resolver, d *Dispatcher, logger *logrus.Entry) *AnnouncementService {
	return &AnnouncementService{
		announcements: repo,
		resolver:      r,
		dispatcher:    d,
		logger:        logger,
		now:           time.Now,
	}
}

// Run claims each due announcement, dispatches it and marks it sent. An announcement whose
// resolution or dispatch fails is reverted to draft so it is never left in "sending".
func (s *AnnouncementService) Run(ctx context.Context) (AnnouncementReport, error) {
	var report AnnouncementReport
	now := s.now()

	due, err := s.announcements.ListDue(ctx, now)
	if err != nil {
		return report, fmt.Errorf("failed to list due announcements: %w", err)
	}
	if len(due) == 0 {
		s.logger.Info("No scheduled announcements are due.")
		return report, nil
	}
	s.logger.Infof("Found %d due announcement(s).", len(due))

	for _, a := range due {
		log := s.logger.WithField("announcement_id", a.ID)

		claimed, err := s.announcements.Claim(ctx, a.ID)
		if err != nil {
			log.WithError(err).Error("Failed to claim announcement")
			continue
		}
		if !claimed {
			log.Info("Announcement no longer scheduled (claimed elsewhere), skipping")
			continue
		}

		res, err := s.deliver(ctx, a, now)
		if err != nil {
			log.WithError(err).Error("Announcement processing failed, reverting to draft")
			report.Reverted++
			s.revert(ctx, a.ID, log)
			continue
		}

		marked, err := s.markSent(ctx, a.ID, res)
		switch {
		case err != nil:
			log.WithError(err).Error("Failed to mark announcement sent, reverting to draft")
			report.Unconfirmed++
			s.revert(ctx, a.ID, log)
		case !marked:
			log.Warn("Announcement left 'sending' before it could be marked sent")
			report.Unconfirmed++
		default:
			report.Processed++
			report.Sent += res.Sent
			report.Failed += res.Failed
			log.WithFields(logrus.Fields{
				"recipients": res.Recipients,
				"sent":       res.Sent,
				"failed":     res.Failed,
			}).Info("Announcement sent.")
		}
	}
	return report, nil
}

func (s *AnnouncementService) markSent(ctx context.Context, id string, res announcement.Result) (bool, error) {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stateWriteTimeout)
	defer cancel()
	return s.announcements.MarkSent(wctx, id, s.now(), res)
}

func (s *AnnouncementService) revert(ctx context.Context, id string, log *logrus.Entry) {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stateWriteTimeout)
	defer cancel()
	reverted, err := s.announcements.RevertToDraft(wctx, id)
	if err != nil {
		log.WithError(err).Error("Failed to revert announcement to draft")
		return
	}
	if !reverted {
		log.Warn("Announcement was no longer 'sending' when reverting")
	}
}

func (s *AnnouncementService) deliver(ctx context.Context, a *announcement.Announcement, now time.Time) (announcement.Result, error) {
	ids, err := s.resolver.Resolve(ctx, a.TargetRule, a.CustomRecipientIDs, now)
	if err != nil {
		return announcement.Result{}, err
	}
	if len(ids) == 0 {
		s.logger.WithField("announcement_id", a.ID).Info("Announcement resolved to no recipients")
		return announcement.Result{}, nil
	}

	tally, err := s.dispatcher.Dispatch(ctx, ids, delivery.Notification{
		Type:  delivery.TypeAnnouncement,
		Title: a.Title,
		Body:  a.Body,
		Data:  map[string]string{"announcement_id": a.ID},
	})
	if err != nil {
		return announcement.Result{}, err
	}
	return announcement.Result{Recipients: len(ids), Sent: tally.Sent, Failed: tally.Failed}, nil
}
