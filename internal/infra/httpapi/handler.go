// internal/infra/httpapi/handler.go
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"silah_dispatcher/internal/app"
	"silah_dispatcher/internal/domain/delivery"

	"github.com/sirupsen/logrus"
)

const maxPushBodyBytes = 1 << 20

// Jobs is the dispatch job surface the trigger routes call.
type Jobs interface {
	Reminders(ctx context.Context) (app.ReminderReport, error)
	Announcements(ctx context.Context) (app.AnnouncementReport, error)
	Streaks(ctx context.Context) (app.StreakReport, error)
}

// Pusher sends direct notifications.
type Pusher interface {
	Send(ctx context.Context, req app.PushRequest) (delivery.Tally, error)
}

type Handler struct {
	jobs       Jobs
	pusher     Pusher
	jobTimeout time.Duration
	logger     *logrus.Entry
}

func NewHandler(jobs Jobs, pusher Pusher, jobTimeout time.Duration, logger *logrus.Entry) *Handler {
	return &Handler{jobs: jobs, pusher: pusher, jobTimeout: jobTimeout, logger: logger}
}

type reminderResponse struct {
	Success bool   `json:"success"`
	Checked int    `json:"checked"`
	Sent    int    `json:"sent"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
	Message string `json:"message"`
}

type announcementResponse struct {
	Success     bool   `json:"success"`
	Processed   int    `json:"processed"`
	Reverted    int    `json:"reverted"`
	Unconfirmed int    `json:"unconfirmed"`
	Sent        int    `json:"sent"`
	Failed      int    `json:"failed"`
	Message     string `json:"message"`
}

type streakResponse struct {
	Success    bool   `json:"success"`
	Checked    int    `json:"checked"`
	AlertsSent int    `json:"alertsSent"`
	Skipped    int    `json:"skipped"`
	Message    string `json:"message"`
}

type pushRequest struct {
	UserID  string            `json:"user_id"`
	UserIDs []string          `json:"user_ids"`
	Title   string            `json:"title"`
	Body    string            `json:"body"`
	Type    string            `json:"type"`
	Data    map[string]string `json:"data"`
}

type pushResponse struct {
	Success bool   `json:"success"`
	Sent    int    `json:"sent"`
	Failed  int    `json:"failed"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) SendScheduledReminders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.jobContext(r)
	defer cancel()

	rep, err := h.jobs.Reminders(ctx)
	if err != nil {
		h.writeJobError(w, app.JobReminders, err)
		return
	}
	writeJSON(w, http.StatusOK, reminderResponse{
		Success: true,
		Checked: rep.Checked,
		Sent:    rep.Sent,
		Skipped: rep.Skipped,
		Failed:  rep.Failed,
		Message: fmt.Sprintf("Processed %d schedules", rep.Checked),
	})
}

func (h *Handler) SendScheduledAnnouncements(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.jobContext(r)
	defer cancel()

	rep, err := h.jobs.Announcements(ctx)
	if err != nil {
		h.writeJobError(w, app.JobAnnouncements, err)
		return
	}
	writeJSON(w, http.StatusOK, announcementResponse{
		Success:     true,
		Processed:   rep.Processed,
		Reverted:    rep.Reverted,
		Unconfirmed: rep.Unconfirmed,
		Sent:        rep.Sent,
		Failed:      rep.Failed,
		Message:     fmt.Sprintf("Processed %d announcements", rep.Processed),
	})
}

func (h *Handler) CheckStreakAlerts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.jobContext(r)
	defer cancel()

	rep, err := h.jobs.Streaks(ctx)
	if err != nil {
		h.writeJobError(w, app.JobStreaks, err)
		return
	}
	writeJSON(w, http.StatusOK, streakResponse{
		Success:    true,
		Checked:    rep.Checked,
		AlertsSent: rep.AlertsSent,
		Skipped:    rep.Skipped,
		Message:    fmt.Sprintf("Sent %d streak alerts", rep.AlertsSent),
	})
}

func (h *Handler) SendPushNotification(w http.ResponseWriter, r *http.Request) {
	var body pushRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPushBodyBytes))
	if err := dec.Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	ids := body.UserIDs
	if body.UserID != "" {
		ids = append(ids, body.UserID)
	}

	ctx, cancel := h.jobContext(r)
	defer cancel()

	tally, err := h.pusher.Send(ctx, app.PushRequest{
		UserIDs: ids,
		Title:   body.Title,
		Body:    body.Body,
		Type:    body.Type,
		Data:    body.Data,
	})
	if err != nil {
		if errors.Is(err, app.ErrInvalidPushRequest) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		h.logger.WithError(err).Error("Direct push failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, pushResponse{
		Success: true,
		Sent:    tally.Sent,
		Failed:  tally.Failed,
		Message: fmt.Sprintf("Dispatched to %d users", tally.Recipients),
	})
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jobContext detaches the run from the caller's connection so a dropped trigger
// request does not abort a half-finished pass.
func (h *Handler) jobContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(r.Context()), h.jobTimeout)
}

func (h *Handler) writeJobError(w http.ResponseWriter, job string, err error) {
	if errors.Is(err, app.ErrJobLocked) {
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		return
	}
	h.logger.WithError(err).WithField("job", job).Error("Triggered job failed")
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
