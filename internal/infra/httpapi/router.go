// internal/infra/httpapi/router.go
package httpapi

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter mounts the trigger routes under /functions/v1. When cronSecret is non-empty the
// routes require "Authorization: Bearer <cronSecret>".
func NewRouter(h *Handler, cronSecret string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/functions/v1", func(r chi.Router) {
		r.Use(requireSecret(cronSecret))
		r.Post("/send-scheduled-reminders", h.SendScheduledReminders)
		r.Post("/send-scheduled-announcements", h.SendScheduledAnnouncements)
		r.Post("/check-streak-alerts", h.CheckStreakAlerts)
		r.Post("/send-push-notification", h.SendPushNotification)
	})
	return r
}

func requireSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
