// internal/infra/fcm/sender.go
package fcm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"silah_dispatcher/internal/domain/delivery"
)

const DefaultBaseURL = "https://fcm.googleapis.com"

// SendError is a non-2xx answer from the messages:send endpoint.
type SendError struct {
	StatusCode int
	Body       string
}

func (e *SendError) Error() string {
	return fmt.Sprintf("fcm send returned %d: %s", e.StatusCode, e.Body)
}

// Sender posts messages to the FCM HTTP v1 API.
type Sender struct {
	endpoint   string
	httpClient *http.Client
}

// NewSender targets baseURL (DefaultBaseURL in production) for projectID.
// Per-send deadlines come from the caller's context.
func NewSender(baseURL, projectID string, httpClient *http.Client) *Sender {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Sender{
		endpoint:   fmt.Sprintf("%s/v1/projects/%s/messages:send", strings.TrimRight(baseURL, "/"), projectID),
		httpClient: httpClient,
	}
}

func (s *Sender) Send(ctx context.Context, accessToken string, msg delivery.Message) error {
	body, err := json.Marshal(buildRequest(msg))
	if err != nil {
		return fmt.Errorf("failed to encode fcm message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build fcm request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fcm request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return &SendError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
