// internal/infra/fcm/payload.go
package fcm

import (
	"strings"

	"silah_dispatcher/internal/domain/delivery"
)

type sendRequest struct {
	Message message `json:"message"`
}

type message struct {
	Token        string            `json:"token"`
	Notification *notification     `json:"notification,omitempty"`
	Data         map[string]string `json:"data,omitempty"`
	Android      *androidConfig    `json:"android,omitempty"`
	APNS         *apnsConfig       `json:"apns,omitempty"`
}

type notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type androidConfig struct {
	Priority     string               `json:"priority,omitempty"`
	Notification *androidNotification `json:"notification,omitempty"`
}

type androidNotification struct {
	Sound     string `json:"sound,omitempty"`
	ChannelID string `json:"channel_id,omitempty"`
}

type apnsConfig struct {
	Headers map[string]string `json:"headers,omitempty"`
	Payload apnsPayload       `json:"payload"`
}

type apnsPayload struct {
	Aps aps `json:"aps"`
}

type aps struct {
	Sound string `json:"sound,omitempty"`
	Badge int    `json:"badge,omitempty"`
}

// buildRequest maps a provider-agnostic message onto the v1 wire format. Only the block for
// the endpoint's platform is emitted.
func buildRequest(msg delivery.Message) sendRequest {
	m := message{
		Token:        msg.Token,
		Notification: &notification{Title: msg.Title, Body: msg.Body},
		Data:         msg.Data,
	}
	high := strings.EqualFold(msg.Hints.Priority, "high")

	switch msg.Platform {
	case "android":
		priority := "NORMAL"
		if high {
			priority = "HIGH"
		}
		m.Android = &androidConfig{
			Priority: priority,
			Notification: &androidNotification{
				Sound:     msg.Hints.Sound,
				ChannelID: msg.Hints.AndroidChannel,
			},
		}
	case "ios":
		apnsPriority := "5"
		if high {
			apnsPriority = "10"
		}
		m.APNS = &apnsConfig{
			Headers: map[string]string{"apns-priority": apnsPriority},
			Payload: apnsPayload{Aps: aps{Sound: msg.Hints.Sound, Badge: 1}},
		}
	}
	return sendRequest{Message: m}
}
