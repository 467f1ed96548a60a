package fcm

import (
	"encoding/json"
	"testing"

	"silah_dispatcher/internal/domain/delivery"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMessage(platform string) delivery.Message {
	return delivery.Message{
		Token:    "device-token",
		Platform: platform,
		Title:    "تذكير",
		Body:     "حان وقت التواصل",
		Data:     map[string]string{"type": "reminder", "schedule_id": "s-1"},
		Hints:    delivery.PlatformHints{Sound: "default", Priority: "high", AndroidChannel: "silah_reminders"},
	}
}

func TestBuildRequest_Android(t *testing.T) {
	req := buildRequest(testMessage("android"))

	m := req.Message
	assert.Equal(t, "device-token", m.Token)
	require.NotNil(t, m.Notification)
	assert.Equal(t, "تذكير", m.Notification.Title)
	require.NotNil(t, m.Android)
	assert.Equal(t, "HIGH", m.Android.Priority)
	assert.Equal(t, "silah_reminders", m.Android.Notification.ChannelID)
	assert.Equal(t, "default", m.Android.Notification.Sound)
	assert.Nil(t, m.APNS)
}

func TestBuildRequest_IOS(t *testing.T) {
	req := buildRequest(testMessage("ios"))

	require.NotNil(t, req.Message.APNS)
	assert.Nil(t, req.Message.Android)
	assert.Equal(t, "10", req.Message.APNS.Headers["apns-priority"])
	assert.Equal(t, "default", req.Message.APNS.Payload.Aps.Sound)
	assert.Equal(t, 1, req.Message.APNS.Payload.Aps.Badge)
}

func TestBuildRequest_NormalPriority(t *testing.T) {
	msg := testMessage("android")
	msg.Hints.Priority = ""
	assert.Equal(t, "NORMAL", buildRequest(msg).Message.Android.Priority)

	msg.Platform = "ios"
	assert.Equal(t, "5", buildRequest(msg).Message.APNS.Headers["apns-priority"])
}

func TestBuildRequest_WireShape(t *testing.T) {
	raw, err := json.Marshal(buildRequest(testMessage("android")))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"message": {
			"token": "device-token",
			"notification": {"title": "تذكير", "body": "حان وقت التواصل"},
			"data": {"type": "reminder", "schedule_id": "s-1"},
			"android": {"priority": "HIGH", "notification": {"sound": "default", "channel_id": "silah_reminders"}}
		}
	}`, string(raw))
}
