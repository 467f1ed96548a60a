// internal/domain/device/endpoint.go
package device

import "context"

// Platform of a registered device.
type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
)

// Endpoint is one registered push token. A user may own several.
type Endpoint struct {
	UserID   string
	Token    string
	Platform Platform
	IsActive bool
}

// Directory looks up delivery endpoints ('fcm_tokens').
type Directory interface {
	// ListActive returns the active endpoints for userID; an unknown user yields none.
	ListActive(ctx context.Context, userID string) ([]Endpoint, error)
}
