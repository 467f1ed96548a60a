// internal/domain/delivery/provider.go
package delivery

import "context"

// TokenSource exchanges provider credentials for a short-lived bearer token.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Sender performs one authenticated push to one endpoint. A nil error means the
// provider accepted the message.
type Sender interface {
	Send(ctx context.Context, accessToken string, msg Message) error
}
