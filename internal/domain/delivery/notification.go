// internal/domain/delivery/notification.go
package delivery

// Type names the kind of notification; it is sent as data["type"] and stored in the audit trail.
type Type string

const (
	TypeReminder     Type = "reminder"
	TypeAnnouncement Type = "announcement"
	TypeStreakAlert  Type = "streak_alert"
	TypeDirect       Type = "direct"
)

// Notification is the provider-agnostic content sent to every endpoint of a recipient.
type Notification struct {
	Type  Type
	Title string
	Body  string
	// Data holds type-specific keys such as relative_id or streak_count. "type" is added on send.
	Data map[string]string
}

// PlatformHints carry delivery hints that providers map onto their platform blocks.
type PlatformHints struct {
	Sound          string
	Priority       string // "high" or "normal"
	AndroidChannel string
}

// Message is one send attempt to one endpoint.
type Message struct {
	Token    string
	Platform string
	Title    string
	Body     string
	Data     map[string]string
	Hints    PlatformHints
}

// Outcome is the per-recipient result of a send.
type Outcome struct {
	Sent   int
	Failed int
}

// Tally aggregates outcomes across a recipient set.
type Tally struct {
	Recipients int
	Sent       int
	Failed     int
}

// Add folds an outcome into the tally.
func (t *Tally) Add(o Outcome) {
	t.Recipients++
	t.Sent += o.Sent
	t.Failed += o.Failed
}
