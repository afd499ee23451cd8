package notification

import (
	"time"

	"github.com/lucasb-eyer/go-colorful"
)

// Notification is an immutable on-screen message.
// A newer Notification from the same source supersedes it; it is never mutated.
type Notification struct {
	// Header is the large headline text.
	Header string
	// Text is the optional body; empty means the display shows the header only.
	Text string
	// Lifespan is how long the notification stays eligible. Zero never expires.
	Lifespan time.Duration
	// Color is the background colour of the display.
	Color colorful.Color
	// Priority ranks notifications from different sources.
	Priority int
	// CreatedAt is when the notification was built.
	CreatedAt time.Time
}

// New builds a notification stamped with the current time.
func New(header, text string, lifespan time.Duration, color colorful.Color, priority int) *Notification {
	return &Notification{
		Header:    header,
		Text:      text,
		Lifespan:  lifespan,
		Color:     color,
		Priority:  priority,
		CreatedAt: time.Now(),
	}
}

// HasText reports whether the notification carries a body.
func (n *Notification) HasText() bool {
	return n.Text != ""
}

// Expired reports whether the lifespan has run out at now.
// The notification is gone from the instant CreatedAt+Lifespan is reached.
func (n *Notification) Expired(now time.Time) bool {
	return n.Lifespan != 0 && now.Sub(n.CreatedAt) >= n.Lifespan
}

// Clone returns a copy so callers cannot alter a stored notification.
func (n *Notification) Clone() *Notification {
	if n == nil {
		return nil
	}

	cloned := *n

	return &cloned
}
