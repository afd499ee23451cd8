package notify

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/oshokin/build-tv/internal/domain/notification"
	"github.com/oshokin/build-tv/internal/logger"
)

// Display renders notifications on screen.
type Display interface {
	Show(ctx context.Context, n *notification.Notification) error
	Hide(ctx context.Context) error
}

// Registry stores the latest notification per source key and drives the display.
type Registry struct {
	// display receives show and hide requests.
	display Display
	// now returns the current time; replaced in tests.
	now func() time.Time

	// mu protects entries and displayed.
	mu sync.Mutex
	// entries holds the latest notification per source key.
	entries map[string]*notification.Notification
	// displayed is the notification currently on screen, nil when hidden.
	displayed *notification.Notification
	// displayedKey is the source key of displayed.
	displayedKey string

	// displayMu serializes selection and display calls so they land in order.
	displayMu sync.Mutex
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock replaces the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRegistry creates an empty registry driving display.
func NewRegistry(display Display, opts ...Option) *Registry {
	r := &Registry{
		display: display,
		now:     time.Now,
		entries: make(map[string]*notification.Notification),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Update replaces the notification stored for key and refreshes the display.
// A nil notification removes the key.
func (r *Registry) Update(ctx context.Context, key string, n *notification.Notification) {
	r.mu.Lock()

	if n == nil {
		delete(r.entries, key)
	} else {
		r.entries[key] = n.Clone()
	}

	r.mu.Unlock()

	logger.DebugKV(ctx, "Notification updated", "source", key, "removed", n == nil)

	r.Refresh(ctx)
}

// Current returns a copy of the notification on screen, nil when hidden.
func (r *Registry) Current() *notification.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.displayed.Clone()
}

// CurrentSource returns the key of the notification on screen.
func (r *Registry) CurrentSource() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.displayedKey
}

// Refresh re-evaluates the winner and swaps the display when it changed.
func (r *Registry) Refresh(ctx context.Context) {
	r.displayMu.Lock()
	defer r.displayMu.Unlock()

	r.mu.Lock()

	key, winner := r.selectLocked(r.now())
	changed := winner != r.displayed
	r.displayed, r.displayedKey = winner, key

	r.mu.Unlock()

	if !changed || r.display == nil {
		return
	}

	if winner == nil {
		logger.Info(ctx, "Hiding notification")

		if err := r.display.Hide(ctx); err != nil {
			logger.WarnKV(ctx, "Failed to hide notification", "error", err)
		}

		return
	}

	logger.InfoKV(ctx, "Showing notification", "source", key, "header", winner.Header, "priority", winner.Priority)

	if err := r.display.Show(ctx, winner.Clone()); err != nil {
		logger.WarnKV(ctx, "Failed to show notification", "source", key, "error", err)
	}
}

// Run refreshes the display every interval until ctx is canceled.
func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Refresh(ctx)
		}
	}
}

// selectLocked drops expired entries and returns the winner: highest
// priority, then newest, then smallest key. The caller holds r.mu.
func (r *Registry) selectLocked(now time.Time) (string, *notification.Notification) {
	keys := make([]string, 0, len(r.entries))

	for key, n := range r.entries {
		if n.Expired(now) {
			delete(r.entries, key)
			continue
		}

		keys = append(keys, key)
	}

	sort.Strings(keys)

	var (
		winnerKey string
		winner    *notification.Notification
	)

	for _, key := range keys {
		n := r.entries[key]

		switch {
		case winner == nil,
			n.Priority > winner.Priority,
			n.Priority == winner.Priority && n.CreatedAt.After(winner.CreatedAt):
			winnerKey, winner = key, n
		}
	}

	return winnerKey, winner
}
