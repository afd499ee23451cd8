package standup

import (
	"context"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/build-tv/internal/domain/notification"
	"github.com/oshokin/build-tv/internal/domain/pattern"
	"github.com/oshokin/build-tv/internal/service/led"
)

var weekdays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}

// TestWindow covers open windows, closed days and the next boundary.
func TestWindow(t *testing.T) {
	t.Parallel()

	at := func(day, hour, minute int) time.Time {
		// 2026-10-19 is a Monday.
		return time.Date(2026, 10, day, hour, minute, 0, 0, time.UTC)
	}

	cases := []struct {
		name   string
		now    time.Time
		active bool
		next   time.Time
	}{
		{name: "before on monday", now: at(19, 9, 0), next: at(19, 9, 30)},
		{name: "at start", now: at(19, 9, 30), active: true, next: at(19, 9, 45)},
		{name: "inside", now: at(19, 9, 40), active: true, next: at(19, 9, 45)},
		{name: "at end", now: at(19, 9, 45), next: at(20, 9, 30)},
		{name: "friday evening", now: at(23, 18, 0), next: at(26, 9, 30)},
		{name: "saturday at start", now: at(24, 9, 30), next: at(26, 9, 30)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			active, next := window(tc.now, 9, 30, 15*time.Minute, weekdays)
			require.Equal(t, tc.active, active)
			require.Equal(t, tc.next, next)
		})
	}
}

// TestWindow_PastMidnight keeps a late window open after the date changes.
func TestWindow_PastMidnight(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 20, 0, 10, 0, 0, time.UTC)

	active, next := window(now, 23, 50, 30*time.Minute, weekdays)
	require.True(t, active)
	require.Equal(t, time.Date(2026, 10, 20, 0, 20, 0, 0, time.UTC), next)
}

// recorder records notification updates.
type recorder struct {
	mu      sync.Mutex
	headers []string
}

func (r *recorder) Update(_ context.Context, _ string, n *notification.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n == nil {
		r.headers = append(r.headers, "<nil>")

		return
	}

	r.headers = append(r.headers, n.Header)
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.headers...)
}

// acceptAll accepts every pattern switch.
type acceptAll struct{}

func (acceptAll) SwitchPattern(context.Context, pattern.Pattern) (bool, error) {
	return true, nil
}

// TestProducer_Run opens and closes the window on schedule.
func TestProducer_Run(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		now := time.Now()
		start := now.Add(time.Hour)

		registry := led.NewRegistry(acceptAll{})
		notifier := new(recorder)

		producer, err := NewProducer(Options{
			Hour:     start.Hour(),
			Minute:   start.Minute(),
			Duration: 15 * time.Minute,
			Weekdays: []time.Weekday{
				time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
				time.Thursday, time.Friday, time.Saturday,
			},
			Patterns: pattern.Builtin(),
			Registry: registry,
			Notifier: notifier,
		})
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)

		go func() {
			done <- producer.Run(ctx)
		}()

		synctest.Wait()
		require.Equal(t, 1, registry.Len())

		_, ok := registry.Winner()
		require.False(t, ok)

		time.Sleep(time.Hour + time.Minute)
		synctest.Wait()

		winner, ok := registry.Winner()
		require.True(t, ok)
		require.Equal(t, pattern.Standup, winner.Name)
		require.Equal(t, []string{"standup"}, notifier.all())

		time.Sleep(15 * time.Minute)
		synctest.Wait()

		_, ok = registry.Winner()
		require.False(t, ok)
		require.Equal(t, []string{"standup", "<nil>"}, notifier.all())

		cancel()
		require.NoError(t, <-done)
		require.Zero(t, registry.Len())
	})
}

// TestNewProducer_Validation rejects a window that can never open.
func TestNewProducer_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewProducer(Options{Weekdays: weekdays, Patterns: pattern.Builtin()})
	require.ErrorIs(t, err, ErrInvalidDuration)

	_, err = NewProducer(Options{Duration: time.Minute, Patterns: pattern.Builtin()})
	require.ErrorIs(t, err, ErrNoWeekdays)
}
