package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/build-tv/internal/domain/notification"
)

var errDisplayGone = errors.New("display gone")

// fakeDisplay records show and hide calls as "show:<header>" and "hide".
type fakeDisplay struct {
	// mu protects events.
	mu sync.Mutex
	// events is the ordered list of calls.
	events []string
	// err is returned from every call when set.
	err error
}

// Show records the header of n.
func (f *fakeDisplay) Show(_ context.Context, n *notification.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.events = append(f.events, "show:"+n.Header)

	return f.err
}

// Hide records a hide call.
func (f *fakeDisplay) Hide(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.events = append(f.events, "hide")

	return f.err
}

// calls returns a copy of the recorded events.
func (f *fakeDisplay) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.events...)
}

// newNotification builds a notification created at the current (bubble) time.
func newNotification(header string, priority int, lifespan time.Duration) *notification.Notification {
	return notification.New(header, "", lifespan, colorful.MustParseHex("#CC3300"), priority)
}

// TestRegistry_SelectsHighestPriority verifies the priority and recency rules.
func TestRegistry_SelectsHighestPriority(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		display := new(fakeDisplay)
		registry := NewRegistry(display)

		require.Nil(t, registry.Current())

		registry.Update(ctx, "jenkins", newNotification("build failure", 10, time.Minute))
		registry.Update(ctx, "standup", newNotification("standup", 20, time.Minute))
		require.Equal(t, "standup", registry.Current().Header)
		require.Equal(t, "standup", registry.CurrentSource())

		// Lower priority from another key does not take over.
		registry.Update(ctx, "other", newNotification("other", 5, 0))
		require.Equal(t, "standup", registry.Current().Header)

		// Equal priority: the newer notification wins.
		time.Sleep(time.Second)
		registry.Update(ctx, "party", newNotification("party", 20, time.Minute))
		require.Equal(t, "party", registry.Current().Header)

		require.Equal(t, []string{"show:build failure", "show:standup", "show:party"}, display.calls())
	})
}

// TestRegistry_LastWritePerKey checks that a key is replaced regardless of priority.
func TestRegistry_LastWritePerKey(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		display := new(fakeDisplay)
		registry := NewRegistry(display)

		registry.Update(ctx, "jenkins", newNotification("build failure", 10, time.Minute))
		registry.Update(ctx, "other", newNotification("other", 5, 0))
		registry.Update(ctx, "jenkins", newNotification("build success", 1, 10*time.Second))
		require.Equal(t, "other", registry.Current().Header)

		// Removing the winner falls back, removing everything hides.
		registry.Update(ctx, "other", nil)
		require.Equal(t, "build success", registry.Current().Header)

		registry.Update(ctx, "jenkins", nil)
		require.Nil(t, registry.Current())

		require.Equal(t, []string{
			"show:build failure",
			"show:other",
			"show:build success",
			"hide",
		}, display.calls())
	})
}

// TestRegistry_ExpiresOnTick verifies a notification disappears on schedule without new input.
func TestRegistry_ExpiresOnTick(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		display := new(fakeDisplay)
		registry := NewRegistry(display)

		done := make(chan error, 1)

		go func() {
			done <- registry.Run(ctx, time.Second)
		}()

		registry.Update(ctx, "jenkins", newNotification("build failure", 10, 5*time.Second))
		registry.Update(ctx, "offline", newNotification("Jenkins offline", 1, 0))

		time.Sleep(4 * time.Second)
		synctest.Wait()
		require.Equal(t, "build failure", registry.Current().Header)

		time.Sleep(time.Second + time.Millisecond)
		synctest.Wait()
		require.Equal(t, "Jenkins offline", registry.Current().Header)

		cancel()
		require.NoError(t, <-done)

		require.Equal(t, []string{"show:build failure", "show:Jenkins offline"}, display.calls())
	})
}

// TestRegistry_ExpiryBoundary checks exclusion at exactly CreatedAt+Lifespan using an injected clock.
func TestRegistry_ExpiryBoundary(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	now := t0

	registry := NewRegistry(new(fakeDisplay), WithClock(func() time.Time { return now }))

	n := newNotification("build failure", 10, 5*time.Second)
	n.CreatedAt = t0

	registry.Update(context.Background(), "jenkins", n)
	require.NotNil(t, registry.Current())

	now = t0.Add(5 * time.Second)
	registry.Refresh(context.Background())
	require.Nil(t, registry.Current())
}

// TestRegistry_DisplayErrorsAreSwallowed verifies a failing display does not break selection.
func TestRegistry_DisplayErrorsAreSwallowed(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		display := &fakeDisplay{err: errDisplayGone}
		registry := NewRegistry(display)

		registry.Update(ctx, "jenkins", newNotification("build failure", 10, time.Minute))
		require.Equal(t, "build failure", registry.Current().Header)

		registry.Update(ctx, "jenkins", nil)
		require.Nil(t, registry.Current())
		require.Len(t, display.calls(), 2)
	})
}
