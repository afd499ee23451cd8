package led

import (
	"context"
	"errors"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/build-tv/internal/domain/pattern"
)

var errStripOffline = errors.New("strip offline")

// testPixels is the strip length used by the tests.
const testPixels = 4

// testColors maps the test patterns to the colour they render, so a frame
// tells which pattern produced it.
//
//nolint:gochecknoglobals // Test fixture.
var testColors = map[string]string{
	pattern.Startup:  "#000001",
	pattern.Shutdown: "#000002",
	"a":              "#0000aa",
	"b":              "#0000bb",
	"c":              "#0000cc",
}

// testTable builds a table whose patterns render a distinct solid colour each.
func testTable(t *testing.T) *pattern.Table {
	t.Helper()

	patterns := make([]pattern.Pattern, 0, len(testColors))
	for name, hex := range testColors {
		patterns = append(patterns, pattern.New(name, 0, pattern.Solid(colorful.MustParseHex(hex))))
	}

	table, err := pattern.NewTable(patterns...)
	require.NoError(t, err)

	return table
}

// lookup returns a pattern of the test table.
func lookup(t *testing.T, table *pattern.Table, name string) pattern.Pattern {
	t.Helper()

	p, ok := table.Lookup(name)
	require.True(t, ok, name)

	return p
}

// recordingStrip remembers the colour of the first pixel of every frame.
type recordingStrip struct {
	// mu protects the fields below.
	mu sync.Mutex
	// colors is the first-pixel colour of every accepted frame.
	colors []string
	// failures is the number of writes to reject before accepting frames.
	failures int
	// onWrite is invoked for every write, accepted or not.
	onWrite func()
}

// Write records the frame or fails while failures remain.
func (r *recordingStrip) Write(_ context.Context, frame pattern.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.onWrite != nil {
		r.onWrite()
	}

	if r.failures > 0 {
		r.failures--
		return errStripOffline
	}

	if len(frame) > 0 {
		r.colors = append(r.colors, frame[0].Hex())
	}

	return nil
}

// last returns the colour of the last accepted frame.
func (r *recordingStrip) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.colors) == 0 {
		return ""
	}

	return r.colors[len(r.colors)-1]
}

// fakeSwitcher records the patterns handed over by the registry.
type fakeSwitcher struct {
	applied []string
}

// SwitchPattern records p and reports a change when it differs from the last one.
func (f *fakeSwitcher) SwitchPattern(_ context.Context, p pattern.Pattern) (bool, error) {
	if len(f.applied) > 0 && f.applied[len(f.applied)-1] == p.Name {
		return false, nil
	}

	f.applied = append(f.applied, p.Name)

	return true, nil
}

// TestRegistry_Winner checks the merge law: highest priority, first registered on ties.
func TestRegistry_Winner(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	table := testTable(t)
	registry := NewRegistry(nil)

	_, ok := registry.Winner()
	require.False(t, ok)

	low := NewSource("low", 1)
	first := NewSource("first", 5)
	second := NewSource("second", 5)
	empty := NewSource("empty", 100)

	for _, src := range []*Source{low, first, second, empty} {
		require.NoError(t, registry.Register(ctx, src))
	}

	// Nobody voted yet.
	_, ok = registry.Winner()
	require.False(t, ok)

	low.Set(ctx, lookup(t, table, "a"))
	second.Set(ctx, lookup(t, table, "c"))

	winner, ok := registry.Winner()
	require.True(t, ok)
	require.Equal(t, "c", winner.Name)

	// Equal priority: the source registered first wins.
	first.Set(ctx, lookup(t, table, "b"))

	winner, _ = registry.Winner()
	require.Equal(t, "b", winner.Name)

	// Clearing the winner falls back to the next candidate.
	first.Clear(ctx)

	winner, _ = registry.Winner()
	require.Equal(t, "c", winner.Name)

	registry.Deregister(ctx, second)

	winner, _ = registry.Winner()
	require.Equal(t, "a", winner.Name)

	require.Equal(t, []SourceState{
		{Name: "low", Priority: 1, Pattern: "a"},
		{Name: "first", Priority: 5, Pattern: ""},
		{Name: "empty", Priority: 100, Pattern: ""},
	}, registry.Snapshot())
}

// TestRegistry_RecomputeOnChange verifies votes propagate synchronously to the switcher.
func TestRegistry_RecomputeOnChange(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	table := testTable(t)
	switcher := new(fakeSwitcher)
	registry := NewRegistry(switcher)

	jenkins := NewSource("jenkins", 1)
	standup := NewSource("standup", 10)

	// A vote cast before registration is kept and applied on Register.
	jenkins.Set(ctx, lookup(t, table, "a"))
	require.NoError(t, registry.Register(ctx, jenkins))
	require.ErrorIs(t, registry.Register(ctx, jenkins), ErrAlreadyRegistered)
	require.NoError(t, registry.Register(ctx, standup))

	standup.Set(ctx, lookup(t, table, "b"))
	standup.Clear(ctx)
	registry.Deregister(ctx, standup)

	// Sets on a deregistered source do not reach the switcher.
	standup.Set(ctx, lookup(t, table, "c"))

	require.Equal(t, []string{"a", "b", "a"}, switcher.applied)

	removed := registry.Clear()
	require.Equal(t, 1, removed)
	require.Zero(t, registry.Len())
	require.Nil(t, jenkins.attachedRegistry())
}

// newTestService builds a service on a recording strip.
func newTestService(t *testing.T) (*Service, *recordingStrip) {
	t.Helper()

	strip := new(recordingStrip)
	svc := NewService(testTable(t), NewController(strip, testPixels), Options{
		FrameInterval: 10 * time.Millisecond,
	})

	return svc, strip
}

// TestService_Lifecycle walks startup, producer takeover and shutdown.
func TestService_Lifecycle(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		svc, strip := newTestService(t)

		require.ErrorIs(t, svc.SetPattern(ctx, "a"), ErrNotRunning)

		require.NoError(t, svc.Start(ctx))
		require.ErrorIs(t, svc.Start(ctx), ErrAlreadyStarted)

		synctest.Wait()
		require.Equal(t, pattern.Startup, svc.Active())
		require.Equal(t, testColors[pattern.Startup], strip.last())

		src := NewSource("jenkins", 1)
		require.NoError(t, svc.Registry().Register(ctx, src))

		// Registered without a vote: startup stays.
		require.Equal(t, pattern.Startup, svc.Active())

		src.Set(ctx, lookup(t, svc.Patterns(), "a"))
		synctest.Wait()
		require.Equal(t, "a", svc.Active())
		require.Equal(t, testColors["a"], strip.last())

		// The loop keeps drawing on every tick.
		before := svc.LedController().Stats().Frames
		time.Sleep(50 * time.Millisecond)
		synctest.Wait()
		require.Greater(t, svc.LedController().Stats().Frames, before)

		require.NoError(t, svc.Stop(ctx))
		require.ErrorIs(t, svc.Stop(ctx), ErrNotRunning)

		require.Equal(t, pattern.Shutdown, svc.Active())
		require.Equal(t, testColors[pattern.Shutdown], strip.last())
		require.Zero(t, svc.Registry().Len())
		require.Zero(t, svc.alive.Load())

		// Producers exiting after shutdown do not restart anything.
		src.Set(ctx, lookup(t, svc.Patterns(), "b"))
		svc.Registry().Deregister(ctx, src)
		require.ErrorIs(t, svc.SetPattern(ctx, "b"), ErrNotRunning)
		require.Equal(t, pattern.Shutdown, svc.Active())
	})
}

// TestService_RecomputeIsIdempotent ensures an unchanged winner never restarts the loop.
func TestService_RecomputeIsIdempotent(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		svc, _ := newTestService(t)

		require.NoError(t, svc.Start(ctx))

		src := NewSource("jenkins", 1)
		require.NoError(t, svc.Registry().Register(ctx, src))
		src.Set(ctx, lookup(t, svc.Patterns(), "a"))

		swaps := svc.Swaps()

		first, ok := svc.Registry().Recompute(ctx)
		require.True(t, ok)

		second, ok := svc.Registry().Recompute(ctx)
		require.True(t, ok)

		// Setting the same pattern again is a value-equal no-op.
		src.Set(ctx, lookup(t, svc.Patterns(), "a"))

		require.Equal(t, first.Name, second.Name)
		require.Equal(t, swaps, svc.Swaps())

		require.NoError(t, svc.Stop(ctx))
	})
}

// TestService_UnknownPattern leaves the active pattern and render loop untouched.
func TestService_UnknownPattern(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		svc, _ := newTestService(t)

		require.NoError(t, svc.Start(ctx))
		require.NoError(t, svc.SetPattern(ctx, "a"))

		swaps := svc.Swaps()

		err := svc.SetPattern(ctx, "nonexistent")
		require.ErrorIs(t, err, ErrUnknownPattern)
		require.Equal(t, "a", svc.Active())
		require.Equal(t, swaps, svc.Swaps())
		require.EqualValues(t, 1, svc.alive.Load())

		require.NoError(t, svc.Stop(ctx))
	})
}

// TestService_ManualOverrideYieldsToMerge verifies SetPattern holds until the next recompute.
func TestService_ManualOverrideYieldsToMerge(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		svc, _ := newTestService(t)

		require.NoError(t, svc.Start(ctx))

		src := NewSource("jenkins", 1)
		require.NoError(t, svc.Registry().Register(ctx, src))
		src.Set(ctx, lookup(t, svc.Patterns(), "a"))

		require.NoError(t, svc.SetPattern(ctx, "b"))
		require.Equal(t, "b", svc.Active())

		svc.Registry().Recompute(ctx)
		require.Equal(t, "a", svc.Active())

		require.NoError(t, svc.Stop(ctx))
	})
}

// TestService_OneRenderLoopAtATime hammers swaps from several goroutines and
// checks no two render loops are ever alive together.
func TestService_OneRenderLoopAtATime(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, strip := newTestService(t)

	var (
		overlapMu sync.Mutex
		overlap   bool
	)

	strip.onWrite = func() {
		if svc.alive.Load() > 1 {
			overlapMu.Lock()
			overlap = true
			overlapMu.Unlock()
		}
	}

	require.NoError(t, svc.Start(ctx))

	var wg sync.WaitGroup

	for worker, name := range []string{"a", "b", "c"} {
		wg.Add(1)

		go func() {
			defer wg.Done()

			src := NewSource(name, worker)
			if err := svc.Registry().Register(ctx, src); err != nil {
				return
			}

			p, _ := svc.Patterns().Lookup(name)

			for range 20 {
				src.Set(ctx, p)
				_ = svc.SetPattern(ctx, name)
				src.Clear(ctx)
			}
		}()
	}

	wg.Wait()
	require.NoError(t, svc.Stop(ctx))

	overlapMu.Lock()
	defer overlapMu.Unlock()

	require.False(t, overlap)
	require.Zero(t, svc.alive.Load())
}

// TestRenderLoop_SurvivesWriteFailures checks that failing frames do not stop the loop.
func TestRenderLoop_SurvivesWriteFailures(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		svc, strip := newTestService(t)
		strip.failures = 3

		require.NoError(t, svc.Start(ctx))

		time.Sleep(100 * time.Millisecond)
		synctest.Wait()

		stats := svc.LedController().Stats()
		require.EqualValues(t, 3, stats.Failures)
		require.NotZero(t, stats.Frames)
		require.Equal(t, testColors[pattern.Startup], strip.last())
		require.Len(t, svc.LedController().LastFrame(), testPixels)

		require.NoError(t, svc.Stop(ctx))
	})
}
