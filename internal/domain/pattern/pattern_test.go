package pattern

import (
	"testing"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/require"
)

// TestBuiltin_RegistersEveryName ensures the daemon can look up every documented pattern.
func TestBuiltin_RegistersEveryName(t *testing.T) {
	t.Parallel()

	table := Builtin()

	require.NoError(t, table.Require(
		BuildUnknown, BuildOK, BuildProgress, BuildUnstable, BuildFailure,
		JenkinsUnavailable, Startup, Shutdown, Standup,
	))
	require.Len(t, table.Names(), 9)

	_, ok := table.Lookup("nonexistent")
	require.False(t, ok)
	require.Error(t, table.Require("nonexistent"))
}

// TestBuiltin_Priorities checks the ordering the build reducer relies on.
func TestBuiltin_Priorities(t *testing.T) {
	t.Parallel()

	table := Builtin()
	priority := func(name string) int {
		p, ok := table.Lookup(name)
		require.True(t, ok)

		return p.Priority
	}

	require.Greater(t, priority(BuildFailure), priority(JenkinsUnavailable))
	require.Greater(t, priority(JenkinsUnavailable), priority(BuildUnstable))
	require.Greater(t, priority(BuildUnstable), priority(BuildProgress))
	require.Greater(t, priority(BuildProgress), priority(BuildOK))
	require.Greater(t, priority(BuildOK), priority(BuildUnknown))
	require.Equal(t, 10, priority(BuildFailure))
	require.Equal(t, 1, priority(BuildOK))
}

// TestNewTable_Validation rejects empty names, duplicates and missing renderers.
func TestNewTable_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewTable(New("", 0, Off()))
	require.ErrorIs(t, err, ErrEmptyName)

	_, err = NewTable(New("a", 0, Off()), New("a", 1, Off()))
	require.ErrorIs(t, err, ErrDuplicate)

	_, err = NewTable(New("a", 0, nil))
	require.ErrorIs(t, err, ErrNoRenderer)
}

// TestRender_FrameLength verifies every builtin renders one colour per pixel at any time.
func TestRender_FrameLength(t *testing.T) {
	t.Parallel()

	table := Builtin()

	for _, name := range table.Names() {
		p, _ := table.Lookup(name)

		for _, elapsed := range []time.Duration{0, 17 * time.Millisecond, 1234 * time.Millisecond, time.Hour} {
			frame := p.Render(elapsed, 30)
			require.Len(t, frame, 30, name)

			for _, c := range frame {
				require.True(t, c.IsValid(), name)
			}
		}

		require.Empty(t, p.Render(time.Second, 0), name)
	}
}

// TestRender_Primitives spot-checks the shape of the render primitives.
func TestRender_Primitives(t *testing.T) {
	t.Parallel()

	red := colorful.MustParseHex("#FF0000")

	// Solid is time independent.
	require.Equal(t, Solid(red)(0, 3), Solid(red)(time.Minute, 3))

	// Pulse starts dark and peaks half way through the period.
	pulse := Pulse(red, time.Second)
	require.Equal(t, "#000000", pulse(0, 1)[0].Hex())
	require.Equal(t, "#ff0000", pulse(500*time.Millisecond, 1)[0].Hex())

	// Blink alternates halves.
	blink := Blink(red, black, time.Second)
	require.Equal(t, "#ff0000", blink(100*time.Millisecond, 1)[0].Hex())
	require.Equal(t, "#000000", blink(600*time.Millisecond, 1)[0].Hex())

	// Chase lights exactly width pixels, the head at full brightness.
	frame := Chase(red, 2, time.Second)(0, 10)
	lit := 0

	for _, c := range frame {
		if c.Hex() != "#000000" {
			lit++
		}
	}

	require.Equal(t, 2, lit)
	require.Equal(t, "#ff0000", frame[0].Hex())
}
