package pattern

import (
	"time"

	"github.com/lucasb-eyer/go-colorful"
)

// Names of the patterns registered by Builtin.
const (
	BuildUnknown       = "build-unknown"
	BuildOK            = "build-ok"
	BuildProgress      = "build-progress"
	BuildUnstable      = "build-unstable"
	BuildFailure       = "build-failure"
	JenkinsUnavailable = "jenkins-unavailable"
	Startup            = "startup"
	Shutdown           = "shutdown"
	Standup            = "standup"
)

// Build priorities; a host reporting a higher value hides the others.
const (
	PriorityUnknown     = 0
	PriorityOK          = 1
	PriorityProgress    = 2
	PriorityUnstable    = 5
	PriorityUnavailable = 8
	PriorityFailure     = 10
)

// Colours shared with the notification templates.
//
//nolint:gochecknoglobals // Immutable palette.
var (
	ColorFailure     = colorful.MustParseHex("#CC3300")
	ColorOK          = colorful.MustParseHex("#339933")
	ColorProgress    = colorful.MustParseHex("#003D99")
	ColorUnstable    = colorful.MustParseHex("#FF9933")
	ColorUnavailable = colorful.MustParseHex("#CC0000")
	ColorStandup     = colorful.MustParseHex("#9933CC")
	colorUnknown     = colorful.MustParseHex("#808080")
	colorStandupAlt  = colorful.MustParseHex("#FFCC00")
)

// Builtin returns the table of every pattern the daemon ships with.
func Builtin() *Table {
	table, err := NewTable(
		New(BuildUnknown, PriorityUnknown, Pulse(colorUnknown, 4*time.Second)),
		New(BuildOK, PriorityOK, Solid(ColorOK)),
		New(BuildProgress, PriorityProgress, Chase(ColorProgress, 8, 2*time.Second)),
		New(BuildUnstable, PriorityUnstable, Pulse(ColorUnstable, 2*time.Second)),
		New(BuildFailure, PriorityFailure, Pulse(ColorFailure, time.Second)),
		New(JenkinsUnavailable, PriorityUnavailable, Blink(ColorUnavailable, black, time.Second)),
		New(Startup, 0, Rainbow(3*time.Second)),
		New(Shutdown, 0, Off()),
		New(Standup, 0, Blink(ColorStandup, colorStandupAlt, 1500*time.Millisecond)),
	)
	if err != nil {
		// The list above is static; a failure here is a programming error.
		panic(err)
	}

	return table
}
