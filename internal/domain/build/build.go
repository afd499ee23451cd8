package build

import (
	"slices"

	"github.com/oshokin/build-tv/internal/domain/pattern"
)

// Host is a remote build server polled for job status.
type Host struct {
	// Name is the display name used in logs.
	Name string
	// URL is the base URL of the server.
	URL string
	// Jobs restricts the poll to these job names. Empty watches every job.
	Jobs []string
}

// Watches reports whether the host is configured to track job.
func (h Host) Watches(job string) bool {
	return len(h.Jobs) == 0 || slices.Contains(h.Jobs, job)
}

// Job is a single job as reported by the build server.
type Job struct {
	// Name is the job name.
	Name string
	// Color is the Jenkins ball colour, e.g. "blue", "red", "yellow_anime".
	Color string
}

// HostResult is the outcome of one poll, for one host or reduced over several.
type HostResult struct {
	// Pattern is the LED pattern representing the status.
	Pattern pattern.Pattern
	// AffectedJobs lists the jobs responsible for a non-nominal status, in order.
	AffectedJobs []string
}
