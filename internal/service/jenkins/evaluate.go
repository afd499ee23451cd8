package jenkins

import (
	"strings"

	"github.com/oshokin/build-tv/internal/domain/build"
	"github.com/oshokin/build-tv/internal/domain/pattern"
)

// animeSuffix marks a job whose build is running.
const animeSuffix = "_anime"

// patternNameForColor maps a Jenkins ball colour to a pattern name.
// Unrecognised colours (disabled, aborted, notbuilt) return false.
func patternNameForColor(color string) (string, bool) {
	if strings.HasSuffix(color, animeSuffix) {
		return pattern.BuildProgress, true
	}

	switch color {
	case "red":
		return pattern.BuildFailure, true
	case "yellow":
		return pattern.BuildUnstable, true
	case "blue", "green":
		return pattern.BuildOK, true
	default:
		return "", false
	}
}

// Evaluate reduces the jobs of one host to a result: the highest priority
// pattern among watched jobs, seeded with build-unknown, and the jobs showing it.
func Evaluate(table *pattern.Table, host build.Host, jobs []build.Job) build.HostResult {
	result, _ := table.Lookup(pattern.BuildUnknown)

	type evaluated struct {
		name    string
		pattern pattern.Pattern
	}

	watched := make([]evaluated, 0, len(jobs))

	for _, job := range jobs {
		if !host.Watches(job.Name) {
			continue
		}

		name, ok := patternNameForColor(job.Color)
		if !ok {
			continue
		}

		p, ok := table.Lookup(name)
		if !ok {
			continue
		}

		watched = append(watched, evaluated{name: job.Name, pattern: p})

		if p.Priority > result.Priority {
			result = p
		}
	}

	var affected []string

	if result.Name != pattern.BuildOK && result.Name != pattern.BuildUnknown {
		for _, job := range watched {
			if job.pattern.Name == result.Name {
				affected = append(affected, job.name)
			}
		}
	}

	return build.HostResult{Pattern: result, AffectedJobs: affected}
}

// Unavailable is the result of a host that could not be queried.
func Unavailable(table *pattern.Table) build.HostResult {
	p, _ := table.Lookup(pattern.JenkinsUnavailable)

	return build.HostResult{Pattern: p}
}

// Reduce merges host results: the pattern with strictly greater priority than
// the running maximum wins, starting from seed; affected jobs are concatenated
// in host order.
func Reduce(seed pattern.Pattern, results []build.HostResult) build.HostResult {
	aggregate := build.HostResult{Pattern: seed}

	for _, result := range results {
		if result.Pattern.Priority > aggregate.Pattern.Priority {
			aggregate.Pattern = result.Pattern
		}

		aggregate.AffectedJobs = append(aggregate.AffectedJobs, result.AffectedJobs...)
	}

	return aggregate
}
