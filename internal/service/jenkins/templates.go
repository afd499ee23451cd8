package jenkins

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/oshokin/build-tv/internal/domain/build"
	"github.com/oshokin/build-tv/internal/domain/notification"
	"github.com/oshokin/build-tv/internal/domain/pattern"
)

const (
	// NotificationPriority ranks build notifications against other sources.
	NotificationPriority = 10

	// maxListedJobs is how many affected jobs are listed before they are counted instead.
	maxListedJobs = 4
)

// template describes the notification pushed for an aggregate pattern.
type template struct {
	header   string
	lifespan time.Duration
	color    colorful.Color
}

// templates lists the patterns that produce a notification.
//
//nolint:gochecknoglobals // Read-only lookup table.
var templates = map[string]template{
	pattern.BuildFailure:       {header: "build failure", lifespan: time.Minute, color: pattern.ColorFailure},
	pattern.BuildOK:            {header: "build success", lifespan: 10 * time.Second, color: pattern.ColorOK},
	pattern.BuildProgress:      {header: "build in progress...", lifespan: 10 * time.Second, color: pattern.ColorProgress},
	pattern.BuildUnstable:      {header: "build unstable", lifespan: time.Minute, color: pattern.ColorUnstable},
	pattern.JenkinsUnavailable: {header: "Jenkins offline", color: pattern.ColorUnavailable},
}

// NotificationFor builds the notification for an aggregate result.
// Patterns without a template return nil, which clears the notification.
func NotificationFor(result build.HostResult) *notification.Notification {
	tmpl, ok := templates[result.Pattern.Name]
	if !ok {
		return nil
	}

	return notification.New(tmpl.header, summarize(result.AffectedJobs), tmpl.lifespan, tmpl.color, NotificationPriority)
}

// summarize lists a few jobs one per line or counts many.
func summarize(jobs []string) string {
	switch {
	case len(jobs) == 0:
		return ""
	case len(jobs) > maxListedJobs:
		return humanize.Comma(int64(len(jobs))) + " jobs affected"
	default:
		return strings.Join(jobs, "\n")
	}
}
