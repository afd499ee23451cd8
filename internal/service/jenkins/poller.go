package jenkins

import (
	"context"
	"errors"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/oshokin/build-tv/internal/domain/build"
	"github.com/oshokin/build-tv/internal/domain/notification"
	"github.com/oshokin/build-tv/internal/domain/pattern"
	"github.com/oshokin/build-tv/internal/logger"
	"github.com/oshokin/build-tv/internal/service/led"
)

const (
	// SourceName names the pattern source of the poller.
	SourceName = "Jenkins Status"
	// SourcePriority ranks the poller against other pattern sources.
	SourcePriority = 1
	// NotificationKey identifies poller notifications in the registry.
	NotificationKey = "build-tv-jenkins"

	// defaultConcurrency bounds parallel host queries.
	defaultConcurrency = 4
)

var (
	// ErrNoHosts is returned when the poller has nothing to poll.
	ErrNoHosts = errors.New("no hosts to poll")
	// ErrInvalidPollRate is returned for a non-positive poll rate.
	ErrInvalidPollRate = errors.New("poll rate must be greater than zero")
)

// Notifier receives notifications keyed by source.
type Notifier interface {
	Update(ctx context.Context, key string, n *notification.Notification)
}

// Options configures a Poller.
type Options struct {
	// Hosts lists the build servers, in reduction order.
	Hosts []build.Host
	// PollRate is the pause between two cycles.
	PollRate time.Duration
	// MaxBufferBytes is reported in logs; the fetcher enforces it.
	MaxBufferBytes int64
	// Concurrency bounds parallel host queries. Zero uses a default.
	Concurrency int
	// Fetcher queries one host.
	Fetcher Fetcher
	// Patterns resolves pattern names.
	Patterns *pattern.Table
	// Registry receives the poller's pattern source.
	Registry *led.Registry
	// Notifier receives build notifications; nil disables them.
	Notifier Notifier
}

// Poller periodically queries every host and publishes the aggregate status.
type Poller struct {
	opts   Options
	source *led.Source
	// last is the aggregate pattern name of the previous cycle; empty before the first.
	last string
}

// NewPoller validates options and creates a poller.
func NewPoller(opts Options) (*Poller, error) {
	if len(opts.Hosts) == 0 {
		return nil, ErrNoHosts
	}

	if opts.PollRate <= 0 {
		return nil, ErrInvalidPollRate
	}

	if err := opts.Patterns.Require(
		pattern.BuildUnknown,
		pattern.BuildOK,
		pattern.BuildProgress,
		pattern.BuildUnstable,
		pattern.BuildFailure,
		pattern.JenkinsUnavailable,
	); err != nil {
		return nil, err
	}

	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}

	return &Poller{
		opts:   opts,
		source: led.NewSource(SourceName, SourcePriority),
	}, nil
}

// Source returns the pattern source the poller publishes to.
func (p *Poller) Source() *led.Source {
	return p.source
}

// Run registers the pattern source, polls immediately and then every
// PollRate until ctx is canceled. The source is deregistered on exit.
func (p *Poller) Run(ctx context.Context) error {
	ctx = logger.WithName(ctx, "jenkins")

	unknown, _ := p.opts.Patterns.Lookup(pattern.BuildUnknown)
	p.source.Set(ctx, unknown)

	if err := p.opts.Registry.Register(ctx, p.source); err != nil {
		return err
	}

	defer p.opts.Registry.Deregister(context.WithoutCancel(ctx), p.source)

	logger.InfoKV(ctx, "Jenkins poller started",
		"hosts", len(p.opts.Hosts),
		"poll_rate", p.opts.PollRate,
		"max_buffer", humanize.Bytes(uint64(max(p.opts.MaxBufferBytes, 0))),
	)

	ticker := time.NewTicker(p.opts.PollRate)
	defer ticker.Stop()

	for {
		p.Cycle(ctx)

		select {
		case <-ctx.Done():
			logger.Info(ctx, "Jenkins poller stopped")

			return nil
		case <-ticker.C:
		}
	}
}

// Cycle polls every host once, publishes the aggregate pattern and pushes a
// notification when the pattern differs from the previous cycle.
func (p *Poller) Cycle(ctx context.Context) build.HostResult {
	results := p.pollHosts(ctx)

	seed, _ := p.opts.Patterns.Lookup(pattern.BuildUnknown)
	aggregate := Reduce(seed, results)

	// A cycle cut short by shutdown says nothing about the servers.
	if ctx.Err() != nil {
		return aggregate
	}

	logger.DebugKV(ctx, "Poll cycle finished",
		"pattern", aggregate.Pattern.Name,
		"affected_jobs", len(aggregate.AffectedJobs),
	)

	p.source.Set(ctx, aggregate.Pattern)

	if aggregate.Pattern.Name != p.last {
		p.last = aggregate.Pattern.Name

		if p.opts.Notifier != nil {
			p.opts.Notifier.Update(ctx, NotificationKey, NotificationFor(aggregate))
		}
	}

	return aggregate
}

// pollHosts queries hosts concurrently; results keep host order.
func (p *Poller) pollHosts(ctx context.Context) []build.HostResult {
	results := make([]build.HostResult, len(p.opts.Hosts))

	var group errgroup.Group

	group.SetLimit(p.opts.Concurrency)

	for i, host := range p.opts.Hosts {
		group.Go(func() error {
			results[i] = p.pollHost(ctx, host)

			return nil
		})
	}

	_ = group.Wait()

	return results
}

// pollHost queries a single host, degrading to jenkins-unavailable on error.
func (p *Poller) pollHost(ctx context.Context, host build.Host) build.HostResult {
	jobs, err := p.opts.Fetcher.Fetch(ctx, host)
	if err != nil {
		if ctx.Err() == nil {
			logger.WarnKV(ctx, "Build server is unavailable", "host", host.Name, "error", err)
		}

		return Unavailable(p.opts.Patterns)
	}

	return Evaluate(p.opts.Patterns, host, jobs)
}
