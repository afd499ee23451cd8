package standup

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/oshokin/build-tv/internal/domain/notification"
	"github.com/oshokin/build-tv/internal/domain/pattern"
	"github.com/oshokin/build-tv/internal/logger"
	"github.com/oshokin/build-tv/internal/service/led"
)

const (
	// SourceName names the pattern source of the producer.
	SourceName = "Standup"
	// SourcePriority ranks standup above build status.
	SourcePriority = 10
	// NotificationKey identifies standup notifications in the registry.
	NotificationKey = "build-tv-standup"
	// NotificationPriority ranks the reminder above build notifications.
	NotificationPriority = 20

	// daysInWeek bounds the search for the next window.
	daysInWeek = 7
)

var (
	// ErrInvalidDuration is returned for a non-positive window length.
	ErrInvalidDuration = errors.New("standup duration must be greater than zero")
	// ErrNoWeekdays is returned when the window never opens.
	ErrNoWeekdays = errors.New("standup needs at least one weekday")
)

// Notifier receives notifications keyed by source.
type Notifier interface {
	Update(ctx context.Context, key string, n *notification.Notification)
}

// Options configures a Producer.
type Options struct {
	// Hour and Minute give the local start time of the window.
	Hour, Minute int
	// Duration is the window length.
	Duration time.Duration
	// Weekdays lists the days the window opens on.
	Weekdays []time.Weekday
	// Patterns resolves the standup pattern.
	Patterns *pattern.Table
	// Registry receives the producer's pattern source.
	Registry *led.Registry
	// Notifier receives the reminder; nil disables it.
	Notifier Notifier
}

// Producer votes for the standup pattern while the window is open.
type Producer struct {
	opts    Options
	pattern pattern.Pattern
	source  *led.Source
}

// NewProducer validates options and creates a producer.
func NewProducer(opts Options) (*Producer, error) {
	if opts.Duration <= 0 {
		return nil, ErrInvalidDuration
	}

	if len(opts.Weekdays) == 0 {
		return nil, ErrNoWeekdays
	}

	p, ok := opts.Patterns.Lookup(pattern.Standup)
	if !ok {
		return nil, opts.Patterns.Require(pattern.Standup)
	}

	return &Producer{
		opts:    opts,
		pattern: p,
		source:  led.NewSource(SourceName, SourcePriority),
	}, nil
}

// Source returns the pattern source the producer publishes to.
func (p *Producer) Source() *led.Source {
	return p.source
}

// Run registers the source and follows the window until ctx is canceled.
func (p *Producer) Run(ctx context.Context) error {
	ctx = logger.WithName(ctx, "standup")

	if err := p.opts.Registry.Register(ctx, p.source); err != nil {
		return err
	}

	defer p.opts.Registry.Deregister(context.WithoutCancel(ctx), p.source)

	shown := false

	for {
		now := time.Now()
		active, next := window(now, p.opts.Hour, p.opts.Minute, p.opts.Duration, p.opts.Weekdays)

		switch {
		case active && !shown:
			p.open(ctx, next.Sub(now))
		case !active && shown:
			p.close(ctx)
		}

		shown = active

		logger.DebugKV(ctx, "Waiting for standup boundary", "active", active, "next", next)

		timer := time.NewTimer(next.Sub(now))

		select {
		case <-ctx.Done():
			timer.Stop()

			if shown {
				p.close(context.WithoutCancel(ctx))
			}

			return nil
		case <-timer.C:
		}
	}
}

// open starts showing the standup pattern and reminder for remaining.
func (p *Producer) open(ctx context.Context, remaining time.Duration) {
	logger.InfoKV(ctx, "Standup started", "remaining", remaining)

	p.source.Set(ctx, p.pattern)

	if p.opts.Notifier != nil {
		n := notification.New("standup", "", remaining, pattern.ColorStandup, NotificationPriority)
		p.opts.Notifier.Update(ctx, NotificationKey, n)
	}
}

// close withdraws the vote and the reminder.
func (p *Producer) close(ctx context.Context) {
	logger.Info(ctx, "Standup finished")

	p.source.Clear(ctx)

	if p.opts.Notifier != nil {
		p.opts.Notifier.Update(ctx, NotificationKey, nil)
	}
}

// window reports whether the daily window is open at now and when it next
// opens or closes. The window starts at hour:minute local time on the given
// weekdays and lasts duration.
func window(now time.Time, hour, minute int, duration time.Duration, weekdays []time.Weekday) (bool, time.Time) {
	today := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())

	// A window opened yesterday may still be running past midnight.
	for _, start := range []time.Time{today.AddDate(0, 0, -1), today} {
		end := start.Add(duration)
		if slices.Contains(weekdays, start.Weekday()) && !now.Before(start) && now.Before(end) {
			return true, end
		}
	}

	for day := range daysInWeek + 1 {
		start := today.AddDate(0, 0, day)
		if start.After(now) && slices.Contains(weekdays, start.Weekday()) {
			return false, start
		}
	}

	// Unreachable with at least one weekday; retry tomorrow.
	return false, today.AddDate(0, 0, 1)
}
