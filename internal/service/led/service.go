package led

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oshokin/build-tv/internal/domain/pattern"
	"github.com/oshokin/build-tv/internal/logger"
)

// Options tunes the render loop.
type Options struct {
	// FrameInterval is the target time between two frames.
	FrameInterval time.Duration
	// StopWarnAfter is how long to wait for a render loop before warning that it is slow to stop.
	StopWarnAfter time.Duration
}

const (
	// defaultFrameInterval is used when Options.FrameInterval is not set.
	defaultFrameInterval = 33 * time.Millisecond
	// defaultStopWarnAfter is used when Options.StopWarnAfter is not set.
	defaultStopWarnAfter = 2 * time.Second
)

var (
	// ErrUnknownPattern is returned when a pattern name is not in the table.
	ErrUnknownPattern = errors.New("unknown led pattern")
	// ErrNotRunning is returned when the service is not started or already stopped.
	ErrNotRunning = errors.New("led service is not running")
	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("led service already started")
)

// lifecycle is the state of the Service itself, not of the render loop.
type lifecycle int

const (
	lifecycleNew lifecycle = iota
	lifecycleRunning
	lifecycleStopped
)

// Service owns the active pattern and the single render loop drawing it.
type Service struct {
	// patterns is the read-only pattern table.
	patterns *pattern.Table
	// controller is the strip the render loop writes to.
	controller *Controller
	// registry merges producer votes and calls back SwitchPattern.
	registry *Registry
	// opts holds the render loop settings.
	opts Options

	// mu serializes lifecycle transitions and pattern swaps.
	mu sync.Mutex
	// state is the service lifecycle state.
	state lifecycle
	// active is the pattern being rendered; zero while idle.
	active pattern.Pattern
	// loop is the render loop drawing active.
	loop *renderLoop
	// swaps counts render loop replacements.
	swaps uint64

	// alive counts render loops whose goroutine has not returned yet.
	alive atomic.Int32
}

// NewService builds a service with its own pattern registry.
func NewService(patterns *pattern.Table, controller *Controller, opts Options) *Service {
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = defaultFrameInterval
	}

	if opts.StopWarnAfter <= 0 {
		opts.StopWarnAfter = defaultStopWarnAfter
	}

	s := &Service{
		patterns:   patterns,
		controller: controller,
		opts:       opts,
	}
	s.registry = NewRegistry(s)

	return s
}

// Registry returns the registry producers register their sources into.
func (s *Service) Registry() *Registry {
	return s.registry
}

// LedController returns the strip controller.
func (s *Service) LedController() *Controller {
	return s.controller
}

// Patterns returns the pattern table.
func (s *Service) Patterns() *pattern.Table {
	return s.patterns
}

// Active returns the name of the pattern being rendered, empty while idle.
func (s *Service) Active() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.active.Name
}

// Swaps returns how many times a render loop was started.
func (s *Service) Swaps() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.swaps
}

// Start shows the startup pattern until a producer takes over.
func (s *Service) Start(ctx context.Context) error {
	startup, ok := s.patterns.Lookup(pattern.Startup)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPattern, pattern.Startup)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != lifecycleNew {
		return ErrAlreadyStarted
	}

	s.state = lifecycleRunning
	s.swapLocked(ctx, startup)

	logger.InfoKV(ctx, "LED service started",
		"pixels", s.controller.Pixels(),
		"frame_interval", s.opts.FrameInterval.String(),
		"patterns", len(s.patterns.Names()))

	return nil
}

// Stop shows the shutdown pattern, waits for the render loop to finish and
// tears down every registered source.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()

	if s.state != lifecycleRunning {
		s.mu.Unlock()
		return ErrNotRunning
	}

	if shutdown, ok := s.patterns.Lookup(pattern.Shutdown); ok {
		s.swapLocked(ctx, shutdown)
	} else {
		logger.WarnKV(ctx, "LED pattern missing", "pattern", pattern.Shutdown)
	}

	s.state = lifecycleStopped
	s.stopLoopLocked(ctx)
	s.mu.Unlock()

	removed := s.registry.Clear()

	stats := s.controller.Stats()
	logger.InfoKV(ctx, "LED service stopped",
		"sources_removed", removed,
		"frames", stats.Frames,
		"frame_failures", stats.Failures)

	return nil
}

// SetPattern forces the named pattern. The next recompute of the registry
// still applies the merge result. Unknown names leave the strip untouched.
func (s *Service) SetPattern(ctx context.Context, name string) error {
	p, ok := s.patterns.Lookup(name)
	if !ok {
		logger.WarnKV(ctx, "LED pattern missing", "pattern", name)

		return fmt.Errorf("%w: %q", ErrUnknownPattern, name)
	}

	_, err := s.SwitchPattern(ctx, p)

	return err
}

// SwitchPattern replaces the render loop when p differs from the active pattern.
func (s *Service) SwitchPattern(ctx context.Context, p pattern.Pattern) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != lifecycleRunning {
		return false, ErrNotRunning
	}

	if s.active.Name == p.Name {
		logger.DebugKV(ctx, "Ignoring pattern change request, already set", "pattern", p.Name)
		return false, nil
	}

	s.swapLocked(ctx, p)

	return true, nil
}

// swapLocked joins the current render loop and starts one for p.
// The caller holds s.mu.
func (s *Service) swapLocked(ctx context.Context, p pattern.Pattern) {
	previous := s.active.Name

	s.stopLoopLocked(ctx)

	s.loop = startRenderLoop(ctx, p, s.controller, s.opts.FrameInterval, &s.alive)
	s.active = p
	s.swaps++

	logger.InfoKV(ctx, "LED pattern changed", "pattern", p.Name, "previous", previous)
}

// stopLoopLocked stops the render loop, if any, and waits until it has exited.
// The caller holds s.mu.
func (s *Service) stopLoopLocked(ctx context.Context) {
	if s.loop == nil {
		return
	}

	s.loop.stop(ctx, s.opts.StopWarnAfter)
	s.loop = nil
}
