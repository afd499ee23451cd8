package led

import (
	"context"
	"sync"

	"github.com/oshokin/build-tv/internal/domain/pattern"
)

// Source is one producer's vote for the pattern the strip should show.
// Its priority is fixed; the pattern changes as the producer updates it.
type Source struct {
	// name identifies the producer in logs and on the control API.
	name string
	// priority ranks this source against the others in the registry.
	priority int

	// mu protects current and registry.
	mu sync.Mutex
	// current is the pattern the producer wants; zero means no vote.
	current pattern.Pattern
	// registry is set while the source is registered.
	registry *Registry
}

// NewSource creates an unregistered source with no current pattern.
func NewSource(name string, priority int) *Source {
	return &Source{
		name:     name,
		priority: priority,
	}
}

// Name returns the source name.
func (s *Source) Name() string {
	return s.name
}

// Priority returns the fixed source priority.
func (s *Source) Priority() int {
	return s.priority
}

// Current returns the pattern the source votes for; zero when none.
func (s *Source) Current() pattern.Pattern {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.current
}

// Set changes the vote and, when registered, recomputes the winner synchronously.
func (s *Source) Set(ctx context.Context, p pattern.Pattern) {
	registry := s.attachedRegistry()
	if registry == nil {
		s.store(p)
		return
	}

	registry.update(ctx, s, p)
}

// Clear withdraws the vote.
func (s *Source) Clear(ctx context.Context) {
	s.Set(ctx, pattern.Pattern{})
}

// store replaces the current pattern.
func (s *Source) store(p pattern.Pattern) {
	s.mu.Lock()
	s.current = p
	s.mu.Unlock()
}

// attachedRegistry returns the registry the source belongs to, if any.
func (s *Source) attachedRegistry() *Registry {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.registry
}
