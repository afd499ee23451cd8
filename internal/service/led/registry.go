package led

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/oshokin/build-tv/internal/domain/pattern"
	"github.com/oshokin/build-tv/internal/logger"
)

// Switcher applies a winning pattern. It reports whether the active pattern changed.
type Switcher interface {
	SwitchPattern(ctx context.Context, p pattern.Pattern) (bool, error)
}

// SourceState is a point-in-time view of a registered source.
type SourceState struct {
	// Name is the source name.
	Name string
	// Priority is the fixed source priority.
	Priority int
	// Pattern is the voted pattern name, empty when the source has no vote.
	Pattern string
}

// Registry merges the votes of every registered source into one winner.
type Registry struct {
	// switcher receives the winner after every recompute.
	switcher Switcher

	// mu protects sources and the current pattern of every registered source.
	mu sync.Mutex
	// sources is kept in registration order; earlier sources win ties.
	sources []*Source

	// applyMu serializes recompute-and-apply so a stale winner never lands last.
	applyMu sync.Mutex
}

// ErrAlreadyRegistered is returned when a source is registered twice.
var ErrAlreadyRegistered = errors.New("pattern source already registered")

// NewRegistry creates an empty registry feeding switcher.
func NewRegistry(switcher Switcher) *Registry {
	return &Registry{
		switcher: switcher,
	}
}

// Register adds src and recomputes the winner.
func (r *Registry) Register(ctx context.Context, src *Source) error {
	r.mu.Lock()
	src.mu.Lock()

	if src.registry != nil {
		src.mu.Unlock()
		r.mu.Unlock()

		return ErrAlreadyRegistered
	}

	src.registry = r
	src.mu.Unlock()

	r.sources = append(r.sources, src)
	r.mu.Unlock()

	logger.DebugKV(ctx, "Pattern source registered", "source", src.name, "priority", src.priority)

	r.Recompute(ctx)

	return nil
}

// Deregister removes src and recomputes the winner. Unknown sources are ignored.
func (r *Registry) Deregister(ctx context.Context, src *Source) {
	r.mu.Lock()

	idx := slices.Index(r.sources, src)
	if idx < 0 {
		r.mu.Unlock()
		return
	}

	r.sources = slices.Delete(r.sources, idx, idx+1)

	src.mu.Lock()
	src.registry = nil
	src.mu.Unlock()

	r.mu.Unlock()

	logger.DebugKV(ctx, "Pattern source deregistered", "source", src.name)

	r.Recompute(ctx)
}

// Clear detaches every source without recomputing. It returns how many were removed.
func (r *Registry) Clear() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, src := range r.sources {
		src.mu.Lock()
		src.registry = nil
		src.mu.Unlock()
	}

	removed := len(r.sources)
	r.sources = nil

	return removed
}

// Len returns the number of registered sources.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sources)
}

// Winner merges the current votes: the highest source priority wins and ties
// go to the source registered first. Sources without a vote are skipped.
func (r *Registry) Winner() (pattern.Pattern, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		winner pattern.Pattern
		best   int
		found  bool
	)

	for _, src := range r.sources {
		src.mu.Lock()
		current := src.current
		src.mu.Unlock()

		if current.IsZero() {
			continue
		}

		if !found || src.priority > best {
			winner, best, found = current, src.priority, true
		}
	}

	return winner, found
}

// Snapshot lists the registered sources in registration order.
func (r *Registry) Snapshot() []SourceState {
	r.mu.Lock()
	defer r.mu.Unlock()

	states := make([]SourceState, 0, len(r.sources))

	for _, src := range r.sources {
		src.mu.Lock()
		states = append(states, SourceState{
			Name:     src.name,
			Priority: src.priority,
			Pattern:  src.current.Name,
		})
		src.mu.Unlock()
	}

	return states
}

// Recompute computes the winner and hands it to the switcher.
// With no vote at all the active pattern is left as it is.
func (r *Registry) Recompute(ctx context.Context) (pattern.Pattern, bool) {
	r.applyMu.Lock()
	defer r.applyMu.Unlock()

	winner, ok := r.Winner()
	if !ok || r.switcher == nil {
		return winner, ok
	}

	changed, err := r.switcher.SwitchPattern(ctx, winner)

	switch {
	case errors.Is(err, ErrNotRunning):
		logger.DebugKV(ctx, "Winning pattern ignored, LED service is not running", "pattern", winner.Name)
	case err != nil:
		logger.WarnKV(ctx, "Failed to apply winning pattern", "pattern", winner.Name, "error", err)
	case changed:
		logger.DebugKV(ctx, "Winning pattern applied", "pattern", winner.Name)
	}

	return winner, true
}

// update stores a new vote for src and recomputes when src belongs to r.
func (r *Registry) update(ctx context.Context, src *Source, p pattern.Pattern) {
	r.mu.Lock()
	src.mu.Lock()
	src.current = p
	registered := src.registry == r
	src.mu.Unlock()
	r.mu.Unlock()

	if registered {
		r.Recompute(ctx)
	}
}
