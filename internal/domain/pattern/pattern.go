package pattern

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/lucasb-eyer/go-colorful"
)

// Frame is the ordered list of per-pixel colours sent to the strip.
type Frame []colorful.Color

// RenderFunc computes a frame for the given elapsed time and strip length.
type RenderFunc func(elapsed time.Duration, pixels int) Frame

// Pattern is a named, immutable rendering function.
type Pattern struct {
	// Name identifies the pattern in the table and on the control API.
	Name string
	// Priority ranks the pattern when several hosts report different states.
	Priority int

	render RenderFunc
}

var (
	// ErrEmptyName is returned when a pattern without a name is registered.
	ErrEmptyName = errors.New("pattern name is empty")
	// ErrDuplicate is returned when two patterns share a name.
	ErrDuplicate = errors.New("pattern registered twice")
	// ErrNoRenderer is returned when a pattern has no render function.
	ErrNoRenderer = errors.New("pattern has no render function")
)

// New builds a pattern.
func New(name string, priority int, render RenderFunc) Pattern {
	return Pattern{
		Name:     name,
		Priority: priority,
		render:   render,
	}
}

// IsZero reports whether p is the "no pattern" value.
func (p Pattern) IsZero() bool {
	return p.Name == "" && p.render == nil
}

// Render produces the frame for elapsed time. Negative pixel counts render nothing.
func (p Pattern) Render(elapsed time.Duration, pixels int) Frame {
	if p.render == nil || pixels <= 0 {
		return Frame{}
	}

	return p.render(elapsed, pixels)
}

// Table is a read-only name to Pattern registry, populated once at startup.
type Table struct {
	patterns map[string]Pattern
}

// NewTable validates and indexes the provided patterns.
func NewTable(patterns ...Pattern) (*Table, error) {
	t := &Table{
		patterns: make(map[string]Pattern, len(patterns)),
	}

	for _, p := range patterns {
		if p.Name == "" {
			return nil, ErrEmptyName
		}

		if p.render == nil {
			return nil, fmt.Errorf("%s: %w", p.Name, ErrNoRenderer)
		}

		if _, ok := t.patterns[p.Name]; ok {
			return nil, fmt.Errorf("%s: %w", p.Name, ErrDuplicate)
		}

		t.patterns[p.Name] = p
	}

	return t, nil
}

// Lookup returns the pattern registered under name.
func (t *Table) Lookup(name string) (Pattern, bool) {
	p, ok := t.patterns[name]

	return p, ok
}

// Require returns an error naming the first pattern missing from the table.
func (t *Table) Require(names ...string) error {
	for _, name := range names {
		if _, ok := t.patterns[name]; !ok {
			return fmt.Errorf("pattern %q is not registered", name)
		}
	}

	return nil
}

// Names returns the registered names in lexical order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.patterns))
	for name := range t.patterns {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
