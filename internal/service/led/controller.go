package led

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/oshokin/build-tv/internal/domain/pattern"
)

// Strip writes frames to the physical LEDs.
type Strip interface {
	Write(ctx context.Context, frame pattern.Frame) error
}

// Stats counts the frames pushed through a Controller.
type Stats struct {
	// Frames is the number of frames written successfully.
	Frames uint64
	// Failures is the number of frames the strip rejected.
	Failures uint64
}

// Controller serializes access to the strip and keeps the last frame written.
type Controller struct {
	// strip is the hardware collaborator.
	strip Strip
	// pixels is the strip length frames are rendered for.
	pixels int

	// mu protects the strip and the fields below.
	mu sync.Mutex
	// last is the most recent frame the strip accepted.
	last pattern.Frame
	// stats counts successes and failures.
	stats Stats
}

// NewController wraps strip.
func NewController(strip Strip, pixels int) *Controller {
	return &Controller{
		strip:  strip,
		pixels: pixels,
	}
}

// Pixels returns the strip length.
func (c *Controller) Pixels() int {
	return c.pixels
}

// Write sends frame to the strip.
func (c *Controller) Write(ctx context.Context, frame pattern.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.strip.Write(ctx, frame); err != nil {
		c.stats.Failures++

		return fmt.Errorf("write frame: %w", err)
	}

	c.stats.Frames++
	c.last = frame

	return nil
}

// Stats returns the frame counters.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.stats
}

// LastFrame returns a copy of the last frame written.
func (c *Controller) LastFrame() pattern.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()

	return slices.Clone(c.last)
}
