package strip

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/muesli/termenv"

	"github.com/oshokin/build-tv/internal/domain/pattern"
)

// pixelGlyph is what one LED looks like on screen.
const pixelGlyph = "  "

// Terminal draws each frame as a row of coloured blocks, redrawing in place.
type Terminal struct {
	// output renders colours for the detected or forced terminal profile.
	output *termenv.Output

	// mu serializes writes so rows never interleave.
	mu sync.Mutex
}

// NewTerminal creates a terminal strip writing to w.
func NewTerminal(w io.Writer, opts ...termenv.OutputOption) *Terminal {
	return &Terminal{
		output: termenv.NewOutput(w, opts...),
	}
}

// Write redraws the row for frame.
func (t *Terminal) Write(_ context.Context, frame pattern.Frame) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var row strings.Builder

	row.WriteString("\r")

	for _, c := range frame {
		row.WriteString(t.output.String(pixelGlyph).Background(t.output.Color(c.Clamped().Hex())).String())
	}

	if _, err := io.WriteString(t.output, row.String()); err != nil {
		return fmt.Errorf("draw frame: %w", err)
	}

	return nil
}
