package strip

import (
	"context"
	"sync/atomic"

	"github.com/oshokin/build-tv/internal/domain/pattern"
	"github.com/oshokin/build-tv/internal/logger"
)

// Log writes frames to the debug log, one in every Every frames.
type Log struct {
	// every is the sampling rate; 1 logs every frame.
	every uint64
	// written counts frames seen.
	written atomic.Uint64
}

// NewLog creates a log strip sampling one frame in every.
func NewLog(every int) *Log {
	if every < 1 {
		every = 1
	}

	return &Log{
		every: uint64(every),
	}
}

// Write logs the hex colours of a sampled frame. It never fails.
func (l *Log) Write(ctx context.Context, frame pattern.Frame) error {
	n := l.written.Add(1)
	if (n-1)%l.every != 0 {
		return nil
	}

	colors := make([]string, len(frame))
	for i, c := range frame {
		colors[i] = c.Clamped().Hex()
	}

	logger.DebugKV(ctx, "LED frame", "frame", n, "colors", colors)

	return nil
}

// Written returns how many frames were handed to the strip.
func (l *Log) Written() uint64 {
	return l.written.Load()
}
