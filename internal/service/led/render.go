package led

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/oshokin/build-tv/internal/domain/pattern"
	"github.com/oshokin/build-tv/internal/logger"
)

// renderLoop draws one pattern until stopped.
type renderLoop struct {
	// pattern is the pattern being drawn.
	pattern pattern.Pattern
	// cancel signals the loop to exit at its next tick.
	cancel context.CancelFunc
	// done is closed when the loop goroutine returns.
	done chan struct{}
}

// startRenderLoop spawns the loop goroutine. Its lifetime is detached from
// ctx and ends only through stop.
func startRenderLoop(
	ctx context.Context,
	p pattern.Pattern,
	controller *Controller,
	interval time.Duration,
	alive *atomic.Int32,
) *renderLoop {
	base := logger.WithKV(logger.WithName(context.WithoutCancel(ctx), "render"), "pattern", p.Name)
	loopCtx, cancel := context.WithCancel(base)

	l := &renderLoop{
		pattern: p,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	alive.Add(1)

	go func() {
		// The counter drops before done is closed, so a joined loop is never counted.
		defer close(l.done)
		defer alive.Add(-1)

		l.run(loopCtx, base, controller, interval)
	}()

	return l
}

// run emits a frame immediately and then once per tick until loopCtx is canceled.
// Frames are written with writeCtx so a stop never interrupts a frame half way.
func (l *renderLoop) run(loopCtx, writeCtx context.Context, controller *Controller, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var (
		started = time.Now()
		failed  uint64
	)

	for {
		frame := l.pattern.Render(time.Since(started), controller.Pixels())

		if err := controller.Write(writeCtx, frame); err != nil {
			if failed == 0 {
				logger.WarnKV(loopCtx, "LED frame write failed", "error", err)
			} else {
				logger.DebugKV(loopCtx, "LED frame write failed again", "failed_frames", failed+1, "error", err)
			}

			failed++
		} else if failed > 0 {
			logger.InfoKV(loopCtx, "LED frame writes recovered", "failed_frames", failed)

			failed = 0
		}

		select {
		case <-loopCtx.Done():
			return
		case <-ticker.C:
		}
	}
}

// stop cancels the loop and waits for it to exit. A loop that takes longer
// than warnAfter is reported but still waited for.
func (l *renderLoop) stop(ctx context.Context, warnAfter time.Duration) {
	l.cancel()

	timer := time.NewTimer(warnAfter)
	defer timer.Stop()

	select {
	case <-l.done:
		return
	case <-timer.C:
		logger.WarnKV(ctx, "Render loop is slow to stop, still waiting", "pattern", l.pattern.Name, "waited", warnAfter.String())
	}

	<-l.done
}
