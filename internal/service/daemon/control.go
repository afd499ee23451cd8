package daemon

import (
	"context"

	"github.com/oshokin/build-tv/internal/api/grpc/control"
	"github.com/oshokin/build-tv/internal/service/led"
	"github.com/oshokin/build-tv/internal/service/notify"
)

// controlService exposes the LED service and the notification registry to the control API.
type controlService struct {
	led           *led.Service
	notifications *notify.Registry
}

// newControlService creates the control API backend.
func newControlService(ledService *led.Service, notifications *notify.Registry) *controlService {
	return &controlService{
		led:           ledService,
		notifications: notifications,
	}
}

// SetPattern forces a pattern until the next merge recompute.
func (c *controlService) SetPattern(ctx context.Context, name string) error {
	return c.led.SetPattern(ctx, name)
}

// State collects a snapshot of the daemon.
func (c *controlService) State(context.Context) *control.State {
	stats := c.led.LedController().Stats()

	state := &control.State{
		ActivePattern: c.led.Active(),
		Frames:        stats.Frames,
		FrameFailures: stats.Failures,
		Swaps:         c.led.Swaps(),
	}

	for _, src := range c.led.Registry().Snapshot() {
		state.Sources = append(state.Sources, control.SourceState{
			Name:     src.Name,
			Priority: src.Priority,
			Pattern:  src.Pattern,
		})
	}

	if n := c.notifications.Current(); n != nil {
		state.Notification = &control.NotificationState{
			Source:   c.notifications.CurrentSource(),
			Header:   n.Header,
			Text:     n.Text,
			Color:    n.Color.Hex(),
			Priority: n.Priority,
			Lifespan: n.Lifespan,
		}
	}

	return state
}
