package ctl

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/oshokin/build-tv/internal/api/grpc/control"
	"github.com/oshokin/build-tv/internal/config"
	"github.com/oshokin/build-tv/internal/logger"
)

// Options configures build-tv-ctl.
type Options struct {
	// ConfigPath to YAML settings file; read only when ControlAddress is empty.
	ConfigPath string
	// ControlAddress overrides the control API address from the settings.
	ControlAddress string
}

// SetPattern forces the named pattern on the running daemon.
func SetPattern(ctx context.Context, opts *Options, name string) error {
	ctx = logger.WithName(ctx, "build-tv-ctl")

	client, err := connect(opts)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	actor, err := control.DetectActor()
	if err != nil {
		logger.WarnKV(ctx, "Unable to identify the current user", "error", err)
	}

	if err = client.SetPattern(control.WithActor(ctx, actor), name); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Pattern set", "pattern", name)

	return nil
}

// Status prints the daemon state to w.
func Status(ctx context.Context, opts *Options, w io.Writer) error {
	client, err := connect(opts)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	state, err := client.GetState(ctx)
	if err != nil {
		return err
	}

	_, err = io.WriteString(w, FormatState(state))

	return err
}

// connect dials the address from options or settings.
func connect(opts *Options) (*control.Client, error) {
	address := opts.ControlAddress
	timeout := config.DefaultTimeout

	if address == "" {
		cfg, err := config.Load(opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load settings: %w", err)
		}

		address = cfg.ControlAddress
		timeout = cfg.Jenkins.Timeout
	}

	return control.Dial(address, control.WithCallTimeout(timeout))
}

// FormatState renders a state as readable text.
func FormatState(state *control.State) string {
	var b strings.Builder

	active := state.ActivePattern
	if active == "" {
		active = "<idle>"
	}

	fmt.Fprintf(&b, "pattern: %s\n", active)
	fmt.Fprintf(&b, "frames: %s (%s failed), swaps: %s\n",
		humanize.Comma(int64(state.Frames)), //nolint:gosec // Frame counters stay far below MaxInt64.
		humanize.Comma(int64(state.FrameFailures)), //nolint:gosec // Same as above.
		humanize.Comma(int64(state.Swaps)), //nolint:gosec // Same as above.
	)

	b.WriteString("sources:\n")

	if len(state.Sources) == 0 {
		b.WriteString("  <none>\n")
	}

	for _, src := range state.Sources {
		vote := src.Pattern
		if vote == "" {
			vote = "<no vote>"
		}

		fmt.Fprintf(&b, "  %s (priority %d): %s\n", src.Name, src.Priority, vote)
	}

	n := state.Notification
	if n == nil {
		b.WriteString("notification: <none>\n")

		return b.String()
	}

	fmt.Fprintf(&b, "notification: %q from %s, priority %d, %s\n", n.Header, n.Source, n.Priority, n.Color)

	if n.Text != "" {
		for line := range strings.SplitSeq(n.Text, "\n") {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}

	return b.String()
}
