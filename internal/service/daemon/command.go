package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/oshokin/build-tv/internal/api/grpc/control"
	"github.com/oshokin/build-tv/internal/config"
	"github.com/oshokin/build-tv/internal/display"
	"github.com/oshokin/build-tv/internal/domain/build"
	"github.com/oshokin/build-tv/internal/domain/pattern"
	"github.com/oshokin/build-tv/internal/logger"
	"github.com/oshokin/build-tv/internal/service/instance"
	"github.com/oshokin/build-tv/internal/service/jenkins"
	"github.com/oshokin/build-tv/internal/service/led"
	"github.com/oshokin/build-tv/internal/service/notify"
	"github.com/oshokin/build-tv/internal/service/standup"
	"github.com/oshokin/build-tv/internal/strip"
	"github.com/oshokin/build-tv/internal/version"
)

// Options controls the build-tv-daemon process.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// LogLevel overrides the log level from the settings when set.
	LogLevel string
	// ControlAddress overrides the control API address from the settings when set.
	ControlAddress string
	// AllowMultiple skips the single-instance check.
	AllowMultiple bool
}

// errUnknownLogLevel is returned for a log level ParseLogLevel does not know.
var errUnknownLogLevel = errors.New("unknown log level")

// Run starts the daemon and blocks until ctx is canceled or a component fails.
//
//nolint:funlen // Wiring reads best top to bottom.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "build-tv-daemon")

	// Configuration errors are fatal: nothing starts on partial settings.
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if err = applyLogLevel(opts.LogLevel, cfg.LogLevel); err != nil {
		return err
	}

	if !opts.AllowMultiple {
		if err = instance.EnsureSingle(ctx); err != nil {
			return err
		}
	}

	controlAddress := cfg.ControlAddress
	if opts.ControlAddress != "" {
		controlAddress = opts.ControlAddress
	}

	table := pattern.Builtin()
	controller := led.NewController(newStrip(&cfg.LED), cfg.LED.Pixels)
	ledService := led.NewService(table, controller, led.Options{
		FrameInterval: cfg.LED.FrameInterval,
		StopWarnAfter: cfg.LED.StopWarnAfter,
	})

	notificationDisplay, closeDisplay := newDisplay(ctx, cfg)
	defer closeDisplay()

	notifications := notify.NewRegistry(notificationDisplay)

	poller, err := newPoller(cfg, table, ledService.Registry(), notifications)
	if err != nil {
		return fmt.Errorf("initialise jenkins poller: %w", err)
	}

	producer, err := newStandup(cfg, table, ledService.Registry(), notifications)
	if err != nil {
		return fmt.Errorf("initialise standup producer: %w", err)
	}

	// Setup TCP listener for the control API.
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", controlAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", controlAddress, err)
	}

	grpcServer := grpc.NewServer()
	control.Register(grpcServer, control.NewServer(newControlService(ledService, notifications)))

	if err = ledService.Start(ctx); err != nil {
		_ = lis.Close()

		return fmt.Errorf("start led service: %w", err)
	}

	// Producers outlive ctx until the LED service has drawn the shutdown pattern.
	producersCtx, cancelProducers := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelProducers()

	group, groupCtx := errgroup.WithContext(producersCtx)

	group.Go(func() error {
		return notifications.Run(groupCtx, cfg.Notifications.RefreshInterval)
	})

	group.Go(func() error {
		return poller.Run(groupCtx)
	})

	if producer != nil {
		group.Go(func() error {
			return producer.Run(groupCtx)
		})
	}

	serveErr := make(chan error, 1)

	go func() {
		serveErr <- grpcServer.Serve(lis)
	}()

	logger.InfoKV(ctx, "Build TV daemon started",
		"version", version.Short(),
		"control_address", lis.Addr().String(),
		"hosts", len(cfg.Jenkins.Hosts),
		"standup", producer != nil,
	)

	var runErr error

	select {
	case <-ctx.Done():
		logger.Info(ctx, "Shutting down")
	case err = <-serveErr:
		runErr = fmt.Errorf("serve gRPC: %w", err)
	case <-groupCtx.Done():
		logger.Warn(ctx, "A producer failed, shutting down")
	}

	grpcServer.GracefulStop()

	if err = ledService.Stop(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, led.ErrNotRunning) {
		logger.ErrorKV(ctx, "Failed to stop LED service", "error", err)
	}

	cancelProducers()

	if err = group.Wait(); err != nil && runErr == nil {
		runErr = err
	}

	logger.Info(ctx, "Build TV daemon stopped")

	return runErr
}

// applyLogLevel switches the shared logger to the override or the configured level.
func applyLogLevel(override, configured string) error {
	value := configured
	if override != "" {
		value = override
	}

	level, ok := logger.ParseLogLevel(value)
	if !ok {
		return fmt.Errorf("%w: %q", errUnknownLogLevel, value)
	}

	logger.SetLevel(level)

	return nil
}

// newStrip builds the strip selected by led.output.
func newStrip(cfg *config.LED) led.Strip {
	if cfg.Output == config.OutputLog {
		// Roughly one logged frame per second.
		return strip.NewLog(int(time.Second / cfg.FrameInterval))
	}

	return strip.NewTerminal(os.Stdout)
}

// newDisplay connects the MQTT display when a broker is configured and falls
// back to the log display otherwise. The returned func releases the display.
func newDisplay(ctx context.Context, cfg *config.Config) (notify.Display, func()) {
	mqttCfg := cfg.Notifications.MQTT
	if mqttCfg.Broker == "" {
		return display.NewLog(), func() {}
	}

	mqttDisplay, err := display.NewMQTT(ctx, display.MQTTOptions{
		Broker:   mqttCfg.Broker,
		Topic:    mqttCfg.Topic,
		ClientID: mqttCfg.ClientID,
		Timeout:  cfg.Jenkins.Timeout,
	})
	if err != nil {
		logger.WarnKV(ctx, "MQTT display unavailable, logging notifications instead", "error", err)

		return display.NewLog(), func() {}
	}

	return mqttDisplay, mqttDisplay.Close
}

// newPoller builds the Jenkins poller from settings.
func newPoller(
	cfg *config.Config,
	table *pattern.Table,
	registry *led.Registry,
	notifications *notify.Registry,
) (*jenkins.Poller, error) {
	hosts := make([]build.Host, 0, len(cfg.Jenkins.Hosts))
	for _, host := range cfg.Jenkins.Hosts {
		hosts = append(hosts, build.Host{Name: host.Name, URL: host.URL, Jobs: host.Jobs})
	}

	return jenkins.NewPoller(jenkins.Options{
		Hosts:          hosts,
		PollRate:       cfg.Jenkins.PollRate(),
		MaxBufferBytes: cfg.Jenkins.MaxBufferBytes,
		Fetcher:        jenkins.NewHTTPFetcher(cfg.Jenkins.Timeout, cfg.Jenkins.MaxBufferBytes),
		Patterns:       table,
		Registry:       registry,
		Notifier:       notifications,
	})
}

// newStandup builds the standup producer, nil when disabled.
func newStandup(
	cfg *config.Config,
	table *pattern.Table,
	registry *led.Registry,
	notifications *notify.Registry,
) (*standup.Producer, error) {
	if !cfg.Standup.Enabled {
		return nil, nil //nolint:nilnil // A disabled producer is not an error.
	}

	hour, minute, err := config.ParseClock(cfg.Standup.At)
	if err != nil {
		return nil, err
	}

	weekdays, err := config.ParseWeekdays(cfg.Standup.Weekdays)
	if err != nil {
		return nil, err
	}

	return standup.NewProducer(standup.Options{
		Hour:     hour,
		Minute:   minute,
		Duration: cfg.Standup.Duration,
		Weekdays: weekdays,
		Patterns: table,
		Registry: registry,
		Notifier: notifications,
	})
}
