package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/build-tv/internal/config"
	"github.com/oshokin/build-tv/internal/service/daemon"
	"github.com/oshokin/build-tv/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// logLevel overrides the configured log level.
	logLevel string
	// controlAddress overrides the configured control API address.
	controlAddress string
	// allowMultiple skips the single-instance check.
	allowMultiple bool

	// rootCmd represents the base command for running the daemon.
	rootCmd = &cobra.Command{
		Use:   "build-tv-daemon",
		Short: "Show build status on an LED strip.",
		Long: `Polls the configured Jenkins servers and shows the aggregate build status on an LED strip.

Every producer (build status, the daily standup, manual overrides) votes for a pattern with a fixed
priority; the highest priority vote is rendered. Notifications are shown on the configured display
until they expire. The control API lets build-tv-ctl force a pattern and read the current state.

Stopping the daemon shows the shutdown pattern before exiting.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return daemon.Run(ctx, &daemon.Options{
				ConfigPath:     configPath,
				LogLevel:       logLevel,
				ControlAddress: controlAddress,
				AllowMultiple:  allowMultiple,
			})
		},
	}
)

// Execute runs the build-tv-daemon CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&controlAddress, "control-addr", "", "control API listen address")

	// Hidden flag for running a second daemon against a simulated strip.
	rootCmd.Flags().BoolVar(&allowMultiple, "allow-multiple", false, "skip the single-instance check")

	err := rootCmd.Flags().MarkHidden("allow-multiple")
	if err != nil {
		panic(err)
	}
}
