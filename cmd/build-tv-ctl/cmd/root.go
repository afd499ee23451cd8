package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/build-tv/internal/config"
	"github.com/oshokin/build-tv/internal/service/ctl"
	"github.com/oshokin/build-tv/internal/version"
)

var (
	// options are shared by every subcommand.
	options ctl.Options

	// rootCmd represents the base command of the control CLI.
	rootCmd = &cobra.Command{
		Use:   "build-tv-ctl",
		Short: "Control a running build TV daemon.",
		Long: `Talks to the control API of a running build-tv-daemon.

The daemon address is read from the configuration file unless --control-addr is given.`,
	}

	// patternCmd forces a pattern.
	patternCmd = &cobra.Command{
		Use:   "pattern <name>",
		Short: "Force an LED pattern.",
		Long: `Switches the strip to the named pattern right away.

The override lasts until the next producer update; the highest priority vote then wins again.
Unknown pattern names are rejected and the strip keeps its current pattern.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return ctl.SetPattern(ctx, &options, args[0])
		},
	}

	// statusCmd prints the daemon state.
	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Print the active pattern, sources and notification.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return ctl.Status(ctx, &options, cmd.OutOrStdout())
		},
	}
)

// Execute runs the build-tv-ctl CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&options.ConfigPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().StringVar(&options.ControlAddress, "control-addr", "", "daemon control API address")

	rootCmd.AddCommand(patternCmd, statusCmd)
}
