// Package cli implements the ticksched command line.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"ticksched/internal/logging"
)

var (
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string
)

// Version is overridden at link time.
var Version = "dev"

// NewRootCmd creates the root cobra command.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "ticksched",
		Short:        "Round-robin kernel scheduler simulator",
		Long:         "ticksched boots a task table on a simulated machine and drives it with timer, keyboard and fault interrupts.",
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config file")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "Log format (text, json); overrides the config file")

	root.AddCommand(
		newRunCmd(),
		newVersionCmd(),
	)
	return root
}

// newLogger prefers flags over the config file's log section.
func newLogger(cmd *cobra.Command, level, format string) *slog.Logger {
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	if flagLogFormat != "" {
		format = flagLogFormat
	}
	if flagDebug {
		level = "debug"
	}
	return logging.NewLoggerWithWriter(logging.ParseLevel(level), format, cmd.ErrOrStderr())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	}
}
