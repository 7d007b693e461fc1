// Package cli implements the hfsm command line tool.
package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/comalice/hfsm/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	LogLevel  string
	LogFormat string

	// Logger is set up from LogLevel before any subcommand runs.
	Logger zerolog.Logger
}

// NewRootCommand creates the root command for the hfsm CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{Logger: logging.NewNop()}

	cmd := &cobra.Command{
		Use:   "hfsm",
		Short: "Hierarchical finite state machine tool",
		Long:  "Validate and simulate hierarchical state machines defined in YAML.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logging.ParseLevel(opts.LogLevel)
			if err != nil {
				return err
			}
			switch opts.LogFormat {
			case "console":
				opts.Logger = logging.NewConsole(cmd.ErrOrStderr(), level)
			case "json":
				opts.Logger = logging.New(cmd.ErrOrStderr(), level)
			default:
				return fmt.Errorf("invalid log format %q (want console or json)", opts.LogFormat)
			}
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "warn", "log level (trace|debug|info|warn|error|disabled)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "console", "log format (console|json)")

	// Add subcommands
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))

	return cmd
}
