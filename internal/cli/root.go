// Package cli implements the gridcast command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/okian/gridcast/internal/config"
	"github.com/okian/gridcast/pkg/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	// Offline works from the table store only; no provider is contacted.
	Offline bool

	Config *config.Config
	Logger logger.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command. cfg supplies the defaults that
// the global flags override; a nil cfg means config.New().
func NewRootCommand(cfg *config.Config, log logger.Logger) *cobra.Command {
	if cfg == nil {
		cfg = config.New()
	}
	if log == nil {
		log = logger.Nop()
	}
	opts := &RootOptions{Config: cfg, Logger: log}

	cmd := &cobra.Command{
		Use:   "gridcast",
		Short: "gridcast - grand prix race result predictions",
		Long: `Build per-event driver tables from OpenF1 session telemetry and predict
race classifications from the events that came before.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if opts.Verbose {
				logger.SetLevel(slog.LevelDebug)
			}
			if err := opts.Config.Validate(); err != nil {
				return WrapExitError(ExitCommandError, "invalid configuration", err)
			}
			return nil
		},
	}
	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVar(&opts.Offline, "offline", false, "use stored tables only, never contact the provider")
	cmd.PersistentFlags().StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "root directory of the stored event tables")
	cmd.PersistentFlags().StringVar(&cfg.HistoryDB, "history-db", cfg.HistoryDB, "SQLite prediction history file (empty disables history)")
	cmd.PersistentFlags().StringVar(&cfg.ModelKind, "model", cfg.ModelKind, "regressor (ridge|gradient)")

	// Add subcommands
	cmd.AddCommand(NewEventsCommand(opts))
	cmd.AddCommand(NewBuildCommand(opts))
	cmd.AddCommand(NewPredictCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// Execute runs cmd. Errors raised by cobra itself, such as unknown commands
// or missing required flags, become command errors.
func Execute(ctx context.Context, cmd *cobra.Command) error {
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		return WrapExitError(ExitCommandError, "invalid command", err)
	}
	return err
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}
