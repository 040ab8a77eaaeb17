package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/gridcast/internal/adapters/repository"
	service "github.com/okian/gridcast/internal/app"
	"github.com/okian/gridcast/internal/domain/types"
)

const defaultHistoryLimit = 20

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show past prediction runs",
		Long: `List the most recent prediction runs, newest first, or the ranked
drivers of one run when its id is given.

Examples:
  gridcast history --limit 5
  gridcast history 3f0c2a8e-2f4b-4a4e-9a55-0c1b2d3e4f56`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runHistoryRun(opts, cmd, args[0])
			}
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", defaultHistoryLimit, "number of runs to list")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	svc, err := opts.openService()
	if err != nil {
		return err
	}
	defer svc.Close()

	runs, err := svc.History(cmd.Context(), opts.Limit)
	if err != nil {
		return historyError(err)
	}
	return opts.formatter(cmd).Success(runs, func(w io.Writer) error {
		return writeRuns(w, runs)
	})
}

func runHistoryRun(opts *HistoryOptions, cmd *cobra.Command, runID string) error {
	svc, err := opts.openService()
	if err != nil {
		return err
	}
	defer svc.Close()

	entries, err := svc.RunPredictions(cmd.Context(), runID)
	if err != nil {
		return historyError(err)
	}
	return opts.formatter(cmd).Success(entries, func(w io.Writer) error {
		return writeEntries(w, entries)
	})
}

func historyError(err error) error {
	switch {
	case errors.Is(err, service.ErrHistoryDisabled):
		return WrapExitError(ExitCommandError, "history is disabled; set history_db", err)
	case errors.Is(err, repository.ErrNotFound):
		return WrapExitError(ExitCommandError, "unknown run", err)
	default:
		return WrapExitError(ExitCommandError, "failed to read history", err)
	}
}

func writeRuns(w io.Writer, runs []repository.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No prediction runs recorded.")
		return err
	}
	for _, r := range runs {
		winner := "-"
		if r.Winner != nil {
			winner = r.Winner.Name
		}
		if _, err := fmt.Fprintf(w, "%s  %s  %-36s  %-8s  %-24s  MAE %s\n",
			r.CreatedAt.Format(time.DateTime), r.RunID, r.Target, r.Model, winner, optional(r.MAE)); err != nil {
			return err
		}
	}
	return nil
}

func writeEntries(w io.Writer, entries []types.Entry) error {
	for _, e := range entries {
		actual := "-"
		if e.Actual != nil {
			actual = strconv.Itoa(*e.Actual)
		}
		if _, err := fmt.Fprintf(w, "%4d  %-3d  %-24s  %-24s  %8.3f  %6s\n",
			e.Rank, e.Driver.Number, e.Driver.Name, e.Driver.Team, e.Score, actual); err != nil {
			return err
		}
	}
	return nil
}

func optional(v *float64) string {
	if v == nil {
		return "unavailable"
	}
	return strconv.FormatFloat(*v, 'f', 3, 64)
}
