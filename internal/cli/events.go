package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/gridcast/internal/domain/model"
)

// EventsOptions holds flags for the events command.
type EventsOptions struct {
	*RootOptions
	Year int
}

// NewEventsCommand creates the events command.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List a season's grand prix calendar",
		Long: `List the events of a season in calendar order.

The calendar comes from the provider; offline, or when the provider is
unreachable, the events with a stored table are listed instead.

Examples:
  gridcast events --year 2025
  gridcast events --year 2024 --offline --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Year, "year", time.Now().Year(), "season to list")

	return cmd
}

func runEvents(opts *EventsOptions, cmd *cobra.Command) error {
	svc, err := opts.openService()
	if err != nil {
		return err
	}
	defer svc.Close()

	events, err := svc.Calendar(cmd.Context(), opts.Year)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("failed to list events for %d", opts.Year), err)
	}

	return opts.formatter(cmd).Success(events, func(w io.Writer) error {
		return writeEvents(w, events)
	})
}

func writeEvents(w io.Writer, events []model.Event) error {
	if len(events) == 0 {
		_, err := fmt.Fprintln(w, "No events found.")
		return err
	}
	for _, e := range events {
		date := "-"
		if !e.Date.IsZero() {
			date = e.Date.Format(time.DateOnly)
		}
		name := e.Name
		if name == "" {
			name = "-"
		}
		if _, err := fmt.Fprintf(w, "%-10s  %-20s  %-20s  %s\n", date, e.Country, e.Location, name); err != nil {
			return err
		}
	}
	return nil
}
