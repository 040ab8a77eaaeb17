package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	service "github.com/okian/gridcast/internal/app"
	"github.com/okian/gridcast/internal/domain/model"
)

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	*RootOptions
	Years []int
	Event string // optional - "country/location" of a single event
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Fetch sessions and store one table per event",
		Long: `Fetch every session of the selected events from the provider, reduce
them to per-driver metrics, merge the sessions and store the event table.

Sessions without data are skipped and reported; an event without any data
is not stored. Years default to the configured training years.

Examples:
  gridcast build --years 2023,2024,2025
  gridcast build --years 2025 --event Italy/Imola`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(opts, cmd)
		},
	}

	cmd.Flags().IntSliceVar(&opts.Years, "years", nil, "seasons to build (default: training years)")
	cmd.Flags().StringVar(&opts.Event, "event", "", "single event as country/location (needs exactly one year)")

	return cmd
}

func runBuild(opts *BuildOptions, cmd *cobra.Command) error {
	years := opts.Years
	if len(years) == 0 {
		years = opts.Config.TrainingYears
	}

	var single *model.EventKey
	if opts.Event != "" {
		if len(years) != 1 {
			return NewExitError(ExitCommandError, "--event needs exactly one year")
		}
		country, location, ok := strings.Cut(opts.Event, "/")
		if !ok || strings.TrimSpace(country) == "" || strings.TrimSpace(location) == "" {
			return NewExitError(ExitCommandError, fmt.Sprintf("invalid --event %q: want country/location", opts.Event))
		}
		single = &model.EventKey{Country: strings.TrimSpace(country), Location: strings.TrimSpace(location), Year: years[0]}
	}

	svc, err := opts.openService()
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := cmd.Context()
	var results []service.BuildResult
	if single != nil {
		event, err := svc.Resolve(ctx, *single)
		if err != nil {
			return WrapExitError(ExitCommandError, "unknown event", err)
		}
		res, err := svc.BuildEvent(ctx, event.EventKey)
		if err != nil {
			return buildError(err)
		}
		results = append(results, res)
	} else {
		results, err = svc.BuildYears(ctx, years)
		if err != nil {
			return buildError(err)
		}
	}

	return opts.formatter(cmd).Success(results, func(w io.Writer) error {
		return writeBuildResults(w, results)
	})
}

func buildError(err error) error {
	if errors.Is(err, service.ErrNoProvider) {
		return WrapExitError(ExitCommandError, "build needs the provider; drop --offline", err)
	}
	return WrapExitError(ExitCommandError, "build failed", err)
}

func writeBuildResults(w io.Writer, results []service.BuildResult) error {
	saved := 0
	for _, r := range results {
		status := "skipped"
		if r.Saved {
			status = "saved"
			saved++
		}
		if _, err := fmt.Fprintf(w, "%-40s  %-7s  %3d rows  %d sessions\n", r.Event, status, r.Rows, len(r.Sessions)); err != nil {
			return err
		}
		for _, s := range r.Skipped {
			if _, err := fmt.Fprintf(w, "  %s\n", s); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(w, "\nBuilt %d of %d events\n", saved, len(results))
	return err
}
