package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/gridcast/internal/adapters/report"
	service "github.com/okian/gridcast/internal/app"
	"github.com/okian/gridcast/internal/domain/model"
	"github.com/okian/gridcast/internal/domain/training"
)

// PredictOptions holds flags for the predict command.
type PredictOptions struct {
	*RootOptions
	Country  string
	Location string
	Year     int
	XLSX     string // optional - workbook path
	Refresh  bool
}

// NewPredictCommand creates the predict command.
func NewPredictCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PredictOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the race classification of an event",
		Long: `Train a regressor on every stored event before the target and rank the
target's drivers by predicted finishing position.

When the race has been run, the mean absolute error and R² against the
real classification are printed; otherwise they are reported unavailable.
The target table is built from the provider when it is not stored yet.

Examples:
  gridcast predict --country Italy --location Imola --year 2025
  gridcast predict --country Italy --location Imola --year 2025 --xlsx imola.xlsx
  gridcast predict --country Monaco --location "Monte Carlo" --year 2025 --refresh --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredict(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Country, "country", "", "country of the event (required)")
	_ = cmd.MarkFlagRequired("country")
	cmd.Flags().StringVar(&opts.Location, "location", "", "location of the event (required)")
	_ = cmd.MarkFlagRequired("location")
	cmd.Flags().IntVar(&opts.Year, "year", 0, "season of the event (required)")
	_ = cmd.MarkFlagRequired("year")
	cmd.Flags().StringVar(&opts.XLSX, "xlsx", "", "also write the prediction to this workbook")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "rebuild the target table from the provider")

	return cmd
}

func runPredict(opts *PredictOptions, cmd *cobra.Command) error {
	svc, err := opts.openService()
	if err != nil {
		return err
	}
	defer svc.Close()

	target := model.EventKey{Country: opts.Country, Location: opts.Location, Year: opts.Year}
	r, err := svc.Predict(cmd.Context(), target, service.PredictOptions{Refresh: opts.Refresh})
	if err != nil {
		return predictError(err)
	}

	if err := report.Write(cmd.OutOrStdout(), r, opts.Format); err != nil {
		return WrapExitError(ExitCommandError, "failed to write report", err)
	}

	if opts.XLSX != "" {
		if err := writeWorkbook(opts.XLSX, r); err != nil {
			return WrapExitError(ExitCommandError, "failed to write workbook", err)
		}
	}
	return nil
}

// predictError maps a failed prediction to its exit code. A run without a
// model (no training data, target unavailable, cancelled) is a prediction
// failure; a missing provider for --refresh is a command error.
func predictError(err error) error {
	if errors.Is(err, service.ErrNoProvider) {
		return WrapExitError(ExitCommandError, "refresh needs the provider; drop --offline", err)
	}
	return WrapExitError(ExitFailure, "prediction failed", err)
}

func writeWorkbook(path string, r *training.Report) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return report.WriteXLSX(f, r)
}
