package cli

import (
	"github.com/okian/gridcast/internal/adapters/openf1"
	"github.com/okian/gridcast/internal/adapters/repository"
	"github.com/okian/gridcast/internal/adapters/tablestore"
	service "github.com/okian/gridcast/internal/app"
	"github.com/okian/gridcast/internal/domain/regression"
)

// openService wires the pipeline from the effective configuration. The
// caller closes the returned service.
func (o *RootOptions) openService() (*service.Service, error) {
	cfg := o.Config

	newModel, err := regression.Factory(regression.Kind(cfg.ModelKind),
		regression.WithLambda(cfg.RidgeLambda),
		regression.WithLearningRate(cfg.GradientLearningRate),
		regression.WithMaxIterations(cfg.GradientIterations),
	)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid model", err)
	}

	opts := []service.Option{
		service.WithLogger(o.Logger.Named("service")),
		service.WithTrainingYears(cfg.TrainingYears),
		service.WithBuildWorkers(cfg.BuildWorkers),
		service.WithModel(cfg.ModelKind, newModel),
	}

	if !o.Offline {
		client := openf1.New(cfg.OpenF1BaseURL,
			openf1.WithTimeout(cfg.HTTPTimeout()),
			openf1.WithRetry(cfg.RetryAttempts, cfg.RetryBackoff()),
			openf1.WithRequestsPerSecond(cfg.RequestsPerSecond),
			openf1.WithLogger(o.Logger.Named("openf1")),
		)
		opts = append(opts, service.WithProvider(client))
	}

	if cfg.HistoryDB != "" {
		history, err := repository.Open(cfg.HistoryDB, repository.WithLogger(o.Logger.Named("history")))
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open history database", err)
		}
		opts = append(opts, service.WithHistory(history))
	}

	tables := tablestore.New(cfg.DataDir, tablestore.WithLogger(o.Logger.Named("tablestore")))
	return service.New(tables, opts...), nil
}
