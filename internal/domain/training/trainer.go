// Package training assembles a cross-event training corpus, fits a
// regressor and ranks the drivers of a target event.
package training

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/okian/gridcast/internal/domain/features"
	"github.com/okian/gridcast/internal/domain/model"
	"github.com/okian/gridcast/internal/domain/rank"
	"github.com/okian/gridcast/internal/domain/regression"
	"github.com/okian/gridcast/internal/domain/table"
	"github.com/okian/gridcast/internal/domain/types"
	"github.com/okian/gridcast/pkg/logger"
	"github.com/okian/gridcast/pkg/metrics"
)

// TableSource loads the persisted grand prix table of an event. A missing
// event is reported with an error wrapping model.ErrEventNotFound.
type TableSource interface {
	Load(ctx context.Context, key model.EventKey) (*table.Table, error)
}

// Option applies a configuration option to the Trainer.
type Option func(*Trainer)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(t *Trainer) {
		if l != nil {
			t.log = l
		}
	}
}

// WithModel sets the regressor constructor and the name recorded in reports.
func WithModel(kind string, newModel func() regression.Regressor) Option {
	return func(t *Trainer) {
		if newModel != nil {
			t.kind = kind
			t.newModel = newModel
		}
	}
}

// WithClock overrides the report timestamp source.
func WithClock(now func() time.Time) Option {
	return func(t *Trainer) {
		if now != nil {
			t.now = now
		}
	}
}

// WithRunIDs overrides the run id generator.
func WithRunIDs(next func() string) Option {
	return func(t *Trainer) {
		if next != nil {
			t.runID = next
		}
	}
}

// Trainer fits one model per prediction run.
type Trainer struct {
	source   TableSource
	deriver  *features.Deriver
	kind     string
	newModel func() regression.Regressor
	log      logger.Logger
	now      func() time.Time
	runID    func() string
}

// New creates a Trainer reading tables from source. The default model is ridge.
func New(source TableSource, opts ...Option) *Trainer {
	t := &Trainer{
		source:   source,
		deriver:  features.New(),
		kind:     string(regression.KindRidge),
		newModel: func() regression.Regressor { r, _ := regression.New(regression.KindRidge); return r },
		log:      logger.Nop(),
		now:      time.Now,
		runID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Outcomes loads and derives every event. Usable events come back in input
// order; everything else becomes a structured skip.
func (t *Trainer) Outcomes(ctx context.Context, events []model.EventKey) ([]EventMatrix, []model.Skip, error) {
	var (
		usable []EventMatrix
		skips  []model.Skip
	)
	for _, key := range events {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		m, skip := t.outcome(ctx, key)
		if skip != nil {
			t.log.Warn(ctx, "skipping training event",
				logger.String("event", key.String()),
				logger.String("kind", string(skip.Kind)),
				logger.String("reason", skip.Reason),
			)
			metrics.RecordEventSkipped(string(skip.Kind))
			skips = append(skips, *skip)
			continue
		}
		usable = append(usable, EventMatrix{Event: key, Matrix: m})
	}
	return usable, skips, nil
}

func (t *Trainer) outcome(ctx context.Context, key model.EventKey) (features.Matrix, *model.Skip) {
	tb, err := t.source.Load(ctx, key)
	switch {
	case errors.Is(err, model.ErrEventNotFound):
		return features.Matrix{}, &model.Skip{Event: key, Kind: model.SkipNotFound, Reason: err.Error()}
	case err != nil:
		return features.Matrix{}, &model.Skip{Event: key, Kind: model.SkipLoadFailed, Reason: err.Error()}
	case tb.Empty():
		return features.Matrix{}, &model.Skip{Event: key, Kind: model.SkipNoData, Reason: "table has no rows"}
	}
	m, err := t.deriver.Derive(tb)
	if err != nil {
		return features.Matrix{}, &model.Skip{Event: key, Kind: model.SkipLoadFailed, Reason: err.Error()}
	}
	if !m.HasLabel() {
		return features.Matrix{}, &model.Skip{Event: key, Kind: model.SkipNoLabels, Reason: "no race classification"}
	}
	return m, nil
}

// TrainAndPredict fits a model on the training events and ranks the drivers
// of target. Metrics are attached when the target race has a classification.
func (t *Trainer) TrainAndPredict(ctx context.Context, target model.EventKey, training []model.EventKey) (*Report, error) {
	usable, skips, err := t.Outcomes(ctx, training)
	if err != nil {
		return nil, err
	}
	if len(usable) == 0 {
		metrics.RecordPrediction(t.kind, "no_training_data")
		return nil, fmt.Errorf("%w: %d of %d events skipped", ErrNoTrainingData, len(skips), len(training))
	}

	corpus, err := BuildCorpus(usable)
	if err != nil {
		return nil, err
	}
	medians := ComputeMedians(corpus.X)
	xTrain := medians.Fill(corpus.X)
	metrics.UpdateTrainingCorpus(len(corpus.Events), corpus.X.Len())
	t.log.Info(ctx, "training corpus assembled",
		logger.Int("events", len(corpus.Events)),
		logger.Int("rows", corpus.X.Len()),
		logger.Int("features", corpus.Schema.Len()),
		logger.Int("skipped", len(skips)),
	)

	targetMatrix, err := t.target(ctx, target)
	if err != nil {
		metrics.RecordPrediction(t.kind, "target_unavailable")
		return nil, err
	}
	aligned, err := targetMatrix.Features.Reconcile(corpus.Schema)
	if err != nil {
		metrics.RecordPrediction(t.kind, "align_failed")
		return nil, fmt.Errorf("align %s: %w", target, err)
	}
	xTarget := medians.Fill(aligned)

	reg := t.newModel()
	start := time.Now()
	if err := reg.Fit(xTrain.Matrix(), corpus.Y); err != nil {
		metrics.RecordPrediction(t.kind, "fit_failed")
		return nil, fmt.Errorf("fit %s: %w", t.kind, err)
	}
	metrics.RecordFitDuration(float64(time.Since(start).Microseconds()) / 1000)

	scores, err := reg.Predict(xTarget.Matrix())
	if err != nil {
		metrics.RecordPrediction(t.kind, "predict_failed")
		return nil, fmt.Errorf("predict %s: %w", t.kind, err)
	}

	report := &Report{
		RunID:          t.runID(),
		Target:         target,
		Model:          t.kind,
		TrainingEvents: corpus.Events,
		TrainingRows:   corpus.X.Len(),
		Features:       corpus.Schema.Len(),
		Skipped:        skips,
		Predictions:    entries(targetMatrix, scores),
		CreatedAt:      t.now().UTC(),
	}
	if targetMatrix.HasLabel() {
		report.Metrics = Evaluate(scores, targetMatrix.Label)
	}
	if report.Metrics != nil {
		metrics.UpdateLastEvaluation(report.Metrics.MAE, report.Metrics.R2)
	}
	metrics.RecordPrediction(t.kind, "ok")
	return report, nil
}

func (t *Trainer) target(ctx context.Context, key model.EventKey) (features.Matrix, error) {
	tb, err := t.source.Load(ctx, key)
	if err != nil {
		return features.Matrix{}, fmt.Errorf("%w: %s: %w", ErrTargetUnavailable, key, err)
	}
	if tb.Empty() {
		return features.Matrix{}, fmt.Errorf("%w: %s: table has no rows", ErrTargetUnavailable, key)
	}
	m, err := t.deriver.DeriveTarget(tb)
	if err != nil {
		return features.Matrix{}, fmt.Errorf("%w: %s: %w", ErrTargetUnavailable, key, err)
	}
	if m.Features.Empty() {
		return features.Matrix{}, fmt.Errorf("%w: %s: no drivers to rank", ErrTargetUnavailable, key)
	}
	return m, nil
}

// entries ranks the predicted scores; ties share a rank and are listed by
// score, then driver number.
func entries(m features.Matrix, scores []float64) []types.Entry {
	ranks := rank.Dense(scores)
	drivers := m.Identities()
	out := make([]types.Entry, len(scores))
	for i, s := range scores {
		out[i] = types.Entry{Rank: ranks[i], Driver: drivers[i], Score: s}
		if i < len(m.Label) && !table.IsMissing(m.Label[i]) {
			actual := int(m.Label[i])
			out[i].Actual = &actual
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Rank != out[j].Rank {
			return out[i].Rank < out[j].Rank
		}
		if out[i].Score != out[j].Score {
			return out[i].Score < out[j].Score
		}
		return out[i].Driver.Less(out[j].Driver)
	})
	return out
}
