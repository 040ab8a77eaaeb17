// Package service orchestrates building grand prix tables and predicting
// race classifications on top of them.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/okian/gridcast/internal/adapters/mq/queue"
	"github.com/okian/gridcast/internal/adapters/mq/worker"
	"github.com/okian/gridcast/internal/adapters/openf1"
	"github.com/okian/gridcast/internal/adapters/repository"
	"github.com/okian/gridcast/internal/domain/aggregate"
	"github.com/okian/gridcast/internal/domain/dedupe"
	"github.com/okian/gridcast/internal/domain/merge"
	"github.com/okian/gridcast/internal/domain/model"
	"github.com/okian/gridcast/internal/domain/regression"
	"github.com/okian/gridcast/internal/domain/table"
	"github.com/okian/gridcast/internal/domain/training"
	"github.com/okian/gridcast/internal/domain/types"
	"github.com/okian/gridcast/pkg/logger"
	"github.com/okian/gridcast/pkg/metrics"
)

// Provider is the upstream source of calendars, laps and positions.
type Provider interface {
	Meetings(ctx context.Context, year int) ([]model.Event, error)
	Session(ctx context.Context, key model.EventKey, s model.Session) (openf1.SessionRef, bool, error)
	SessionLaps(ctx context.Context, sessionKey int) ([]model.LapRecord, error)
	Drivers(ctx context.Context, sessionKey int) ([]model.DriverIdentity, error)
	Positions(ctx context.Context, sessionKey int) ([]model.PositionObservation, error)
}

// Tables persists one wide table per event.
type Tables interface {
	training.TableSource
	Save(ctx context.Context, key model.EventKey, t *table.Table) error
	Exists(key model.EventKey) bool
	List(ctx context.Context, year int) ([]model.EventKey, error)
}

// BuildResult describes one event build.
type BuildResult struct {
	Event    model.EventKey  `json:"event"`
	Saved    bool            `json:"saved"`
	Rows     int             `json:"rows"`
	Sessions []model.Session `json:"sessions"`
	Skipped  []model.Skip    `json:"skipped,omitempty"`
}

// PredictOptions tunes a single prediction.
type PredictOptions struct {
	// Refresh rebuilds the target table from the provider even when it exists.
	Refresh bool
}

// Service implements the pipeline operations used by the CLI and HTTP API.
type Service struct {
	// serializes table writes
	buildMu sync.Mutex

	provider Provider
	tables   Tables
	history  repository.Store
	merger   *merge.Merger

	buildWorkers  int
	trainingYears []int
	modelKind     string
	newModel      func() regression.Regressor

	logger logger.Logger
}

// New constructs a Service over tables.
func New(tables Tables, opts ...Option) *Service {
	s := &Service{
		tables:        tables,
		buildWorkers:  1,
		trainingYears: []int{2023, 2024},
		logger:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.merger = merge.New(merge.WithLogger(s.logger))
	return s
}

// Close releases the history store.
func (s *Service) Close() error {
	if s.history == nil {
		return nil
	}
	return s.history.Close()
}

// Calendar returns the season's events in calendar order, one entry per
// event key. Without a provider, or when it fails, the events with a stored
// table are returned without dates.
func (s *Service) Calendar(ctx context.Context, year int) ([]model.Event, error) {
	if s.provider != nil {
		events, err := s.provider.Meetings(ctx, year)
		if err == nil {
			return model.Collapse(events), nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn(ctx, "calendar unavailable, using stored tables",
			logger.Int("year", year),
			logger.Error(err),
		)
	}
	keys, err := s.tables.List(ctx, year)
	if err != nil {
		return nil, err
	}
	events := make([]model.Event, len(keys))
	for i, k := range keys {
		events[i] = model.Event{EventKey: k}
	}
	model.SortEvents(events)
	return events, nil
}

// Resolve finds key in its season's calendar, matching country and location
// case-insensitively, and returns the calendar's spelling of the event.
func (s *Service) Resolve(ctx context.Context, key model.EventKey) (model.Event, error) {
	events, err := s.Calendar(ctx, key.Year)
	if err != nil {
		return model.Event{}, err
	}
	if e, ok := find(events, key); ok {
		return e, nil
	}
	return model.Event{}, fmt.Errorf("%s: %w", key, model.ErrEventNotFound)
}

// BuildEvent fetches every session of an event, aggregates and merges them
// and saves the table. Sessions without data are skipped with a diagnostic;
// an event without any data is not saved.
func (s *Service) BuildEvent(ctx context.Context, key model.EventKey) (BuildResult, error) {
	if s.provider == nil {
		return BuildResult{}, ErrNoProvider
	}
	res := BuildResult{Event: key}
	tables := make(map[model.Session]*table.Table, len(model.Sessions()))
	for _, sess := range model.Sessions() {
		t, skip, err := s.session(ctx, key, sess)
		if err != nil {
			return res, err
		}
		if skip != nil {
			metrics.RecordSessionSkipped(sess.String(), string(skip.Kind))
			s.logger.Warn(ctx, "session skipped",
				logger.String("event", key.String()),
				logger.String("session", sess.String()),
				logger.String("kind", string(skip.Kind)),
				logger.String("reason", skip.Reason),
			)
			res.Skipped = append(res.Skipped, *skip)
			continue
		}
		metrics.RecordSessionAggregated(sess.String())
		tables[sess] = t
		res.Sessions = append(res.Sessions, sess)
	}

	merged, err := s.merger.Merge(ctx, tables)
	if err != nil {
		metrics.RecordEventSkipped(string(model.SkipMergeFailed))
		return res, fmt.Errorf("merge %s: %w", key, err)
	}
	if merged.Empty() {
		metrics.RecordEventSkipped(string(model.SkipNoData))
		s.logger.Warn(ctx, "event has no data, not saved", logger.String("event", key.String()))
		return res, nil
	}

	s.buildMu.Lock()
	err = s.tables.Save(ctx, key, merged)
	s.buildMu.Unlock()
	if err != nil {
		metrics.RecordEventSkipped(string(model.SkipSaveFailed))
		return res, fmt.Errorf("save %s: %w", key, err)
	}
	metrics.RecordEventBuilt()
	res.Saved = true
	res.Rows = merged.Len()
	s.logger.Info(ctx, "event built",
		logger.String("event", key.String()),
		logger.Int("rows", res.Rows),
		logger.Int("sessions", len(res.Sessions)),
		logger.Int("skipped", len(res.Skipped)),
	)
	return res, nil
}

// session fetches and aggregates one session. Provider failures become skips;
// only cancellation is returned as an error.
func (s *Service) session(ctx context.Context, key model.EventKey, sess model.Session) (*table.Table, *model.Skip, error) {
	skip := func(kind model.SkipKind, reason string) (*table.Table, *model.Skip, error) {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		return nil, &model.Skip{Event: key, Kind: kind, Reason: sess.String() + ": " + reason}, nil
	}

	ref, ok, err := s.provider.Session(ctx, key, sess)
	if err != nil {
		return skip(model.SkipFetchFailed, err.Error())
	}
	if !ok {
		return skip(model.SkipNoData, "no such session")
	}

	if sess == model.Race {
		roster, err := s.provider.Drivers(ctx, ref.SessionKey)
		if err != nil {
			return skip(model.SkipFetchFailed, err.Error())
		}
		obs, err := s.provider.Positions(ctx, ref.SessionKey)
		if err != nil {
			return skip(model.SkipFetchFailed, err.Error())
		}
		rows := aggregate.Race(obs, roster)
		if len(rows) == 0 {
			return skip(model.SkipNoData, "no classified drivers")
		}
		return aggregate.RaceTable(rows), nil, nil
	}

	laps, err := s.provider.SessionLaps(ctx, ref.SessionKey)
	if err != nil {
		return skip(model.SkipFetchFailed, err.Error())
	}
	rows, err := aggregate.Laps(laps)
	if err != nil {
		return skip(model.SkipAggregateFailed, err.Error())
	}
	if len(rows) == 0 {
		return skip(model.SkipNoData, "no timed laps")
	}
	return aggregate.SessionTable(sess, rows), nil, nil
}

// BuildYears builds every event of the given seasons on the build worker
// pool. Each event is built once even when seasons repeat. A failing event
// is recorded as a skip and the build moves on.
// Results are in calendar order whatever the pool size.
func (s *Service) BuildYears(ctx context.Context, years []int) ([]BuildResult, error) {
	if s.provider == nil {
		return nil, ErrNoProvider
	}
	var (
		events []model.Event
		seen   = dedupe.NewInMemoryDeduper()
	)
	for _, year := range years {
		season, err := s.provider.Meetings(ctx, year)
		if err != nil {
			return nil, fmt.Errorf("calendar %d: %w", year, err)
		}
		for _, e := range model.Collapse(season) {
			if seen.SeenAndRecord(ctx, dedupe.EventID(e.EventKey)) {
				continue
			}
			events = append(events, e)
		}
	}
	if len(events) == 0 {
		return nil, nil
	}

	q := queue.NewInMemoryQueue(queue.WithCapacity(len(events)))
	for i, e := range events {
		if err := q.Enqueue(ctx, queue.Job{Seq: i, Event: e.EventKey}); err != nil {
			return nil, fmt.Errorf("queue %s: %w", e.EventKey, err)
		}
	}
	_ = q.Close()

	results := make([]BuildResult, len(events))
	handle := func(ctx context.Context, j queue.Job) error {
		res, err := s.BuildEvent(ctx, j.Event)
		if err != nil && ctx.Err() == nil {
			res.Event = j.Event
			res.Skipped = append(res.Skipped, buildSkip(j.Event, err))
		}
		results[j.Seq] = res
		return err
	}
	pool := worker.NewPool(s.buildWorkers, q, worker.HandlerFunc(handle), worker.WithLogger(s.logger))
	s.logger.Info(ctx, "season build started",
		logger.Int("events", len(events)),
		logger.Int("workers", pool.Size()),
	)
	pool.Start(ctx)
	pool.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

// buildSkip classifies an event build that failed after its sessions were
// fetched.
func buildSkip(key model.EventKey, err error) model.Skip {
	kind := model.SkipSaveFailed
	if errors.Is(err, merge.ErrDuplicateDriver) {
		kind = model.SkipMergeFailed
	}
	return model.Skip{Event: key, Kind: kind, Reason: err.Error()}
}

// Predict trains on every stored event before target and ranks the target's
// drivers. A missing target table is built first when a provider exists.
func (s *Service) Predict(ctx context.Context, key model.EventKey, opts PredictOptions) (*training.Report, error) {
	resolved, err := s.Resolve(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", training.ErrTargetUnavailable, err)
	}
	target := resolved.EventKey

	if opts.Refresh || !s.tables.Exists(target) {
		if s.provider == nil && opts.Refresh {
			return nil, ErrNoProvider
		}
		if s.provider != nil {
			if _, err := s.BuildEvent(ctx, target); err != nil {
				return nil, fmt.Errorf("%w: %w", training.ErrTargetUnavailable, err)
			}
		}
	}

	calendar, targetEvent, err := s.trainingCalendar(ctx, target)
	if err != nil {
		return nil, err
	}
	selected := training.SelectTraining(targetEvent, calendar)
	keys := make([]model.EventKey, len(selected))
	for i, e := range selected {
		keys[i] = e.EventKey
	}
	s.logger.Info(ctx, "training events selected",
		logger.String("target", target.String()),
		logger.Int("events", len(keys)),
	)

	opt := []training.Option{training.WithLogger(s.logger)}
	if s.newModel != nil {
		opt = append(opt, training.WithModel(s.modelKind, s.newModel))
	}
	report, err := training.New(s.tables, opt...).TrainAndPredict(ctx, target, keys)
	if err != nil {
		return nil, err
	}

	if s.history != nil {
		if err := s.history.Record(ctx, report); err != nil {
			s.logger.Warn(ctx, "prediction not recorded",
				logger.String("run_id", report.RunID),
				logger.Error(err),
			)
		}
	}
	return report, nil
}

// trainingCalendar lists the stored events of the training seasons and the
// target season, dated from the provider calendar where it is available.
func (s *Service) trainingCalendar(ctx context.Context, target model.EventKey) ([]model.Event, model.Event, error) {
	years := append([]int(nil), s.trainingYears...)
	years = append(years, target.Year)
	sort.Ints(years)

	targetEvent := model.Event{EventKey: target}
	var calendar []model.Event
	for i, year := range years {
		if i > 0 && years[i-1] == year {
			continue
		}
		keys, err := s.tables.List(ctx, year)
		if err != nil {
			return nil, model.Event{}, err
		}
		dated := s.dates(ctx, year)
		for _, k := range keys {
			e := model.Event{EventKey: k}
			if d, ok := find(dated, k); ok {
				e = d
				e.EventKey = k
			}
			if k.Matches(target) {
				targetEvent = e
			}
			calendar = append(calendar, e)
		}
	}
	return calendar, targetEvent, nil
}

func (s *Service) dates(ctx context.Context, year int) []model.Event {
	if s.provider == nil {
		return nil
	}
	events, err := s.provider.Meetings(ctx, year)
	if err != nil {
		s.logger.Warn(ctx, "calendar unavailable, ordering by name",
			logger.Int("year", year),
			logger.Error(err),
		)
		return nil
	}
	return model.Collapse(events)
}

func find(events []model.Event, key model.EventKey) (model.Event, bool) {
	for _, e := range events {
		if e.Matches(key) {
			return e, true
		}
	}
	return model.Event{}, false
}

// History returns the most recent prediction runs.
func (s *Service) History(ctx context.Context, limit int) ([]repository.Run, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	return s.history.Recent(ctx, limit)
}

// RunPredictions returns the ranked entries of a recorded run.
func (s *Service) RunPredictions(ctx context.Context, runID string) ([]types.Entry, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	entries, err := s.history.Predictions(ctx, runID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return entries, nil
}
