package training_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/okian/gridcast/internal/domain/features"
	"github.com/okian/gridcast/internal/domain/model"
	"github.com/okian/gridcast/internal/domain/regression"
	"github.com/okian/gridcast/internal/domain/table"
	"github.com/okian/gridcast/internal/domain/training"
	. "github.com/smartystreets/goconvey/convey"
)

var (
	nan = math.NaN()

	ver = model.DriverIdentity{Number: 1, Name: "Max Verstappen", Team: "Red Bull Racing"}
	nor = model.DriverIdentity{Number: 4, Name: "Lando Norris", Team: "McLaren"}
	pia = model.DriverIdentity{Number: 81, Name: "Oscar Piastri", Team: "McLaren"}

	bahrain = model.EventKey{Country: "Bahrain", Location: "Sakhir", Year: 2024}
	jeddah  = model.EventKey{Country: "Saudi Arabia", Location: "Jeddah", Year: 2024}
	imola   = model.EventKey{Country: "Italy", Location: "Imola", Year: 2025}
)

type memorySource map[model.EventKey]*table.Table

func (m memorySource) Load(_ context.Context, key model.EventKey) (*table.Table, error) {
	t, ok := m[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, model.ErrEventNotFound)
	}
	return t, nil
}

// echo predicts the first feature column, which makes rankings easy to reason about.
type echo struct{ fitted bool }

func (e *echo) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 || len(X) != len(y) {
		return regression.ErrDimensionMismatch
	}
	e.fitted = true
	return nil
}

func (e *echo) Predict(X [][]float64) ([]float64, error) {
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = row[0]
	}
	return out, nil
}

func grid(drivers []model.DriverIdentity, quali, race []float64) *table.Table {
	t := table.New(drivers)
	best := make([]float64, len(quali))
	for i, q := range quali {
		best[i] = 80 + q/10
	}
	if err := t.AddColumn("Qualifying_position", quali); err != nil {
		panic(err)
	}
	if err := t.AddColumn("Qualifying_best_lap", best); err != nil {
		panic(err)
	}
	if race != nil {
		if err := t.AddColumn("Race_position", race); err != nil {
			panic(err)
		}
	}
	return t
}

func newTrainer(src training.TableSource) *training.Trainer {
	return training.New(src,
		training.WithModel("echo", func() regression.Regressor { return &echo{} }),
		training.WithClock(func() time.Time { return time.Date(2025, 5, 18, 12, 0, 0, 0, time.UTC) }),
		training.WithRunIDs(func() string { return "run-1" }),
	)
}

func TestTrainAndPredict(t *testing.T) {
	ctx := context.Background()

	Convey("Given two classified training events", t, func() {
		src := memorySource{
			bahrain: grid([]model.DriverIdentity{ver, nor, pia}, []float64{1, 2, 3}, []float64{1, 3, 2}),
			jeddah:  grid([]model.DriverIdentity{ver, pia}, []float64{1, 2}, []float64{2, 1}),
		}

		Convey("When the target race has not been run", func() {
			src[imola] = grid([]model.DriverIdentity{ver, nor, pia}, []float64{2, nan, 1}, nil)
			report, err := newTrainer(src).TrainAndPredict(ctx, imola, []model.EventKey{bahrain, jeddah})

			Convey("Then drivers are ranked by predicted score", func() {
				So(err, ShouldBeNil)
				So(report.RunID, ShouldEqual, "run-1")
				So(report.Model, ShouldEqual, "echo")
				So(report.TrainingEvents, ShouldResemble, []model.EventKey{bahrain, jeddah})
				So(report.TrainingRows, ShouldEqual, 5)
				So(report.Predictions, ShouldHaveLength, 3)
				So(report.Predictions[0].Driver, ShouldResemble, pia)
				So(report.Predictions[0].Rank, ShouldEqual, 1)
			})

			Convey("Then a missing target value is filled with the training median", func() {
				// training qualifying positions 1,2,3,1,2 have median 2
				So(report.Predictions[1].Score, ShouldEqual, 2)
				So(report.Predictions[2].Score, ShouldEqual, 2)
				So(report.Predictions[1].Rank, ShouldEqual, 2)
				So(report.Predictions[2].Rank, ShouldEqual, 2)
				So(report.Predictions[1].Driver, ShouldResemble, ver) // tie broken by driver number
			})

			Convey("Then accuracy is reported as unavailable", func() {
				So(report.Metrics, ShouldBeNil)
				So(report.Predictions[0].Actual, ShouldBeNil)
				winner, ok := report.Winner()
				So(ok, ShouldBeTrue)
				So(winner, ShouldResemble, pia)
			})
		})

		Convey("When the target race has a classification", func() {
			src[imola] = grid([]model.DriverIdentity{ver, nor, pia}, []float64{1, 2, 3}, []float64{1, 2, 3})
			report, err := newTrainer(src).TrainAndPredict(ctx, imola, []model.EventKey{bahrain, jeddah})

			Convey("Then MAE and R² are computed against it", func() {
				So(err, ShouldBeNil)
				So(report.Metrics, ShouldNotBeNil)
				So(report.Metrics.MAE, ShouldEqual, 0)
				So(*report.Metrics.R2, ShouldEqual, 1)
				So(report.Metrics.Samples, ShouldEqual, 3)
				So(*report.Predictions[2].Actual, ShouldEqual, 3)
			})
		})

		Convey("When some training events cannot be used", func() {
			src[imola] = grid([]model.DriverIdentity{ver}, []float64{1}, nil)
			unclassified := model.EventKey{Country: "Australia", Location: "Melbourne", Year: 2024}
			empty := model.EventKey{Country: "Japan", Location: "Suzuka", Year: 2024}
			missing := model.EventKey{Country: "China", Location: "Shanghai", Year: 2024}
			src[unclassified] = grid([]model.DriverIdentity{ver}, []float64{1}, nil)
			src[empty] = table.New(nil)

			report, err := newTrainer(src).TrainAndPredict(ctx, imola, []model.EventKey{bahrain, unclassified, empty, missing, jeddah})

			Convey("Then each is skipped with its own reason", func() {
				So(err, ShouldBeNil)
				So(report.TrainingEvents, ShouldResemble, []model.EventKey{bahrain, jeddah})
				So(report.Skipped, ShouldHaveLength, 3)
				So(report.Skipped[0].Kind, ShouldEqual, model.SkipNoLabels)
				So(report.Skipped[1].Kind, ShouldEqual, model.SkipNoData)
				So(report.Skipped[2].Kind, ShouldEqual, model.SkipNotFound)
			})
		})

		Convey("When the target event has no table", func() {
			_, err := newTrainer(src).TrainAndPredict(ctx, imola, []model.EventKey{bahrain})

			Convey("Then the target is reported unavailable", func() {
				So(errors.Is(err, training.ErrTargetUnavailable), ShouldBeTrue)
				So(errors.Is(err, model.ErrEventNotFound), ShouldBeTrue)
			})
		})

		Convey("When fitting with the ridge model", func() {
			src[imola] = grid([]model.DriverIdentity{ver, nor, pia}, []float64{3, 1, 2}, nil)
			report, err := training.New(src).TrainAndPredict(ctx, imola, []model.EventKey{bahrain, jeddah})

			Convey("Then every driver gets a finite score and a dense rank", func() {
				So(err, ShouldBeNil)
				So(report.Model, ShouldEqual, "ridge")
				So(report.Predictions, ShouldHaveLength, 3)
				for _, p := range report.Predictions {
					So(math.IsNaN(p.Score), ShouldBeFalse)
					So(p.Rank, ShouldBeBetweenOrEqual, 1, 3)
				}
			})
		})
	})

	Convey("Given training events without any usable label", t, func() {
		src := memorySource{
			bahrain: grid([]model.DriverIdentity{ver}, []float64{1}, nil),
			jeddah:  grid([]model.DriverIdentity{ver}, []float64{1}, []float64{nan}),
			imola:   grid([]model.DriverIdentity{ver}, []float64{1}, nil),
		}

		Convey("When predicting", func() {
			report, err := newTrainer(src).TrainAndPredict(ctx, imola, []model.EventKey{bahrain, jeddah})

			Convey("Then no training data is reported and nothing is ranked", func() {
				So(errors.Is(err, training.ErrNoTrainingData), ShouldBeTrue)
				So(report, ShouldBeNil)
			})
		})
	})

	Convey("Given a cancelled context", t, func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := newTrainer(memorySource{}).TrainAndPredict(cctx, imola, []model.EventKey{bahrain})

		Convey("Then the run stops", func() {
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestCorpusAndMedians(t *testing.T) {
	Convey("Given feature X in the first event only", t, func() {
		first := table.New([]model.DriverIdentity{ver, nor, pia})
		So(first.AddColumn("X", []float64{1, 2, 3}), ShouldBeNil)
		second := table.New([]model.DriverIdentity{ver, nor})
		So(second.AddColumn("Y", []float64{5, 6}), ShouldBeNil)

		corpus, err := training.BuildCorpus([]training.EventMatrix{
			{Event: bahrain, Matrix: features.Matrix{Features: first, Label: []float64{1, 2, 3}}},
			{Event: jeddah, Matrix: features.Matrix{Features: second, Label: []float64{1, 2}}},
		})
		So(err, ShouldBeNil)

		Convey("Then the union fills the second event's X as missing", func() {
			So(corpus.Schema.Names(), ShouldResemble, []string{"X", "Y"})
			x, _ := corpus.X.Column("X")
			So(x[:3], ShouldResemble, []float64{1, 2, 3})
			So(math.IsNaN(x[3]), ShouldBeTrue)
			So(math.IsNaN(x[4]), ShouldBeTrue)
			y, _ := corpus.X.Column("Y")
			So(math.IsNaN(y[0]), ShouldBeTrue)
			So(corpus.Y, ShouldResemble, []float64{1, 2, 3, 1, 2})
		})

		Convey("Then the median of X comes from the first event and fills the gaps", func() {
			medians := training.ComputeMedians(corpus.X)
			v, ok := medians.Value("X")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 2)

			filled := medians.Fill(corpus.X)
			x, _ := filled.Column("X")
			So(x, ShouldResemble, []float64{1, 2, 3, 2, 2})
			yv, _ := medians.Value("Y")
			So(yv, ShouldEqual, 5.5)
		})

		Convey("Then a target lacking X is filled with the same median", func() {
			target := table.New([]model.DriverIdentity{ver})
			So(target.AddColumn("Y", []float64{7}), ShouldBeNil)
			aligned, err := target.Reconcile(corpus.Schema)
			So(err, ShouldBeNil)
			filled := training.ComputeMedians(corpus.X).Fill(aligned)
			So(filled.Row(0), ShouldResemble, []float64{2, 7})
		})
	})

	Convey("Given a column with no present value", t, func() {
		tb := table.New([]model.DriverIdentity{ver})
		So(tb.AddColumn("Z", []float64{nan}), ShouldBeNil)

		Convey("Then its median is zero", func() {
			v, _ := training.ComputeMedians(tb).Value("Z")
			So(v, ShouldEqual, 0)
		})
	})

	Convey("Given no events", t, func() {
		_, err := training.BuildCorpus(nil)
		So(errors.Is(err, training.ErrNoTrainingData), ShouldBeTrue)
	})
}

func TestSelectTraining(t *testing.T) {
	at := func(country, location string, year int, month, day int) model.Event {
		e := model.Event{EventKey: model.EventKey{Country: country, Location: location, Year: year}}
		if month > 0 {
			e.Date = time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		}
		return e
	}

	Convey("Given a calendar across seasons", t, func() {
		target := at("Italy", "Imola", 2025, 5, 16)
		calendar := []model.Event{
			at("Monaco", "Monte Carlo", 2025, 5, 23),
			at("United States", "Miami", 2025, 5, 2),
			target,
			at("Abu Dhabi", "Yas Island", 2024, 12, 6),
			at("Bahrain", "Sakhir", 2023, 3, 3),
			at("Bahrain", "Sakhir", 2026, 3, 1),
			at("United States", "Miami", 2025, 5, 2),
		}

		Convey("When selecting training events", func() {
			selected := training.SelectTraining(target, calendar)

			Convey("Then only earlier events remain, in calendar order, without duplicates", func() {
				keys := make([]string, len(selected))
				for i, e := range selected {
					keys[i] = e.String()
				}
				So(keys, ShouldResemble, []string{
					"Bahrain/Sakhir/2023",
					"Abu Dhabi/Yas Island/2024",
					"United States/Miami/2025",
				})
			})
		})

		Convey("When the target and calendar have no dates", func() {
			undated := at("Italy", "Imola", 2025, 0, 0)
			selected := training.SelectTraining(undated, []model.Event{
				at("Monaco", "Monte Carlo", 2025, 0, 0),
				at("Australia", "Melbourne", 2025, 0, 0),
				undated,
			})

			Convey("Then country and location decide", func() {
				So(selected, ShouldHaveLength, 1)
				So(selected[0].Country, ShouldEqual, "Australia")
			})
		})

		Convey("When the calendar is empty", func() {
			So(training.SelectTraining(target, nil), ShouldBeEmpty)
		})
	})
}

func TestEvaluate(t *testing.T) {
	Convey("Given predictions and results", t, func() {
		m := training.Evaluate([]float64{1.5, 2, 2.5}, []float64{1, 2, 3})

		Convey("Then MAE is the mean absolute error", func() {
			So(m.MAE, ShouldAlmostEqual, 1.0/3.0)
			So(*m.R2, ShouldAlmostEqual, 0.75)
		})
	})

	Convey("Given a constant or single result", t, func() {
		Convey("Then R² is undefined", func() {
			So(training.Evaluate([]float64{1}, []float64{2}).R2, ShouldBeNil)
			So(training.Evaluate([]float64{1, 2}, []float64{3, 3}).R2, ShouldBeNil)
		})
	})

	Convey("Given no results", t, func() {
		So(training.Evaluate([]float64{1}, nil), ShouldBeNil)
	})
}
