package regression_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/gridcast/internal/domain/regression"
	. "github.com/smartystreets/goconvey/convey"
)

// y = 3*x1 - 2*x2 + 5
var (
	trainX = [][]float64{{1, 2}, {2, 1}, {3, 5}, {4, 3}, {5, 4}}
	trainY = []float64{4, 9, 4, 11, 12}
)

func norm(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x * x
	}
	return math.Sqrt(s)
}

func TestRidge(t *testing.T) {
	Convey("Given an exactly linear training set", t, func() {
		Convey("When fitting with a negligible penalty", func() {
			r := regression.NewRidge(1e-9)
			So(r.Fit(trainX, trainY), ShouldBeNil)

			Convey("Then unseen rows are predicted by the underlying plane", func() {
				pred, err := r.Predict([][]float64{{6, 1}, {0, 0}})
				So(err, ShouldBeNil)
				So(pred[0], ShouldAlmostEqual, 21, 1e-6)
				So(pred[1], ShouldAlmostEqual, 5, 1e-6)
			})
		})

		Convey("When the penalty grows", func() {
			loose := regression.NewRidge(0.01)
			tight := regression.NewRidge(100)
			So(loose.Fit(trainX, trainY), ShouldBeNil)
			So(tight.Fit(trainX, trainY), ShouldBeNil)

			Convey("Then the coefficients shrink", func() {
				So(norm(tight.Coefficients()), ShouldBeLessThan, norm(loose.Coefficients()))
			})

			Convey("Then the intercept still centers predictions on the mean target", func() {
				pred, err := tight.Predict(trainX)
				So(err, ShouldBeNil)
				var sum float64
				for _, p := range pred {
					sum += p
				}
				So(sum/float64(len(pred)), ShouldAlmostEqual, 8, 1e-9)
			})
		})

		Convey("When a column is constant", func() {
			X := [][]float64{{1, 7}, {2, 7}, {3, 7}}
			r := regression.NewRidge(1)

			Convey("Then fitting still succeeds", func() {
				So(r.Fit(X, []float64{1, 2, 3}), ShouldBeNil)
				pred, err := r.Predict(X)
				So(err, ShouldBeNil)
				So(pred[0], ShouldBeLessThan, pred[2])
			})
		})
	})

	Convey("Given invalid input", t, func() {
		r := regression.NewRidge(1)

		Convey("Then predicting before fitting fails", func() {
			_, err := r.Predict(trainX)
			So(errors.Is(err, regression.ErrNotFitted), ShouldBeTrue)
		})

		Convey("Then an empty training set is rejected", func() {
			So(errors.Is(r.Fit(nil, nil), regression.ErrEmptyTrainingSet), ShouldBeTrue)
		})

		Convey("Then ragged rows and mismatched targets are rejected", func() {
			So(errors.Is(r.Fit([][]float64{{1, 2}, {3}}, []float64{1, 2}), regression.ErrDimensionMismatch), ShouldBeTrue)
			So(errors.Is(r.Fit(trainX, trainY[:2]), regression.ErrDimensionMismatch), ShouldBeTrue)
		})

		Convey("Then prediction rows must match the training width", func() {
			So(r.Fit(trainX, trainY), ShouldBeNil)
			_, err := r.Predict([][]float64{{1, 2, 3}})
			So(errors.Is(err, regression.ErrDimensionMismatch), ShouldBeTrue)
		})
	})
}

func TestGradient(t *testing.T) {
	Convey("Given a single increasing feature", t, func() {
		X := [][]float64{{1}, {2}, {3}, {4}, {5}}
		y := []float64{2, 4, 6, 8, 10}
		g := regression.NewGradient(0.01, 5000)

		Convey("When fitting", func() {
			So(g.Fit(X, y), ShouldBeNil)

			Convey("Then predictions follow the trend", func() {
				pred, err := g.Predict([][]float64{{1}, {5}})
				So(err, ShouldBeNil)
				So(pred, ShouldHaveLength, 2)
				So(pred[0], ShouldBeLessThan, pred[1])
				So(math.IsNaN(pred[0]), ShouldBeFalse)
			})
		})
	})

	Convey("Given an unfitted gradient model", t, func() {
		_, err := regression.NewGradient(0.01, 10).Predict([][]float64{{1}})
		So(errors.Is(err, regression.ErrNotFitted), ShouldBeTrue)
	})
}

func TestNew(t *testing.T) {
	Convey("Given model kinds", t, func() {
		Convey("Then ridge is the default", func() {
			r, err := regression.New("")
			So(err, ShouldBeNil)
			So(r, ShouldHaveSameTypeAs, &regression.Ridge{})
		})

		Convey("Then gradient is available", func() {
			r, err := regression.New(regression.KindGradient, regression.WithLearningRate(0.1), regression.WithMaxIterations(10))
			So(err, ShouldBeNil)
			So(r, ShouldHaveSameTypeAs, &regression.Gradient{})
		})

		Convey("Then unknown kinds are rejected", func() {
			_, err := regression.New("forest")
			So(errors.Is(err, regression.ErrUnknownKind), ShouldBeTrue)

			_, err = regression.Factory("forest")
			So(errors.Is(err, regression.ErrUnknownKind), ShouldBeTrue)
		})

		Convey("Then a factory returns independent models", func() {
			f, err := regression.Factory(regression.KindRidge, regression.WithLambda(0.5))
			So(err, ShouldBeNil)
			a, b := f(), f()
			So(a.Fit(trainX, trainY), ShouldBeNil)
			_, err = b.Predict(trainX)
			So(errors.Is(err, regression.ErrNotFitted), ShouldBeTrue)
		})
	})
}
