package regression

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Ridge is L2-regularized least squares solved in closed form on
// standardized features. The intercept is not penalized.
type Ridge struct {
	lambda    float64
	std       standardizer
	coef      *mat.VecDense
	intercept float64
	width     int
	fitted    bool
}

// NewRidge creates a ridge regressor with penalty lambda.
func NewRidge(lambda float64) *Ridge {
	return &Ridge{lambda: lambda}
}

// Fit solves (XᵀX + λI)β = Xᵀ(y − ȳ).
func (r *Ridge) Fit(X [][]float64, y []float64) error {
	width, err := checkTraining(X, y)
	if err != nil {
		return err
	}
	r.std = fitStandardizer(X, width)
	r.intercept = stat.Mean(y, nil)
	r.width = width

	if width == 0 {
		r.coef = nil
		r.fitted = true
		return nil
	}

	Z := r.std.apply(X)
	gram := mat.NewSymDense(width, nil)
	gram.SymOuterK(1, Z.T())
	lambda := r.lambda
	if lambda == 0 {
		// Keeps the system solvable when columns are collinear.
		lambda = 1e-9
	}
	for j := 0; j < width; j++ {
		gram.SetSym(j, j, gram.At(j, j)+lambda)
	}

	centered := mat.NewVecDense(len(y), nil)
	for i, v := range y {
		centered.SetVec(i, v-r.intercept)
	}
	rhs := mat.NewVecDense(width, nil)
	rhs.MulVec(Z.T(), centered)

	var chol mat.Cholesky
	if ok := chol.Factorize(gram); !ok {
		return fmt.Errorf("%w: lambda %g", ErrSingular, r.lambda)
	}
	coef := mat.NewVecDense(width, nil)
	if err := chol.SolveVecTo(coef, rhs); err != nil {
		return fmt.Errorf("%w: %w", ErrSingular, err)
	}
	r.coef = coef
	r.fitted = true
	return nil
}

// Predict scores rows with the fitted coefficients.
func (r *Ridge) Predict(X [][]float64) ([]float64, error) {
	if !r.fitted {
		return nil, ErrNotFitted
	}
	if err := checkRows(X, r.width); err != nil {
		return nil, err
	}
	out := make([]float64, len(X))
	if len(X) == 0 {
		return out, nil
	}
	if r.width == 0 {
		for i := range out {
			out[i] = r.intercept
		}
		return out, nil
	}
	pred := mat.NewVecDense(len(X), nil)
	pred.MulVec(r.std.apply(X), r.coef)
	for i := range out {
		out[i] = pred.AtVec(i) + r.intercept
	}
	return out, nil
}

// Coefficients returns the fitted weights on the standardized features.
func (r *Ridge) Coefficients() []float64 {
	if r.coef == nil {
		return nil
	}
	return mat.Col(nil, 0, r.coef)
}
