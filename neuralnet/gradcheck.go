package neuralnet

import (
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// GradientError checks the hand-derived output gradient of a loss and
// activation pair against central finite differences. It returns the largest
// absolute difference between loss.Gradient(y, act(z)) ⊙ act'(z) and the
// numerical derivative of n·loss.Compute(y, act(z)) with respect to z, where
// n is the number of observations.
//
// Softmax is checked as a whole with log loss: its Derivative is ones and
// the Jacobian lives in the log loss gradient.
func GradientError(loss LossFunction, act ActivationFunction, y, z mat.Matrix) float64 {
	r, c := z.Dims()
	f := func(v []float64) float64 {
		return float64(r) * loss.Compute(y, act.Activate(mat.NewDense(r, c, v)))
	}
	x := mat.DenseCopyOf(z).RawMatrix().Data
	numeric := fd.Gradient(nil, f, x, &fd.Settings{Formula: fd.Central})

	var analytic mat.Dense
	analytic.MulElem(loss.Gradient(y, act.Activate(z)), act.Derivative(z))

	var worst float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			worst = math.Max(worst, math.Abs(analytic.At(i, j)-numeric[i*c+j]))
		}
	}
	return worst
}
