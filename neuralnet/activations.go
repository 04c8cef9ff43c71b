package neuralnet

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ActivationFunction transforms a layer's pre-activation output Z
// (observations x nodes) and gives the derivative used in backpropagation.
// Implementations are stateless.
type ActivationFunction interface {
	Activate(z mat.Matrix) *mat.Dense
	Derivative(z mat.Matrix) *mat.Dense
}

// ActivationKind is the configuration tag of an activation function.
type ActivationKind string

const (
	ActLinear    ActivationKind = "linear"
	ActSigmoid   ActivationKind = "sigmoid"
	ActTanh      ActivationKind = "tanh"
	ActReLU      ActivationKind = "relu"
	ActLeakyReLU ActivationKind = "leakyrelu"
	ActRamp      ActivationKind = "ramp"
	ActStep      ActivationKind = "step"
	ActSoftmax   ActivationKind = "softmax"
)

// NewActivation returns the activation function for kind.
func NewActivation(kind ActivationKind, p Params) (ActivationFunction, error) {
	switch kind {
	case ActLinear:
		return Linear{}, nil
	case ActSigmoid:
		return Sigmoid{}, nil
	case ActTanh:
		return Tanh{}, nil
	case ActReLU:
		return ReLU{}, nil
	case ActLeakyReLU:
		if p.LeakyAlpha < 0 {
			return nil, configErr("leaky alpha", p.LeakyAlpha, "must not be negative")
		}
		return NewLeakyReLU(p.LeakyAlpha), nil
	case ActRamp:
		return Ramp{}, nil
	case ActStep:
		if p.StepCount < 1 {
			return nil, configErr("step count", p.StepCount, "must be positive")
		}
		if p.StepSmoothness <= 0 {
			return nil, configErr("step smoothness", p.StepSmoothness, "must be positive")
		}
		return Step{Steps: p.StepCount, Smoothness: p.StepSmoothness}, nil
	case ActSoftmax:
		return Softmax{}, nil
	}
	return nil, configErr("activation", kind, "unknown activation")
}

func elementwise(z mat.Matrix, f func(float64) float64) *mat.Dense {
	var out mat.Dense
	out.Apply(func(_, _ int, v float64) float64 { return f(v) }, z)
	return &out
}

type ReLU struct{}

func (r ReLU) Activate(z mat.Matrix) *mat.Dense {
	return elementwise(z, func(x float64) float64 { return math.Max(x, 0) })
}

func (r ReLU) Derivative(z mat.Matrix) *mat.Dense {
	return elementwise(z, func(x float64) float64 {
		if x > 0 {
			return 1
		}
		return 0
	})
}

type LeakyReLU struct {
	alpha float64
}

func NewLeakyReLU(alpha float64) LeakyReLU {
	return LeakyReLU{alpha: alpha}
}

func (l LeakyReLU) Activate(z mat.Matrix) *mat.Dense {
	return elementwise(z, func(x float64) float64 {
		if x > 0 {
			return x
		}
		return l.alpha * x
	})
}

func (l LeakyReLU) Derivative(z mat.Matrix) *mat.Dense {
	return elementwise(z, func(x float64) float64 {
		if x > 0 {
			return 1
		}
		return l.alpha
	})
}

type Sigmoid struct{}

// sigmoid saturates to 0 or 1 instead of overflowing: exp(-x) may be +Inf,
// and 1/(1+Inf) is 0.
func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func (s Sigmoid) Activate(z mat.Matrix) *mat.Dense {
	return elementwise(z, sigmoid)
}

func (s Sigmoid) Derivative(z mat.Matrix) *mat.Dense {
	return elementwise(z, func(x float64) float64 {
		v := sigmoid(x)
		return v * (1 - v)
	})
}

type Tanh struct{}

func (t Tanh) Activate(z mat.Matrix) *mat.Dense {
	return elementwise(z, math.Tanh)
}

func (t Tanh) Derivative(z mat.Matrix) *mat.Dense {
	return elementwise(z, func(x float64) float64 {
		tanh := math.Tanh(x)
		return 1 - tanh*tanh
	})
}

type Linear struct{}

func (t Linear) Activate(z mat.Matrix) *mat.Dense {
	return mat.DenseCopyOf(z)
}

func (t Linear) Derivative(z mat.Matrix) *mat.Dense {
	return elementwise(z, func(float64) float64 { return 1 })
}

// Ramp is the identity clamped to [-1, 1].
type Ramp struct{}

func (r Ramp) Activate(z mat.Matrix) *mat.Dense {
	return elementwise(z, func(x float64) float64 { return math.Max(-1, math.Min(1, x)) })
}

func (r Ramp) Derivative(z mat.Matrix) *mat.Dense {
	return elementwise(z, func(x float64) float64 {
		if math.Abs(x) < 1 {
			return 1
		}
		return 0
	})
}

// Step is a smoothed staircase: the sum of Steps logistic steps with
// steepness Smoothness, centred at evenly spaced thresholds in (-1, 1).
// Its output lies in (0, Steps).
type Step struct {
	Steps      int
	Smoothness float64
}

func (s Step) threshold(i int) float64 {
	h := float64(s.Steps)
	return (2*float64(i) - h - 1) / h
}

func (s Step) Activate(z mat.Matrix) *mat.Dense {
	return elementwise(z, func(x float64) float64 {
		var sum float64
		for i := 1; i <= s.Steps; i++ {
			sum += sigmoid(s.Smoothness * (x - s.threshold(i)))
		}
		return sum
	})
}

func (s Step) Derivative(z mat.Matrix) *mat.Dense {
	return elementwise(z, func(x float64) float64 {
		var sum float64
		for i := 1; i <= s.Steps; i++ {
			v := sigmoid(s.Smoothness * (x - s.threshold(i)))
			sum += v * (1 - v)
		}
		return s.Smoothness * sum
	})
}

// Softmax normalizes every row of Z into a probability distribution. It is
// only valid on the output layer together with log loss, whose gradient
// Yhat-Y already includes the softmax Jacobian; Derivative is therefore all
// ones. NewNeuralNetwork rejects any other pairing.
type Softmax struct{}

func (s Softmax) Activate(z mat.Matrix) *mat.Dense {
	r, c := z.Dims()
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		row := out.RawRowView(i)
		mat.Row(row, i, z)
		top := floats.Max(row)
		for j, v := range row {
			row[j] = math.Exp(v - top)
		}
		// the largest entry is exp(0) = 1, so the sum is at least 1
		floats.Scale(1/floats.Sum(row), row)
	}
	return out
}

func (s Softmax) Derivative(z mat.Matrix) *mat.Dense {
	return elementwise(z, func(float64) float64 { return 1 })
}
