package neuralnet

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// LossFunction defines the interface for computing loss and its gradient.
// Y and Yhat are observations x outputs.
type LossFunction interface {
	// Compute returns the loss summed over outputs and averaged over observations.
	Compute(y, yhat mat.Matrix) float64
	// Gradient returns ∂L/∂Yhat per observation, not divided by the number
	// of observations. Layers average over the batch themselves.
	Gradient(y, yhat mat.Matrix) *mat.Dense
}

// LossKind is the configuration tag of a loss function.
type LossKind string

const (
	LossLog         LossKind = "log"
	LossSquared     LossKind = "squared"
	LossAbsolute    LossKind = "absolute"
	LossHuber       LossKind = "huber"
	LossPseudoHuber LossKind = "pseudohuber"
)

// NewLoss returns the loss function for kind.
func NewLoss(kind LossKind, p Params) (LossFunction, error) {
	switch kind {
	case LossLog:
		return &CrossEntropy{}, nil
	case LossSquared:
		return &Squared{}, nil
	case LossAbsolute:
		return &Absolute{}, nil
	case LossHuber, LossPseudoHuber:
		if p.DHuber <= 0 || math.IsInf(p.DHuber, 0) || math.IsNaN(p.DHuber) {
			return nil, configErr("huber cutoff", p.DHuber, "must be positive and finite")
		}
		if kind == LossHuber {
			return &Huber{Delta: p.DHuber}, nil
		}
		return &PseudoHuber{Delta: p.DHuber}, nil
	}
	return nil, configErr("loss", kind, "unknown loss")
}

func residual(y, yhat mat.Matrix) *mat.Dense {
	var e mat.Dense
	e.Sub(yhat, y)
	return &e
}

func rowMean(m *mat.Dense) float64 {
	r, _ := m.Dims()
	return finite(mat.Sum(m) / float64(r))
}

// CrossEntropy implements categorical cross-entropy loss on one-hot targets.
type CrossEntropy struct{}

// minProb keeps -log(p) finite when a predicted probability underflows to 0.
const minProb = math.SmallestNonzeroFloat64

// Compute returns the cross-entropy loss.
func (ce *CrossEntropy) Compute(y, yhat mat.Matrix) float64 {
	r, c := y.Dims()
	var loss float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if y.At(i, j) != 1 {
				continue
			}
			loss -= math.Log(math.Max(yhat.At(i, j), minProb))
		}
	}
	return finite(loss / float64(r))
}

// Gradient returns the derivative of cross-entropy through softmax: (output - target).
func (ce *CrossEntropy) Gradient(y, yhat mat.Matrix) *mat.Dense {
	return residual(y, yhat)
}

type Squared struct{}

func (s *Squared) Compute(y, yhat mat.Matrix) float64 {
	e := residual(y, yhat)
	e.MulElem(e, e)
	return rowMean(e)
}

func (s *Squared) Gradient(y, yhat mat.Matrix) *mat.Dense {
	e := residual(y, yhat)
	e.Scale(2, e)
	return e
}

type Absolute struct{}

func (a *Absolute) Compute(y, yhat mat.Matrix) float64 {
	return rowMean(elementwise(residual(y, yhat), math.Abs))
}

func (a *Absolute) Gradient(y, yhat mat.Matrix) *mat.Dense {
	return elementwise(residual(y, yhat), sign)
}

// Huber is quadratic for residuals up to Delta and linear beyond.
type Huber struct {
	Delta float64
}

func (h *Huber) Compute(y, yhat mat.Matrix) float64 {
	return rowMean(elementwise(residual(y, yhat), func(e float64) float64 {
		e = math.Abs(e)
		if e <= h.Delta {
			return e * e / 2
		}
		return h.Delta * (e - h.Delta/2)
	}))
}

func (h *Huber) Gradient(y, yhat mat.Matrix) *mat.Dense {
	return elementwise(residual(y, yhat), func(e float64) float64 {
		if math.Abs(e) <= h.Delta {
			return e
		}
		return h.Delta * sign(e)
	})
}

// PseudoHuber is a smooth approximation of Huber: δ²(sqrt(1+(E/δ)²)-1).
type PseudoHuber struct {
	Delta float64
}

// Compute uses the equivalent form E²/(sqrt(1+(E/δ)²)+1), which does not
// lose precision to cancellation when δ is large.
func (p *PseudoHuber) Compute(y, yhat mat.Matrix) float64 {
	return rowMean(elementwise(residual(y, yhat), func(e float64) float64 {
		return e * e / (math.Hypot(1, e/p.Delta) + 1)
	}))
}

func (p *PseudoHuber) Gradient(y, yhat mat.Matrix) *mat.Dense {
	return elementwise(residual(y, yhat), func(e float64) float64 {
		return e / math.Hypot(1, e/p.Delta)
	})
}
