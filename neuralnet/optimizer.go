package neuralnet

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// epsilon guards the adaptive optimizers against division by zero.
const epsilon = 1e-8

// Optimizer updates the weights and biases of the one layer it belongs to
// and owns whatever accumulator state its rule needs. gw and gb are averaged
// over the batch; gw already carries the regularization terms.
type Optimizer interface {
	Update(w, gw *mat.Dense, b, gb *mat.VecDense)
}

// OptimizerKind is the configuration tag of an optimizer.
type OptimizerKind string

const (
	OptSGD     OptimizerKind = "sgd"
	OptRMSprop OptimizerKind = "rmsprop"
	OptAdam    OptimizerKind = "adam"
)

func unitInterval(field string, v float64) error {
	if v < 0 || v >= 1 {
		return configErr(field, v, "must be in [0, 1)")
	}
	return nil
}

// NewOptimizer returns an optimizer with zeroed state for a layer with the
// given output and input sizes.
func NewOptimizer(kind OptimizerKind, p Params, out, in int) (Optimizer, error) {
	if p.Lr <= 0 {
		return nil, configErr("learning rate", p.Lr, "must be positive")
	}
	switch kind {
	case OptSGD:
		if err := unitInterval("momentum", p.Momentum); err != nil {
			return nil, err
		}
		return NewSGD(p.Lr, p.Momentum, out, in), nil
	case OptRMSprop:
		if err := unitInterval("decay", p.Decay); err != nil {
			return nil, err
		}
		return NewRMSprop(p.Lr, p.Decay, out, in), nil
	case OptAdam:
		if err := unitInterval("beta1", p.Beta1); err != nil {
			return nil, err
		}
		if err := unitInterval("beta2", p.Beta2); err != nil {
			return nil, err
		}
		return NewAdam(p.Lr, p.Beta1, p.Beta2, out, in), nil
	}
	return nil, configErr("optimizer", kind, "unknown optimizer")
}

func rawDense(m *mat.Dense) []float64 {
	return m.RawMatrix().Data
}

func rawVec(v *mat.VecDense) []float64 {
	return v.RawVector().Data
}

// SGD implements stochastic gradient descent with momentum. A momentum of
// zero gives plain gradient descent.
type SGD struct {
	lr       float64
	momentum float64
	vw, vb   []float64
}

func NewSGD(lr, momentum float64, out, in int) *SGD {
	return &SGD{
		lr:       lr,
		momentum: momentum,
		vw:       make([]float64, out*in),
		vb:       make([]float64, out),
	}
}

func (o *SGD) Update(w, gw *mat.Dense, b, gb *mat.VecDense) {
	o.step(rawDense(w), rawDense(gw), o.vw)
	o.step(rawVec(b), rawVec(gb), o.vb)
}

// velocity = momentum*velocity - lr*grad; param += velocity
func (o *SGD) step(param, grad, velocity []float64) {
	floats.Scale(o.momentum, velocity)
	floats.AddScaled(velocity, -o.lr, grad)
	floats.Add(param, velocity)
}

// RMSprop scales every step by a running average of squared gradients.
type RMSprop struct {
	lr     float64
	decay  float64
	cw, cb []float64
}

func NewRMSprop(lr, decay float64, out, in int) *RMSprop {
	return &RMSprop{
		lr:    lr,
		decay: decay,
		cw:    make([]float64, out*in),
		cb:    make([]float64, out),
	}
}

func (o *RMSprop) Update(w, gw *mat.Dense, b, gb *mat.VecDense) {
	o.step(rawDense(w), rawDense(gw), o.cw)
	o.step(rawVec(b), rawVec(gb), o.cb)
}

func (o *RMSprop) step(param, grad, cache []float64) {
	for i, g := range grad {
		cache[i] = o.decay*cache[i] + (1-o.decay)*g*g
		param[i] -= o.lr * g / (math.Sqrt(cache[i]) + epsilon)
	}
}

// Adam keeps bias-corrected first and second moment estimates. The step
// counter advances once per Update, covering weights and biases alike.
type Adam struct {
	lr           float64
	beta1, beta2 float64
	t            int
	mw, vw       []float64
	mb, vb       []float64
}

func NewAdam(lr, beta1, beta2 float64, out, in int) *Adam {
	return &Adam{
		lr:    lr,
		beta1: beta1,
		beta2: beta2,
		mw:    make([]float64, out*in),
		vw:    make([]float64, out*in),
		mb:    make([]float64, out),
		vb:    make([]float64, out),
	}
}

func (o *Adam) Update(w, gw *mat.Dense, b, gb *mat.VecDense) {
	o.t++
	bc1 := 1 - math.Pow(o.beta1, float64(o.t))
	bc2 := 1 - math.Pow(o.beta2, float64(o.t))
	o.step(rawDense(w), rawDense(gw), o.mw, o.vw, bc1, bc2)
	o.step(rawVec(b), rawVec(gb), o.mb, o.vb, bc1, bc2)
}

func (o *Adam) step(param, grad, m, v []float64, bc1, bc2 float64) {
	for i, g := range grad {
		m[i] = o.beta1*m[i] + (1-o.beta1)*g
		v[i] = o.beta2*v[i] + (1-o.beta2)*g*g
		mHat := m[i] / bc1
		vHat := v[i] / bc2
		param[i] -= o.lr * mHat / (math.Sqrt(vHat) + epsilon)
	}
}
