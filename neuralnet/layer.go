package neuralnet

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Layer is a fully connected layer. It owns its weights (out x in), biases,
// activation and optimizer state. aPrev and z are cached by forward and
// consumed by the backward call that follows it.
type Layer struct {
	w          *mat.Dense
	b          *mat.VecDense
	activation ActivationFunction
	optimizer  Optimizer
	l1, l2     float64

	aPrev *mat.Dense
	z     *mat.Dense
}

// newLayer draws weights from N(0, 1/in) and starts with zero biases.
func newLayer(in, out int, activation ActivationFunction, optimizer Optimizer, p Params, rng *rand.Rand) *Layer {
	scale := 1 / math.Sqrt(float64(in))
	weights := make([]float64, out*in)
	for k := range weights {
		weights[k] = rng.NormFloat64() * scale
	}
	return &Layer{
		w:          mat.NewDense(out, in, weights),
		b:          mat.NewVecDense(out, nil),
		activation: activation,
		optimizer:  optimizer,
		l1:         p.L1,
		l2:         p.L2,
	}
}

// Inputs returns the number of inputs the layer expects.
func (l *Layer) Inputs() int {
	_, in := l.w.Dims()
	return in
}

// Nodes returns the number of output nodes.
func (l *Layer) Nodes() int {
	out, _ := l.w.Dims()
	return out
}

// Weights returns a copy of the weight matrix.
func (l *Layer) Weights() *mat.Dense {
	return mat.DenseCopyOf(l.w)
}

// Bias returns a copy of the bias vector.
func (l *Layer) Bias() *mat.VecDense {
	return mat.VecDenseCopyOf(l.b)
}

// forward computes activation(x·Wᵀ + b) for x of shape observations x in.
func (l *Layer) forward(x mat.Matrix) *mat.Dense {
	l.aPrev = mat.DenseCopyOf(x)
	r, _ := x.Dims()
	z := mat.NewDense(r, l.Nodes(), nil)
	z.Mul(l.aPrev, l.w.T())
	bias := rawVec(l.b)
	for i := 0; i < r; i++ {
		floats.Add(z.RawRowView(i), bias)
	}
	l.z = z
	return l.activation.Activate(z)
}

// backward takes ∂L/∂output (observations x out), updates the parameters and
// returns ∂L/∂input computed with the weights as they were before the update.
func (l *Layer) backward(e mat.Matrix) *mat.Dense {
	n, _ := e.Dims()

	var d mat.Dense
	d.MulElem(e, l.activation.Derivative(l.z))

	var propagated mat.Dense
	propagated.Mul(&d, l.w)

	var gw mat.Dense
	gw.Mul(d.T(), l.aPrev)
	gw.Scale(1/float64(n), &gw)
	l.regularize(&gw)

	gb := mat.NewVecDense(l.Nodes(), nil)
	for i := 0; i < n; i++ {
		floats.Add(rawVec(gb), d.RawRowView(i))
	}
	gb.ScaleVec(1/float64(n), gb)

	l.optimizer.Update(l.w, &gw, l.b, gb)
	l.aPrev, l.z = nil, nil
	return &propagated
}

// regularize adds L1·sign(W) + L2·W to the weight gradient. Biases are not
// regularized.
func (l *Layer) regularize(gw *mat.Dense) {
	if l.l1 == 0 && l.l2 == 0 {
		return
	}
	g := rawDense(gw)
	for k, w := range rawDense(l.w) {
		g[k] += l.l1*sign(w) + l.l2*w
	}
}

type layerState struct {
	w *mat.Dense
	b *mat.VecDense
}

func (l *Layer) snapshot() layerState {
	return layerState{w: l.Weights(), b: l.Bias()}
}

func (l *Layer) restore(s layerState) {
	l.w.Copy(s.w)
	l.b.CopyVec(s.b)
}

// Debug
func (l *Layer) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d -> %d (%T)\n", l.Inputs(), l.Nodes(), l.activation))
	sb.WriteString(fmt.Sprintf("W = %v\n", mat.Formatted(l.w, mat.Prefix("    "), mat.Squeeze())))
	sb.WriteString(fmt.Sprintf("b = %v\n", mat.Formatted(l.b.T(), mat.Prefix("    "), mat.Squeeze())))
	return sb.String()
}
