package neuralnet

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func randomDense(rng *rand.Rand, r, c int, scale float64) *mat.Dense {
	data := make([]float64, r*c)
	for i := range data {
		data[i] = rng.NormFloat64() * scale
	}
	return mat.NewDense(r, c, data)
}

func oneHot(rng *rand.Rand, r, c int) *mat.Dense {
	y := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		y.Set(i, rng.Intn(c), 1)
	}
	return y
}

func TestCrossEntropyCompute(t *testing.T) {
	ce := &CrossEntropy{}
	output := mat.NewDense(1, 2, []float64{0.5, 0.5})
	target := mat.NewDense(1, 2, []float64{1.0, 0.0})
	loss := ce.Compute(target, output)
	want := -math.Log(0.5)
	if diff := loss - want; diff < -1e-9 || diff > 1e-9 {
		t.Errorf("CrossEntropy.Compute = %v; want approx %v", loss, want)
	}
}

func TestCrossEntropyZeroProbability(t *testing.T) {
	ce := &CrossEntropy{}
	output := mat.NewDense(2, 2, []float64{0, 1, 0, 1})
	target := mat.NewDense(2, 2, []float64{1, 0, 1, 0})
	if loss := ce.Compute(target, output); math.IsInf(loss, 0) || math.IsNaN(loss) {
		t.Errorf("CrossEntropy.Compute with p=0 = %v; want a finite value", loss)
	}
}

func TestCrossEntropyGradient(t *testing.T) {
	ce := &CrossEntropy{}
	output := mat.NewDense(1, 2, []float64{0.5, 0.5})
	target := mat.NewDense(1, 2, []float64{1.0, 0.0})
	grad := ce.Gradient(target, output)
	want := []float64{-0.5, 0.5}
	for i := range want {
		if grad.At(0, i) != want[i] {
			t.Errorf("CrossEntropy.Gradient[%d] = %v; want %v", i, grad.At(0, i), want[i])
		}
	}
}

func TestLossZeroOnPerfectFit(t *testing.T) {
	y := randomDense(rand.New(rand.NewSource(1)), 6, 3, 2)
	for name, loss := range map[string]LossFunction{
		"squared":     &Squared{},
		"absolute":    &Absolute{},
		"huber":       &Huber{Delta: 1},
		"pseudohuber": &PseudoHuber{Delta: 1},
	} {
		if got := loss.Compute(y, y); got != 0 {
			t.Errorf("%s.Compute(Y, Y) = %v; want 0", name, got)
		}
	}
}

func TestLossGradientsMatchFiniteDifferences(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const tol = 1e-6
	for name, loss := range map[string]LossFunction{
		"squared":     &Squared{},
		"absolute":    &Absolute{},
		"huber":       &Huber{Delta: 0.8},
		"pseudohuber": &PseudoHuber{Delta: 0.8},
	} {
		for trial := 0; trial < 5; trial++ {
			y := randomDense(rng, 5, 3, 1)
			yhat := randomDense(rng, 5, 3, 1)
			if worst := GradientError(loss, Linear{}, y, yhat); worst > tol {
				t.Errorf("%s: gradient differs from finite differences by %v", name, worst)
			}
		}
	}
}

func TestLogLossGradientThroughSoftmax(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for trial := 0; trial < 5; trial++ {
		y := oneHot(rng, 6, 4)
		z := randomDense(rng, 6, 4, 2)
		if worst := GradientError(&CrossEntropy{}, Softmax{}, y, z); worst > 1e-6 {
			t.Errorf("log loss through softmax differs from finite differences by %v", worst)
		}
	}
}

func TestHuberLimits(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	y := randomDense(rng, 20, 2, 1)
	yhat := randomDense(rng, 20, 2, 1)
	half := (&Squared{}).Compute(y, yhat) / 2
	abs := (&Absolute{}).Compute(y, yhat)
	absGrad := (&Absolute{}).Gradient(y, yhat)

	for _, tc := range []struct {
		name  string
		large LossFunction
		small LossFunction
	}{
		{"huber", &Huber{Delta: 1e6}, &Huber{Delta: 1e-7}},
		{"pseudohuber", &PseudoHuber{Delta: 1e6}, &PseudoHuber{Delta: 1e-7}},
	} {
		// δ → ∞: E²/2, half the squared loss
		if got := tc.large.Compute(y, yhat); math.Abs(got-half) > 1e-6 {
			t.Errorf("%s with large delta = %v; want %v", tc.name, got, half)
		}
		// δ → 0: δ·|E|, the absolute loss scaled by δ
		const delta = 1e-7
		if got := tc.small.Compute(y, yhat) / delta; math.Abs(got-abs) > 1e-5 {
			t.Errorf("%s with small delta / delta = %v; want %v", tc.name, got, abs)
		}
		g := tc.small.Gradient(y, yhat)
		g.Scale(1/delta, g)
		if !mat.EqualApprox(g, absGrad, 1e-5) {
			t.Errorf("%s gradient with small delta is not δ·sign(E)", tc.name)
		}
	}
}

func TestNewLossUnknown(t *testing.T) {
	if _, err := NewLoss("hinge", NewParams(0.1, 0, 0)); err == nil {
		t.Error("NewLoss(hinge) did not return an error")
	}
	p := NewParams(0.1, 0, 0)
	p.DHuber = 0
	if _, err := NewLoss(LossHuber, p); err == nil {
		t.Error("NewLoss(huber) with zero cutoff did not return an error")
	}
}
