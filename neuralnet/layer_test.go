package neuralnet

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func testLayer(w []float64, b []float64, out, in int, p Params) *Layer {
	return &Layer{
		w:          mat.NewDense(out, in, w),
		b:          mat.NewVecDense(out, b),
		activation: Linear{},
		optimizer:  NewSGD(p.Lr, 0, out, in),
		l1:         p.L1,
		l2:         p.L2,
	}
}

func TestLayerForwardBroadcastsBias(t *testing.T) {
	l := testLayer([]float64{1, 2, 3, 4, 5, 6}, []float64{10, -10}, 2, 3, NewParams(0.1, 0, 0))
	x := mat.NewDense(2, 3, []float64{
		1, 0, 0,
		0, 1, 1,
	})
	got := l.forward(x)
	want := mat.NewDense(2, 2, []float64{
		11, -6,
		15, 1,
	})
	assert.True(t, mat.Equal(want, got), "forward = %v", mat.Formatted(got))
	assert.True(t, mat.Equal(x, l.aPrev))
}

func TestLayerBackwardUsesWeightsBeforeUpdate(t *testing.T) {
	lr := 0.5
	l := testLayer([]float64{1, 2, 3, 4}, []float64{0, 0}, 2, 2, NewParams(lr, 0, 0))
	x := mat.NewDense(1, 2, []float64{1, 1})
	l.forward(x)

	e := mat.NewDense(1, 2, []float64{1, -1})
	propagated := l.backward(e)

	// D·W with the old weights: [1 -1]·[[1 2] [3 4]] = [-2 -2]
	assert.True(t, mat.Equal(mat.NewDense(1, 2, []float64{-2, -2}), propagated))

	// gW = Dᵀ·A_prev = [[1 1] [-1 -1]], gb = [1 -1]
	wantW := mat.NewDense(2, 2, []float64{1 - lr, 2 - lr, 3 + lr, 4 + lr})
	assert.True(t, mat.EqualApprox(wantW, l.w, 1e-12), "W = %v", mat.Formatted(l.w))
	assert.InDelta(t, -lr, l.b.AtVec(0), 1e-12)
	assert.InDelta(t, lr, l.b.AtVec(1), 1e-12)

	assert.Nil(t, l.aPrev)
	assert.Nil(t, l.z)
}

func TestLayerBackwardAveragesOverBatch(t *testing.T) {
	l := testLayer([]float64{0}, []float64{0}, 1, 1, NewParams(1, 0, 0))
	x := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	l.forward(x)
	l.backward(mat.NewDense(4, 1, []float64{1, 1, 1, 1}))

	assert.InDelta(t, -2.5, l.w.At(0, 0), 1e-12)
	assert.InDelta(t, -1, l.b.AtVec(0), 1e-12)
}

func TestLayerRegularization(t *testing.T) {
	tests := []struct {
		name   string
		l1, l2 float64
		want   []float64
	}{
		{"l1", 0.5, 0, []float64{2 - 0.1*0.5, -4 + 0.1*0.5}},
		{"l2", 0, 0.5, []float64{2 - 0.1*0.5*2, -4 + 0.1*0.5*4}},
		{"both", 0.5, 0.5, []float64{2 - 0.1*(0.5+1), -4 + 0.1*(0.5+2)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParams(0.1, tt.l1, tt.l2)
			l := testLayer([]float64{2, -4}, []float64{3}, 1, 2, p)
			l.forward(mat.NewDense(1, 2, []float64{1, 1}))
			// zero error: only the penalty moves the weights
			l.backward(mat.NewDense(1, 1, []float64{0}))

			assert.InDeltaSlice(t, tt.want, rawDense(l.w), 1e-12)
			assert.Equal(t, 3.0, l.b.AtVec(0), "biases are not regularized")
		})
	}
}

func TestNewLayerInitialization(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	l := newLayer(400, 50, Tanh{}, NewSGD(0.1, 0, 50, 400), NewParams(0.1, 0, 0), rng)

	require.Equal(t, 400, l.Inputs())
	require.Equal(t, 50, l.Nodes())
	assert.Equal(t, 0.0, mat.Norm(l.b, 2))

	mean, std := stat.MeanStdDev(rawDense(l.w), nil)
	assert.InDelta(t, 0, mean, 0.005)
	assert.InDelta(t, 0.05, std, 0.005)
}
