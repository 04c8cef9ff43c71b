package neuralnet

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

// FromTensor copies a two-dimensional float32 or float64 tensor, laid out as
// observations x features, into a new matrix.
func FromTensor(t tensor.Tensor) (*mat.Dense, error) {
	shape := t.Shape()
	if len(shape) != 2 {
		return nil, fmt.Errorf("neuralnet: want a 2-D tensor, got shape %v", shape)
	}
	r, c := shape[0], shape[1]
	if r == 0 || c == 0 {
		return nil, fmt.Errorf("neuralnet: empty tensor of shape %v", shape)
	}
	switch t.Dtype() {
	case tensor.Float64, tensor.Float32:
	default:
		return nil, fmt.Errorf("neuralnet: unsupported tensor dtype %v", t.Dtype())
	}
	// At follows the tensor's view, so transposed or sliced tensors need
	// no materializing first.
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v, err := t.At(i, j)
			if err != nil {
				return nil, fmt.Errorf("neuralnet: reading tensor at (%d, %d): %w", i, j, err)
			}
			switch v := v.(type) {
			case float64:
				out.Set(i, j, v)
			case float32:
				out.Set(i, j, float64(v))
			}
		}
	}
	return out, nil
}

// ToTensor copies m into a new float64 tensor of the same shape.
func ToTensor(m mat.Matrix) *tensor.Dense {
	r, c := m.Dims()
	backing := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		backing = append(backing, mat.Row(nil, i, m)...)
	}
	return tensor.New(tensor.WithShape(r, c), tensor.WithBacking(backing))
}
