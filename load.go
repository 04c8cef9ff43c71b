package main

import (
	"math/rand"

	"gorgonia.org/tensor"
)

const (
	Features = 4
	Rows     = 200
	Classes  = 3
)

// linearDataset draws Rows observations of Features standard normal features
// and a target that is a fixed linear combination of them plus noise.
func linearDataset(rng *rand.Rand) (tensor.Tensor, tensor.Tensor) {
	coef := []float64{1, -1, 0.5, 2}
	xs := make([]float64, Rows*Features)
	ys := make([]float64, Rows)
	for i := 0; i < Rows; i++ {
		row := xs[i*Features : (i+1)*Features]
		ys[i] = 0.3 + rng.NormFloat64()*0.1
		for j := range row {
			row[j] = rng.NormFloat64()
			ys[i] += coef[j] * row[j]
		}
	}
	x := tensor.New(tensor.WithShape(Rows, Features), tensor.WithBacking(xs))
	y := tensor.New(tensor.WithShape(Rows, 1), tensor.WithBacking(ys))
	return x, y
}

// blobDataset draws Rows points around Classes centres in Features
// dimensions and returns them with their class labels.
func blobDataset(rng *rand.Rand) (tensor.Tensor, []int) {
	xs := make([]float32, Rows*Features)
	labels := make([]int, Rows)
	for i := 0; i < Rows; i++ {
		label := i % Classes
		labels[i] = label
		for j := 0; j < Features; j++ {
			centre := 0.0
			if j%Classes == label {
				centre = 2
			}
			xs[i*Features+j] = float32(centre + rng.NormFloat64()*0.5)
		}
	}
	return tensor.New(tensor.Of(tensor.Float32), tensor.WithShape(Rows, Features), tensor.WithBacking(xs)), labels
}

func oneHotEncode(labels []int, numClasses int) tensor.Tensor {
	numLabels := len(labels)
	norm := make([]float64, numLabels*numClasses)

	for i, label := range labels {
		norm[i*numClasses+label] = 1.0
	}

	return tensor.New(tensor.Of(tensor.Float64), tensor.WithShape(numLabels, numClasses), tensor.WithBacking(norm))
}
