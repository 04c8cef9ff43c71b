package main

import (
	"flag"
	"log"
	"math/rand"
	"os"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"

	"gonn/neuralnet"
)

func main() {
	task := flag.String("task", "regression", "regression or classification")
	epochs := flag.Int("epochs", 1000, "number of epochs")
	seed := flag.Int64("seed", 1, "random seed")
	verbose := flag.Bool("v", false, "log every epoch")
	flag.Parse()

	logger := log.New(os.Stderr, "gonn ", log.LstdFlags)
	rng := rand.New(rand.NewSource(*seed))
	logEvery := *epochs / 10
	if *verbose {
		logEvery = 1
	}

	var err error
	switch *task {
	case "regression":
		err = regression(rng, logger, *epochs, logEvery)
	case "classification":
		err = classification(rng, logger, *epochs, logEvery)
	default:
		logger.Fatalf("unknown task %q", *task)
	}
	if err != nil {
		logger.Fatal(err)
	}
}

func matrices(x, y tensor.Tensor) (*mat.Dense, *mat.Dense, error) {
	xm, err := neuralnet.FromTensor(x)
	if err != nil {
		return nil, nil, err
	}
	ym, err := neuralnet.FromTensor(y)
	if err != nil {
		return nil, nil, err
	}
	return xm, ym, nil
}

func regression(rng *rand.Rand, logger *log.Logger, epochs, logEvery int) error {
	x, y, err := matrices(linearDataset(rng))
	if err != nil {
		return err
	}
	params := neuralnet.NewParams(0.01, 0, 0)
	params.Momentum = 0
	nn, err := neuralnet.NewNeuralNetwork(neuralnet.Config{
		Nodes:       []int{Features, 2, 1},
		Activations: []neuralnet.ActivationKind{neuralnet.ActTanh, neuralnet.ActLinear},
		Loss:        neuralnet.LossSquared,
		Optimizer:   neuralnet.OptSGD,
		Params:      params,
		Regression:  true,
		Names:       []string{"y"},
	}, rng)
	if err != nil {
		return err
	}

	initial, err := nn.Evaluate(x, y)
	if err != nil {
		return err
	}
	if err := nn.Train(x, y, neuralnet.TrainParams{Epochs: epochs, Logger: logger, LogEvery: logEvery}); err != nil {
		return err
	}
	final, err := nn.Evaluate(x, y)
	if err != nil {
		return err
	}
	logger.Printf("squared loss %.6f -> %.6f", initial, final)
	return nil
}

func classification(rng *rand.Rand, logger *log.Logger, epochs, logEvery int) error {
	features, labels := blobDataset(rng)
	x, y, err := matrices(features, oneHotEncode(labels, Classes))
	if err != nil {
		return err
	}
	nn, err := neuralnet.NewNeuralNetwork(neuralnet.Config{
		Nodes:       []int{Features, 8, Classes},
		Activations: []neuralnet.ActivationKind{neuralnet.ActReLU, neuralnet.ActSoftmax},
		Loss:        neuralnet.LossLog,
		Optimizer:   neuralnet.OptAdam,
		Params:      neuralnet.NewParams(0.01, 0, 1e-4),
		Names:       []string{"a", "b", "c"},
	}, rng)
	if err != nil {
		return err
	}
	err = nn.Train(x, y, neuralnet.TrainParams{
		Epochs:    epochs,
		BatchSize: 32,
		ValProp:   0.2,
		Patience:  20,
		MinDelta:  1e-4,
		Logger:    logger,
		LogEvery:  logEvery,
	})
	if err != nil {
		return err
	}

	probs, err := nn.Forward(x)
	if err != nil {
		return err
	}
	correct := 0
	for i, label := range labels {
		if floats.MaxIdx(probs.RawRowView(i)) == label {
			correct++
		}
	}
	logger.Printf("accuracy %.3f after %d epochs", float64(correct)/float64(len(labels)), len(nn.TrainHistory()))
	return nil
}
