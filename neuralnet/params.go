package neuralnet

import "log"

// Params is the hyperparameter record of a network. It is fixed when the
// network is built; layers and optimizers copy what they need from it.
type Params struct {
	Lr float64
	L1 float64
	L2 float64

	Momentum float64 // SGD
	Decay    float64 // RMSprop
	Beta1    float64 // Adam
	Beta2    float64 // Adam

	DHuber float64 // huber and pseudohuber cutoff

	LeakyAlpha     float64
	StepCount      int
	StepSmoothness float64
}

// NewParams returns a Params with the given learning rate and regularization
// coefficients and the usual defaults for everything else.
func NewParams(lr, l1, l2 float64) Params {
	return Params{
		Lr:             lr,
		L1:             l1,
		L2:             l2,
		Momentum:       0.9,
		Decay:          0.9,
		Beta1:          0.9,
		Beta2:          0.999,
		DHuber:         1,
		LeakyAlpha:     0.01,
		StepCount:      5,
		StepSmoothness: 25,
	}
}

// Config describes the architecture of a network. Nodes lists the node count
// of every layer including the input, so a network has len(Nodes)-1 layers
// and Activations must hold one entry per layer.
type Config struct {
	Nodes       []int
	Activations []ActivationKind
	Loss        LossKind
	Optimizer   OptimizerKind
	Params      Params

	Regression bool
	Names      []string
}

// TrainParams controls a single call to Train.
type TrainParams struct {
	Epochs int
	// BatchSize <= 0 or larger than the training set means full batch.
	BatchSize int
	// ValProp is the share of observations held out for validation.
	ValProp float64
	// DropLast skips an incomplete final batch instead of training on it.
	DropLast bool
	// Patience is the number of epochs without validation improvement
	// tolerated before stopping. Zero disables early stopping.
	Patience int
	MinDelta float64

	Logger   *log.Logger
	LogEvery int
}

func (tp TrainParams) validate() error {
	switch {
	case tp.Epochs < 1:
		return configErr("epochs", tp.Epochs, "must be positive")
	case tp.ValProp < 0 || tp.ValProp >= 1:
		return configErr("validation proportion", tp.ValProp, "must be in [0, 1)")
	case tp.Patience < 0:
		return configErr("patience", tp.Patience, "must not be negative")
	case tp.MinDelta < 0:
		return configErr("min delta", tp.MinDelta, "must not be negative")
	}
	return nil
}
