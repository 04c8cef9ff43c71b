package neuralnet

import (
	"fmt"
	"math/rand"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Meta describes a network to the code around it.
type Meta struct {
	InputDim   int
	OutputDim  int
	Nodes      []int
	Regression bool
	Names      []string
}

// NeuralNetwork is a feedforward network trained by mini-batch gradient
// descent. Matrices hold one observation per row. A NeuralNetwork is not
// safe for concurrent use.
type NeuralNetwork struct {
	layers  []*Layer
	loss    LossFunction
	params  Params
	meta    Meta
	rng     *rand.Rand
	history []Record
}

// NewNeuralNetwork builds a network from cfg. Weight initialization and all
// later shuffling draw from rng; a nil rng is replaced by a source seeded
// from the architecture, so equal configs give equal networks.
func NewNeuralNetwork(cfg Config, rng *rand.Rand) (*NeuralNetwork, error) {
	if len(cfg.Nodes) < 2 {
		return nil, configErr("nodes", cfg.Nodes, "need at least an input and an output layer")
	}
	for _, n := range cfg.Nodes {
		if n < 1 {
			return nil, configErr("nodes", cfg.Nodes, "every layer needs at least one node")
		}
	}
	nLayers := len(cfg.Nodes) - 1
	if len(cfg.Activations) != nLayers {
		return nil, configErr("activations", cfg.Activations, "want one per layer (%d)", nLayers)
	}
	outputDim := cfg.Nodes[nLayers]
	if len(cfg.Names) != 0 && len(cfg.Names) != outputDim {
		return nil, configErr("names", cfg.Names, "want one per output (%d)", outputDim)
	}
	if cfg.Params.L1 < 0 || cfg.Params.L2 < 0 {
		return nil, configErr("regularization", [2]float64{cfg.Params.L1, cfg.Params.L2}, "must not be negative")
	}
	for i, kind := range cfg.Activations {
		if kind == ActSoftmax && i != nLayers-1 {
			return nil, configErr("activation", kind, "only allowed on the output layer")
		}
	}
	if cfg.Loss == LossLog && cfg.Activations[nLayers-1] != ActSoftmax {
		return nil, configErr("loss", cfg.Loss, "requires a softmax output layer")
	}
	if cfg.Activations[nLayers-1] == ActSoftmax && cfg.Loss != LossLog {
		return nil, configErr("activation", ActSoftmax, "requires log loss, got %s", cfg.Loss)
	}

	loss, err := NewLoss(cfg.Loss, cfg.Params)
	if err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(NNSeed(cfg.Nodes)))
	}

	nn := &NeuralNetwork{
		layers: make([]*Layer, nLayers),
		loss:   loss,
		params: cfg.Params,
		rng:    rng,
		meta: Meta{
			InputDim:   cfg.Nodes[0],
			OutputDim:  outputDim,
			Nodes:      append([]int(nil), cfg.Nodes...),
			Regression: cfg.Regression,
			Names:      append([]string(nil), cfg.Names...),
		},
	}
	for i := range nn.layers {
		in, out := cfg.Nodes[i], cfg.Nodes[i+1]
		activation, err := NewActivation(cfg.Activations[i], cfg.Params)
		if err != nil {
			return nil, err
		}
		optimizer, err := NewOptimizer(cfg.Optimizer, cfg.Params, out, in)
		if err != nil {
			return nil, err
		}
		nn.layers[i] = newLayer(in, out, activation, optimizer, cfg.Params, rng)
	}
	return nn, nil
}

// NNSeed derives a deterministic seed from the node counts.
func NNSeed(nodes []int) int64 {
	var seed int64
	for _, n := range nodes {
		seed = seed*31 + int64(n)
	}
	return seed
}

// Layers returns the network's layers from input to output.
func (nn *NeuralNetwork) Layers() []*Layer {
	return nn.layers
}

// Meta returns a copy of the network's metadata.
func (nn *NeuralNetwork) Meta() Meta {
	m := nn.meta
	m.Nodes = append([]int(nil), m.Nodes...)
	m.Names = append([]string(nil), m.Names...)
	return m
}

// Params returns the hyperparameter record the network was built with.
func (nn *NeuralNetwork) Params() Params {
	return nn.params
}

// Forward runs x through every layer and returns the network output.
func (nn *NeuralNetwork) Forward(x mat.Matrix) (*mat.Dense, error) {
	return nn.PartialForward(x, 0, len(nn.layers))
}

// PartialForward runs x through layers [from, to) only. Encoding with an
// autoencoder is PartialForward(x, 0, nn.Bottleneck()+1) and decoding runs
// from Bottleneck()+1 to the end.
func (nn *NeuralNetwork) PartialForward(x mat.Matrix, from, to int) (*mat.Dense, error) {
	if from < 0 || to > len(nn.layers) || from >= to {
		return nil, fmt.Errorf("neuralnet: invalid layer range [%d, %d) for %d layers", from, to, len(nn.layers))
	}
	r, c := x.Dims()
	if in := nn.layers[from].Inputs(); c != in {
		return nil, &ShapeError{Op: "forward", Rows: r, Cols: c, WantRows: -1, WantCols: in}
	}
	return nn.infer(x, from, to), nil
}

// infer is forward without leaving caches behind for a backward pass.
func (nn *NeuralNetwork) infer(x mat.Matrix, from, to int) *mat.Dense {
	out := nn.forward(x, from, to)
	for _, layer := range nn.layers[from:to] {
		layer.aPrev, layer.z = nil, nil
	}
	return out
}

func (nn *NeuralNetwork) forward(x mat.Matrix, from, to int) *mat.Dense {
	out := mat.DenseCopyOf(x)
	for _, layer := range nn.layers[from:to] {
		out = layer.forward(out)
	}
	return out
}

// backward propagates the loss gradient from the output layer to the first,
// updating every layer on the way.
func (nn *NeuralNetwork) backward(y, yhat mat.Matrix) {
	grad := nn.loss.Gradient(y, yhat)
	for i := len(nn.layers) - 1; i >= 0; i-- {
		grad = nn.layers[i].backward(grad)
	}
}

// Evaluate returns the loss of the network on x and y without updating it.
func (nn *NeuralNetwork) Evaluate(x, y mat.Matrix) (float64, error) {
	if err := nn.checkData(x, y); err != nil {
		return 0, err
	}
	return nn.loss.Compute(y, nn.infer(x, 0, len(nn.layers))), nil
}

func (nn *NeuralNetwork) checkData(x, y mat.Matrix) error {
	xr, xc := x.Dims()
	yr, yc := y.Dims()
	if xc != nn.meta.InputDim {
		return &ShapeError{Op: "features", Rows: xr, Cols: xc, WantRows: -1, WantCols: nn.meta.InputDim}
	}
	if yr != xr || yc != nn.meta.OutputDim {
		return &ShapeError{Op: "targets", Rows: yr, Cols: yc, WantRows: xr, WantCols: nn.meta.OutputDim}
	}
	return nil
}

// Bottleneck returns the index of the hidden layer with the fewest nodes,
// the first one on ties. A network without hidden layers returns 0.
func (nn *NeuralNetwork) Bottleneck() int {
	best := 0
	for i := 1; i < len(nn.layers)-1; i++ {
		if nn.layers[i].Nodes() < nn.layers[best].Nodes() {
			best = i
		}
	}
	return best
}

func (nn *NeuralNetwork) snapshot() []layerState {
	states := make([]layerState, len(nn.layers))
	for i, layer := range nn.layers {
		states[i] = layer.snapshot()
	}
	return states
}

func (nn *NeuralNetwork) restore(states []layerState) {
	for i, layer := range nn.layers {
		layer.restore(states[i])
	}
}

func (nn *NeuralNetwork) String() string {
	var sb strings.Builder
	for i, layer := range nn.layers {
		sb.WriteString(fmt.Sprintf("Layer %d: %s\n", i, layer.String()))
	}
	return sb.String()
}
