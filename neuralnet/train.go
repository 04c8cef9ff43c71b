package neuralnet

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Record is one epoch of training history.
type Record struct {
	Epoch     int
	Batch     int // batches trained in this epoch
	TrainLoss float64
	ValidLoss float64
	HasValid  bool
}

// TrainHistory returns a copy of every epoch recorded so far, across all
// calls to Train.
func (nn *NeuralNetwork) TrainHistory() []Record {
	return append([]Record(nil), nn.history...)
}

// Train fits the network to x and y, continuing from the current parameters
// and appending to the training history.
//
// When tp.ValProp > 0 a validation set is held out once for this call. When
// tp.Patience > 0 as well, training stops after Patience epochs without the
// validation loss improving by more than tp.MinDelta, and the parameters of
// the best validation epoch are restored. Optimizer state is not rolled back.
func (nn *NeuralNetwork) Train(x, y mat.Matrix, tp TrainParams) error {
	if err := tp.validate(); err != nil {
		return err
	}
	if err := nn.checkData(x, y); err != nil {
		return err
	}
	n, _ := x.Dims()
	if n == 0 {
		return &ShapeError{Op: "train", Rows: 0, WantRows: -1, WantCols: nn.meta.InputDim}
	}

	perm := nn.rng.Perm(n)
	nVal := int(math.Round(tp.ValProp * float64(n)))
	if nVal >= n {
		nVal = n - 1
	}
	xTrain, yTrain := selectRows(x, perm[nVal:]), selectRows(y, perm[nVal:])
	var xVal, yVal *mat.Dense
	if nVal > 0 {
		xVal, yVal = selectRows(x, perm[:nVal]), selectRows(y, perm[:nVal])
	}

	nTrain := n - nVal
	batchSize := tp.BatchSize
	if batchSize <= 0 || batchSize > nTrain {
		batchSize = nTrain
	}

	epoch0 := 0
	if len(nn.history) > 0 {
		epoch0 = nn.history[len(nn.history)-1].Epoch
	}
	earlyStopping := tp.Patience > 0 && nVal > 0
	best := math.Inf(1)
	var bestState []layerState
	wait := 0

	losses := make([]float64, 0, nTrain/batchSize+1)
	weights := make([]float64, 0, nTrain/batchSize+1)
	for e := 1; e <= tp.Epochs; e++ {
		order := nn.rng.Perm(nTrain)
		losses, weights = losses[:0], weights[:0]
		for start := 0; start < nTrain; start += batchSize {
			end := min(start+batchSize, nTrain)
			if end-start < batchSize && tp.DropLast {
				break
			}
			xb, yb := selectRows(xTrain, order[start:end]), selectRows(yTrain, order[start:end])
			yhat := nn.forward(xb, 0, len(nn.layers))
			losses = append(losses, nn.loss.Compute(yb, yhat))
			weights = append(weights, float64(end-start))
			nn.backward(yb, yhat)
		}

		rec := Record{
			Epoch:     epoch0 + e,
			Batch:     len(losses),
			TrainLoss: stat.Mean(losses, weights),
		}
		if nVal > 0 {
			rec.ValidLoss = nn.loss.Compute(yVal, nn.infer(xVal, 0, len(nn.layers)))
			rec.HasValid = true
		}
		nn.history = append(nn.history, rec)
		nn.logEpoch(tp, rec, e)

		if !earlyStopping {
			continue
		}
		if rec.ValidLoss < best-tp.MinDelta {
			best, bestState, wait = rec.ValidLoss, nn.snapshot(), 0
			continue
		}
		if wait++; wait >= tp.Patience && bestState != nil {
			nn.restore(bestState)
			if tp.Logger != nil {
				tp.Logger.Printf("early stopping at epoch %d, restored epoch %d (valid loss %.6f)",
					rec.Epoch, rec.Epoch-wait, best)
			}
			return nil
		}
	}
	return nil
}

func (nn *NeuralNetwork) logEpoch(tp TrainParams, rec Record, e int) {
	if tp.Logger == nil {
		return
	}
	every := tp.LogEvery
	if every <= 0 {
		every = 1
	}
	if e%every != 0 && e != tp.Epochs {
		return
	}
	if rec.HasValid {
		tp.Logger.Printf("epoch %d: train loss %.6f, valid loss %.6f", rec.Epoch, rec.TrainLoss, rec.ValidLoss)
		return
	}
	tp.Logger.Printf("epoch %d: train loss %.6f", rec.Epoch, rec.TrainLoss)
}

// selectRows copies the rows of m listed in idx, in that order.
func selectRows(m mat.Matrix, idx []int) *mat.Dense {
	_, c := m.Dims()
	out := mat.NewDense(len(idx), c, nil)
	for i, r := range idx {
		mat.Row(out.RawRowView(i), r, m)
	}
	return out
}
