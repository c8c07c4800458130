package forecast

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"SpillNet/internal/domain/models"
	domsvc "SpillNet/internal/domain/service"
	"SpillNet/internal/services/forecast/nn"
	"SpillNet/internal/services/graph"

	"gonum.org/v1/gonum/mat"
)

const DefaultEpochs = 50

// ErrTooShort is returned for samples with fewer than two time rows.
var ErrTooShort = errors.New("forecast: sample needs at least two rows")

// ModelOption tunes a model at construction.
type ModelOption func(*network)

// WithEpochs sets the number of full-batch training epochs.
func WithEpochs(n int) ModelOption {
	return func(m *network) {
		if n > 0 {
			m.epochs = n
		}
	}
}

// network is the training loop shared by every model: node-level input of width 1,
// a stack of layers, one output per node, MSE against the next time row.
type network struct {
	name       string
	params     models.Hyperparams
	epochs     int
	needsGraph bool
	rng        *rand.Rand
	net        nn.Sequential
	opt        *nn.Adam
}

func newNetwork(name string, params models.Hyperparams, seed int64, needsGraph bool, opts []ModelOption) *network {
	m := &network{
		name:       name,
		params:     params,
		epochs:     DefaultEpochs,
		needsGraph: needsGraph,
		rng:        rand.New(rand.NewPCG(uint64(seed), 0x5eed)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// finish installs the layer stack and the optimiser.
func (m *network) finish(layers nn.Sequential) {
	m.net = layers
	m.opt = nn.NewAdam(m.net.Params(), m.params.LearningRate)
}

func (m *network) Name() string { return m.name }

func (m *network) Train(ctx context.Context, train, validation models.Sample) (models.LossHistory, error) {
	hist := models.LossHistory{
		Train:      make([]float64, 0, m.epochs),
		Validation: make([]float64, 0, m.epochs),
	}
	trainTop, err := m.topology(train)
	if err != nil {
		return hist, err
	}
	valTop, err := m.topology(validation)
	if err != nil {
		return hist, err
	}
	xTrain, yTrain, err := pairs(train)
	if err != nil {
		return hist, fmt.Errorf("train sample: %w", err)
	}
	xVal, yVal, err := pairs(validation)
	if err != nil {
		return hist, fmt.Errorf("validation sample: %w", err)
	}
	if _, tn := yTrain.Dims(); tn != yVal.RawMatrix().Cols {
		return hist, fmt.Errorf("%s: train has %d markets, validation %d", m.name, tn, yVal.RawMatrix().Cols)
	}

	for epoch := 0; epoch < m.epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return hist, err
		}
		m.opt.ZeroGrad()
		pred := m.forward(xTrain, yTrain, trainTop, true)
		loss, grad := nn.MSE(pred, yTrain)
		r, c := grad.Dims()
		m.net.Backward(mat.NewDense(r*c, 1, grad.RawMatrix().Data))
		m.opt.Step()

		valPred := m.forward(xVal, yVal, valTop, false)
		valLoss, _ := nn.MSE(valPred, yVal)
		hist.Train = append(hist.Train, loss)
		hist.Validation = append(hist.Validation, valLoss)
	}
	return hist, nil
}

func (m *network) Predict(s models.Sample) (*mat.Dense, error) {
	top, err := m.topology(s)
	if err != nil {
		return nil, err
	}
	if s.Features == nil {
		return nil, ErrTooShort
	}
	return m.forward(nodeInput(s.Features), s.Features, top, false), nil
}

// forward runs the stack over node input x and reshapes to the shape of like.
func (m *network) forward(x *mat.Dense, like mat.Matrix, top *graph.Topology, train bool) *mat.Dense {
	out := m.net.Forward(x, &nn.Pass{Train: train, Graph: top, Rand: m.rng})
	r, c := like.Dims()
	return mat.NewDense(r, c, mat.Col(nil, 0, out))
}

func (m *network) topology(s models.Sample) (*graph.Topology, error) {
	if !m.needsGraph {
		return nil, nil
	}
	if s.Graph == nil {
		return nil, domsvc.ErrGraphRequired
	}
	if s.Features != nil {
		if _, n := s.Features.Dims(); n != len(s.Labels) {
			return nil, fmt.Errorf("%s: %d labels for %d feature columns", m.name, len(s.Labels), n)
		}
	}
	top, err := graph.NewTopology(s.Graph, s.Labels)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.name, err)
	}
	return top, nil
}

// pairs returns node input for rows 0..T-2 and the target rows 1..T-1.
func pairs(s models.Sample) (*mat.Dense, *mat.Dense, error) {
	if s.Features == nil {
		return nil, nil, ErrTooShort
	}
	t, n := s.Features.Dims()
	if t < 2 {
		return nil, nil, ErrTooShort
	}
	x := nodeInput(s.Features.Slice(0, t-1, 0, n))
	y := mat.DenseCopyOf(s.Features.Slice(1, t, 0, n))
	return x, y, nil
}

// nodeInput flattens a T x N matrix to T*N x 1 with row t*N+i holding market i at t.
func nodeInput(f mat.Matrix) *mat.Dense {
	t, n := f.Dims()
	x := mat.NewDense(t*n, 1, nil)
	for r := 0; r < t; r++ {
		for i := 0; i < n; i++ {
			x.Set(r*n+i, 0, f.At(r, i))
		}
	}
	return x
}
