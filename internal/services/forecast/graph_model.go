package forecast

import (
	"SpillNet/internal/domain/models"
	domsvc "SpillNet/internal/domain/service"
	"SpillNet/internal/services/forecast/nn"
)

const GraphModelName = "gcn_gat"

// GraphModel stacks GCN layers, then multi-head GAT layers, then a per-node linear
// head. Every hidden layer is followed by ReLU and dropout.
type GraphModel struct {
	*network
}

var _ domsvc.ForecastModel = (*GraphModel)(nil)

func NewGraphModel(params models.Hyperparams, seed int64, opts ...ModelOption) *GraphModel {
	params = normalizeParams(params, true)
	m := &GraphModel{network: newNetwork(GraphModelName, params, seed, true, opts)}

	layers := nn.Sequential{}
	in := 1
	for i := 0; i < params.Layers; i++ {
		layers = append(layers, nn.NewGCNConv(in, params.Hidden, m.rng), &nn.ReLU{}, &nn.Dropout{P: params.Dropout})
		in = params.Hidden
	}
	for i := 0; i < params.Layers; i++ {
		layers = append(layers, nn.NewGATConv(params.Hidden, params.Hidden, params.Heads, m.rng), &nn.ReLU{}, &nn.Dropout{P: params.Dropout})
	}
	layers = append(layers, nn.NewLinear(params.Hidden, 1, m.rng))
	m.finish(layers)
	return m
}

// GraphFactory builds graph models trained for the given number of epochs.
func GraphFactory(epochs int) domsvc.ModelFactory {
	return func(params models.Hyperparams, seed int64) domsvc.ForecastModel {
		return NewGraphModel(params, seed, WithEpochs(epochs))
	}
}

func normalizeParams(p models.Hyperparams, graph bool) models.Hyperparams {
	if p.Hidden < 1 {
		p.Hidden = 1
	}
	if !graph {
		p.Heads, p.Layers = 0, 0
		return p
	}
	if p.Heads < 1 {
		p.Heads = 1
	}
	if p.Layers < 1 {
		p.Layers = 1
	}
	return p
}
