package forecast

import (
	"SpillNet/internal/domain/models"
	domsvc "SpillNet/internal/domain/service"
	"SpillNet/internal/services/forecast/nn"
)

const BaselineModelName = "mlp"

// MLPModel is the graph-agnostic baseline: three hidden layers applied to each node
// independently and a linear head.
type MLPModel struct {
	*network
}

var _ domsvc.ForecastModel = (*MLPModel)(nil)

func NewMLPModel(params models.Hyperparams, seed int64, opts ...ModelOption) *MLPModel {
	params = normalizeParams(params, false)
	m := &MLPModel{network: newNetwork(BaselineModelName, params, seed, false, opts)}
	h := params.Hidden
	m.finish(nn.Sequential{
		nn.NewLinear(1, h, m.rng), &nn.ReLU{}, &nn.Dropout{P: params.Dropout},
		nn.NewLinear(h, h, m.rng), &nn.ReLU{}, &nn.Dropout{P: params.Dropout},
		nn.NewLinear(h, h, m.rng), &nn.ReLU{}, &nn.Dropout{P: params.Dropout},
		nn.NewLinear(h, 1, m.rng),
	})
	return m
}

func BaselineFactory(epochs int) domsvc.ModelFactory {
	return func(params models.Hyperparams, seed int64) domsvc.ForecastModel {
		return NewMLPModel(params, seed, WithEpochs(epochs))
	}
}
