package service

import (
	"context"
	"errors"

	"SpillNet/internal/domain/models"

	"gonum.org/v1/gonum/mat"
)

// ErrGraphRequired is returned by graph-aware models given a sample without edges.
var ErrGraphRequired = errors.New("forecast model requires a market graph")

// ForecastModel predicts next-step volatility for every market.
// Train returns one train and one validation loss per epoch.
// Predict returns a T x N matrix whose row t forecasts row t+1 of the features.
type ForecastModel interface {
	Name() string
	Train(ctx context.Context, train, validation models.Sample) (models.LossHistory, error)
	Predict(s models.Sample) (*mat.Dense, error)
}

// ModelFactory builds a fresh, independently seeded model for one grid point.
type ModelFactory func(params models.Hyperparams, seed int64) ForecastModel
