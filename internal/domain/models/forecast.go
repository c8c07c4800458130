package models

import (
	"time"

	"gonum.org/v1/gonum/mat"
)

// Sample is the model input for one partition. Features is T x N with rows in time
// order and columns in Labels order. Graph is nil for graph-agnostic models.
type Sample struct {
	Labels   []string
	Features *mat.Dense
	Graph    *MarketGraph
}

// LossHistory records the per-epoch mean squared errors.
type LossHistory struct {
	Train      []float64 `json:"train"`
	Validation []float64 `json:"validation"`
}

// FinalValidation is the last recorded validation loss.
func (h LossHistory) FinalValidation() float64 {
	if len(h.Validation) == 0 {
		return 0
	}
	return h.Validation[len(h.Validation)-1]
}

// Hyperparams is one grid point. Heads and Layers are zero for the baseline.
type Hyperparams struct {
	Hidden       int     `json:"hidden"`
	Heads        int     `json:"heads,omitempty"`
	Layers       int     `json:"layers,omitempty"`
	LearningRate float64 `json:"learningRate"`
	Dropout      float64 `json:"dropout"`
}

type TrialResult struct {
	Index           int           `json:"index"`
	Params          Hyperparams   `json:"params"`
	Losses          LossHistory   `json:"losses"`
	FinalValidation float64       `json:"finalValidation"`
	Elapsed         time.Duration `json:"elapsed"`
}

type SearchResult struct {
	Model  string        `json:"model"`
	Trials []TrialResult `json:"trials"`
	Best   TrialResult   `json:"best"`
}

// Metrics are point forecast errors of one market at one horizon.
type Metrics struct {
	Market     string  `json:"market"`
	Horizon    int     `json:"horizon"`
	MAFE       float64 `json:"mafe"`
	MSE        float64 `json:"mse"`
	RMSE       float64 `json:"rmse"`
	MAPE       float64 `json:"mape"`
	Points     int     `json:"points"`
	MAPEPoints int     `json:"mapePoints"`
}

type HorizonMetrics struct {
	Horizon int       `json:"horizon"`
	Markets []Metrics `json:"markets"`
}

type ModelReport struct {
	Model      string           `json:"model"`
	Search     SearchResult     `json:"search"`
	Final      LossHistory      `json:"final"`
	Evaluation []HorizonMetrics `json:"evaluation"`
}

// RunReport is everything one pipeline run produced.
type RunReport struct {
	RunID      string                          `json:"runId"`
	StartedAt  time.Time                       `json:"startedAt"`
	FinishedAt time.Time                       `json:"finishedAt"`
	Markets    []string                        `json:"markets"`
	Skipped    []string                        `json:"skipped,omitempty"`
	Fill       map[string]FillReport           `json:"fill,omitempty"`
	Stats      map[string]DescriptiveStats     `json:"stats"`
	Split      Split                           `json:"split"`
	Spillover  map[Partition]*SpilloverSummary `json:"spillover"`
	Models     []ModelReport                   `json:"models,omitempty"`
}
