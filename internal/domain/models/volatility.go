package models

import (
	"fmt"
	"time"
)

// VolatilitySeries is a realized volatility path for one market.
// Dates[i] is the close date of the last return inside window i.
type VolatilitySeries struct {
	Ticker string      `json:"ticker"`
	Window int         `json:"window"`
	Dates  []time.Time `json:"dates"`
	Values []float64   `json:"values"`
}

func (v VolatilitySeries) Len() int { return len(v.Values) }

// DescriptiveStats summarises a volatility series.
type DescriptiveStats struct {
	Count        int     `json:"count"`
	Mean         float64 `json:"mean"`
	Std          float64 `json:"std"`
	Skewness     float64 `json:"skewness"`
	Kurtosis     float64 `json:"kurtosis"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	ADFStatistic float64 `json:"adfStatistic"`
	ADFPValue    float64 `json:"adfPValue"`
	ADFLags      int     `json:"adfLags"`
	// Stationary is true when the ADF p-value is below 0.05.
	Stationary bool `json:"stationary"`
}

// Partition names a contiguous time slice of the aligned data.
type Partition string

const (
	PartitionTrain      Partition = "train"
	PartitionValidation Partition = "validation"
	PartitionTest       Partition = "test"
)

// Partitions in time order.
var Partitions = []Partition{PartitionTrain, PartitionValidation, PartitionTest}

// ParsePartition validates a partition name.
func ParsePartition(s string) (Partition, error) {
	switch p := Partition(s); p {
	case PartitionTrain, PartitionValidation, PartitionTest:
		return p, nil
	}
	return "", fmt.Errorf("unknown partition %q", s)
}

// Split holds partition sizes; they always sum to the aligned length.
type Split struct {
	Train      int `json:"train"`
	Validation int `json:"validation"`
	Test       int `json:"test"`
}

func (s Split) Total() int { return s.Train + s.Validation + s.Test }

// Bounds returns the half-open row range [lo, hi) of a partition.
func (s Split) Bounds(p Partition) (int, int) {
	switch p {
	case PartitionTrain:
		return 0, s.Train
	case PartitionValidation:
		return s.Train, s.Train + s.Validation
	default:
		return s.Train + s.Validation, s.Total()
	}
}
