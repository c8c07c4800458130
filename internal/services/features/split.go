package features

import (
	"math"

	"SpillNet/internal/domain/models"
)

// Default partition fractions: half for training, then 40% of the remainder for
// validation and the rest for test.
const (
	DefaultTrainFraction      = 0.5
	DefaultValidationFraction = 0.4
)

// Partition splits n time-ordered rows without shuffling. The held-out part of each
// step is rounded up, so train = n - ceil(n*(1-trainFrac)) and validation is derived
// the same way from the remainder.
func Partition(n int, trainFrac, validationFrac float64) models.Split {
	if n <= 0 {
		return models.Split{}
	}
	train := n - int(math.Ceil(float64(n)*(1-trainFrac)))
	rest := n - train
	test := int(math.Ceil(float64(rest) * (1 - validationFrac)))
	return models.Split{Train: train, Validation: rest - test, Test: test}
}

// SliceRows returns the partition p of every series, all assumed aligned to length s.Total().
func SliceRows(series map[string][]float64, s models.Split, p models.Partition) map[string][]float64 {
	lo, hi := s.Bounds(p)
	out := make(map[string][]float64, len(series))
	for k, v := range series {
		out[k] = v[lo:hi]
	}
	return out
}

// AlignTail trims every series to the shortest length, keeping the most recent values.
func AlignTail(labels []string, series map[string][]float64) (map[string][]float64, int) {
	n := -1
	for _, l := range labels {
		if v := len(series[l]); n < 0 || v < n {
			n = v
		}
	}
	if n < 0 {
		n = 0
	}
	out := make(map[string][]float64, len(labels))
	for _, l := range labels {
		v := series[l]
		out[l] = v[len(v)-n:]
	}
	return out, n
}
