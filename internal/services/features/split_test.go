package features

import (
	"testing"

	"SpillNet/internal/domain/models"

	"github.com/stretchr/testify/assert"
)

func TestPartition(t *testing.T) {
	tests := []struct {
		n    int
		want models.Split
	}{
		{n: 3678, want: models.Split{Train: 1839, Validation: 735, Test: 1104}},
		{n: 10, want: models.Split{Train: 5, Validation: 2, Test: 3}},
		{n: 11, want: models.Split{Train: 5, Validation: 2, Test: 4}},
		{n: 0, want: models.Split{}},
	}
	for _, tt := range tests {
		got := Partition(tt.n, DefaultTrainFraction, DefaultValidationFraction)
		assert.Equal(t, tt.want, got, "n=%d", tt.n)
		assert.Equal(t, tt.n, got.Total())
	}
}

func TestSliceRowsAndAlignTail(t *testing.T) {
	aligned, n := AlignTail([]string{"a", "b"}, map[string][]float64{
		"a": {1, 2, 3, 4, 5},
		"b": {9, 8, 7},
	})
	assert.Equal(t, 3, n)
	assert.Equal(t, []float64{3, 4, 5}, aligned["a"])

	s := models.Split{Train: 1, Validation: 1, Test: 1}
	val := SliceRows(aligned, s, models.PartitionValidation)
	assert.Equal(t, []float64{4}, val["a"])
	assert.Equal(t, []float64{8}, val["b"])
}
