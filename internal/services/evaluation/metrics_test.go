package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestShift(t *testing.T) {
	a, p := Shift([]float64{1, 2, 3, 4, 5, 6}, []float64{1, 2, 3, 4, 5, 6, 7}, 2)
	assert.Equal(t, []float64{3, 4, 5, 6}, a)
	assert.Equal(t, []float64{1, 2, 3, 4}, p)

	a, p = Shift([]float64{1, 2}, []float64{1, 2}, 5)
	assert.Empty(t, a)
	assert.Empty(t, p)

	a, p = Shift([]float64{1, 2, 3}, []float64{9}, 0)
	assert.Equal(t, []float64{1}, a)
	assert.Equal(t, []float64{9}, p)
}

func TestEvaluateExample(t *testing.T) {
	m := Evaluate([]float64{1, 2, 3, 4, 5, 6}, []float64{1, 2, 3, 4, 5, 6, 7}, 2)
	assert.Equal(t, 2, m.Horizon)
	assert.Equal(t, 4, m.Points)
	assert.InDelta(t, 2.0, m.MAFE, 1e-12)
	assert.InDelta(t, 4.0, m.MSE, 1e-12)
	assert.InDelta(t, 2.0, m.RMSE, 1e-12)
	// |3-1|/3 + |4-2|/4 + |5-3|/5 + |6-4|/6
	assert.InDelta(t, (2.0/3+0.5+0.4+1.0/3)/4*100, m.MAPE, 1e-9)
	assert.Equal(t, 4, m.MAPEPoints)
}

func TestEvaluatePerfect(t *testing.T) {
	x := []float64{0.1, 0.2, 0.3}
	m := Evaluate(x, x, 0)
	assert.Zero(t, m.MAFE)
	assert.Zero(t, m.RMSE)
	assert.Zero(t, m.MAPE)
}

func TestEvaluateZeroActuals(t *testing.T) {
	m := Evaluate([]float64{0, 2, 0}, []float64{1, 1, 1}, 0)
	assert.Equal(t, 3, m.Points)
	assert.Equal(t, 1, m.MAPEPoints)
	assert.InDelta(t, 50.0, m.MAPE, 1e-12)

	m = Evaluate([]float64{0, 0}, []float64{1, 1}, 0)
	assert.Equal(t, 0, m.MAPEPoints)
	assert.Zero(t, m.MAPE)
	assert.InDelta(t, 1.0, m.MSE, 1e-12)
}

func TestEvaluateEmpty(t *testing.T) {
	m := Evaluate([]float64{1}, []float64{1}, 3)
	assert.Equal(t, 0, m.Points)
	assert.Zero(t, m.MSE)
}

func TestEvaluateHorizons(t *testing.T) {
	actual := mat.NewDense(6, 2, []float64{
		1, 10,
		2, 20,
		3, 30,
		4, 40,
		5, 50,
		6, 60,
	})
	predicted := mat.NewDense(6, 2, []float64{
		2, 20,
		3, 30,
		4, 40,
		5, 50,
		6, 60,
		7, 70,
	})
	res, err := EvaluateHorizons([]string{"a", "b"}, actual, predicted, []int{1, 2})
	require.NoError(t, err)
	require.Len(t, res, 2)

	assert.Equal(t, 1, res[0].Horizon)
	assert.Equal(t, "a", res[0].Markets[0].Market)
	assert.Zero(t, res[0].Markets[0].MSE)
	assert.Equal(t, 5, res[0].Markets[0].Points)

	assert.Equal(t, "b", res[1].Markets[1].Market)
	assert.InDelta(t, 10.0, res[1].Markets[1].MAFE, 1e-12)
	assert.Equal(t, 4, res[1].Markets[1].Points)
}

func TestEvaluateMatrixLabelMismatch(t *testing.T) {
	x := mat.NewDense(2, 2, nil)
	_, err := EvaluateMatrix([]string{"only"}, x, x, 1)
	assert.Error(t, err)
}

func TestEvaluateHorizonsDefault(t *testing.T) {
	x := mat.NewDense(30, 1, nil)
	res, err := EvaluateHorizons([]string{"a"}, x, x, nil)
	require.NoError(t, err)
	require.Len(t, res, len(DefaultHorizons))
	assert.Equal(t, 22, res[3].Horizon)
	assert.Equal(t, 8, res[3].Markets[0].Points)
}
