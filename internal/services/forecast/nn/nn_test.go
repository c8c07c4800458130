package nn

import (
	"math"
	"math/rand/v2"
	"testing"

	"SpillNet/internal/domain/models"
	"SpillNet/internal/services/graph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

const (
	fdStep = 1e-6
	fdTol  = 1e-5
)

func testTopology(t *testing.T) *graph.Topology {
	t.Helper()
	g := graph.Build(&models.SpilloverMatrix{
		Labels: []string{"a", "b", "c"},
		Values: [][]float64{
			{0, 12, 0},
			{4, 0, 0},
			{0, 7, 0},
		},
	})
	top, err := graph.NewTopology(g, g.Nodes)
	require.NoError(t, err)
	return top
}

func randomDense(rng *rand.Rand, r, c int) *mat.Dense {
	m := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.Set(i, j, rng.NormFloat64())
		}
	}
	return m
}

// weightedSum is the scalar probe loss sum(out .* w).
func weightedSum(out, w *mat.Dense) float64 {
	var p mat.Dense
	p.MulElem(out, w)
	return mat.Sum(&p)
}

func checkGradients(t *testing.T, layer Layer, x *mat.Dense, pass *Pass) {
	t.Helper()
	rng := rand.New(rand.NewPCG(99, 100))

	out := layer.Forward(x, pass)
	r, c := out.Dims()
	probe := randomDense(rng, r, c)
	for _, p := range layer.Params() {
		p.ZeroGrad()
	}
	dx := layer.Backward(probe)

	loss := func() float64 { return weightedSum(layer.Forward(x, pass), probe) }

	xr, xc := x.Dims()
	for i := 0; i < xr; i++ {
		for j := 0; j < xc; j++ {
			orig := x.At(i, j)
			x.Set(i, j, orig+fdStep)
			up := loss()
			x.Set(i, j, orig-fdStep)
			down := loss()
			x.Set(i, j, orig)
			assert.InDelta(t, (up-down)/(2*fdStep), dx.At(i, j), fdTol, "dx[%d][%d]", i, j)
		}
	}

	for n, p := range layer.Params() {
		pr, pc := p.Value.Dims()
		for i := 0; i < pr; i++ {
			for j := 0; j < pc; j++ {
				orig := p.Value.At(i, j)
				p.Value.Set(i, j, orig+fdStep)
				up := loss()
				p.Value.Set(i, j, orig-fdStep)
				down := loss()
				p.Value.Set(i, j, orig)
				assert.InDelta(t, (up-down)/(2*fdStep), p.Grad.At(i, j), fdTol, "param %d [%d][%d]", n, i, j)
			}
		}
	}
}

func TestLinearGradients(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	l := NewLinear(3, 2, rng)
	GlorotUniform(l.B.Value, 1, 2, rng)
	checkGradients(t, l, randomDense(rng, 5, 3), &Pass{})
}

func TestGCNGradients(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	c := NewGCNConv(2, 3, rng)
	checkGradients(t, c, randomDense(rng, 6, 2), &Pass{Graph: testTopology(t)})
}

func TestGATGradients(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	c := NewGATConv(2, 3, 2, rng)
	checkGradients(t, c, randomDense(rng, 6, 2), &Pass{Graph: testTopology(t)})
}

func TestGATAttentionWithoutEdgesIsSelf(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 8))
	g := &models.MarketGraph{Nodes: []string{"a", "b"}}
	top, err := graph.NewTopology(g, g.Nodes)
	require.NoError(t, err)

	c := NewGATConv(1, 2, 3, rng)
	x := mat.NewDense(2, 1, []float64{0.5, -1.5})
	y := c.Forward(x, &Pass{Graph: top})

	// each node only attends to itself, so the output is the mean of its own heads
	var z mat.Dense
	z.Mul(x, c.W.Value)
	for i := 0; i < 2; i++ {
		for h := 0; h < 2; h++ {
			want := 0.0
			for k := 0; k < 3; k++ {
				want += z.At(i, k*2+h) / 3
			}
			assert.InDelta(t, want, y.At(i, h), 1e-12)
		}
	}
}

func TestGCNIsolatedNodeKeepsOwnSignal(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 10))
	top := testTopology(t)
	c := NewGCNConv(1, 1, rng)
	c.W.Value.Set(0, 0, 1)
	x := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := c.Forward(x, &Pass{Graph: top})
	// node c has no incoming edges: degree 1, coefficient 1
	assert.InDelta(t, 3.0, y.At(2, 0), 1e-12)
}

func TestReLU(t *testing.T) {
	r := &ReLU{}
	y := r.Forward(mat.NewDense(1, 3, []float64{-1, 0, 2}), &Pass{})
	assert.Equal(t, []float64{0, 0, 2}, y.RawRowView(0))
	dx := r.Backward(mat.NewDense(1, 3, []float64{5, 5, 5}))
	assert.Equal(t, []float64{0, 0, 5}, dx.RawRowView(0))
}

func TestDropout(t *testing.T) {
	x := mat.NewDense(10, 10, nil)
	for i := 0; i < 10; i++ {
		for j := 0; j < 10; j++ {
			x.Set(i, j, 1)
		}
	}
	d := &Dropout{P: 0.5}

	assert.Same(t, x, d.Forward(x, &Pass{Train: false}))

	rng := rand.New(rand.NewPCG(11, 12))
	y := d.Forward(x, &Pass{Train: true, Rand: rng})
	dropped := 0
	for i := 0; i < 10; i++ {
		for j := 0; j < 10; j++ {
			v := y.At(i, j)
			assert.True(t, v == 0 || v == 2, "value %v", v)
			if v == 0 {
				dropped++
			}
		}
	}
	assert.Greater(t, dropped, 20)
	assert.Less(t, dropped, 80)

	dx := d.Backward(x)
	assert.True(t, mat.Equal(dx, y))
}

func TestMSE(t *testing.T) {
	loss, grad := MSE(mat.NewDense(1, 2, []float64{1, 2}), mat.NewDense(1, 2, []float64{0, 0}))
	assert.InDelta(t, 2.5, loss, 1e-12)
	assert.InDelta(t, 1.0, grad.At(0, 0), 1e-12)
	assert.InDelta(t, 2.0, grad.At(0, 1), 1e-12)
}

func TestAdamFirstStepIsLearningRate(t *testing.T) {
	p := newParam(1, 1)
	p.Grad.Set(0, 0, 4)
	a := NewAdam([]*Param{p}, 0.01)
	a.Step()
	assert.InDelta(t, -0.01, p.Value.At(0, 0), 1e-8)
	a.ZeroGrad()
	assert.Zero(t, p.Grad.At(0, 0))
}

func TestAdamMinimisesQuadratic(t *testing.T) {
	p := newParam(1, 1)
	a := NewAdam([]*Param{p}, 0.05)
	for i := 0; i < 2000; i++ {
		a.ZeroGrad()
		p.Grad.Set(0, 0, 2*(p.Value.At(0, 0)-3))
		a.Step()
	}
	assert.InDelta(t, 3.0, p.Value.At(0, 0), 0.05)
}

func TestGlorotUniformBounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(13, 14))
	m := mat.NewDense(16, 8, nil)
	GlorotUniform(m, 16, 8, rng)
	limit := math.Sqrt(6.0 / 24)
	assert.LessOrEqual(t, mat.Max(m), limit)
	assert.GreaterOrEqual(t, mat.Min(m), -limit)
	assert.NotZero(t, mat.Norm(m, 2))
}

func TestSoftmax(t *testing.T) {
	s := softmax([]float64{1000, 1000, 1000 + math.Log(2)})
	assert.InDelta(t, 0.25, s[0], 1e-12)
	assert.InDelta(t, 0.5, s[2], 1e-12)
}

func TestSequentialParams(t *testing.T) {
	rng := rand.New(rand.NewPCG(15, 16))
	s := Sequential{NewLinear(1, 4, rng), &ReLU{}, &Dropout{P: 0.1}, NewLinear(4, 1, rng)}
	assert.Len(t, s.Params(), 4)
	y := s.Forward(mat.NewDense(3, 1, []float64{1, 2, 3}), &Pass{})
	r, c := y.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 1, c)
	dx := s.Backward(mat.NewDense(3, 1, []float64{1, 1, 1}))
	r, c = dx.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 1, c)
}
