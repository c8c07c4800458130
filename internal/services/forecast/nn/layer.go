// Package nn holds the small set of differentiable blocks the forecasting models
// are assembled from. Node tensors are (batch*nodes) x features matrices where row
// b*N+i is node i of snapshot b.
package nn

import (
	"math"
	"math/rand/v2"

	"SpillNet/internal/services/graph"

	"gonum.org/v1/gonum/mat"
)

// Param is a trainable matrix and its accumulated gradient.
type Param struct {
	Value *mat.Dense
	Grad  *mat.Dense
}

func newParam(r, c int) *Param {
	return &Param{Value: mat.NewDense(r, c, nil), Grad: mat.NewDense(r, c, nil)}
}

// ZeroGrad clears the accumulated gradient.
func (p *Param) ZeroGrad() { p.Grad.Zero() }

// Pass carries per-call state: training mode, the graph of the snapshots and the
// random source used by dropout.
type Pass struct {
	Train bool
	Graph *graph.Topology
	Rand  *rand.Rand
}

// Layer is a differentiable block. Backward must follow the matching Forward and
// returns the gradient with respect to that Forward's input.
type Layer interface {
	Forward(x *mat.Dense, p *Pass) *mat.Dense
	Backward(dy *mat.Dense) *mat.Dense
	Params() []*Param
}

// Sequential chains layers.
type Sequential []Layer

func (s Sequential) Forward(x *mat.Dense, p *Pass) *mat.Dense {
	for _, l := range s {
		x = l.Forward(x, p)
	}
	return x
}

func (s Sequential) Backward(dy *mat.Dense) *mat.Dense {
	for i := len(s) - 1; i >= 0; i-- {
		dy = s[i].Backward(dy)
	}
	return dy
}

func (s Sequential) Params() []*Param {
	var out []*Param
	for _, l := range s {
		out = append(out, l.Params()...)
	}
	return out
}

// GlorotUniform fills m from U(-a, a), a = sqrt(6 / (fanIn + fanOut)).
func GlorotUniform(m *mat.Dense, fanIn, fanOut int, rng *rand.Rand) {
	limit := math.Sqrt(6 / float64(fanIn+fanOut))
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.Set(i, j, (2*rng.Float64()-1)*limit)
		}
	}
}

func addRowVector(m *mat.Dense, v *mat.Dense) {
	r, c := m.Dims()
	bias := v.RawRowView(0)
	for i := 0; i < r; i++ {
		row := m.RawRowView(i)
		for j := 0; j < c; j++ {
			row[j] += bias[j]
		}
	}
}

func accumulateColumnSums(dst *mat.Dense, m *mat.Dense) {
	r, c := m.Dims()
	out := dst.RawRowView(0)
	for i := 0; i < r; i++ {
		row := m.RawRowView(i)
		for j := 0; j < c; j++ {
			out[j] += row[j]
		}
	}
}

func accumulateProduct(dst *mat.Dense, a, b mat.Matrix) {
	var tmp mat.Dense
	tmp.Mul(a, b)
	dst.Add(dst, &tmp)
}
