package nn

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// Linear computes y = xW + b row-wise.
type Linear struct {
	W, B *Param
	x    *mat.Dense
}

func NewLinear(in, out int, rng *rand.Rand) *Linear {
	l := &Linear{W: newParam(in, out), B: newParam(1, out)}
	GlorotUniform(l.W.Value, in, out, rng)
	return l
}

func (l *Linear) Forward(x *mat.Dense, _ *Pass) *mat.Dense {
	l.x = x
	var y mat.Dense
	y.Mul(x, l.W.Value)
	addRowVector(&y, l.B.Value)
	return &y
}

func (l *Linear) Backward(dy *mat.Dense) *mat.Dense {
	accumulateProduct(l.W.Grad, l.x.T(), dy)
	accumulateColumnSums(l.B.Grad, dy)
	var dx mat.Dense
	dx.Mul(dy, l.W.Value.T())
	return &dx
}

func (l *Linear) Params() []*Param { return []*Param{l.W, l.B} }
