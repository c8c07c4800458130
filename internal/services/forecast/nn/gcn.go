package nn

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// GCNConv is a graph convolution: out = A_hat (X W) + b per snapshot, with A_hat the
// symmetric-normalised adjacency including self loops.
type GCNConv struct {
	W, B *Param
	x    *mat.Dense
	a    *mat.Dense
}

func NewGCNConv(in, out int, rng *rand.Rand) *GCNConv {
	c := &GCNConv{W: newParam(in, out), B: newParam(1, out)}
	GlorotUniform(c.W.Value, in, out, rng)
	return c
}

func (c *GCNConv) Forward(x *mat.Dense, p *Pass) *mat.Dense {
	c.x = x
	c.a = p.Graph.Normalized()
	var z mat.Dense
	z.Mul(x, c.W.Value)
	y := propagate(c.a, &z)
	addRowVector(y, c.B.Value)
	return y
}

func (c *GCNConv) Backward(dy *mat.Dense) *mat.Dense {
	accumulateColumnSums(c.B.Grad, dy)
	dz := propagate(c.a.T(), dy)
	accumulateProduct(c.W.Grad, c.x.T(), dz)
	var dx mat.Dense
	dx.Mul(dz, c.W.Value.T())
	return &dx
}

func (c *GCNConv) Params() []*Param { return []*Param{c.W, c.B} }

// propagate multiplies every N-row snapshot block of z by a.
func propagate(a mat.Matrix, z *mat.Dense) *mat.Dense {
	n, _ := a.Dims()
	rows, cols := z.Dims()
	out := mat.NewDense(rows, cols, nil)
	for start := 0; start+n <= rows; start += n {
		dst := out.Slice(start, start+n, 0, cols).(*mat.Dense)
		dst.Mul(a, z.Slice(start, start+n, 0, cols))
	}
	return out
}
