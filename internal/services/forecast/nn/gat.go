package nn

import (
	"math"
	"math/rand/v2"

	"SpillNet/internal/services/graph"

	"gonum.org/v1/gonum/mat"
)

// LeakySlope is the negative slope applied to attention logits.
const LeakySlope = 0.2

// GATConv is multi-head graph attention with heads averaged. For target i and each
// head k, alpha_ij = softmax_j(LeakyReLU(a_src.z_j + a_dst.z_i)) over the in-neighbours
// of i and i itself, and out_i = mean_k sum_j alpha_ij z_j + b.
type GATConv struct {
	Heads, Out int

	W      *Param // in x heads*out
	AttSrc *Param // heads x out
	AttDst *Param // heads x out
	B      *Param // 1 x out

	x, z  *mat.Dense
	top   *graph.Topology
	logit [][][]float64 // [row][head][neighbour], pre-activation
	alpha [][][]float64
}

func NewGATConv(in, out, heads int, rng *rand.Rand) *GATConv {
	c := &GATConv{
		Heads:  heads,
		Out:    out,
		W:      newParam(in, heads*out),
		AttSrc: newParam(heads, out),
		AttDst: newParam(heads, out),
		B:      newParam(1, out),
	}
	GlorotUniform(c.W.Value, in, heads*out, rng)
	GlorotUniform(c.AttSrc.Value, heads, out, rng)
	GlorotUniform(c.AttDst.Value, heads, out, rng)
	return c
}

func (c *GATConv) Forward(x *mat.Dense, p *Pass) *mat.Dense {
	c.x = x
	c.top = p.Graph
	c.z = &mat.Dense{}
	c.z.Mul(x, c.W.Value)

	rows, _ := x.Dims()
	n := c.top.Size()
	y := mat.NewDense(rows, c.Out, nil)
	c.logit = make([][][]float64, rows)
	c.alpha = make([][][]float64, rows)
	inv := 1 / float64(c.Heads)

	for r := 0; r < rows; r++ {
		base, i := r-r%n, r%n
		sources := c.top.In[i]
		c.logit[r] = make([][]float64, c.Heads)
		c.alpha[r] = make([][]float64, c.Heads)
		out := y.RawRowView(r)
		for k := 0; k < c.Heads; k++ {
			aSrc, aDst := c.AttSrc.Value.RawRowView(k), c.AttDst.Value.RawRowView(k)
			zi := c.head(r, k)
			dst := dot(aDst, zi)
			s := make([]float64, len(sources))
			e := make([]float64, len(sources))
			for idx, j := range sources {
				s[idx] = dot(aSrc, c.head(base+j, k)) + dst
				e[idx] = leaky(s[idx])
			}
			alpha := softmax(e)
			for idx, j := range sources {
				zj := c.head(base+j, k)
				w := alpha[idx] * inv
				for h := range out {
					out[h] += w * zj[h]
				}
			}
			c.logit[r][k] = s
			c.alpha[r][k] = alpha
		}
	}
	addRowVector(y, c.B.Value)
	return y
}

func (c *GATConv) Backward(dy *mat.Dense) *mat.Dense {
	accumulateColumnSums(c.B.Grad, dy)

	rows, _ := dy.Dims()
	n := c.top.Size()
	dz := mat.NewDense(rows, c.Heads*c.Out, nil)
	inv := 1 / float64(c.Heads)

	for r := 0; r < rows; r++ {
		base, i := r-r%n, r%n
		sources := c.top.In[i]
		g := dy.RawRowView(r)
		for k := 0; k < c.Heads; k++ {
			aSrc, aDst := c.AttSrc.Value.RawRowView(k), c.AttDst.Value.RawRowView(k)
			gSrc, gDst := c.AttSrc.Grad.RawRowView(k), c.AttDst.Grad.RawRowView(k)
			alpha, s := c.alpha[r][k], c.logit[r][k]
			zi := c.head(r, k)
			dzi := dz.RawRowView(r)[k*c.Out : (k+1)*c.Out]

			dAlpha := make([]float64, len(sources))
			weighted := 0.0
			for idx, j := range sources {
				zj := c.head(base+j, k)
				dzj := dz.RawRowView(base + j)[k*c.Out : (k+1)*c.Out]
				dAlpha[idx] = inv * dot(g, zj)
				weighted += alpha[idx] * dAlpha[idx]
				for h := range dzj {
					dzj[h] += inv * alpha[idx] * g[h]
				}
			}
			for idx, j := range sources {
				ds := alpha[idx] * (dAlpha[idx] - weighted)
				if s[idx] <= 0 {
					ds *= LeakySlope
				}
				zj := c.head(base+j, k)
				dzj := dz.RawRowView(base + j)[k*c.Out : (k+1)*c.Out]
				for h := 0; h < c.Out; h++ {
					gSrc[h] += ds * zj[h]
					gDst[h] += ds * zi[h]
					dzj[h] += ds * aSrc[h]
					dzi[h] += ds * aDst[h]
				}
			}
		}
	}

	accumulateProduct(c.W.Grad, c.x.T(), dz)
	var dx mat.Dense
	dx.Mul(dz, c.W.Value.T())
	return &dx
}

func (c *GATConv) Params() []*Param { return []*Param{c.W, c.AttSrc, c.AttDst, c.B} }

func (c *GATConv) head(row, k int) []float64 {
	return c.z.RawRowView(row)[k*c.Out : (k+1)*c.Out]
}

func leaky(x float64) float64 {
	if x > 0 {
		return x
	}
	return LeakySlope * x
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func softmax(x []float64) []float64 {
	out := make([]float64, len(x))
	peak := math.Inf(-1)
	for _, v := range x {
		peak = math.Max(peak, v)
	}
	sum := 0.0
	for i, v := range x {
		out[i] = math.Exp(v - peak)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
