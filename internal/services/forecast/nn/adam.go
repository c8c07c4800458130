package nn

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	AdamBeta1   = 0.9
	AdamBeta2   = 0.999
	AdamEpsilon = 1e-8
)

// Adam is the bias-corrected Adam optimiser.
type Adam struct {
	LR     float64
	params []*Param
	m, v   []*mat.Dense
	t      int
}

func NewAdam(params []*Param, lr float64) *Adam {
	a := &Adam{LR: lr, params: params}
	for _, p := range params {
		r, c := p.Value.Dims()
		a.m = append(a.m, mat.NewDense(r, c, nil))
		a.v = append(a.v, mat.NewDense(r, c, nil))
	}
	return a
}

// Step applies one update from the accumulated gradients.
func (a *Adam) Step() {
	a.t++
	c1 := 1 - math.Pow(AdamBeta1, float64(a.t))
	c2 := 1 - math.Pow(AdamBeta2, float64(a.t))
	for k, p := range a.params {
		r, c := p.Value.Dims()
		for i := 0; i < r; i++ {
			val, g := p.Value.RawRowView(i), p.Grad.RawRowView(i)
			m, v := a.m[k].RawRowView(i), a.v[k].RawRowView(i)
			for j := 0; j < c; j++ {
				m[j] = AdamBeta1*m[j] + (1-AdamBeta1)*g[j]
				v[j] = AdamBeta2*v[j] + (1-AdamBeta2)*g[j]*g[j]
				val[j] -= a.LR * (m[j] / c1) / (math.Sqrt(v[j]/c2) + AdamEpsilon)
			}
		}
	}
}

func (a *Adam) ZeroGrad() {
	for _, p := range a.params {
		p.ZeroGrad()
	}
}
