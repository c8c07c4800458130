package nn

import "gonum.org/v1/gonum/mat"

type ReLU struct {
	mask []bool
}

func (r *ReLU) Forward(x *mat.Dense, _ *Pass) *mat.Dense {
	rows, cols := x.Dims()
	y := mat.NewDense(rows, cols, nil)
	r.mask = make([]bool, rows*cols)
	for i := 0; i < rows; i++ {
		in, out := x.RawRowView(i), y.RawRowView(i)
		for j, v := range in {
			if v > 0 {
				out[j] = v
				r.mask[i*cols+j] = true
			}
		}
	}
	return y
}

func (r *ReLU) Backward(dy *mat.Dense) *mat.Dense {
	rows, cols := dy.Dims()
	dx := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		in, out := dy.RawRowView(i), dx.RawRowView(i)
		for j, v := range in {
			if r.mask[i*cols+j] {
				out[j] = v
			}
		}
	}
	return dx
}

func (r *ReLU) Params() []*Param { return nil }

// Dropout zeroes inputs with probability P while training and rescales the
// survivors by 1/(1-P). It is the identity in evaluation.
type Dropout struct {
	P     float64
	scale []float64
}

func (d *Dropout) Forward(x *mat.Dense, p *Pass) *mat.Dense {
	if !p.Train || d.P <= 0 {
		d.scale = nil
		return x
	}
	rows, cols := x.Dims()
	y := mat.NewDense(rows, cols, nil)
	d.scale = make([]float64, rows*cols)
	keep := 1 / (1 - d.P)
	for i := 0; i < rows; i++ {
		in, out := x.RawRowView(i), y.RawRowView(i)
		for j, v := range in {
			if p.Rand.Float64() >= d.P {
				d.scale[i*cols+j] = keep
				out[j] = v * keep
			}
		}
	}
	return y
}

func (d *Dropout) Backward(dy *mat.Dense) *mat.Dense {
	if d.scale == nil {
		return dy
	}
	rows, cols := dy.Dims()
	dx := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		in, out := dy.RawRowView(i), dx.RawRowView(i)
		for j, v := range in {
			out[j] = v * d.scale[i*cols+j]
		}
	}
	return dx
}

func (d *Dropout) Params() []*Param { return nil }
