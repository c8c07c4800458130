package nn

import "gonum.org/v1/gonum/mat"

// MSE returns the mean squared error over every cell and its gradient.
func MSE(pred, target mat.Matrix) (float64, *mat.Dense) {
	r, c := pred.Dims()
	grad := mat.NewDense(r, c, nil)
	n := float64(r * c)
	if n == 0 {
		return 0, grad
	}
	sum := 0.0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			d := pred.At(i, j) - target.At(i, j)
			sum += d * d
			grad.Set(i, j, 2*d/n)
		}
	}
	return sum / n, grad
}
