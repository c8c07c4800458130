package spillover

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// FEVD is an orthogonalised forecast error variance decomposition.
// Decomp[target][step][source] is the share of target's step-ahead forecast error
// variance explained by source shocks; each [target][step] row sums to one.
type FEVD struct {
	Steps  int
	Decomp [][][]float64
}

// FEVD decomposes the forecast error variance for steps 1..steps using the lower
// Cholesky factor of the residual covariance.
func (v *VAR) FEVD(steps int) (*FEVD, error) {
	if steps < 1 {
		return nil, fmt.Errorf("fevd: horizon must be positive, got %d", steps)
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(v.SigmaU); !ok || chol.Cond() > maxCondition {
		return nil, fmt.Errorf("fevd: residual covariance: %w", ErrSingularSystem)
	}
	var L mat.TriDense
	chol.LTo(&L)

	K := v.K
	cum := make([][]float64, K) // running sum of squared orthogonal responses
	for k := range cum {
		cum[k] = make([]float64, K)
	}
	decomp := make([][][]float64, K)
	for k := range decomp {
		decomp[k] = make([][]float64, steps)
	}

	var theta mat.Dense
	for s, phi := range v.MA(steps) {
		theta.Mul(phi, &L)
		for k := 0; k < K; k++ {
			total := 0.0
			for j := 0; j < K; j++ {
				x := theta.At(k, j)
				cum[k][j] += x * x
				total += cum[k][j]
			}
			row := make([]float64, K)
			if total > 0 {
				for j := 0; j < K; j++ {
					row[j] = cum[k][j] / total
				}
			}
			decomp[k][s] = row
		}
		theta.Reset()
	}
	return &FEVD{Steps: steps, Decomp: decomp}, nil
}
