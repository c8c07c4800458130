package spillover

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrInsufficientObservations = errors.New("spillover: insufficient observations")
	ErrSingularSystem           = errors.New("spillover: singular VAR system")
	ErrMissingValues            = errors.New("spillover: missing or non-finite values")
	ErrSeriesMissing            = errors.New("spillover: series missing for label")
)

// maxCondition bounds the condition number accepted for Z'Z and Sigma_u.
const maxCondition = 1e13

// VAR is a reduced-form vector autoregression with intercept:
// y_t = c + A_1 y_{t-1} + ... + A_p y_{t-p} + u_t.
type VAR struct {
	K         int
	Lags      int
	NObs      int
	Intercept *mat.VecDense
	Coefs     []*mat.Dense
	SigmaU    *mat.SymDense
	Resid     *mat.Dense
}

// FitVAR estimates a VAR(lags) by equation-wise OLS on y (T x K, rows in time order).
func FitVAR(y mat.Matrix, lags int) (*VAR, error) {
	if lags < 1 {
		return nil, fmt.Errorf("fit var: lag order must be positive, got %d", lags)
	}
	T, K := y.Dims()
	if K == 0 {
		return nil, fmt.Errorf("fit var: %w: no series", ErrInsufficientObservations)
	}
	for t := 0; t < T; t++ {
		for k := 0; k < K; k++ {
			if v := y.At(t, k); math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("fit var: row %d col %d: %w", t, k, ErrMissingValues)
			}
		}
	}

	nobs := T - lags
	cols := 1 + K*lags
	if nobs <= cols {
		return nil, fmt.Errorf("fit var: %w: %d rows for %d regressors", ErrInsufficientObservations, nobs, cols)
	}

	Z := mat.NewDense(nobs, cols, nil)
	Y := mat.NewDense(nobs, K, nil)
	for r := 0; r < nobs; r++ {
		t := r + lags
		Z.Set(r, 0, 1)
		for i := 1; i <= lags; i++ {
			for k := 0; k < K; k++ {
				Z.Set(r, 1+(i-1)*K+k, y.At(t-i, k))
			}
		}
		for k := 0; k < K; k++ {
			Y.Set(r, k, y.At(t, k))
		}
	}

	var ztz mat.SymDense
	ztz.SymOuterK(1, Z.T())
	var chol mat.Cholesky
	if ok := chol.Factorize(&ztz); !ok || chol.Cond() > maxCondition {
		return nil, fmt.Errorf("fit var: regressor cross-product: %w", ErrSingularSystem)
	}

	var zty mat.Dense
	zty.Mul(Z.T(), Y)
	var B mat.Dense
	if err := chol.SolveTo(&B, &zty); err != nil {
		return nil, fmt.Errorf("fit var: solve: %w", ErrSingularSystem)
	}

	var fitted, resid mat.Dense
	fitted.Mul(Z, &B)
	resid.Sub(Y, &fitted)

	sigma := mat.NewSymDense(K, nil)
	sigma.SymOuterK(1/float64(nobs-cols), resid.T())

	v := &VAR{
		K:         K,
		Lags:      lags,
		NObs:      nobs,
		Intercept: mat.NewVecDense(K, nil),
		Coefs:     make([]*mat.Dense, lags),
		SigmaU:    sigma,
		Resid:     &resid,
	}
	for k := 0; k < K; k++ {
		v.Intercept.SetVec(k, B.At(0, k))
	}
	for i := 0; i < lags; i++ {
		A := mat.NewDense(K, K, nil)
		for eq := 0; eq < K; eq++ {
			for src := 0; src < K; src++ {
				A.Set(eq, src, B.At(1+i*K+src, eq))
			}
		}
		v.Coefs[i] = A
	}
	return v, nil
}

// MA returns the moving-average coefficients Phi_0 .. Phi_{steps-1} with Phi_0 = I.
func (v *VAR) MA(steps int) []*mat.Dense {
	phis := make([]*mat.Dense, steps)
	for s := 0; s < steps; s++ {
		phi := mat.NewDense(v.K, v.K, nil)
		if s == 0 {
			for k := 0; k < v.K; k++ {
				phi.Set(k, k, 1)
			}
			phis[s] = phi
			continue
		}
		var term mat.Dense
		for j := 1; j <= s && j <= v.Lags; j++ {
			term.Mul(phis[s-j], v.Coefs[j-1])
			phi.Add(phi, &term)
			term.Reset()
		}
		phis[s] = phi
	}
	return phis
}
