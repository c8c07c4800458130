package features

import (
	"math"

	"SpillNet/internal/domain/models"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// adfSignificance is the p-value below which a series is reported stationary.
const adfSignificance = 0.05

// Describe computes mean, sample std, biased skewness, Pearson kurtosis, range and
// an augmented Dickey-Fuller test for x.
func Describe(x []float64) models.DescriptiveStats {
	out := models.DescriptiveStats{Count: len(x)}
	if len(x) == 0 {
		return out
	}
	out.Mean = stat.Mean(x, nil)
	out.Min = floats.Min(x)
	out.Max = floats.Max(x)
	if len(x) > 1 {
		out.Std = stat.StdDev(x, nil)
	}

	m2 := stat.Moment(2, x, nil)
	if m2 > 0 {
		out.Skewness = stat.Moment(3, x, nil) / math.Pow(m2, 1.5)
		out.Kurtosis = stat.Moment(4, x, nil) / (m2 * m2)
	}

	if res, ok := ADFTest(x); ok {
		out.ADFStatistic = res.Statistic
		out.ADFPValue = res.PValue
		out.ADFLags = res.Lags
		out.Stationary = res.PValue < adfSignificance
	}
	return out
}

// ADFResult is an augmented Dickey-Fuller test with constant.
type ADFResult struct {
	Statistic float64
	PValue    float64
	Lags      int
	Nobs      int
}

// ADFMaxLag is the Schwert upper bound ceil(12 * (n/100)^(1/4)), capped at
// n/2 - 2 so the constant-only regression keeps enough observations.
func ADFMaxLag(n int) int {
	maxlag := int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	return max(0, min(n/2-2, maxlag))
}

// ADFTest picks the lag order in [0, ADFMaxLag] with the lowest AIC, fitting
// every candidate on the sample of the largest lag, then re-estimates at that
// order on its full sample and attaches the MacKinnon approximate p-value.
func ADFTest(y []float64) (ADFResult, bool) {
	lag, ok := ADFAutoLag(y, ADFMaxLag(len(y)))
	if !ok {
		return ADFResult{}, false
	}
	tau, _, ok := ADF(y, lag)
	if !ok {
		return ADFResult{}, false
	}
	return ADFResult{Statistic: tau, PValue: MacKinnonP(tau), Lags: lag, Nobs: len(y) - 1 - lag}, true
}

// ADFAutoLag returns the lag in [0, maxlag] minimising the Gaussian AIC.
// Ties go to the shorter lag.
func ADFAutoLag(y []float64, maxlag int) (int, bool) {
	if maxlag < 0 {
		maxlag = 0
	}
	best, bestAIC := -1, math.Inf(1)
	for lag := 0; lag <= maxlag; lag++ {
		fit, ok := adfRegression(y, lag, maxlag)
		if !ok {
			continue
		}
		rows := float64(fit.rows)
		aic := rows*(math.Log(2*math.Pi)+math.Log(fit.ssr/rows)+1) + 2*float64(fit.cols)
		if aic < bestAIC {
			best, bestAIC = lag, aic
		}
	}
	return best, best >= 0
}

// ADF regresses dy_t on [1, y_{t-1}, dy_{t-1} .. dy_{t-lags}] and returns the t-ratio
// of the y_{t-1} coefficient. ok is false when the sample is too short or the
// regressors are collinear.
func ADF(y []float64, lags int) (tau float64, usedLags int, ok bool) {
	if lags < 0 {
		lags = 0
	}
	fit, ok := adfRegression(y, lags, lags)
	if !ok {
		return 0, 0, false
	}
	return fit.tau, lags, true
}

type adfFit struct {
	rows, cols int
	ssr        float64
	tau        float64
}

// adfRegression fits the ADF regression with lags lagged differences on the
// observations available after sample lags, so fits with different lags can
// share one sample.
func adfRegression(y []float64, lags, sample int) (adfFit, bool) {
	n := len(y)
	rows := n - 1 - sample
	cols := lags + 2
	if rows <= cols || sample < lags {
		return adfFit{}, false
	}

	dy := make([]float64, n-1)
	for i := 1; i < n; i++ {
		dy[i-1] = y[i] - y[i-1]
	}

	X := mat.NewDense(rows, cols, nil)
	Y := mat.NewVecDense(rows, nil)
	for r := 0; r < rows; r++ {
		t := r + sample // index into dy
		Y.SetVec(r, dy[t])
		X.Set(r, 0, 1)
		X.Set(r, 1, y[t])
		for k := 1; k <= lags; k++ {
			X.Set(r, 1+k, dy[t-k])
		}
	}

	var xtx mat.SymDense
	xtx.SymOuterK(1, X.T())
	var chol mat.Cholesky
	if !chol.Factorize(&xtx) {
		return adfFit{}, false
	}
	var xty mat.VecDense
	xty.MulVec(X.T(), Y)
	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &xty); err != nil {
		return adfFit{}, false
	}

	var fitted mat.VecDense
	fitted.MulVec(X, &beta)
	ssr := 0.0
	for r := 0; r < rows; r++ {
		e := Y.AtVec(r) - fitted.AtVec(r)
		ssr += e * e
	}
	if ssr <= 0 {
		return adfFit{}, false
	}
	sigma2 := ssr / float64(rows-cols)

	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return adfFit{}, false
	}
	se := math.Sqrt(sigma2 * inv.At(1, 1))
	if se == 0 || math.IsNaN(se) {
		return adfFit{}, false
	}
	return adfFit{rows: rows, cols: cols, ssr: ssr, tau: beta.AtVec(1) / se}, true
}

// MacKinnon (1994) response surface for the constant-only tau statistic with
// one series: polynomials in tau for the lower and upper regions.
var (
	mackinnonSmallP = []float64{2.1659, 1.4412, 3.8269e-02}
	mackinnonLargeP = []float64{1.7339, 9.3202e-01, -1.2745e-01, -1.0368e-02}
)

const (
	mackinnonTauMax  = 2.74
	mackinnonTauMin  = -18.83
	mackinnonTauStar = -1.61
)

// MacKinnonP is the approximate p-value of an ADF statistic from a regression
// with constant.
func MacKinnonP(tau float64) float64 {
	switch {
	case tau > mackinnonTauMax:
		return 1
	case tau < mackinnonTauMin:
		return 0
	}
	coef := mackinnonLargeP
	if tau <= mackinnonTauStar {
		coef = mackinnonSmallP
	}
	z, pow := 0.0, 1.0
	for _, c := range coef {
		z += c * pow
		pow *= tau
	}
	return distuv.UnitNormal.CDF(z)
}
