package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	tsgoErrors "github.com/ezoic/tsgo/pkg/errors"
)

// ACF calculates the autocorrelation function for lags 0 through maxLag.
// acf[0] is always 1.
//
// Errors:
//   - ValueError: if maxLag is negative or not below the series length
//   - ErrSingularMatrix: if the series has zero variance
func ACF(series []float64, maxLag int) ([]float64, error) {
	n := len(series)
	if maxLag < 0 || maxLag >= n {
		return nil, tsgoErrors.NewValueError("ACF", fmt.Sprintf("maxLag %d out of range for %d observations", maxLag, n))
	}

	var mean float64
	for _, v := range series {
		mean += v
	}
	mean /= float64(n)

	var variance float64
	for _, v := range series {
		d := v - mean
		variance += d * d
	}
	if variance == 0 {
		return nil, tsgoErrors.NewModelError("ACF", "zero variance series", tsgoErrors.ErrSingularMatrix)
	}

	acf := make([]float64, maxLag+1)
	for k := 0; k <= maxLag; k++ {
		var sum float64
		for i := k; i < n; i++ {
			sum += (series[i] - mean) * (series[i-k] - mean)
		}
		acf[k] = sum / variance
	}
	return acf, nil
}

// PACF calculates the partial autocorrelation function for lags 0
// through maxLag with the Durbin-Levinson recursion. pacf[0] is 1.
func PACF(series []float64, maxLag int) ([]float64, error) {
	if maxLag < 1 {
		return nil, tsgoErrors.NewValueError("PACF", fmt.Sprintf("maxLag must be at least 1, got %d", maxLag))
	}
	acf, err := ACF(series, maxLag)
	if err != nil {
		return nil, err
	}

	pacf := make([]float64, maxLag+1)
	pacf[0] = 1
	phi, err := levinsonDurbin(acf, maxLag)
	if err != nil {
		return nil, err
	}
	for k := 1; k <= maxLag; k++ {
		pacf[k] = phi[k][k]
	}
	return pacf, nil
}

// YuleWalker estimates AR(p) coefficients by solving the Yule-Walker
// equations with the Durbin-Levinson recursion. The returned slice
// holds φ₁ … φₚ.
//
// Errors:
//   - ValueError: if p < 1 or the series is too short
//   - ErrSingularMatrix: if the series has zero variance or the
//     recursion degenerates
func YuleWalker(series []float64, p int) ([]float64, error) {
	if p < 1 {
		return nil, tsgoErrors.NewValueError("YuleWalker", fmt.Sprintf("order must be at least 1, got %d", p))
	}
	if len(series) <= p {
		return nil, tsgoErrors.NewValueError("YuleWalker", fmt.Sprintf("need more than %d observations for order %d", p, p))
	}

	acf, err := ACF(series, p)
	if err != nil {
		return nil, err
	}
	phi, err := levinsonDurbin(acf, p)
	if err != nil {
		return nil, err
	}
	return append([]float64{}, phi[p][1:p+1]...), nil
}

// levinsonDurbin runs the recursion on an autocorrelation sequence,
// returning phi[k][j] for every intermediate order k ≤ maxLag.
func levinsonDurbin(acf []float64, maxLag int) ([][]float64, error) {
	phi := make([][]float64, maxLag+1)
	for i := range phi {
		phi[i] = make([]float64, maxLag+1)
	}
	if maxLag == 0 {
		return phi, nil
	}

	phi[1][1] = acf[1]
	for k := 2; k <= maxLag; k++ {
		num := acf[k]
		den := 1.0
		for j := 1; j < k; j++ {
			num -= phi[k-1][j] * acf[k-j]
			den -= phi[k-1][j] * acf[j]
		}
		if den == 0 {
			return nil, tsgoErrors.NewModelError("YuleWalker", "degenerate autocorrelation sequence", tsgoErrors.ErrSingularMatrix)
		}
		phi[k][k] = num / den
		for j := 1; j < k; j++ {
			phi[k][j] = phi[k-1][j] - phi[k][k]*phi[k-1][k-j]
		}
	}
	return phi, nil
}

// LjungBoxResult reports the Ljung-Box autocorrelation test. The null
// hypothesis is no autocorrelation up to the tested lag.
type LjungBoxResult struct {
	Statistic float64
	PValue    float64
	Lags      int
	DOF       int
}

// LjungBox tests residuals for autocorrelation up to the given lag.
// fitdf is the number of parameters the residuals' model estimated
// (p + q for an ARMA fit); it reduces the χ² degrees of freedom.
//
// Errors:
//   - ValueError: if lags < 1 or the series is shorter than lags + 1
//   - ErrSingularMatrix: if the residuals have zero variance
func LjungBox(resid []float64, lags, fitdf int) (*LjungBoxResult, error) {
	n := len(resid)
	if lags < 1 {
		return nil, tsgoErrors.NewValueError("LjungBox", fmt.Sprintf("lags must be at least 1, got %d", lags))
	}
	if n <= lags {
		return nil, tsgoErrors.NewValueError("LjungBox", fmt.Sprintf("need more than %d observations, got %d", lags, n))
	}

	acf, err := ACF(resid, lags)
	if err != nil {
		return nil, err
	}

	var q float64
	for k := 1; k <= lags; k++ {
		q += (acf[k] * acf[k]) / float64(n-k)
	}
	q *= float64(n) * float64(n+2)

	dof := lags - fitdf
	if dof < 1 {
		dof = 1
	}

	chi2 := distuv.ChiSquared{K: float64(dof)}
	return &LjungBoxResult{
		Statistic: q,
		PValue:    chi2.Survival(q),
		Lags:      lags,
		DOF:       dof,
	}, nil
}
