package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	tsgoErrors "github.com/ezoic/tsgo/pkg/errors"
)

// Unit-root and stationarity tests. ADF and Phillips-Perron test the
// null of a unit root (small p-value means stationary); KPSS tests the
// null of stationarity (small p-value means non-stationary).

const minTestObservations = 10

// ADFResult reports an Augmented Dickey-Fuller test.
type ADFResult struct {
	Statistic      float64
	PValue         float64
	Lags           int
	NObs           int
	CriticalValues map[string]float64
	Stationary     bool
}

// ADFTest performs the Augmented Dickey-Fuller unit-root test with a
// constant and no trend.
//
// The regression Δy_t = α + βy_{t−1} + Σγ_i Δy_{t−i} + ε is estimated
// and the t statistic of β is compared against the Dickey-Fuller
// distribution. maxLag ≤ 0 selects the customary ⌊(n−1)^(1/3)⌋ lags.
//
// Errors:
//   - ValueError: if fewer than 10 observations remain after lagging
//   - ErrSingularMatrix: if the test regression is degenerate (for
//     example on a constant series)
func ADFTest(series []float64, maxLag int) (*ADFResult, error) {
	n := len(series)
	if n < minTestObservations {
		return nil, tsgoErrors.NewValueError("ADFTest", fmt.Sprintf("need at least %d observations, got %d", minTestObservations, n))
	}

	if maxLag <= 0 {
		maxLag = int(math.Floor(math.Pow(float64(n-1), 1.0/3.0)))
	}
	if maxLag >= n-1 {
		maxLag = n - 2
	}

	diff := differences(series)

	nObs := n - maxLag - 1
	if nObs < minTestObservations {
		return nil, tsgoErrors.NewValueError("ADFTest", fmt.Sprintf("only %d usable observations after %d lags", nObs, maxLag))
	}

	// Columns: lagged level, then lagged differences
	y := make([]float64, nObs)
	X := mat.NewDense(nObs, 1+maxLag, nil)
	for i := 0; i < nObs; i++ {
		t := i + maxLag
		y[i] = diff[t]
		X.Set(i, 0, series[t])
		for j := 1; j <= maxLag; j++ {
			X.Set(i, j, diff[t-j])
		}
	}

	ols := NewOLS()
	if err := ols.Fit(X, y); err != nil {
		return nil, tsgoErrors.Wrap(err, "ADFTest regression")
	}

	tStat := ols.TValues[1] // lagged level coefficient
	pValue := mackinnonPValue(tStat)

	return &ADFResult{
		Statistic: tStat,
		PValue:    pValue,
		Lags:      maxLag,
		NObs:      nObs,
		CriticalValues: map[string]float64{
			"1%":  -3.43,
			"5%":  -2.86,
			"10%": -2.57,
		},
		Stationary: pValue < 0.05,
	}, nil
}

// KPSSResult reports a Kwiatkowski-Phillips-Schmidt-Shin test.
type KPSSResult struct {
	Statistic      float64
	PValue         float64
	Lags           int
	CriticalValues map[string]float64
	Stationary     bool
}

// KPSSTest performs the KPSS stationarity test.
//
// regression selects the null: "c" for level stationarity, "ct" for
// trend stationarity. nlags ≤ 0 selects ⌈12·(n/100)^0.25⌉. The
// long-run variance uses Bartlett weights.
//
// Errors:
//   - ValueError: if fewer than 10 observations, or regression is not
//     "c" or "ct"
func KPSSTest(series []float64, regression string, nlags int) (*KPSSResult, error) {
	n := len(series)
	if n < minTestObservations {
		return nil, tsgoErrors.NewValueError("KPSSTest", fmt.Sprintf("need at least %d observations, got %d", minTestObservations, n))
	}
	if regression != "c" && regression != "ct" {
		return nil, tsgoErrors.NewValueError("KPSSTest", "regression must be \"c\" or \"ct\", got "+regression)
	}

	if nlags <= 0 {
		nlags = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	}
	if nlags >= n {
		nlags = n - 1
	}

	residuals := make([]float64, n)
	if regression == "ct" {
		// Residuals of a linear trend fit
		var sumT, sumY, sumTY, sumT2 float64
		for i, v := range series {
			t := float64(i)
			sumT += t
			sumY += v
			sumTY += t * v
			sumT2 += t * t
		}
		nf := float64(n)
		b := (nf*sumTY - sumT*sumY) / (nf*sumT2 - sumT*sumT)
		a := (sumY - b*sumT) / nf
		for i, v := range series {
			residuals[i] = v - a - b*float64(i)
		}
	} else {
		var mean float64
		for _, v := range series {
			mean += v
		}
		mean /= float64(n)
		for i, v := range series {
			residuals[i] = v - mean
		}
	}

	cumSum := make([]float64, n)
	cumSum[0] = residuals[0]
	for i := 1; i < n; i++ {
		cumSum[i] = cumSum[i-1] + residuals[i]
	}

	s2 := longRunVariance(residuals, nlags)
	if s2 <= 0 {
		s2 = 1e-10
	}

	var etaSq float64
	for _, cs := range cumSum {
		etaSq += cs * cs
	}
	stat := etaSq / (float64(n) * float64(n) * s2)

	var critical map[string]float64
	if regression == "ct" {
		critical = map[string]float64{"10%": 0.119, "5%": 0.146, "2.5%": 0.176, "1%": 0.216}
	} else {
		critical = map[string]float64{"10%": 0.347, "5%": 0.463, "2.5%": 0.574, "1%": 0.739}
	}

	pValue := kpssPValue(stat, regression)

	return &KPSSResult{
		Statistic:      stat,
		PValue:         pValue,
		Lags:           nlags,
		CriticalValues: critical,
		Stationary:     pValue > 0.05,
	}, nil
}

// PhillipsPerronResult reports a Phillips-Perron test.
type PhillipsPerronResult struct {
	Statistic      float64
	PValue         float64
	Lags           int
	CriticalValues map[string]float64
	Stationary     bool
}

// PhillipsPerronTest performs the Phillips-Perron unit-root test with a
// constant and no trend. The serial-correlation correction uses a
// Bartlett-weighted long-run variance over nlags lags; nlags ≤ 0
// selects ⌊4·(n/100)^0.25⌋.
//
// Errors:
//   - ValueError: if fewer than 10 observations
//   - ErrSingularMatrix: if the test regression is degenerate
func PhillipsPerronTest(series []float64, nlags int) (*PhillipsPerronResult, error) {
	n := len(series)
	if n < minTestObservations {
		return nil, tsgoErrors.NewValueError("PhillipsPerronTest", fmt.Sprintf("need at least %d observations, got %d", minTestObservations, n))
	}

	if nlags <= 0 {
		nlags = int(math.Floor(4 * math.Pow(float64(n)/100, 0.25)))
	}

	diff := differences(series)
	nObs := n - 1

	X := mat.NewDense(nObs, 1, series[:nObs])

	ols := NewOLS()
	if err := ols.Fit(X, diff); err != nil {
		return nil, tsgoErrors.Wrap(err, "PhillipsPerronTest regression")
	}

	resid, _ := ols.Resid()

	var gamma0 float64
	for _, r := range resid {
		gamma0 += r * r
	}
	gamma0 /= float64(nObs)

	lambda2 := longRunVariance(resid, nlags)

	var xMean float64
	for i := 0; i < nObs; i++ {
		xMean += series[i]
	}
	xMean /= float64(nObs)
	var sumXDev2 float64
	for i := 0; i < nObs; i++ {
		d := series[i] - xMean
		sumXDev2 += d * d
	}

	tStat := ols.TValues[1]
	var correction float64
	if lambda2 > 0 && sumXDev2 > 0 {
		correction = (lambda2 - gamma0) * math.Sqrt(float64(nObs)) / (2 * math.Sqrt(lambda2) * math.Sqrt(sumXDev2))
	}

	var stat float64
	if lambda2 > 0 {
		stat = math.Sqrt(gamma0/lambda2)*tStat - correction
	} else {
		stat = tStat
	}

	pValue := mackinnonPValue(stat)

	return &PhillipsPerronResult{
		Statistic: stat,
		PValue:    pValue,
		Lags:      nlags,
		CriticalValues: map[string]float64{
			"1%":  -3.43,
			"5%":  -2.86,
			"10%": -2.57,
		},
		Stationary: pValue < 0.05,
	}, nil
}

func differences(series []float64) []float64 {
	d := make([]float64, len(series)-1)
	for i := range d {
		d[i] = series[i+1] - series[i]
	}
	return d
}

// longRunVariance is the Newey-West estimator with Bartlett weights.
func longRunVariance(resid []float64, nlags int) float64 {
	n := len(resid)
	var s2 float64
	for _, r := range resid {
		s2 += r * r
	}
	s2 /= float64(n)

	for l := 1; l <= nlags && l < n; l++ {
		var cov float64
		for i := l; i < n; i++ {
			cov += resid[i] * resid[i-l]
		}
		cov /= float64(n)
		weight := 1 - float64(l)/float64(nlags+1)
		s2 += 2 * weight * cov
	}
	return s2
}

// mackinnonPValue interpolates the Dickey-Fuller p-value for the
// constant-only regression from MacKinnon's tabulated quantiles.
func mackinnonPValue(stat float64) float64 {
	anchors := []struct {
		stat, p float64
	}{
		{-3.96, 0.001},
		{-3.43, 0.01},
		{-2.86, 0.05},
		{-2.57, 0.10},
		{-1.94, 0.25},
		{-1.62, 0.50},
		{-0.5, 0.75},
		{1.0, 0.99},
	}

	if stat <= anchors[0].stat {
		return anchors[0].p
	}
	for i := 1; i < len(anchors); i++ {
		if stat <= anchors[i].stat {
			lo, hi := anchors[i-1], anchors[i]
			frac := (stat - lo.stat) / (hi.stat - lo.stat)
			return lo.p + frac*(hi.p-lo.p)
		}
	}
	return 0.99
}

// kpssPValue interpolates over the tabulated KPSS critical values,
// clamped to [0.01, 0.10] outside the table.
func kpssPValue(stat float64, regression string) float64 {
	var anchors []struct {
		stat, p float64
	}
	if regression == "ct" {
		anchors = []struct{ stat, p float64 }{
			{0.119, 0.10},
			{0.146, 0.05},
			{0.176, 0.025},
			{0.216, 0.01},
		}
	} else {
		anchors = []struct{ stat, p float64 }{
			{0.347, 0.10},
			{0.463, 0.05},
			{0.574, 0.025},
			{0.739, 0.01},
		}
	}

	if stat <= anchors[0].stat {
		return anchors[0].p
	}
	for i := 1; i < len(anchors); i++ {
		if stat <= anchors[i].stat {
			lo, hi := anchors[i-1], anchors[i]
			frac := (stat - lo.stat) / (hi.stat - lo.stat)
			return lo.p + frac*(hi.p-lo.p)
		}
	}
	return anchors[len(anchors)-1].p
}
