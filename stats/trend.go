package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	tsgoErrors "github.com/ezoic/tsgo/pkg/errors"
)

// TrendResult reports a linear time trend fitted to an equally spaced
// series. The result is informational; nothing downstream depends on it.
type TrendResult struct {
	Slope     float64 // temperature change per time step
	Intercept float64
	StdErr    float64 // standard error of the slope
	TValue    float64
	PValue    float64 // two-sided, slope = 0 null

	// Significant is true when the slope differs from zero at the 5%
	// level. PerDecade scales the slope to a per-decade change using
	// the configured steps per year.
	Significant bool
	PerDecade   float64

	// Model holds the underlying regression for the full summary.
	Model *OLS
}

// TrendTest regresses a series on time to estimate a linear trend.
//
// The series is assumed equally spaced; missing (NaN) entries are
// skipped but keep their original index as the time value, so gaps do
// not compress the time axis. The slope is tested against zero with a
// two-sided t test and scaled to a per-decade figure via stepsPerYear
// (365 for daily observations).
//
// Parameters:
//   - series: observations in time order, NaN for missing
//   - stepsPerYear: observations per year used for the PerDecade scaling
//
// Returns:
//   - *TrendResult: slope, inference and the underlying regression
//   - error: nil if successful, otherwise an error describing the failure
//
// Errors:
//   - ValueError: if stepsPerYear is not positive or fewer than three
//     non-missing observations remain
//
// Example:
//
//	res, err := stats.TrendTest(temps, 365)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if res.Significant {
//	    fmt.Printf("Per decade the temperature rises with %.2f degrees\n", res.PerDecade)
//	}
func TrendTest(series []float64, stepsPerYear float64) (*TrendResult, error) {
	if stepsPerYear <= 0 {
		return nil, tsgoErrors.NewValueError("TrendTest", fmt.Sprintf("stepsPerYear must be positive, got %v", stepsPerYear))
	}

	var (
		times  []float64
		values []float64
	)
	for i, v := range series {
		if math.IsNaN(v) {
			continue
		}
		times = append(times, float64(i))
		values = append(values, v)
	}
	if len(values) < 3 {
		return nil, tsgoErrors.NewValueError("TrendTest", fmt.Sprintf("need at least 3 observations, got %d", len(values)))
	}

	X := mat.NewDense(len(times), 1, times)

	ols := NewOLS()
	ols.Names = []string{"const", "trend"}
	if err := ols.Fit(X, values); err != nil {
		return nil, err
	}

	res := &TrendResult{
		Slope:       ols.Coef[1],
		Intercept:   ols.Coef[0],
		StdErr:      ols.StdErr[1],
		TValue:      ols.TValues[1],
		PValue:      ols.PValues[1],
		Significant: ols.PValues[1] < 0.05,
		PerDecade:   ols.Coef[1] * stepsPerYear * 10,
		Model:       ols,
	}
	return res, nil
}
