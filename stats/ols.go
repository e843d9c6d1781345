// Package stats provides the regression and time series diagnostics
// behind the forecasting pipeline.
//
// The package implements:
//
//   - OLS: ordinary least squares with full inference (standard errors,
//     t statistics, p-values, R², F statistic, information criteria) and
//     a text summary
//   - TrendTest: linear time trend estimation with significance testing
//   - ADFTest, KPSSTest, PhillipsPerronTest: unit-root and stationarity
//     tests used to choose differencing orders
//   - ACF, PACF, YuleWalker, LjungBox: autocorrelation diagnostics and
//     autoregression warm starts
//
// Example usage:
//
//	ols := stats.NewOLS()
//	if err := ols.Fit(X, y); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(ols.Summary())
//
// All estimators validate their inputs and return typed errors from the
// pkg/errors package.
package stats

import (
	"fmt"
	"math"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/ezoic/tsgo/core/model"
	"github.com/ezoic/tsgo/core/parallel"
	tsgoErrors "github.com/ezoic/tsgo/pkg/errors"
	"github.com/ezoic/tsgo/pkg/log"
)

// OLS is an ordinary least squares regression with inference.
//
// Fit estimates y = Xβ + ε by solving the normal equations, always
// including an intercept as the first coefficient. Beyond the point
// estimates it computes the standard errors, t statistics and two-sided
// p-values of each coefficient, the fit statistics R², adjusted R² and
// F, and the Gaussian log-likelihood with AIC/BIC.
type OLS struct {
	State *model.StateManager // State manager (composition instead of embedding)

	// Populated by Fit. Coef[0] is the intercept.
	Coef    []float64
	StdErr  []float64
	TValues []float64
	PValues []float64

	// Names labels coefficient rows in Summary. Set before Fit to
	// override the default const, x1, x2, … labels.
	Names []string

	NObs        int
	DFModel     int
	DFResid     int
	RSquared    float64
	AdjRSquared float64
	FStat       float64
	FPValue     float64
	LogLik      float64
	AIC         float64
	BIC         float64
	Sigma2      float64

	resid  []float64
	fitted []float64

	logger log.Logger
}

// NewOLS creates a new untrained least squares regression.
//
// Returns:
//   - *OLS: A new untrained regression; call Fit before reading results
//
// Example:
//
//	ols := stats.NewOLS()
//	err := ols.Fit(X, y)
func NewOLS() *OLS {
	o := &OLS{
		State: model.NewStateManager(),
	}

	o.logger = log.GetLoggerWithName("stats").With(
		log.ModelNameKey, "OLS",
		log.ComponentKey, "stats",
	)

	return o
}

// Fit estimates the regression of y on X.
//
// An intercept column is prepended internally, so X carries only the
// substantive regressors. The normal equations (X^T X)β = X^T y are
// solved directly; the inverse of X^T X also supplies the coefficient
// covariance for the standard errors.
//
// Parameters:
//   - X: Regressor matrix of shape (n_samples, n_features), without intercept
//   - y: Response values, length n_samples
//
// Returns:
//   - error: nil if estimation succeeds, otherwise an error describing the failure
//
// Errors:
//   - ErrEmptyData: if X or y are empty
//   - DimensionError: if X and y disagree on the number of samples
//   - ErrSingularMatrix: if X^T X cannot be inverted
//   - ValueError: if the data contains NaN, or there are no residual
//     degrees of freedom
//
// Example:
//
//	X := mat.NewDense(100, 2, nil)
//	y := make([]float64, 100)
//	err := ols.Fit(X, y)
//	if err != nil {
//	    log.Fatal(err)
//	}
func (o *OLS) Fit(X mat.Matrix, y []float64) (err error) {
	defer tsgoErrors.Recover(&err, "OLS.Fit")

	startTime := time.Now()
	r, c := X.Dims()

	if o.logger != nil {
		o.logger.Info("Estimation started",
			log.OperationKey, log.OperationFit,
			log.PhaseKey, log.PhaseTraining,
			log.SamplesKey, r,
			log.FeaturesKey, c,
		)
	}

	if r == 0 || c == 0 {
		return tsgoErrors.NewModelError("OLS.Fit", "empty data", tsgoErrors.ErrEmptyData)
	}
	if len(y) != r {
		return tsgoErrors.NewDimensionError("OLS.Fit", r, len(y), 0)
	}

	k := c + 1 // intercept plus regressors
	if r <= k {
		return tsgoErrors.NewValueError("OLS.Fit", fmt.Sprintf("need more than %d observations for %d coefficients", k, k))
	}

	for i := 0; i < r; i++ {
		if math.IsNaN(y[i]) {
			return tsgoErrors.NewValueError("OLS.Fit", fmt.Sprintf("NaN in y at row %d", i))
		}
		for j := 0; j < c; j++ {
			if math.IsNaN(X.At(i, j)) {
				return tsgoErrors.NewValueError("OLS.Fit", fmt.Sprintf("NaN in X at row %d", i))
			}
		}
	}

	// Design matrix [1, X]
	design := mat.NewDense(r, k, nil)
	const parallelThreshold = 1000
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			design.Set(i, 0, 1.0)
			for j := 0; j < c; j++ {
				design.Set(i, j+1, X.At(i, j))
			}
		}
	})

	// Normal equations: (X^T X)^(-1) X^T y
	var XT mat.Dense
	XT.CloneFrom(design.T())

	var XTX mat.Dense
	XTX.Mul(&XT, design)

	var XTXInv mat.Dense
	if err := XTXInv.Inverse(&XTX); err != nil {
		return tsgoErrors.NewModelError("OLS.Fit", "singular matrix", tsgoErrors.ErrSingularMatrix)
	}

	yVec := mat.NewVecDense(r, append([]float64{}, y...))

	var XTy mat.VecDense
	XTy.MulVec(&XT, yVec)

	beta := mat.NewVecDense(k, nil)
	beta.MulVec(&XTXInv, &XTy)

	o.Coef = make([]float64, k)
	for i := 0; i < k; i++ {
		o.Coef[i] = beta.AtVec(i)
	}

	// Residuals and fit statistics
	o.fitted = make([]float64, r)
	o.resid = make([]float64, r)
	var yMean float64
	for i := 0; i < r; i++ {
		yMean += y[i]
	}
	yMean /= float64(r)

	var rss, tss float64
	for i := 0; i < r; i++ {
		pred := o.Coef[0]
		for j := 0; j < c; j++ {
			pred += o.Coef[j+1] * design.At(i, j+1)
		}
		o.fitted[i] = pred
		o.resid[i] = y[i] - pred
		rss += o.resid[i] * o.resid[i]
		tss += (y[i] - yMean) * (y[i] - yMean)
	}

	o.NObs = r
	o.DFModel = k - 1
	o.DFResid = r - k
	o.Sigma2 = rss / float64(o.DFResid)

	o.StdErr = make([]float64, k)
	o.TValues = make([]float64, k)
	o.PValues = make([]float64, k)
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(o.DFResid)}
	for i := 0; i < k; i++ {
		o.StdErr[i] = math.Sqrt(o.Sigma2 * XTXInv.At(i, i))
		if o.StdErr[i] > 0 {
			o.TValues[i] = o.Coef[i] / o.StdErr[i]
			o.PValues[i] = 2 * tDist.Survival(math.Abs(o.TValues[i]))
		} else {
			o.TValues[i] = math.NaN()
			o.PValues[i] = math.NaN()
		}
	}

	if tss > 0 {
		o.RSquared = 1 - rss/tss
		o.AdjRSquared = 1 - (1-o.RSquared)*float64(r-1)/float64(o.DFResid)
	} else {
		o.RSquared = math.NaN()
		o.AdjRSquared = math.NaN()
	}

	if o.DFModel > 0 && tss > 0 && o.RSquared < 1 {
		o.FStat = (o.RSquared / float64(o.DFModel)) / ((1 - o.RSquared) / float64(o.DFResid))
		fDist := distuv.F{D1: float64(o.DFModel), D2: float64(o.DFResid)}
		o.FPValue = fDist.Survival(o.FStat)
	} else {
		o.FStat = math.NaN()
		o.FPValue = math.NaN()
	}

	// Gaussian log-likelihood at the MLE variance RSS/n
	o.LogLik = -0.5 * float64(r) * (math.Log(2*math.Pi) + math.Log(rss/float64(r)) + 1)
	o.AIC = -2*o.LogLik + 2*float64(k)
	o.BIC = -2*o.LogLik + float64(k)*math.Log(float64(r))

	if len(o.Names) != k {
		o.Names = make([]string, k)
		o.Names[0] = "const"
		for i := 1; i < k; i++ {
			o.Names[i] = fmt.Sprintf("x%d", i)
		}
	}

	o.State.SetFitted()
	o.State.SetDimensions(c, r)

	duration := time.Since(startTime)
	if o.logger != nil {
		o.logger.Info("Estimation completed",
			log.OperationKey, log.OperationFit,
			log.PhaseKey, log.PhaseTraining,
			log.DurationMsKey, duration.Milliseconds(),
			log.SamplesKey, r,
			log.FeaturesKey, c,
		)
	}

	return nil
}

// Resid returns a copy of the residuals y − Xβ.
func (o *OLS) Resid() ([]float64, error) {
	if !o.State.IsFitted() {
		return nil, tsgoErrors.NewNotFittedError("OLS", "Resid")
	}
	return append([]float64{}, o.resid...), nil
}

// FittedValues returns a copy of the in-sample predictions Xβ.
func (o *OLS) FittedValues() ([]float64, error) {
	if !o.State.IsFitted() {
		return nil, tsgoErrors.NewNotFittedError("OLS", "FittedValues")
	}
	return append([]float64{}, o.fitted...), nil
}

// Summary renders the regression results as a text block.
//
// The layout follows the customary least squares report: a header with
// the fit statistics, then one row per coefficient with its estimate,
// standard error, t statistic and p-value.
func (o *OLS) Summary() (string, error) {
	if !o.State.IsFitted() {
		return "", tsgoErrors.NewNotFittedError("OLS", "Summary")
	}

	var b strings.Builder
	rule := strings.Repeat("=", 70)
	thin := strings.Repeat("-", 70)

	fmt.Fprintf(&b, "%s\n", center("OLS Regression Results", 70))
	fmt.Fprintf(&b, "%s\n", rule)
	fmt.Fprintf(&b, "No. Observations: %10d    R-squared:       %12.4f\n", o.NObs, o.RSquared)
	fmt.Fprintf(&b, "Df Residuals:     %10d    Adj. R-squared:  %12.4f\n", o.DFResid, o.AdjRSquared)
	fmt.Fprintf(&b, "Df Model:         %10d    F-statistic:     %12.4f\n", o.DFModel, o.FStat)
	fmt.Fprintf(&b, "Log-Likelihood:   %10.2f    Prob (F-stat):   %12.4g\n", o.LogLik, o.FPValue)
	fmt.Fprintf(&b, "AIC:              %10.2f    BIC:             %12.2f\n", o.AIC, o.BIC)
	fmt.Fprintf(&b, "%s\n", rule)
	fmt.Fprintf(&b, "%-12s %12s %10s %10s %10s\n", "", "coef", "std err", "t", "P>|t|")
	fmt.Fprintf(&b, "%s\n", thin)
	for i, name := range o.Names {
		fmt.Fprintf(&b, "%-12s %12.4f %10.3f %10.3f %10.3f\n",
			name, o.Coef[i], o.StdErr[i], o.TValues[i], o.PValues[i])
	}
	fmt.Fprintf(&b, "%s\n", rule)

	return b.String(), nil
}

func center(s string, width int) string {
	if len(s) >= width {
		return s
	}
	pad := (width - len(s)) / 2
	return strings.Repeat(" ", pad) + s
}
