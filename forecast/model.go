// Package forecast implements ARIMA estimation for univariate series
// with optional exogenous regressors, together with an automated order
// search in the style of auto-ARIMA tools.
//
// Model fits ARIMA(p,d,q) by conditional sum of squares and supports
// extending a fitted model with new observations without re-estimating
// coefficients, which keeps previously produced residuals intact. That
// extension path is what one-step-ahead benchmark evaluation builds on.
package forecast

import (
	"fmt"
	"math"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/tsgo/core/model"
	tsgoErrors "github.com/ezoic/tsgo/pkg/errors"
	"github.com/ezoic/tsgo/pkg/log"
	"github.com/ezoic/tsgo/stats"
)

const (
	// TrendConstant fits an intercept.
	TrendConstant = "c"
	// TrendNone fits no intercept.
	TrendNone = "n"
)

// Coefficients is a snapshot of estimated parameters.
type Coefficients struct {
	Intercept float64
	AR        []float64
	MA        []float64
	Exog      []float64
}

// Model is an ARIMA(p,d,q) estimator with optional exogenous
// regressors.
//
// The zero value is not usable; construct with NewModel. A Model moves
// from unfitted to fitted through Fit and stays fitted afterwards;
// Update extends the training history in place.
type Model struct {
	// State manages the fitted/unfitted lifecycle.
	State *model.StateManager

	order   Order
	trend   string
	maxIter int

	pr    params
	nExog int

	y    []float64
	exog *mat.Dense

	// resid lives on the differenced scale, zeros before the
	// conditioning point.
	resid []float64

	sigma2 float64
	logLik float64
	aic    float64
	aicc   float64
	bic    float64

	logger log.Logger
}

// ModelOption configures a Model at construction.
type ModelOption func(*Model)

// WithTrend selects TrendConstant or TrendNone. Fit validates the
// value.
func WithTrend(trend string) ModelOption {
	return func(m *Model) { m.trend = trend }
}

// WithMaxIter caps the optimizer iterations during Fit. Zero means the
// optimizer's own stopping rules apply.
func WithMaxIter(n int) ModelOption {
	return func(m *Model) { m.maxIter = n }
}

// NewModel creates an unfitted ARIMA model for the given order.
//
// Example:
//
//	m := forecast.NewModel(forecast.Order{P: 1, D: 0, Q: 1})
//	if err := m.Fit(series, nil); err != nil {
//		return err
//	}
//	resid, _ := m.Resid()
func NewModel(order Order, opts ...ModelOption) *Model {
	m := &Model{
		State: model.NewStateManager(),
		order: order,
		trend: TrendConstant,
		logger: log.GetLoggerWithName("forecast").With(
			log.ModelNameKey, "ARIMA",
			log.ComponentKey, "forecast",
		),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Order returns the model's (p,d,q) order.
func (m *Model) Order() Order { return m.order }

// Fit estimates the model on y, with exog as optional regressors (one
// row per observation). Both are copied.
//
// Estimation differences y and exog d times, seeds the optimizer from
// least squares and Yule-Walker, and minimizes the conditional sum of
// squares. Orders with p+q = 0 are closed-form.
//
// Errors:
//   - ErrEmptyData: y is empty
//   - ValueError: NaN input, zero-variance series with p+q > 0, or an
//     invalid trend
//   - DimensionError: exog row count does not match len(y)
//   - ErrInsufficientData: series shorter than the order requires
func (m *Model) Fit(y []float64, exog *mat.Dense) (err error) {
	defer tsgoErrors.Recover(&err, "Model.Fit")

	if err := m.order.Validate(); err != nil {
		return err
	}
	if m.trend != TrendConstant && m.trend != TrendNone {
		return tsgoErrors.NewValueError("Model.Fit", fmt.Sprintf("trend must be %q or %q, got %q", TrendConstant, TrendNone, m.trend))
	}
	if len(y) == 0 {
		return tsgoErrors.NewModelError("Model.Fit", "empty series", tsgoErrors.ErrEmptyData)
	}
	if err := validateSeries("Model.Fit", y, exog); err != nil {
		return err
	}

	p, d, q := m.order.P, m.order.D, m.order.Q
	var k int
	if exog != nil {
		_, k = exog.Dims()
	}

	if len(y) <= d {
		return tsgoErrors.NewModelError("Model.Fit",
			fmt.Sprintf("need more than %d observations to difference %d times", d, d),
			tsgoErrors.ErrInsufficientData)
	}
	w := difference(y, d)
	Z := differenceMatrix(exog, d)

	trendC := m.trend == TrendConstant
	nPar := nParams(trendC, k, p, q)
	minObs := p
	if q > p {
		minObs = q
	}
	minObs += nPar + 1
	if len(w) <= minObs {
		return tsgoErrors.NewModelError("Model.Fit",
			fmt.Sprintf("%s needs more than %d observations after differencing, got %d", m.order, minObs, len(w)),
			tsgoErrors.ErrInsufficientData)
	}
	if p+q > 0 && !hasVariance(w) {
		return tsgoErrors.NewValueError("Model.Fit", "series has zero variance, cannot estimate ARMA terms")
	}

	start := time.Now()
	m.logger.Debug("fit started",
		log.OperationKey, log.OperationFit,
		log.OrderKey, m.order.String(),
		log.SamplesKey, len(y),
		log.FeaturesKey, k,
	)

	pr, resid, sse := estimateCSS(w, Z, trendC, p, q, m.maxIter, nil, m.logger)
	m.sigma2, m.logLik, m.aic, m.aicc, m.bic = informationCriteria(sse, len(w)-p, nPar)

	m.pr = pr
	m.nExog = k
	m.y = append([]float64(nil), y...)
	m.exog = nil
	if exog != nil {
		m.exog = mat.DenseCopyOf(exog)
	}
	m.resid = resid
	m.State.SetFitted()
	m.State.SetDimensions(k, len(y))

	m.logger.Debug("fit completed",
		log.OperationKey, log.OperationFit,
		log.OrderKey, m.order.String(),
		log.ScoreKey, m.aic,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// Update appends observations to the training history.
//
// With maxIter == 0 the coefficients stay frozen and only the residual
// recursion is recomputed over the extended history, so the residual
// sequence keeps its existing prefix and grows by exactly len(y).
// With maxIter > 0 the model re-estimates from the current
// coefficients, capped at that many optimizer iterations.
//
// Errors:
//   - ErrNotFitted: Fit has not succeeded yet
//   - ValueError: NaN input, or exog presence does not match the fit
//   - DimensionError: exog shape mismatch
func (m *Model) Update(y []float64, exog *mat.Dense, maxIter int) (err error) {
	defer tsgoErrors.Recover(&err, "Model.Update")

	if !m.State.IsFitted() {
		return tsgoErrors.NewNotFittedError("ARIMA", "Update")
	}
	if m.nExog == 0 && exog != nil {
		return tsgoErrors.NewValueError("Model.Update", "model was fitted without exogenous regressors")
	}
	if m.nExog > 0 && len(y) > 0 {
		if exog == nil {
			return tsgoErrors.NewValueError("Model.Update", "model was fitted with exogenous regressors, exog is required")
		}
		if _, c := exog.Dims(); c != m.nExog {
			return tsgoErrors.NewDimensionError("Model.Update", m.nExog, c, 1)
		}
	}
	if err := validateSeries("Model.Update", y, exog); err != nil {
		return err
	}

	m.y = append(m.y, y...)
	if exog != nil && len(y) > 0 {
		oldR, c := m.exog.Dims()
		newR, _ := exog.Dims()
		combined := mat.NewDense(oldR+newR, c, nil)
		combined.Slice(0, oldR, 0, c).(*mat.Dense).Copy(m.exog)
		combined.Slice(oldR, oldR+newR, 0, c).(*mat.Dense).Copy(exog)
		m.exog = combined
	}

	p, d, q := m.order.P, m.order.D, m.order.Q
	trendC := m.trend == TrendConstant
	w := difference(m.y, d)
	Z := differenceMatrix(m.exog, d)

	if maxIter == 0 {
		resid, sse := cssResiduals(w, Z, m.pr)
		m.resid = resid
		m.sigma2, m.logLik, m.aic, m.aicc, m.bic = informationCriteria(sse, len(w)-p, nParams(trendC, m.nExog, p, q))
	} else {
		start := m.pr
		pr, resid, sse := estimateCSS(w, Z, trendC, p, q, maxIter, &start, m.logger)
		m.pr = pr
		m.resid = resid
		m.sigma2, m.logLik, m.aic, m.aicc, m.bic = informationCriteria(sse, len(w)-p, nParams(trendC, m.nExog, p, q))
	}
	m.State.SetDimensions(m.nExog, len(m.y))

	m.logger.Debug("history extended",
		log.OperationKey, log.OperationUpdate,
		log.SamplesKey, len(m.y),
		"appended", len(y),
	)
	return nil
}

// Predict returns steps out-of-sample point forecasts on the original
// scale. Models fitted with exogenous regressors need exogFuture with
// one row per step.
func (m *Model) Predict(steps int, exogFuture *mat.Dense) ([]float64, error) {
	if !m.State.IsFitted() {
		return nil, tsgoErrors.NewNotFittedError("ARIMA", "Predict")
	}
	if steps < 1 {
		return nil, tsgoErrors.NewValueError("Model.Predict", fmt.Sprintf("steps must be positive, got %d", steps))
	}
	if m.nExog == 0 && exogFuture != nil {
		return nil, tsgoErrors.NewValueError("Model.Predict", "model was fitted without exogenous regressors")
	}
	if m.nExog > 0 {
		if exogFuture == nil {
			return nil, tsgoErrors.NewValueError("Model.Predict", "model was fitted with exogenous regressors, exogFuture is required")
		}
		r, c := exogFuture.Dims()
		if r != steps {
			return nil, tsgoErrors.NewDimensionError("Model.Predict", steps, r, 0)
		}
		if c != m.nExog {
			return nil, tsgoErrors.NewDimensionError("Model.Predict", m.nExog, c, 1)
		}
	}

	d := m.order.D
	w := difference(m.y, d)
	Z := differenceMatrix(m.exog, d)

	// Difference the future regressors jointly with the history so the
	// first future row sees the last observed one.
	var Zf *mat.Dense
	if m.nExog > 0 {
		histR, c := m.exog.Dims()
		futR, _ := exogFuture.Dims()
		all := mat.NewDense(histR+futR, c, nil)
		all.Slice(0, histR, 0, c).(*mat.Dense).Copy(m.exog)
		all.Slice(histR, histR+futR, 0, c).(*mat.Dense).Copy(exogFuture)
		allDiff := differenceMatrix(all, d)
		rAll, _ := allDiff.Dims()
		Zf = mat.DenseCopyOf(allDiff.Slice(rAll-steps, rAll, 0, c))
	}

	eta := regressionResiduals(w, Z, m.pr)
	nHist := len(eta)
	etaAll := append(eta, make([]float64, steps)...)
	wf := make([]float64, steps)
	for h := 0; h < steps; h++ {
		idx := nHist + h
		var v float64
		for i, f := range m.pr.phi {
			if j := idx - 1 - i; j >= 0 {
				v += f * etaAll[j]
			}
		}
		for jq, th := range m.pr.theta {
			if j := idx - 1 - jq; j >= 0 && j < len(m.resid) {
				v += th * m.resid[j]
			}
		}
		etaAll[idx] = v

		base := m.pr.c
		for mcol := 0; mcol < m.nExog; mcol++ {
			base += Zf.At(h, mcol) * m.pr.beta[mcol]
		}
		wf[h] = base + v
	}

	return integrateDifferences(m.y, wf, d), nil
}

// integrateDifferences maps forecasts on the d-times differenced scale
// back to the original scale using the history's closing values.
func integrateDifferences(history, wf []float64, d int) []float64 {
	out := append([]float64(nil), wf...)
	for level := d - 1; level >= 0; level-- {
		series := difference(history, level)
		prev := series[len(series)-1]
		for h := range out {
			prev += out[h]
			out[h] = prev
		}
	}
	return out
}

// Resid returns a copy of the residual sequence on the differenced
// scale. The first p entries are zero, before the conditioning point.
func (m *Model) Resid() ([]float64, error) {
	if !m.State.IsFitted() {
		return nil, tsgoErrors.NewNotFittedError("ARIMA", "Resid")
	}
	return append([]float64(nil), m.resid...), nil
}

// Fitted returns one-step-ahead fitted values on the original scale.
// Entries before the model's conditioning point echo the observations.
func (m *Model) Fitted() ([]float64, error) {
	if !m.State.IsFitted() {
		return nil, tsgoErrors.NewNotFittedError("ARIMA", "Fitted")
	}
	fitted := make([]float64, len(m.y))
	d := m.order.D
	for i := range fitted {
		fitted[i] = m.y[i]
		if i >= d {
			fitted[i] -= m.resid[i-d]
		}
	}
	return fitted, nil
}

// Coefficients returns a copy of the estimated parameters.
func (m *Model) Coefficients() (Coefficients, error) {
	if !m.State.IsFitted() {
		return Coefficients{}, tsgoErrors.NewNotFittedError("ARIMA", "Coefficients")
	}
	return Coefficients{
		Intercept: m.pr.c,
		AR:        append([]float64(nil), m.pr.phi...),
		MA:        append([]float64(nil), m.pr.theta...),
		Exog:      append([]float64(nil), m.pr.beta...),
	}, nil
}

// NObs returns the number of observations in the training history.
func (m *Model) NObs() int { return len(m.y) }

// Sigma2 returns the residual variance estimate, NaN before Fit.
func (m *Model) Sigma2() float64 {
	if !m.State.IsFitted() {
		return math.NaN()
	}
	return m.sigma2
}

// LogLik returns the Gaussian log-likelihood, NaN before Fit.
func (m *Model) LogLik() float64 {
	if !m.State.IsFitted() {
		return math.NaN()
	}
	return m.logLik
}

// AIC returns the Akaike information criterion, NaN before Fit.
func (m *Model) AIC() float64 {
	if !m.State.IsFitted() {
		return math.NaN()
	}
	return m.aic
}

// AICc returns the corrected AIC, NaN before Fit.
func (m *Model) AICc() float64 {
	if !m.State.IsFitted() {
		return math.NaN()
	}
	return m.aicc
}

// BIC returns the Bayesian information criterion, NaN before Fit.
func (m *Model) BIC() float64 {
	if !m.State.IsFitted() {
		return math.NaN()
	}
	return m.bic
}

// Summary renders a fit report with the coefficient table and a
// Ljung-Box check on the residuals.
func (m *Model) Summary() (string, error) {
	if !m.State.IsFitted() {
		return "", tsgoErrors.NewNotFittedError("ARIMA", "Summary")
	}

	var b strings.Builder
	line := strings.Repeat("=", 70)
	thin := strings.Repeat("-", 70)

	b.WriteString(center(m.order.String()+" Results", 70) + "\n")
	b.WriteString(line + "\n")
	fmt.Fprintf(&b, "%-22s %12d    %-18s %12.3f\n", "No. Observations:", len(m.y), "Log Likelihood:", m.logLik)
	fmt.Fprintf(&b, "%-22s %12.4f    %-18s %12.3f\n", "Sigma2:", m.sigma2, "AIC:", m.aic)
	fmt.Fprintf(&b, "%-22s %12.3f    %-18s %12.3f\n", "AICc:", m.aicc, "BIC:", m.bic)
	b.WriteString(thin + "\n")
	fmt.Fprintf(&b, "%-12s %12s\n", "", "coef")
	if m.trend == TrendConstant {
		fmt.Fprintf(&b, "%-12s %12.4f\n", "const", m.pr.c)
	}
	for i, v := range m.pr.beta {
		fmt.Fprintf(&b, "%-12s %12.4f\n", fmt.Sprintf("x%d", i+1), v)
	}
	for i, v := range m.pr.phi {
		fmt.Fprintf(&b, "%-12s %12.4f\n", fmt.Sprintf("ar.L%d", i+1), v)
	}
	for i, v := range m.pr.theta {
		fmt.Fprintf(&b, "%-12s %12.4f\n", fmt.Sprintf("ma.L%d", i+1), v)
	}
	b.WriteString(thin + "\n")

	cond := m.resid[m.order.P:]
	lag := 10
	if lag > len(cond)-1 {
		lag = len(cond) - 1
	}
	if lag >= 1 {
		if lb, err := stats.LjungBox(cond, lag, m.order.P+m.order.Q); err == nil {
			fmt.Fprintf(&b, "Ljung-Box (lag %d): %.3f   p=%.3f\n", lag, lb.Statistic, lb.PValue)
		}
	}
	b.WriteString(line + "\n")
	return b.String(), nil
}

func center(s string, width int) string {
	if len(s) >= width {
		return s
	}
	pad := (width - len(s)) / 2
	return strings.Repeat(" ", pad) + s
}

// validateSeries rejects NaN values and exog shape mismatches.
func validateSeries(op string, y []float64, exog *mat.Dense) error {
	for i, v := range y {
		if math.IsNaN(v) {
			return tsgoErrors.NewValueError(op, fmt.Sprintf("series contains NaN at index %d", i))
		}
	}
	if exog != nil {
		r, c := exog.Dims()
		if r != len(y) {
			return tsgoErrors.NewDimensionError(op, len(y), r, 0)
		}
		if c == 0 {
			return tsgoErrors.NewValueError(op, "exog has no columns")
		}
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				if math.IsNaN(exog.At(i, j)) {
					return tsgoErrors.NewValueError(op, fmt.Sprintf("exog contains NaN at row %d, column %d", i, j))
				}
			}
		}
	}
	return nil
}

func hasVariance(w []float64) bool {
	for _, v := range w[1:] {
		if v != w[0] {
			return true
		}
	}
	return false
}
