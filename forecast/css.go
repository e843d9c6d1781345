package forecast

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"

	"github.com/ezoic/tsgo/pkg/log"
	"github.com/ezoic/tsgo/stats"
)

// Estimation uses the regression-with-ARMA-errors form. After d-fold
// differencing of both the series and the regressors,
//
//	w[t] = c + Z[t]·β + η[t]
//	η[t] = Σ φ_i·η[t−i] + Σ θ_j·e[t−j] + e[t]
//
// and the conditional sum of squares Σ e[t]² over t ≥ p is minimized.
// Residuals before the conditioning point count as zero.

const (
	coefBound   = 0.99
	coefPenalty = 1e6
)

// params is the unpacked parameter vector, ordered c, β, φ, θ.
type params struct {
	c     float64
	beta  []float64
	phi   []float64
	theta []float64
}

func nParams(trendC bool, k, p, q int) int {
	n := k + p + q
	if trendC {
		n++
	}
	return n
}

func packParams(pr params, trendC bool) []float64 {
	x := make([]float64, 0, nParams(trendC, len(pr.beta), len(pr.phi), len(pr.theta)))
	if trendC {
		x = append(x, pr.c)
	}
	x = append(x, pr.beta...)
	x = append(x, pr.phi...)
	x = append(x, pr.theta...)
	return x
}

func unpackParams(x []float64, trendC bool, k, p, q int) params {
	var pr params
	i := 0
	if trendC {
		pr.c = x[0]
		i = 1
	}
	pr.beta = append([]float64(nil), x[i:i+k]...)
	pr.phi = append([]float64(nil), x[i+k:i+k+p]...)
	pr.theta = append([]float64(nil), x[i+k+p:i+k+p+q]...)
	return pr
}

// difference applies d rounds of first differencing.
func difference(series []float64, d int) []float64 {
	out := append([]float64(nil), series...)
	for round := 0; round < d; round++ {
		next := make([]float64, len(out)-1)
		for i := range next {
			next[i] = out[i+1] - out[i]
		}
		out = next
	}
	return out
}

// differenceMatrix applies d rounds of first differencing to every
// column. A nil matrix stays nil.
func differenceMatrix(X *mat.Dense, d int) *mat.Dense {
	if X == nil {
		return nil
	}
	out := mat.DenseCopyOf(X)
	for round := 0; round < d; round++ {
		r, c := out.Dims()
		next := mat.NewDense(r-1, c, nil)
		for i := 0; i < r-1; i++ {
			for j := 0; j < c; j++ {
				next.Set(i, j, out.At(i+1, j)-out.At(i, j))
			}
		}
		out = next
	}
	return out
}

// regressionResiduals returns w − c − Z·β.
func regressionResiduals(w []float64, Z *mat.Dense, pr params) []float64 {
	eta := make([]float64, len(w))
	for t := range w {
		v := w[t] - pr.c
		if Z != nil {
			for m, b := range pr.beta {
				v -= Z.At(t, m) * b
			}
		}
		eta[t] = v
	}
	return eta
}

// cssResiduals runs the residual recursion. The returned slice has the
// length of w with zeros for t < p.
func cssResiduals(w []float64, Z *mat.Dense, pr params) ([]float64, float64) {
	n := len(w)
	p := len(pr.phi)
	eta := regressionResiduals(w, Z, pr)

	resid := make([]float64, n)
	var sse float64
	for t := p; t < n; t++ {
		e := eta[t]
		for i, f := range pr.phi {
			e -= f * eta[t-1-i]
		}
		for j, th := range pr.theta {
			if idx := t - 1 - j; idx >= 0 {
				e -= th * resid[idx]
			}
		}
		resid[t] = e
		sse += e * e
	}
	return resid, sse
}

// cssGradient fills grad with ∂SSE/∂x via the recursions
//
//	∂e[t]/∂c   = −1 + Σφ − Σ θ_j·∂e[t−j]/∂c
//	∂e[t]/∂β_m = −Z[t][m] + Σ φ_i·Z[t−i][m] − Σ θ_j·∂e[t−j]/∂β_m
//	∂e[t]/∂φ_i = −η[t−i] − Σ θ_j·∂e[t−j]/∂φ_i
//	∂e[t]/∂θ_j = −e[t−j] − Σ θ_l·∂e[t−l]/∂θ_j
func cssGradient(grad []float64, w []float64, Z *mat.Dense, pr params, trendC bool) {
	n := len(w)
	p := len(pr.phi)
	q := len(pr.theta)
	k := len(pr.beta)
	nPar := len(grad)

	eta := regressionResiduals(w, Z, pr)
	var sumPhi float64
	for _, f := range pr.phi {
		sumPhi += f
	}

	resid := make([]float64, n)
	var ring [][]float64
	if q > 0 {
		ring = make([][]float64, q)
		for j := range ring {
			ring[j] = make([]float64, nPar)
		}
	}
	for i := range grad {
		grad[i] = 0
	}
	g := make([]float64, nPar)

	base := 0
	if trendC {
		base = 1
	}
	for t := p; t < n; t++ {
		e := eta[t]
		for i, f := range pr.phi {
			e -= f * eta[t-1-i]
		}
		for j, th := range pr.theta {
			if idx := t - 1 - j; idx >= 0 {
				e -= th * resid[idx]
			}
		}
		resid[t] = e

		if trendC {
			g[0] = -1 + sumPhi
		}
		for m := 0; m < k; m++ {
			v := -Z.At(t, m)
			for i, f := range pr.phi {
				v += f * Z.At(t-1-i, m)
			}
			g[base+m] = v
		}
		for i := 0; i < p; i++ {
			g[base+k+i] = -eta[t-1-i]
		}
		for j := 0; j < q; j++ {
			v := 0.0
			if idx := t - 1 - j; idx >= 0 {
				v = -resid[idx]
			}
			g[base+k+p+j] = v
		}
		for j, th := range pr.theta {
			for idx := range g {
				g[idx] -= th * ring[j][idx]
			}
		}

		for idx := range g {
			grad[idx] += 2 * e * g[idx]
		}

		if q > 0 {
			last := ring[q-1]
			for j := q - 1; j > 0; j-- {
				ring[j] = ring[j-1]
			}
			ring[0] = last
			copy(ring[0], g)
		}
	}
}

// boundPenalty softly confines AR and MA coefficients to |coef| ≤ 0.99.
func boundPenalty(pr params) float64 {
	var pen float64
	for _, f := range pr.phi {
		if ex := math.Abs(f) - coefBound; ex > 0 {
			pen += coefPenalty * ex * ex
		}
	}
	for _, th := range pr.theta {
		if ex := math.Abs(th) - coefBound; ex > 0 {
			pen += coefPenalty * ex * ex
		}
	}
	return pen
}

func addBoundPenaltyGrad(grad []float64, pr params, trendC bool) {
	base := len(pr.beta)
	if trendC {
		base++
	}
	for i, f := range pr.phi {
		if ex := math.Abs(f) - coefBound; ex > 0 {
			grad[base+i] += 2 * coefPenalty * ex * math.Copysign(1, f)
		}
	}
	base += len(pr.phi)
	for j, th := range pr.theta {
		if ex := math.Abs(th) - coefBound; ex > 0 {
			grad[base+j] += 2 * coefPenalty * ex * math.Copysign(1, th)
		}
	}
}

// warmStart seeds c and β by least squares, φ by Yule-Walker on the
// regression residuals and θ at zero.
func warmStart(w []float64, Z *mat.Dense, trendC bool, p, q int) params {
	var k int
	if Z != nil {
		_, k = Z.Dims()
	}
	pr := params{
		beta:  make([]float64, k),
		phi:   make([]float64, p),
		theta: make([]float64, q),
	}

	n := len(w)
	if Z == nil {
		if trendC {
			pr.c = stat.Mean(w, nil)
		}
	} else {
		cols := k
		if trendC {
			cols++
		}
		design := mat.NewDense(n, cols, nil)
		for t := 0; t < n; t++ {
			col := 0
			if trendC {
				design.Set(t, 0, 1)
				col = 1
			}
			for m := 0; m < k; m++ {
				design.Set(t, col+m, Z.At(t, m))
			}
		}
		var sol mat.Dense
		if err := sol.Solve(design, mat.NewDense(n, 1, append([]float64(nil), w...))); err == nil {
			col := 0
			if trendC {
				pr.c = sol.At(0, 0)
				col = 1
			}
			for m := 0; m < k; m++ {
				pr.beta[m] = sol.At(col+m, 0)
			}
		} else if trendC {
			pr.c = stat.Mean(w, nil)
		}
	}

	if p > 0 {
		eta := regressionResiduals(w, Z, pr)
		if phi, err := stats.YuleWalker(eta, p); err == nil {
			for i := range phi {
				if phi[i] > 0.95 {
					phi[i] = 0.95
				} else if phi[i] < -0.95 {
					phi[i] = -0.95
				}
			}
			copy(pr.phi, phi)
		}
	}
	return pr
}

// estimateCSS minimizes the penalized conditional sum of squares with
// L-BFGS. start overrides the warm start when non-nil. The warm start
// stands whenever the optimizer fails to improve on it.
func estimateCSS(w []float64, Z *mat.Dense, trendC bool, p, q, maxIter int, start *params, logger log.Logger) (params, []float64, float64) {
	var k int
	if Z != nil {
		_, k = Z.Dims()
	}

	best := warmStart(w, Z, trendC, p, q)
	if start != nil {
		best = *start
	}
	bestResid, bestSSE := cssResiduals(w, Z, best)
	if p+q == 0 {
		return best, bestResid, bestSSE
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			pr := unpackParams(x, trendC, k, p, q)
			_, sse := cssResiduals(w, Z, pr)
			return sse + boundPenalty(pr)
		},
		Grad: func(grad, x []float64) {
			pr := unpackParams(x, trendC, k, p, q)
			cssGradient(grad, w, Z, pr, trendC)
			addBoundPenaltyGrad(grad, pr, trendC)
		},
	}

	var settings *optimize.Settings
	if maxIter > 0 {
		settings = &optimize.Settings{MajorIterations: maxIter}
	}

	result, err := optimize.Minimize(problem, packParams(best, trendC), settings, &optimize.LBFGS{})
	if err != nil {
		logger.Debug("optimizer stopped early, keeping best parameters",
			log.OperationKey, log.OperationFit, "error", err.Error())
	}
	if result != nil && allFinite(result.X) {
		cand := unpackParams(result.X, trendC, k, p, q)
		resid, sse := cssResiduals(w, Z, cand)
		if !math.IsNaN(sse) && sse < bestSSE {
			best, bestResid, bestSSE = cand, resid, sse
		}
	}
	return best, bestResid, bestSSE
}

func allFinite(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// informationCriteria derives σ² and the Gaussian fit statistics from
// the conditional sum of squares over m residuals and nPar estimated
// coefficients (σ² counts as one more).
func informationCriteria(sse float64, m, nPar int) (sigma2, logLik, aic, aicc, bic float64) {
	sigma2 = sse / float64(m)
	safe := sigma2
	if safe < 1e-300 {
		safe = 1e-300
	}
	logLik = -0.5 * float64(m) * (math.Log(2*math.Pi*safe) + 1)
	k := float64(nPar + 1)
	aic = -2*logLik + 2*k
	bic = -2*logLik + k*math.Log(float64(m))
	if denom := float64(m) - k - 1; denom > 0 {
		aicc = aic + 2*k*(k+1)/denom
	} else {
		aicc = math.Inf(1)
	}
	return sigma2, logLik, aic, aicc, bic
}
