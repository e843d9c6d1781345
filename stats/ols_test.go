package stats_test

import (
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"

	tsgoErrors "github.com/ezoic/tsgo/pkg/errors"
	"github.com/ezoic/tsgo/stats"
)

const epsilon = 1e-8

func TestOLSFitSimpleRegression(t *testing.T) {
	// y on x for x = 1..5, y = {2, 4, 5, 4, 5}:
	// intercept 2.2, slope 0.6, R^2 0.6, sigma^2 0.8
	X := mat.NewDense(5, 1, []float64{1, 2, 3, 4, 5})
	y := []float64{2, 4, 5, 4, 5}

	ols := stats.NewOLS()
	if err := ols.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if !ols.State.IsFitted() {
		t.Error("model should be fitted")
	}
	if math.Abs(ols.Coef[0]-2.2) > epsilon {
		t.Errorf("intercept = %v, want 2.2", ols.Coef[0])
	}
	if math.Abs(ols.Coef[1]-0.6) > epsilon {
		t.Errorf("slope = %v, want 0.6", ols.Coef[1])
	}
	if math.Abs(ols.RSquared-0.6) > epsilon {
		t.Errorf("RSquared = %v, want 0.6", ols.RSquared)
	}
	if math.Abs(ols.AdjRSquared-(1-0.4*4.0/3.0)) > epsilon {
		t.Errorf("AdjRSquared = %v, want %v", ols.AdjRSquared, 1-0.4*4.0/3.0)
	}
	if math.Abs(ols.Sigma2-0.8) > epsilon {
		t.Errorf("Sigma2 = %v, want 0.8", ols.Sigma2)
	}
	if math.Abs(ols.StdErr[0]-math.Sqrt(0.88)) > epsilon {
		t.Errorf("StdErr[0] = %v, want %v", ols.StdErr[0], math.Sqrt(0.88))
	}
	if math.Abs(ols.StdErr[1]-math.Sqrt(0.08)) > epsilon {
		t.Errorf("StdErr[1] = %v, want %v", ols.StdErr[1], math.Sqrt(0.08))
	}
	if math.Abs(ols.FStat-4.5) > epsilon {
		t.Errorf("FStat = %v, want 4.5", ols.FStat)
	}
	// For one regressor the F test and the slope t test agree
	if math.Abs(ols.FPValue-ols.PValues[1]) > 1e-12 {
		t.Errorf("FPValue = %v, PValues[1] = %v, want equal", ols.FPValue, ols.PValues[1])
	}
	if math.Abs(ols.PValues[1]-0.1240914) > 5e-4 {
		t.Errorf("PValues[1] = %v, want about 0.1241", ols.PValues[1])
	}
	if ols.NObs != 5 || ols.DFModel != 1 || ols.DFResid != 3 {
		t.Errorf("NObs/DFModel/DFResid = %d/%d/%d, want 5/1/3", ols.NObs, ols.DFModel, ols.DFResid)
	}
	if math.Abs(ols.LogLik-(-5.259770)) > 1e-5 {
		t.Errorf("LogLik = %v, want -5.259770", ols.LogLik)
	}
	if math.Abs(ols.AIC-14.519540) > 1e-4 {
		t.Errorf("AIC = %v, want 14.519540", ols.AIC)
	}
	if math.Abs(ols.BIC-13.738416) > 1e-4 {
		t.Errorf("BIC = %v, want 13.738416", ols.BIC)
	}

	resid, err := ols.Resid()
	if err != nil {
		t.Fatalf("Resid failed: %v", err)
	}
	wantResid := []float64{-0.8, 0.6, 1.0, -0.6, -0.2}
	for i, r := range resid {
		if math.Abs(r-wantResid[i]) > epsilon {
			t.Errorf("resid[%d] = %v, want %v", i, r, wantResid[i])
		}
	}
}

func TestOLSFitMultipleRegression(t *testing.T) {
	// Exact plane y = 1 + 2*x1 - 3*x2
	X := mat.NewDense(6, 2, []float64{
		0, 1,
		1, 0,
		2, 2,
		3, 1,
		4, 3,
		5, 2,
	})
	y := []float64{-2, 3, -1, 4, 0, 5}

	ols := stats.NewOLS()
	if err := ols.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	want := []float64{1, 2, -3}
	for i, w := range want {
		if math.Abs(ols.Coef[i]-w) > epsilon {
			t.Errorf("Coef[%d] = %v, want %v", i, ols.Coef[i], w)
		}
	}
	if math.Abs(ols.RSquared-1) > epsilon {
		t.Errorf("RSquared = %v, want 1", ols.RSquared)
	}

	fitted, err := ols.FittedValues()
	if err != nil {
		t.Fatalf("FittedValues failed: %v", err)
	}
	for i := range y {
		if math.Abs(fitted[i]-y[i]) > epsilon {
			t.Errorf("fitted[%d] = %v, want %v", i, fitted[i], y[i])
		}
	}
}

func TestOLSFitErrors(t *testing.T) {
	t.Run("empty target", func(t *testing.T) {
		ols := stats.NewOLS()
		err := ols.Fit(mat.NewDense(2, 1, []float64{1, 2}), nil)
		if !tsgoErrors.Is(err, tsgoErrors.ErrEmptyData) {
			t.Errorf("expected ErrEmptyData, got %v", err)
		}
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		ols := stats.NewOLS()
		err := ols.Fit(mat.NewDense(3, 1, []float64{1, 2, 3}), []float64{1, 2})
		if err == nil {
			t.Error("expected error for mismatched dimensions")
		}
	})

	t.Run("NaN input", func(t *testing.T) {
		ols := stats.NewOLS()
		err := ols.Fit(mat.NewDense(3, 1, []float64{1, math.NaN(), 3}), []float64{1, 2, 3})
		if err == nil {
			t.Error("expected error for NaN input")
		}
	})

	t.Run("singular design", func(t *testing.T) {
		// Duplicated column
		X := mat.NewDense(5, 2, []float64{
			1, 1,
			2, 2,
			3, 3,
			4, 4,
			5, 5,
		})
		ols := stats.NewOLS()
		err := ols.Fit(X, []float64{1, 2, 3, 4, 5})
		if !tsgoErrors.Is(err, tsgoErrors.ErrSingularMatrix) {
			t.Errorf("expected ErrSingularMatrix, got %v", err)
		}
	})

	t.Run("too few observations", func(t *testing.T) {
		ols := stats.NewOLS()
		err := ols.Fit(mat.NewDense(2, 2, []float64{1, 2, 3, 4}), []float64{1, 2})
		if err == nil {
			t.Error("expected error when n <= number of parameters")
		}
	})
}

func TestOLSNotFitted(t *testing.T) {
	ols := stats.NewOLS()
	if _, err := ols.Resid(); err == nil {
		t.Error("Resid should fail before Fit")
	}
	if _, err := ols.FittedValues(); err == nil {
		t.Error("FittedValues should fail before Fit")
	}
	if _, err := ols.Summary(); err == nil {
		t.Error("Summary should fail before Fit")
	}
}

func TestOLSSummary(t *testing.T) {
	X := mat.NewDense(5, 1, []float64{1, 2, 3, 4, 5})
	y := []float64{2, 4, 5, 4, 5}

	ols := stats.NewOLS()
	ols.Names = []string{"const", "trend"}
	if err := ols.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	summary, err := ols.Summary()
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	for _, want := range []string{"R-squared", "No. Observations", "const", "trend"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
}
