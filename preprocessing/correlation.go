// Package preprocessing prepares the pivoted temperature panel for
// model fitting.
//
// The package implements the stages between raw panel and forecaster
// input:
//
//   - CorrelationMatrix / TopCorrelated: rank candidate predictor cities
//     by Pearson correlation with the target city
//   - LagFeatures: build a lag-aligned feature table of predictor
//     temperatures against the unlagged target
//   - SplitIndex / TrainTestSplit: chronological train/test partition
//     with no shuffling
//
// All stages are pure: they consume their input and return a new
// artifact without mutating shared state.
//
// Example usage:
//
//	predictors, err := preprocessing.TopCorrelated(table, "Amsterdam", 30)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ft, err := preprocessing.LagFeatures(table, "Amsterdam", predictors, 1)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	train, test, err := preprocessing.TrainTestSplit(ft, 0.2)
package preprocessing

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/ezoic/tsgo/core/parallel"
	"github.com/ezoic/tsgo/dataset"
	tsgoErrors "github.com/ezoic/tsgo/pkg/errors"
)

// Row-count threshold above which correlation rows are computed in parallel.
const corrParallelThreshold = 64

// CorrelationMatrix computes the pairwise Pearson correlation of all
// city columns.
//
// Each entry (i, j) uses only the dates where both cities have a value
// (pairwise-complete observations), so panels with ragged edges still
// produce defined correlations wherever two series overlap. Pairs with
// fewer than two overlapping dates, or with a constant series over the
// overlap, yield NaN. The diagonal is 1.
//
// The matrix is ordered like wt.Cities(). Rows are computed in parallel
// for larger panels; results are identical regardless of worker count.
func CorrelationMatrix(wt *dataset.WideTable) *mat.SymDense {
	_, nCols := wt.Dims()
	cols := extractColumns(wt)

	corr := mat.NewSymDense(nCols, nil)
	parallel.ParallelizeWithThreshold(nCols, corrParallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			corr.SetSym(i, i, 1)
			for j := i + 1; j < nCols; j++ {
				corr.SetSym(i, j, pairwiseCorrelation(cols[i], cols[j]))
			}
		}
	})
	return corr
}

// TopCorrelated returns the k cities most correlated with the target,
// in descending order of correlation.
//
// The target itself is excluded. Cities whose correlation with the
// target is undefined (no overlap, or a constant series) are skipped.
// Ties keep column order.
//
// Parameters:
//   - wt: the pivoted panel
//   - target: city whose neighbours are wanted; must be a column of wt
//   - k: how many predictor cities to return
//
// Returns:
//   - []string: exactly k city names
//   - error: nil if successful, otherwise an error describing the failure
//
// Errors:
//   - ValueError: if k < 1, the target is not a column, or fewer than k
//     cities have a defined correlation with the target
func TopCorrelated(wt *dataset.WideTable, target string, k int) ([]string, error) {
	if k < 1 {
		return nil, tsgoErrors.NewValueError("TopCorrelated", fmt.Sprintf("k must be positive, got %d", k))
	}
	tj, ok := wt.ColumnIndex(target)
	if !ok {
		return nil, tsgoErrors.NewValueError("TopCorrelated", "unknown target city "+target)
	}

	cities := wt.Cities()
	cols := extractColumns(wt)
	targetCol := cols[tj]

	type candidate struct {
		name string
		r    float64
	}
	candidates := make([]candidate, 0, len(cities)-1)
	for j, city := range cities {
		if j == tj {
			continue
		}
		r := pairwiseCorrelation(targetCol, cols[j])
		if math.IsNaN(r) {
			continue
		}
		candidates = append(candidates, candidate{name: city, r: r})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].r > candidates[j].r
	})

	if len(candidates) < k {
		return nil, tsgoErrors.NewValueError("TopCorrelated",
			fmt.Sprintf("only %d cities correlate with %s, need %d", len(candidates), target, k))
	}

	names := make([]string, k)
	for i := 0; i < k; i++ {
		names[i] = candidates[i].name
	}
	return names, nil
}

func extractColumns(wt *dataset.WideTable) [][]float64 {
	nRows, nCols := wt.Dims()
	cols := make([][]float64, nCols)
	for j := 0; j < nCols; j++ {
		col := make([]float64, nRows)
		mat.Col(col, j, wt.Data())
		cols[j] = col
	}
	return cols
}

// pairwiseCorrelation is the Pearson correlation over indices where both
// series have values. NaN when fewer than two such indices exist or a
// series is constant over them.
func pairwiseCorrelation(a, b []float64) float64 {
	xs := make([]float64, 0, len(a))
	ys := make([]float64, 0, len(a))
	for i := range a {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		xs = append(xs, a[i])
		ys = append(ys, b[i])
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}
