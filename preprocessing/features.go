package preprocessing

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/tsgo/dataset"
	tsgoErrors "github.com/ezoic/tsgo/pkg/errors"
)

// FeatureTable aligns a target city's temperature with lagged predictor
// temperatures. Target holds the unlagged value for each date; row i of
// Exog holds each predictor's value from lag steps earlier. The table
// contains no NaN: rows missing any value after lag-shifting have been
// dropped.
type FeatureTable struct {
	Dates      []time.Time
	Target     []float64
	Exog       *mat.Dense
	Predictors []string
}

// NumRows returns the number of aligned rows.
func (ft *FeatureTable) NumRows() int {
	return len(ft.Dates)
}

// Slice copies rows [i, j) into a new FeatureTable. It panics if the
// range is out of bounds, matching gonum slicing behaviour.
func (ft *FeatureTable) Slice(i, j int) *FeatureTable {
	if i < 0 || j < i || j > len(ft.Dates) {
		panic(fmt.Sprintf("preprocessing: slice bounds [%d, %d) out of range with %d rows", i, j, len(ft.Dates)))
	}

	out := &FeatureTable{
		Dates:      append([]time.Time{}, ft.Dates[i:j]...),
		Target:     append([]float64{}, ft.Target[i:j]...),
		Predictors: append([]string{}, ft.Predictors...),
	}
	if j > i {
		_, c := ft.Exog.Dims()
		out.Exog = mat.NewDense(j-i, c, nil)
		out.Exog.Copy(ft.Exog.Slice(i, j, 0, c))
	}
	return out
}

// LagFeatures builds a FeatureTable from the pivoted panel.
//
// Each predictor column is shifted forward by lag steps, so that a
// row's predictor values are the temperatures observed lag days before
// the target value of that row. Rows containing any missing value after
// the shift are dropped; on a complete panel this removes exactly the
// first lag rows, which have no history.
//
// Parameters:
//   - wt: the pivoted panel
//   - target: city to predict; stays unlagged
//   - predictors: distinct predictor city names, each a column of wt
//   - lag: shift in time steps, at least 1
//
// Returns:
//   - *FeatureTable: the aligned feature table
//   - error: nil if successful, otherwise an error describing the failure
//
// Errors:
//   - ValueError: if lag < 1, predictors is empty or contains
//     duplicates, a named city is not a column, or no rows survive
//     the missing-value drop
func LagFeatures(wt *dataset.WideTable, target string, predictors []string, lag int) (*FeatureTable, error) {
	if lag < 1 {
		return nil, tsgoErrors.NewValueError("LagFeatures", fmt.Sprintf("lag must be at least 1, got %d", lag))
	}
	if len(predictors) == 0 {
		return nil, tsgoErrors.NewValueError("LagFeatures", "no predictor cities")
	}

	tj, ok := wt.ColumnIndex(target)
	if !ok {
		return nil, tsgoErrors.NewValueError("LagFeatures", "unknown target city "+target)
	}

	seen := make(map[string]struct{}, len(predictors))
	predCols := make([]int, len(predictors))
	for i, name := range predictors {
		if _, dup := seen[name]; dup {
			return nil, tsgoErrors.NewValueError("LagFeatures", "duplicate predictor city "+name)
		}
		seen[name] = struct{}{}
		j, ok := wt.ColumnIndex(name)
		if !ok {
			return nil, tsgoErrors.NewValueError("LagFeatures", "unknown predictor city "+name)
		}
		predCols[i] = j
	}

	nRows, _ := wt.Dims()
	dates := wt.Dates()

	var (
		outDates  []time.Time
		outTarget []float64
		outExog   []float64
	)
	k := len(predictors)
	row := make([]float64, k)

	for i := 0; i < nRows; i++ {
		y := wt.At(i, tj)
		if math.IsNaN(y) {
			continue
		}
		if i < lag {
			continue
		}
		complete := true
		for p, j := range predCols {
			v := wt.At(i-lag, j)
			if math.IsNaN(v) {
				complete = false
				break
			}
			row[p] = v
		}
		if !complete {
			continue
		}
		outDates = append(outDates, dates[i])
		outTarget = append(outTarget, y)
		outExog = append(outExog, row...)
	}

	if len(outDates) == 0 {
		return nil, tsgoErrors.NewValueError("LagFeatures", "no rows remain after dropping missing values")
	}

	return &FeatureTable{
		Dates:      outDates,
		Target:     outTarget,
		Exog:       mat.NewDense(len(outDates), k, outExog),
		Predictors: append([]string{}, predictors...),
	}, nil
}
