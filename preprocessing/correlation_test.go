package preprocessing_test

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/ezoic/tsgo/dataset"
	"github.com/ezoic/tsgo/preprocessing"
)

const epsilon = 1e-10 // Tolerance for floating-point comparisons

// makeTable pivots per-city series sharing consecutive dates. NaN marks
// a missing reading.
func makeTable(t *testing.T, series map[string][]float64) *dataset.WideTable {
	t.Helper()
	var obs []dataset.Observation
	for city, values := range series {
		for i, v := range values {
			obs = append(obs, dataset.Observation{
				City:    city,
				Date:    time.Date(1995, time.January, 1+i, 0, 0, 0, 0, time.UTC),
				AvgTemp: v,
			})
		}
	}
	table, err := dataset.Pivot(obs)
	if err != nil {
		t.Fatalf("Pivot failed: %v", err)
	}
	return table
}

func TestCorrelationMatrix(t *testing.T) {
	table := makeTable(t, map[string][]float64{
		"A": {1, 2, 3, 4},
		"B": {2, 4, 6, 8},  // r(A,B) = 1
		"C": {4, 3, 2, 1},  // r(A,C) = -1
		"D": {1, -1, 1, 0}, // something in between
	})

	corr := preprocessing.CorrelationMatrix(table)

	n, _ := corr.Dims()
	if n != 4 {
		t.Fatalf("Expected 4x4 matrix, got %dx%d", n, n)
	}

	// Cities sorted: A=0, B=1, C=2, D=3
	for i := 0; i < n; i++ {
		if corr.At(i, i) != 1 {
			t.Errorf("Diagonal[%d]: expected 1, got %v", i, corr.At(i, i))
		}
	}
	if math.Abs(corr.At(0, 1)-1) > epsilon {
		t.Errorf("r(A,B): expected 1, got %v", corr.At(0, 1))
	}
	if math.Abs(corr.At(0, 2)+1) > epsilon {
		t.Errorf("r(A,C): expected -1, got %v", corr.At(0, 2))
	}

	// Symmetry
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if corr.At(i, j) != corr.At(j, i) {
				t.Errorf("Asymmetry at (%d,%d): %v vs %v", i, j, corr.At(i, j), corr.At(j, i))
			}
		}
	}
}

func TestCorrelationMatrixPairwiseComplete(t *testing.T) {
	nan := math.NaN()
	table := makeTable(t, map[string][]float64{
		"A": {1, 2, 3, nan},
		"B": {2, 4, 6, 8},
	})

	corr := preprocessing.CorrelationMatrix(table)

	// Only the first three dates overlap; over those r = 1
	if math.Abs(corr.At(0, 1)-1) > epsilon {
		t.Errorf("r(A,B): expected 1 over the overlap, got %v", corr.At(0, 1))
	}
}

func TestCorrelationMatrixUndefined(t *testing.T) {
	nan := math.NaN()
	table := makeTable(t, map[string][]float64{
		"A": {1, 2, 3, 4},
		"B": {5, 5, 5, 5},     // constant: undefined correlation
		"C": {nan, nan, 1, 2}, // only overlaps A on two dates: defined
		"D": {1, nan, nan, nan},
	})

	corr := preprocessing.CorrelationMatrix(table)

	if !math.IsNaN(corr.At(0, 1)) {
		t.Errorf("r(A,constant): expected NaN, got %v", corr.At(0, 1))
	}
	if math.IsNaN(corr.At(0, 2)) {
		t.Error("r(A,C): expected defined correlation over 2-date overlap")
	}
	// D shares a single date with A
	if !math.IsNaN(corr.At(0, 3)) {
		t.Errorf("r(A,D): expected NaN with single overlap, got %v", corr.At(0, 3))
	}
}

func TestTopCorrelated(t *testing.T) {
	table := makeTable(t, map[string][]float64{
		"Amsterdam": {10, 12, 11, 14, 13},
		"Brussels":  {10.1, 12.2, 11.0, 14.1, 13.2}, // nearly identical
		"Paris":     {11, 13, 12, 15, 13.5},         // strongly correlated
		"Reykjavik": {14, 13, 15, 11, 12},           // negatively correlated
	})

	top, err := preprocessing.TopCorrelated(table, "Amsterdam", 2)
	if err != nil {
		t.Fatalf("TopCorrelated failed: %v", err)
	}

	if len(top) != 2 {
		t.Fatalf("Expected 2 predictors, got %d", len(top))
	}
	if top[0] != "Brussels" || top[1] != "Paris" {
		t.Errorf("Expected [Brussels Paris], got %v", top)
	}
	for _, city := range top {
		if city == "Amsterdam" {
			t.Error("Target city must not appear among predictors")
		}
	}
}

func TestTopCorrelatedSkipsUndefined(t *testing.T) {
	table := makeTable(t, map[string][]float64{
		"Amsterdam": {10, 12, 11, 14},
		"Brussels":  {10.1, 12.2, 11.0, 14.1},
		"Constant":  {5, 5, 5, 5},
	})

	// Constant has no defined correlation, so only one candidate remains
	if _, err := preprocessing.TopCorrelated(table, "Amsterdam", 2); err == nil {
		t.Error("Expected error when undefined correlations shrink the pool below k")
	}

	top, err := preprocessing.TopCorrelated(table, "Amsterdam", 1)
	if err != nil {
		t.Fatalf("TopCorrelated failed: %v", err)
	}
	if top[0] != "Brussels" {
		t.Errorf("Expected Brussels, got %v", top)
	}
}

func TestTopCorrelatedErrors(t *testing.T) {
	table := makeTable(t, map[string][]float64{
		"Amsterdam": {10, 12, 11},
		"Brussels":  {10.1, 12.2, 11.0},
	})

	if _, err := preprocessing.TopCorrelated(table, "Oslo", 1); err == nil {
		t.Error("Expected error for unknown target")
	}
	if _, err := preprocessing.TopCorrelated(table, "Amsterdam", 0); err == nil {
		t.Error("Expected error for k = 0")
	}
	if _, err := preprocessing.TopCorrelated(table, "Amsterdam", 5); err == nil {
		t.Error("Expected error for k exceeding available cities")
	}
}

func BenchmarkCorrelationMatrix(b *testing.B) {
	// 80 cities crosses the parallel row threshold
	var obs []dataset.Observation
	state := uint64(9)
	for c := 0; c < 80; c++ {
		city := fmt.Sprintf("City%02d", c)
		for i := 0; i < 150; i++ {
			state = state*6364136223846793005 + 1442695040888963407
			noise := float64(state>>11)/(1<<53) - 0.5
			obs = append(obs, dataset.Observation{
				City:    city,
				Date:    time.Date(1995, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
				AvgTemp: 10 + noise,
			})
		}
	}
	table, err := dataset.Pivot(obs)
	if err != nil {
		b.Fatalf("Pivot failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		preprocessing.CorrelationMatrix(table)
	}
}
