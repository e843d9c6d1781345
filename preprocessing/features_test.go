package preprocessing_test

import (
	"math"
	"testing"

	"github.com/ezoic/tsgo/preprocessing"
)

func TestLagFeatures(t *testing.T) {
	table := makeTable(t, map[string][]float64{
		"Amsterdam": {10, 11, 12, 13},
		"Brussels":  {1, 2, 3, 4},
		"Paris":     {5, 6, 7, 8},
	})

	ft, err := preprocessing.LagFeatures(table, "Amsterdam", []string{"Brussels", "Paris"}, 1)
	if err != nil {
		t.Fatalf("LagFeatures failed: %v", err)
	}

	// One row dropped for missing lag history
	if ft.NumRows() != 3 {
		t.Fatalf("Expected 3 rows, got %d", ft.NumRows())
	}

	wantTarget := []float64{11, 12, 13}
	for i, want := range wantTarget {
		if ft.Target[i] != want {
			t.Errorf("Target[%d]: expected %v, got %v", i, want, ft.Target[i])
		}
	}

	// Each row's predictors hold the prior day's temperatures
	wantBrussels := []float64{1, 2, 3}
	wantParis := []float64{5, 6, 7}
	for i := 0; i < 3; i++ {
		if ft.Exog.At(i, 0) != wantBrussels[i] {
			t.Errorf("Exog[%d][Brussels]: expected %v, got %v", i, wantBrussels[i], ft.Exog.At(i, 0))
		}
		if ft.Exog.At(i, 1) != wantParis[i] {
			t.Errorf("Exog[%d][Paris]: expected %v, got %v", i, wantParis[i], ft.Exog.At(i, 1))
		}
	}

	if len(ft.Predictors) != 2 || ft.Predictors[0] != "Brussels" || ft.Predictors[1] != "Paris" {
		t.Errorf("Predictors: expected [Brussels Paris], got %v", ft.Predictors)
	}
}

func TestLagFeaturesLagTwo(t *testing.T) {
	table := makeTable(t, map[string][]float64{
		"Amsterdam": {10, 11, 12, 13, 14},
		"Brussels":  {1, 2, 3, 4, 5},
	})

	ft, err := preprocessing.LagFeatures(table, "Amsterdam", []string{"Brussels"}, 2)
	if err != nil {
		t.Fatalf("LagFeatures failed: %v", err)
	}

	if ft.NumRows() != 3 {
		t.Fatalf("Expected 3 rows with lag 2, got %d", ft.NumRows())
	}
	// Row 0 is original row 2: predictor from row 0
	if ft.Target[0] != 12 || ft.Exog.At(0, 0) != 1 {
		t.Errorf("Row 0: target %v exog %v, want 12 and 1", ft.Target[0], ft.Exog.At(0, 0))
	}
}

func TestLagFeaturesInteriorMissing(t *testing.T) {
	nan := math.NaN()
	table := makeTable(t, map[string][]float64{
		"Amsterdam": {10, 11, nan, 13, 14},
		"Brussels":  {1, 2, 3, nan, 5},
	})

	ft, err := preprocessing.LagFeatures(table, "Amsterdam", []string{"Brussels"}, 1)
	if err != nil {
		t.Fatalf("LagFeatures failed: %v", err)
	}

	// Row 0 dropped (no history), row 2 dropped (target missing),
	// row 4 dropped (lagged predictor missing). Rows 1 and 3 survive.
	if ft.NumRows() != 2 {
		t.Fatalf("Expected 2 rows, got %d", ft.NumRows())
	}
	if ft.Target[0] != 11 || ft.Exog.At(0, 0) != 1 {
		t.Errorf("Row 0: target %v exog %v, want 11 and 1", ft.Target[0], ft.Exog.At(0, 0))
	}
	if ft.Target[1] != 13 || ft.Exog.At(1, 0) != 3 {
		t.Errorf("Row 1: target %v exog %v, want 13 and 3", ft.Target[1], ft.Exog.At(1, 0))
	}
}

func TestLagFeaturesErrors(t *testing.T) {
	table := makeTable(t, map[string][]float64{
		"Amsterdam": {10, 11, 12},
		"Brussels":  {1, 2, 3},
	})

	if _, err := preprocessing.LagFeatures(table, "Amsterdam", []string{"Brussels"}, 0); err == nil {
		t.Error("Expected error for lag 0")
	}
	if _, err := preprocessing.LagFeatures(table, "Amsterdam", nil, 1); err == nil {
		t.Error("Expected error for empty predictors")
	}
	if _, err := preprocessing.LagFeatures(table, "Oslo", []string{"Brussels"}, 1); err == nil {
		t.Error("Expected error for unknown target")
	}
	if _, err := preprocessing.LagFeatures(table, "Amsterdam", []string{"Oslo"}, 1); err == nil {
		t.Error("Expected error for unknown predictor")
	}
	if _, err := preprocessing.LagFeatures(table, "Amsterdam", []string{"Brussels", "Brussels"}, 1); err == nil {
		t.Error("Expected error for duplicate predictor")
	}
	if _, err := preprocessing.LagFeatures(table, "Amsterdam", []string{"Brussels"}, 3); err == nil {
		t.Error("Expected error when no rows survive")
	}
}

func TestFeatureTableSlice(t *testing.T) {
	table := makeTable(t, map[string][]float64{
		"Amsterdam": {10, 11, 12, 13, 14},
		"Brussels":  {1, 2, 3, 4, 5},
	})

	ft, err := preprocessing.LagFeatures(table, "Amsterdam", []string{"Brussels"}, 1)
	if err != nil {
		t.Fatalf("LagFeatures failed: %v", err)
	}

	head := ft.Slice(0, 2)
	if head.NumRows() != 2 {
		t.Fatalf("Expected 2 rows, got %d", head.NumRows())
	}
	if head.Target[1] != 12 {
		t.Errorf("Target[1]: expected 12, got %v", head.Target[1])
	}

	// Slices are copies
	head.Target[0] = -1
	if ft.Target[0] == -1 {
		t.Error("Slice shares storage with the source table")
	}
}
