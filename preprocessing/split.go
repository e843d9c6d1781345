package preprocessing

import (
	"fmt"
	"math"

	tsgoErrors "github.com/ezoic/tsgo/pkg/errors"
)

// SplitIndex returns the boundary of a chronological train/test split.
//
// The test partition takes the final ceil(n · testSize) rows; the
// returned index is the train length, so train = rows [0, idx) and
// test = rows [idx, n). The same rule applies to any sequence aligned
// with the rows, residual series included.
//
// Errors:
//   - ValueError: if testSize is outside (0, 1), or either partition
//     would be empty
func SplitIndex(n int, testSize float64) (int, error) {
	if testSize <= 0 || testSize >= 1 {
		return 0, tsgoErrors.NewValueError("SplitIndex", fmt.Sprintf("testSize must be in (0, 1), got %v", testSize))
	}
	if n < 2 {
		return 0, tsgoErrors.NewValueError("SplitIndex", fmt.Sprintf("need at least 2 rows to split, got %d", n))
	}

	nTest := int(math.Ceil(float64(n) * testSize))
	if nTest >= n {
		return 0, tsgoErrors.NewValueError("SplitIndex", fmt.Sprintf("test partition of %d rows leaves no training data", nTest))
	}
	return n - nTest, nil
}

// TrainTestSplit partitions a FeatureTable chronologically.
//
// The first SplitIndex rows become the training table and the rest the
// test table. Rows are never reordered; the tables are copies.
//
// Example:
//
//	train, test, err := preprocessing.TrainTestSplit(ft, 0.2)
//	if err != nil {
//	    log.Fatal(err)
//	}
func TrainTestSplit(ft *FeatureTable, testSize float64) (*FeatureTable, *FeatureTable, error) {
	idx, err := SplitIndex(ft.NumRows(), testSize)
	if err != nil {
		return nil, nil, err
	}
	return ft.Slice(0, idx), ft.Slice(idx, ft.NumRows()), nil
}
