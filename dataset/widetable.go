package dataset

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	tsgoErrors "github.com/ezoic/tsgo/pkg/errors"
)

// WideTable is the pivoted temperature panel: one row per date in
// chronological order, one column per city in lexicographic order.
// Cells without an observation hold NaN.
type WideTable struct {
	dates  []time.Time
	cities []string
	data   *mat.Dense
	index  map[string]int
}

// Pivot reshapes long-form observations into a WideTable.
//
// Rows are the distinct observation dates sorted ascending, columns the
// distinct city names sorted lexicographically. Each (date, city) pair
// must occur at most once; cells never observed stay NaN, which later
// stages treat as missing.
//
// Parameters:
//   - obs: long-form panel records
//
// Returns:
//   - *WideTable: the pivoted panel
//   - error: nil if successful, otherwise an error describing the failure
//
// Errors:
//   - ErrEmptyData: if obs is empty
//   - ValueError: if the same (date, city) pair occurs twice
func Pivot(obs []Observation) (*WideTable, error) {
	if len(obs) == 0 {
		return nil, tsgoErrors.Wrap(tsgoErrors.ErrEmptyData, "Pivot")
	}

	dateSet := make(map[time.Time]struct{})
	citySet := make(map[string]struct{})
	for _, o := range obs {
		dateSet[o.Date] = struct{}{}
		citySet[o.City] = struct{}{}
	}

	dates := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	cities := make([]string, 0, len(citySet))
	for c := range citySet {
		cities = append(cities, c)
	}
	sort.Strings(cities)

	rowOf := make(map[time.Time]int, len(dates))
	for i, d := range dates {
		rowOf[d] = i
	}
	colOf := make(map[string]int, len(cities))
	for j, c := range cities {
		colOf[c] = j
	}

	nRows, nCols := len(dates), len(cities)
	data := mat.NewDense(nRows, nCols, nil)
	for i := 0; i < nRows; i++ {
		for j := 0; j < nCols; j++ {
			data.Set(i, j, math.NaN())
		}
	}

	seen := make(map[int]struct{}, len(obs))
	for _, o := range obs {
		i, j := rowOf[o.Date], colOf[o.City]
		cell := i*nCols + j
		if _, dup := seen[cell]; dup {
			return nil, tsgoErrors.NewValueError("Pivot",
				"duplicate observation for "+o.City+" on "+o.Date.Format("2006-01-02"))
		}
		seen[cell] = struct{}{}
		data.Set(i, j, o.AvgTemp)
	}

	return &WideTable{
		dates:  dates,
		cities: cities,
		data:   data,
		index:  colOf,
	}, nil
}

// Dims returns the number of dates (rows) and cities (columns).
func (t *WideTable) Dims() (int, int) {
	return t.data.Dims()
}

// Dates returns the row dates in chronological order.
func (t *WideTable) Dates() []time.Time {
	return append([]time.Time{}, t.dates...)
}

// Cities returns the column names in lexicographic order.
func (t *WideTable) Cities() []string {
	return append([]string{}, t.cities...)
}

// At returns the temperature at row i, column j. Missing cells are NaN.
func (t *WideTable) At(i, j int) float64 {
	return t.data.At(i, j)
}

// ColumnIndex returns the column position of a city name.
func (t *WideTable) ColumnIndex(city string) (int, bool) {
	j, ok := t.index[city]
	return j, ok
}

// Column returns a copy of one city's temperature series in date order.
//
// Errors:
//   - ValueError: if the city is not a column of the table
func (t *WideTable) Column(city string) ([]float64, error) {
	j, ok := t.index[city]
	if !ok {
		return nil, tsgoErrors.NewValueError("Column", "unknown city "+city)
	}
	n, _ := t.data.Dims()
	col := make([]float64, n)
	mat.Col(col, j, t.data)
	return col, nil
}

// Data returns the underlying matrix, dates × cities.
// Note: direct mutation is not recommended.
func (t *WideTable) Data() *mat.Dense {
	return t.data
}
