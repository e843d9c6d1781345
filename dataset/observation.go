// Package dataset loads and stores the daily city temperature panel
// consumed by the forecasting pipeline.
//
// Observations arrive as (region, country, city, date, temperature)
// records, either from the published CSV export or from a SQLite
// database. Pivot reshapes the long panel into a WideTable with one
// row per date and one column per city, the layout the preprocessing
// and forecast packages operate on.
package dataset

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	tsgoErrors "github.com/ezoic/tsgo/pkg/errors"
)

// MissingValue is the sentinel the CSV export records for unknown
// temperatures. Readers translate it to NaN.
const MissingValue = -99.0

// Observation is a single daily temperature reading for one city.
//
// AvgTemp is NaN when the source marked the value missing. City names
// are unique within (region, country).
type Observation struct {
	Region  string
	Country string
	City    string
	Date    time.Time
	AvgTemp float64
}

// csv column headers in the published export
const (
	colRegion  = "Region"
	colCountry = "Country"
	colCity    = "City"
	colMonth   = "Month"
	colDay     = "Day"
	colYear    = "Year"
	colAvgTemp = "AvgTemperature"
)

// ReadObservations parses daily temperature records from CSV data.
//
// The reader expects a header row naming at least the Region, Country,
// City, Month, Day, Year and AvgTemperature columns; extra columns such
// as State are ignored and column order does not matter. Temperatures
// equal to MissingValue come back as NaN.
//
// Parameters:
//   - r: CSV data with a header row
//
// Returns:
//   - []Observation: parsed records in file order
//   - error: nil if successful, otherwise an error describing the failure
//
// Errors:
//   - ValueError: if the header is missing a required column, or a row
//     has an out-of-range date or a non-numeric field
//
// Example:
//
//	f, err := os.Open("city_temperature.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer f.Close()
//
//	obs, err := dataset.ReadObservations(f)
func ReadObservations(r io.Reader) ([]Observation, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, tsgoErrors.Wrap(err, "read csv header")
	}

	cols, err := headerIndex(header)
	if err != nil {
		return nil, err
	}

	var obs []Observation
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, tsgoErrors.Wrapf(err, "read csv record at line %d", line+1)
		}
		line++

		o, err := parseRecord(record, cols, line)
		if err != nil {
			return nil, err
		}
		obs = append(obs, o)
	}

	if len(obs) == 0 {
		return nil, tsgoErrors.NewValueError("ReadObservations", "no records after header")
	}
	return obs, nil
}

// ReadObservationsFile reads daily temperature records from a CSV file.
func ReadObservationsFile(path string) ([]Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, tsgoErrors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	obs, err := ReadObservations(f)
	if err != nil {
		return nil, tsgoErrors.Wrapf(err, "parse %s", path)
	}
	return obs, nil
}

type columnIndex struct {
	region, country, city, month, day, year, avgTemp int
}

func headerIndex(header []string) (columnIndex, error) {
	pos := make(map[string]int, len(header))
	for i, name := range header {
		pos[name] = i
	}

	idx := columnIndex{}
	for _, req := range []struct {
		name string
		dst  *int
	}{
		{colRegion, &idx.region},
		{colCountry, &idx.country},
		{colCity, &idx.city},
		{colMonth, &idx.month},
		{colDay, &idx.day},
		{colYear, &idx.year},
		{colAvgTemp, &idx.avgTemp},
	} {
		i, ok := pos[req.name]
		if !ok {
			return idx, tsgoErrors.NewValueError("ReadObservations", "missing column "+req.name)
		}
		*req.dst = i
	}
	return idx, nil
}

func parseRecord(record []string, cols columnIndex, line int) (Observation, error) {
	var o Observation

	month, err := parseIntField(record[cols.month], "Month", line)
	if err != nil {
		return o, err
	}
	day, err := parseIntField(record[cols.day], "Day", line)
	if err != nil {
		return o, err
	}
	year, err := parseIntField(record[cols.year], "Year", line)
	if err != nil {
		return o, err
	}
	if month < 1 || month > 12 || day < 1 || day > 31 || year < 1 {
		return o, tsgoErrors.Newf("tsgo: ReadObservations: line %d: invalid date %04d-%02d-%02d", line, year, month, day)
	}

	temp, err := strconv.ParseFloat(record[cols.avgTemp], 64)
	if err != nil {
		return o, tsgoErrors.Wrapf(err, "tsgo: ReadObservations: line %d: AvgTemperature", line)
	}
	if temp == MissingValue {
		temp = math.NaN()
	}

	o = Observation{
		Region:  record[cols.region],
		Country: record[cols.country],
		City:    record[cols.city],
		Date:    time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC),
		AvgTemp: temp,
	}
	return o, nil
}

func parseIntField(s, name string, line int) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, tsgoErrors.Wrapf(err, "tsgo: ReadObservations: line %d: %s", line, name)
	}
	return v, nil
}

// FilterCountry returns the observations recorded for a single country.
// The input order is preserved.
func FilterCountry(obs []Observation, country string) []Observation {
	var out []Observation
	for _, o := range obs {
		if o.Country == country {
			out = append(out, o)
		}
	}
	return out
}

// CityNames returns the distinct city names present in the panel,
// sorted lexicographically.
func CityNames(obs []Observation) []string {
	seen := make(map[string]struct{})
	for _, o := range obs {
		seen[o.City] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
