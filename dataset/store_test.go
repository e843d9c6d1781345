package dataset_test

import (
	"database/sql"
	"math"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/ezoic/tsgo/dataset"
)

func setupTestStore(t *testing.T) *dataset.Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := dataset.NewStore(db)
	require.NoError(t, store.Migrate())
	return store
}

func testObs() []dataset.Observation {
	d := func(day int) time.Time {
		return time.Date(1995, time.January, day, 0, 0, 0, 0, time.UTC)
	}
	return []dataset.Observation{
		{Region: "Europe", Country: "Netherlands", City: "Amsterdam", Date: d(1), AvgTemp: 38.2},
		{Region: "Europe", Country: "Netherlands", City: "Amsterdam", Date: d(2), AvgTemp: 36.5},
		{Region: "Europe", Country: "Belgium", City: "Brussels", Date: d(1), AvgTemp: 39.1},
		{Region: "Europe", Country: "Belgium", City: "Brussels", Date: d(2), AvgTemp: math.NaN()},
	}
}

func TestInsertAndLoadObservations(t *testing.T) {
	store := setupTestStore(t)

	require.NoError(t, store.InsertObservations(testObs()))

	obs, err := store.LoadObservations()
	require.NoError(t, err)
	require.Len(t, obs, 4)

	// Ordered by date then city
	assert.Equal(t, "Amsterdam", obs[0].City)
	assert.Equal(t, "Brussels", obs[1].City)
	assert.Equal(t, 38.2, obs[0].AvgTemp)

	// NULL round-trips as NaN
	assert.Equal(t, "Brussels", obs[3].City)
	assert.True(t, math.IsNaN(obs[3].AvgTemp), "missing temperature should come back as NaN")
}

func TestInsertObservationsIdempotent(t *testing.T) {
	store := setupTestStore(t)

	require.NoError(t, store.InsertObservations(testObs()))
	require.NoError(t, store.InsertObservations(testObs()))

	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 4, n, "duplicate rows should be skipped")
}

func TestLoadCountry(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.InsertObservations(testObs()))

	obs, err := store.LoadCountry("Netherlands")
	require.NoError(t, err)
	require.Len(t, obs, 2)
	for _, o := range obs {
		assert.Equal(t, "Netherlands", o.Country)
	}
}

func TestCities(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.InsertObservations(testObs()))

	cities, err := store.Cities()
	require.NoError(t, err)
	assert.Equal(t, []string{"Amsterdam", "Brussels"}, cities)
}

func TestStorePivotRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.InsertObservations(testObs()))

	obs, err := store.LoadObservations()
	require.NoError(t, err)

	table, err := dataset.Pivot(obs)
	require.NoError(t, err)
	rows, cols := table.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 2, cols)
}

func TestImportCSV(t *testing.T) {
	store := setupTestStore(t)

	path := filepath.Join(t.TempDir(), "panel.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	n, err := store.ImportCSV(path)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	fromCSV, err := dataset.ReadObservationsFile(path)
	require.NoError(t, err)
	sort.Slice(fromCSV, func(i, j int) bool {
		if !fromCSV[i].Date.Equal(fromCSV[j].Date) {
			return fromCSV[i].Date.Before(fromCSV[j].Date)
		}
		return fromCSV[i].City < fromCSV[j].City
	})

	stored, err := store.LoadObservations()
	require.NoError(t, err)
	require.Len(t, stored, len(fromCSV))

	for i := range fromCSV {
		assert.Equal(t, fromCSV[i].Region, stored[i].Region)
		assert.Equal(t, fromCSV[i].Country, stored[i].Country)
		assert.Equal(t, fromCSV[i].City, stored[i].City)
		assert.True(t, fromCSV[i].Date.Equal(stored[i].Date), "date mismatch at row %d", i)
		if math.IsNaN(fromCSV[i].AvgTemp) {
			assert.True(t, math.IsNaN(stored[i].AvgTemp))
		} else {
			assert.Equal(t, fromCSV[i].AvgTemp, stored[i].AvgTemp)
		}
	}
}
