package dataset

import (
	"database/sql"
	"math"
	"time"

	tsgoErrors "github.com/ezoic/tsgo/pkg/errors"
	"github.com/ezoic/tsgo/pkg/log"
)

const dateLayout = "2006-01-02"

// Store persists the temperature panel in SQLite so repeated runs skip
// re-parsing the CSV export. Missing temperatures are stored as NULL.
type Store struct {
	db     *sql.DB
	logger log.Logger
}

// NewStore wraps an open database handle. Call Migrate before first use.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:     db,
		logger: log.GetLoggerWithName("dataset").With(log.ComponentKey, "store"),
	}
}

// OpenStore opens (or creates) a SQLite database at path and prepares
// it for use. The caller owns the returned store and should Close it.
//
// Example:
//
//	store, err := dataset.OpenStore("data/temperature.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, tsgoErrors.Wrapf(err, "open database %s", path)
	}

	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	s := NewStore(db)
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "Observations table",
		SQL: `
CREATE TABLE IF NOT EXISTS observations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    region TEXT NOT NULL,
    country TEXT NOT NULL,
    city TEXT NOT NULL,
    date DATE NOT NULL,
    avg_temp REAL,
    UNIQUE(region, country, city, date)
);

CREATE INDEX IF NOT EXISTS idx_obs_city_date ON observations(city, date);
CREATE INDEX IF NOT EXISTS idx_obs_country ON observations(country);
`,
	},
}

// Migrate applies any schema migrations not yet recorded in the database.
func (s *Store) Migrate() error {
	if err := s.ensureMigrationsTable(); err != nil {
		return tsgoErrors.Wrap(err, "ensure migrations table")
	}

	applied, err := s.getAppliedMigrations()
	if err != nil {
		return tsgoErrors.Wrap(err, "get applied migrations")
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}

		s.logger.Info("Applying migration", "version", m.Version, "description", m.Description)

		tx, err := s.db.Begin()
		if err != nil {
			return tsgoErrors.Wrapf(err, "begin tx for migration %d", m.Version)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return tsgoErrors.Wrapf(err, "execute migration %d", m.Version)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)",
			m.Version, m.Description, time.Now().UTC(),
		); err != nil {
			tx.Rollback()
			return tsgoErrors.Wrapf(err, "record migration %d", m.Version)
		}

		if err := tx.Commit(); err != nil {
			return tsgoErrors.Wrapf(err, "commit migration %d", m.Version)
		}
	}

	return nil
}

func (s *Store) ensureMigrationsTable() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT,
			applied_at DATETIME
		)
	`)
	return err
}

func (s *Store) getAppliedMigrations() (map[int]bool, error) {
	rows, err := s.db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

// InsertObservations writes records in a single transaction. Records
// that collide with an existing (region, country, city, date) row are
// skipped.
func (s *Store) InsertObservations(obs []Observation) error {
	tx, err := s.db.Begin()
	if err != nil {
		return tsgoErrors.Wrap(err, "begin tx")
	}

	stmt, err := tx.Prepare(`
		INSERT INTO observations (region, country, city, date, avg_temp)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(region, country, city, date) DO NOTHING
	`)
	if err != nil {
		tx.Rollback()
		return tsgoErrors.Wrap(err, "prepare insert")
	}
	defer stmt.Close()

	for _, o := range obs {
		var temp sql.NullFloat64
		if !math.IsNaN(o.AvgTemp) {
			temp = sql.NullFloat64{Float64: o.AvgTemp, Valid: true}
		}
		if _, err := stmt.Exec(o.Region, o.Country, o.City, o.Date.Format(dateLayout), temp); err != nil {
			tx.Rollback()
			return tsgoErrors.Wrapf(err, "insert observation %s %s", o.City, o.Date.Format(dateLayout))
		}
	}

	if err := tx.Commit(); err != nil {
		return tsgoErrors.Wrap(err, "commit tx")
	}

	s.logger.Info("Observations inserted", log.SamplesKey, len(obs))
	return nil
}

// LoadObservations reads the whole panel ordered by date, then city.
func (s *Store) LoadObservations() ([]Observation, error) {
	return s.queryObservations(`
		SELECT region, country, city, date, avg_temp
		FROM observations
		ORDER BY date ASC, city ASC
	`)
}

// LoadCountry reads one country's panel ordered by date, then city.
func (s *Store) LoadCountry(country string) ([]Observation, error) {
	return s.queryObservations(`
		SELECT region, country, city, date, avg_temp
		FROM observations
		WHERE country = ?
		ORDER BY date ASC, city ASC
	`, country)
}

func (s *Store) queryObservations(query string, args ...interface{}) ([]Observation, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, tsgoErrors.Wrap(err, "query observations")
	}
	defer rows.Close()

	var obs []Observation
	for rows.Next() {
		var (
			o       Observation
			dateStr string
			temp    sql.NullFloat64
		)
		if err := rows.Scan(&o.Region, &o.Country, &o.City, &dateStr, &temp); err != nil {
			return nil, tsgoErrors.Wrap(err, "scan observation")
		}
		o.Date, err = time.Parse(dateLayout, dateStr)
		if err != nil {
			return nil, tsgoErrors.Wrapf(err, "parse date %q", dateStr)
		}
		if temp.Valid {
			o.AvgTemp = temp.Float64
		} else {
			o.AvgTemp = math.NaN()
		}
		obs = append(obs, o)
	}
	return obs, rows.Err()
}

// Cities returns the distinct city names in the store, sorted.
func (s *Store) Cities() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT city FROM observations ORDER BY city ASC`)
	if err != nil {
		return nil, tsgoErrors.Wrap(err, "query cities")
	}
	defer rows.Close()

	var cities []string
	for rows.Next() {
		var city string
		if err := rows.Scan(&city); err != nil {
			return nil, tsgoErrors.Wrap(err, "scan city")
		}
		cities = append(cities, city)
	}
	return cities, rows.Err()
}

// Count returns the number of stored observations.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM observations`).Scan(&n)
	if err != nil {
		return 0, tsgoErrors.Wrap(err, "count observations")
	}
	return n, nil
}

// ImportCSV loads a CSV export into the store and reports how many
// records were parsed.
func (s *Store) ImportCSV(path string) (int, error) {
	obs, err := ReadObservationsFile(path)
	if err != nil {
		return 0, err
	}
	if err := s.InsertObservations(obs); err != nil {
		return 0, err
	}
	return len(obs), nil
}
