// Command tempbench runs the city temperature forecasting benchmark:
// auto-tuned ARIMA with and without lagged neighbour-city temperatures,
// scored by mean absolute error on a chronological holdout.
package main

import (
	"flag"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"github.com/ezoic/tsgo/dataset"
	"github.com/ezoic/tsgo/pipeline"
	"github.com/ezoic/tsgo/pkg/log"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a tempbench.yaml (optional)")
		csvPath    = flag.String("csv", "", "CSV export to read observations from")
		dbPath     = flag.String("db", "", "SQLite database to read observations from")
		city       = flag.String("city", "", "target city")
		neighbors  = flag.Int("neighbors", 0, "number of correlated neighbour cities")
		testSize   = flag.Float64("test-size", 0, "held-out fraction, strictly between 0 and 1")
		logLevel   = flag.String("log-level", "", "debug, info, warn or error")
		doImport   = flag.Bool("import", false, "import -csv into -db and exit")
	)
	flag.Parse()

	cfg, err := pipeline.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tempbench: %v\n", err)
		os.Exit(1)
	}

	// Flags override file and environment settings.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "csv":
			cfg.Data.CSV = *csvPath
		case "db":
			cfg.Data.SQLite = *dbPath
		case "city":
			cfg.Bench.City = *city
		case "neighbors":
			cfg.Bench.Neighbors = *neighbors
		case "test-size":
			cfg.Bench.TestSize = *testSize
		case "log-level":
			cfg.Logging.Level = *logLevel
		}
	})

	log.SetupLogger(cfg.Logging.Level)

	if *doImport {
		if cfg.Data.CSV == "" || cfg.Data.SQLite == "" {
			fmt.Fprintln(os.Stderr, "tempbench: -import needs both -csv and -db")
			os.Exit(1)
		}
		if err := importCSV(cfg.Data.CSV, cfg.Data.SQLite); err != nil {
			log.LogError(err, "import failed")
			os.Exit(1)
		}
		return
	}

	if _, err := pipeline.New(cfg, os.Stdout).Run(); err != nil {
		log.LogError(err, "benchmark failed")
		os.Exit(1)
	}
}

func importCSV(csvPath, dbPath string) error {
	store, err := dataset.OpenStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.ImportCSV(csvPath)
	if err != nil {
		return err
	}
	fmt.Printf("imported %d observations into %s\n", n, dbPath)
	return nil
}
