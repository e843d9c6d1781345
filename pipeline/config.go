package pipeline

import (
	"github.com/spf13/viper"

	"github.com/ezoic/tsgo/forecast"
	tsgoErrors "github.com/ezoic/tsgo/pkg/errors"
)

// Config drives one benchmark run.
type Config struct {
	Data     DataConfig      `mapstructure:"data"`
	Bench    BenchConfig     `mapstructure:"benchmark"`
	Forecast forecast.Config `mapstructure:"forecast"`
	Logging  LoggingConfig   `mapstructure:"logging"`
}

// DataConfig selects the observation source. Run requires one of CSV or
// SQLite; when both are set the database wins.
type DataConfig struct {
	// CSV is the path of a city temperature export.
	CSV string `mapstructure:"csv"`
	// SQLite is the path of an observation database.
	SQLite string `mapstructure:"sqlite"`
	// Country restricts the panel before pivoting; empty keeps all.
	Country string `mapstructure:"country"`
}

// BenchConfig holds the benchmark parameters.
type BenchConfig struct {
	// City is the forecast target.
	City string `mapstructure:"city"`
	// Neighbors is how many correlated cities feed the exogenous model.
	Neighbors int `mapstructure:"neighbors"`
	// Lag shifts the predictor columns, in time steps.
	Lag int `mapstructure:"lag"`
	// TestSize is the held-out fraction, strictly between 0 and 1.
	TestSize float64 `mapstructure:"test_size"`
	// StepsPerYear scales the trend slope to a per-decade figure.
	StepsPerYear float64 `mapstructure:"steps_per_year"`
}

// LoggingConfig configures pkg/log.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// LoadConfig reads configuration from an explicit file, or from a
// tempbench.yaml found on the search path, with TSGO_ environment
// overrides. A missing file on the search path is fine; every value then
// comes from the defaults.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("tempbench")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/tempbench")
	}

	setDefaults(v)

	v.SetEnvPrefix("TSGO")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return parseConfig(v)
		}
		return nil, tsgoErrors.Wrap(err, "read config")
	}
	return parseConfig(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data.csv", "")
	v.SetDefault("data.sqlite", "")
	v.SetDefault("data.country", "")

	v.SetDefault("benchmark.city", "Amsterdam")
	v.SetDefault("benchmark.neighbors", 30)
	v.SetDefault("benchmark.lag", 1)
	v.SetDefault("benchmark.test_size", 0.2)
	v.SetDefault("benchmark.steps_per_year", 365)

	v.SetDefault("forecast.test", forecast.TestADF)
	v.SetDefault("forecast.trend", forecast.TrendConstant)
	v.SetDefault("forecast.seasonal", false)
	v.SetDefault("forecast.m", 1)
	v.SetDefault("forecast.max_seasonal_p", 3)
	v.SetDefault("forecast.max_seasonal_q", 2)
	v.SetDefault("forecast.seasonal_d", 0)
	v.SetDefault("forecast.d", 0)
	v.SetDefault("forecast.max_d", 2)
	v.SetDefault("forecast.max_p", 6)
	v.SetDefault("forecast.max_q", 4)
	v.SetDefault("forecast.scoring", forecast.ScoringMAE)
	v.SetDefault("forecast.criterion", forecast.CriterionAIC)
	v.SetDefault("forecast.error_action", forecast.ErrorActionIgnore)
	v.SetDefault("forecast.n_jobs", 1)
	v.SetDefault("forecast.stepwise", true)
	v.SetDefault("forecast.trace", true)
	v.SetDefault("forecast.suppress_warnings", true)

	v.SetDefault("logging.level", "info")
}

func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, tsgoErrors.Wrap(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultConfig returns the stock benchmark settings: Amsterdam against
// its 30 most correlated neighbours, lag one day, 20% held out, and the
// customary auto-ARIMA search options.
func DefaultConfig() *Config {
	return &Config{
		Bench: BenchConfig{
			City:         "Amsterdam",
			Neighbors:    30,
			Lag:          1,
			TestSize:     0.2,
			StepsPerYear: 365,
		},
		Forecast: forecast.Config{
			Test:             forecast.TestADF,
			Trend:            forecast.TrendConstant,
			Seasonal:         false,
			M:                1,
			MaxSeasonalP:     3,
			MaxSeasonalQ:     2,
			SeasonalD:        0,
			D:                0,
			MaxD:             2,
			MaxP:             6,
			MaxQ:             4,
			Scoring:          forecast.ScoringMAE,
			Criterion:        forecast.CriterionAIC,
			ErrorAction:      forecast.ErrorActionIgnore,
			NJobs:            1,
			Stepwise:         true,
			Trace:            true,
			SuppressWarnings: true,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Validate checks the benchmark parameters and the embedded forecast
// configuration.
func (c *Config) Validate() error {
	if c.Bench.City == "" {
		return tsgoErrors.NewValidationError("benchmark.city", "must name the target city", c.Bench.City)
	}
	if c.Bench.Neighbors < 1 {
		return tsgoErrors.NewValidationError("benchmark.neighbors", "must be at least 1", c.Bench.Neighbors)
	}
	if c.Bench.Lag < 1 {
		return tsgoErrors.NewValidationError("benchmark.lag", "must be at least 1", c.Bench.Lag)
	}
	if c.Bench.TestSize <= 0 || c.Bench.TestSize >= 1 {
		return tsgoErrors.NewValidationError("benchmark.test_size", "must lie strictly between 0 and 1", c.Bench.TestSize)
	}
	if c.Bench.StepsPerYear <= 0 {
		return tsgoErrors.NewValidationError("benchmark.steps_per_year", "must be positive", c.Bench.StepsPerYear)
	}
	return c.Forecast.Validate()
}
