package forecast

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/tsgo/core/parallel"
	"github.com/ezoic/tsgo/metrics"
	tsgoErrors "github.com/ezoic/tsgo/pkg/errors"
	"github.com/ezoic/tsgo/pkg/log"
	"github.com/ezoic/tsgo/stats"
)

// DAuto selects the differencing order by stationarity testing.
const DAuto = -1

// Stationarity tests for the automatic differencing decision.
const (
	TestADF  = "adf"
	TestKPSS = "kpss"
	TestPP   = "pp"
)

// Ranking criteria for candidate orders.
const (
	CriterionAIC  = "aic"
	CriterionAICc = "aicc"
	CriterionBIC  = "bic"
)

// ScoringMAE ranks candidates by in-sample mean absolute residual
// instead of an information criterion.
const ScoringMAE = "mae"

// Failing-candidate policies.
const (
	ErrorActionIgnore = "ignore"
	ErrorActionWarn   = "warn"
	ErrorActionRaise  = "raise"
)

// Config controls the automated order search.
type Config struct {
	// Test picks the unit-root test deciding d when D is DAuto:
	// "adf", "kpss" or "pp".
	Test string `mapstructure:"test"`
	// Trend is TrendConstant or TrendNone. Linear-in-time trends are
	// not part of the search.
	Trend string `mapstructure:"trend"`

	// Seasonal enables seasonal terms. Only the degenerate M == 1
	// case is accepted.
	Seasonal     bool `mapstructure:"seasonal"`
	M            int  `mapstructure:"m"`
	MaxSeasonalP int  `mapstructure:"max_seasonal_p"`
	MaxSeasonalQ int  `mapstructure:"max_seasonal_q"`
	SeasonalD    int  `mapstructure:"seasonal_d"`

	// D fixes the differencing order; DAuto lets Test decide, capped
	// at MaxD.
	D    int `mapstructure:"d"`
	MaxD int `mapstructure:"max_d"`
	MaxP int `mapstructure:"max_p"`
	MaxQ int `mapstructure:"max_q"`

	// Scoring is "" (rank by Criterion) or "mae".
	Scoring   string `mapstructure:"scoring"`
	Criterion string `mapstructure:"criterion"`

	// ErrorAction handles candidates that fail to fit: "ignore",
	// "warn" or "raise".
	ErrorAction string `mapstructure:"error_action"`

	// NJobs > 1 parallelizes the exhaustive grid and excludes
	// Stepwise.
	NJobs    int  `mapstructure:"n_jobs"`
	Stepwise bool `mapstructure:"stepwise"`

	// Trace logs every candidate with its score at info level.
	Trace bool `mapstructure:"trace"`
	// SuppressWarnings demotes search warnings to debug.
	SuppressWarnings bool `mapstructure:"suppress_warnings"`
}

// DefaultConfig mirrors the customary auto-ARIMA settings.
func DefaultConfig() *Config {
	return &Config{
		Test:         TestADF,
		Trend:        TrendConstant,
		Seasonal:     false,
		M:            1,
		MaxSeasonalP: 3,
		MaxSeasonalQ: 2,
		SeasonalD:    0,
		D:            DAuto,
		MaxD:         2,
		MaxP:         6,
		MaxQ:         4,
		Criterion:    CriterionAIC,
		ErrorAction:  ErrorActionIgnore,
		NJobs:        1,
		Stepwise:     true,
	}
}

// Validate checks every field combination the search relies on.
func (c *Config) Validate() error {
	switch c.Test {
	case TestADF, TestKPSS, TestPP:
	default:
		return tsgoErrors.NewValidationError("test", "must be \"adf\", \"kpss\" or \"pp\"", c.Test)
	}
	switch c.Trend {
	case TrendConstant, TrendNone:
	case "t", "ct":
		return tsgoErrors.NewValidationError("trend", "linear-in-time trend is not part of the search", c.Trend)
	default:
		return tsgoErrors.NewValidationError("trend", "must be \"c\" or \"n\"", c.Trend)
	}
	if c.M < 1 {
		return tsgoErrors.NewValidationError("m", "must be at least 1", c.M)
	}
	if c.Seasonal && c.M > 1 {
		return tsgoErrors.NewModelError("Config.Validate", "seasonal models are not implemented", tsgoErrors.ErrNotImplemented)
	}
	if c.MaxSeasonalP < 0 || c.MaxSeasonalQ < 0 || c.SeasonalD < 0 {
		return tsgoErrors.NewValidationError("seasonal bounds", "must be non-negative",
			fmt.Sprintf("max_seasonal_p=%d max_seasonal_q=%d seasonal_d=%d", c.MaxSeasonalP, c.MaxSeasonalQ, c.SeasonalD))
	}
	if c.D < DAuto {
		return tsgoErrors.NewValidationError("d", "must be DAuto or non-negative", c.D)
	}
	if c.MaxD < 0 {
		return tsgoErrors.NewValidationError("max_d", "must be non-negative", c.MaxD)
	}
	if c.MaxP < 0 || c.MaxQ < 0 {
		return tsgoErrors.NewValidationError("max_p/max_q", "must be non-negative",
			fmt.Sprintf("max_p=%d max_q=%d", c.MaxP, c.MaxQ))
	}
	if c.Scoring != "" && c.Scoring != ScoringMAE {
		return tsgoErrors.NewValidationError("scoring", "must be empty or \"mae\"", c.Scoring)
	}
	switch c.Criterion {
	case CriterionAIC, CriterionAICc, CriterionBIC:
	default:
		return tsgoErrors.NewValidationError("criterion", "must be \"aic\", \"aicc\" or \"bic\"", c.Criterion)
	}
	switch c.ErrorAction {
	case ErrorActionIgnore, ErrorActionWarn, ErrorActionRaise:
	default:
		return tsgoErrors.NewValidationError("error_action", "must be \"ignore\", \"warn\" or \"raise\"", c.ErrorAction)
	}
	if c.NJobs < 1 {
		return tsgoErrors.NewValidationError("n_jobs", "must be at least 1", c.NJobs)
	}
	if c.NJobs > 1 && c.Stepwise {
		return tsgoErrors.NewValidationError("n_jobs", "parallel search requires stepwise=false", c.NJobs)
	}
	return nil
}

// Candidate records one attempted order.
type Candidate struct {
	Order Order
	Score float64
	Err   error
}

// SearchResult is the outcome of AutoFit.
type SearchResult struct {
	// Model is the winning fitted model.
	Model *Model
	// Order is the winning order; Order.D repeats D.
	Order Order
	// D is the differencing order the search settled on.
	D int
	// Score is the winning model's ranking value (criterion or MAE).
	Score float64
	// Candidates lists every attempted order in evaluation sequence.
	Candidates []Candidate
	// ConstantSeries reports the degenerate short-circuit path.
	ConstantSeries bool
}

// AutoFit searches ARIMA orders for y and returns the best fitted
// model.
//
// The differencing order comes from cfg.D, or from repeated
// stationarity testing when cfg.D is DAuto. The (p,q) plane is then
// explored either stepwise, starting from {(0,0), (1,0), (0,1), (1,1),
// (2,2)} with ±1 refinement, or exhaustively over
// [0,MaxP]×[0,MaxQ], optionally across NJobs workers. Candidates rank
// by cfg.Criterion, or by in-sample mean absolute residual when
// cfg.Scoring is "mae"; lower is better in every mode.
//
// A constant input short-circuits to ARIMA(0,0,0) with a warning.
// Candidates that fail to fit follow cfg.ErrorAction; the search fails
// only when every candidate fails. A nil cfg means DefaultConfig().
//
// Example:
//
//	res, err := forecast.AutoFit(series, nil, nil)
//	if err != nil {
//		return err
//	}
//	fmt.Println(res.Order, res.Score)
func AutoFit(y []float64, exog *mat.Dense, cfg *Config) (*SearchResult, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(y) == 0 {
		return nil, tsgoErrors.NewModelError("AutoFit", "empty series", tsgoErrors.ErrEmptyData)
	}
	if err := validateSeries("AutoFit", y, exog); err != nil {
		return nil, err
	}

	logger := log.GetLoggerWithName("forecast").With(
		log.ComponentKey, "auto",
		log.OperationKey, log.OperationSearch,
	)
	started := time.Now()
	logger.Info("order search started",
		log.SamplesKey, len(y),
		"stepwise", cfg.Stepwise,
		"max_p", cfg.MaxP,
		"max_q", cfg.MaxQ,
	)

	s := &searchState{
		cfg:       cfg,
		y:         y,
		exog:      exog,
		logger:    logger,
		visited:   make(map[Order]bool),
		bestScore: math.Inf(1),
	}

	if !hasVariance(y) {
		s.warn("input series is constant, fitting ARIMA(0,0,0)")
		s.d = 0
		s.tryOrder(0, 0)
		if s.bestModel == nil {
			return nil, tsgoErrors.NewModelError("AutoFit", "constant-series fallback failed", s.lastErr)
		}
		return s.result(true), nil
	}

	s.d = cfg.D
	if s.d == DAuto {
		s.d = nDiffs(y, cfg.Test, cfg.MaxD)
		logger.Debug("differencing order selected", "d", s.d, "test", cfg.Test)
	}

	if cfg.Stepwise {
		s.stepwise()
	} else {
		s.exhaustive()
	}
	if s.raised != nil {
		return nil, tsgoErrors.Wrap(s.raised, "AutoFit: candidate failed")
	}
	if s.bestModel == nil {
		return nil, tsgoErrors.NewModelError("AutoFit", "no candidate order could be fitted", s.lastErr)
	}

	logger.Info("order search completed",
		log.OrderKey, s.bestOrder.String(),
		log.ScoreKey, s.bestScore,
		"candidates", len(s.candidates),
		log.DurationMsKey, time.Since(started).Milliseconds(),
	)
	return s.result(false), nil
}

// nDiffs differences until the configured test stops rejecting
// stationarity, capped at maxD. Test failures end the loop at the
// current order.
func nDiffs(y []float64, test string, maxD int) int {
	d := 0
	series := y
	for d < maxD {
		stationary, err := isStationary(series, test)
		if err != nil || stationary {
			break
		}
		series = difference(series, 1)
		d++
	}
	return d
}

func isStationary(series []float64, test string) (bool, error) {
	switch test {
	case TestKPSS:
		res, err := stats.KPSSTest(series, "c", 0)
		if err != nil {
			return false, err
		}
		return res.Stationary, nil
	case TestPP:
		res, err := stats.PhillipsPerronTest(series, 0)
		if err != nil {
			return false, err
		}
		return res.Stationary, nil
	default:
		res, err := stats.ADFTest(series, 0)
		if err != nil {
			return false, err
		}
		return res.Stationary, nil
	}
}

type searchState struct {
	cfg    *Config
	y      []float64
	exog   *mat.Dense
	d      int
	logger log.Logger

	visited    map[Order]bool
	candidates []Candidate
	bestModel  *Model
	bestOrder  Order
	bestScore  float64
	lastErr    error
	raised     error
}

func (s *searchState) warn(msg string, kv ...interface{}) {
	if s.cfg.SuppressWarnings {
		s.logger.Debug(msg, kv...)
	} else {
		s.logger.Warn(msg, kv...)
	}
}

func (s *searchState) trace(msg string, kv ...interface{}) {
	if s.cfg.Trace {
		s.logger.Info(msg, kv...)
	} else {
		s.logger.Debug(msg, kv...)
	}
}

// tryOrder evaluates one (p,q) cell and reports whether it took the
// lead. Out-of-bounds and repeated cells are skipped.
func (s *searchState) tryOrder(p, q int) bool {
	if p < 0 || q < 0 || p > s.cfg.MaxP || q > s.cfg.MaxQ {
		return false
	}
	o := Order{P: p, D: s.d, Q: q}
	if s.visited[o] {
		return false
	}
	s.visited[o] = true

	cand, model := fitCandidate(s.y, s.exog, o, s.cfg)
	s.candidates = append(s.candidates, cand)
	return s.absorb(cand, model)
}

// absorb folds one evaluated candidate into the running best.
func (s *searchState) absorb(cand Candidate, model *Model) bool {
	if cand.Err != nil {
		s.lastErr = cand.Err
		switch s.cfg.ErrorAction {
		case ErrorActionRaise:
			if s.raised == nil {
				s.raised = cand.Err
			}
		case ErrorActionWarn:
			s.warn("candidate order failed to fit", log.OrderKey, cand.Order.String(), "error", cand.Err.Error())
		default:
			s.logger.Debug("candidate order failed to fit", log.OrderKey, cand.Order.String(), "error", cand.Err.Error())
		}
		return false
	}
	s.trace("candidate evaluated", log.OrderKey, cand.Order.String(), log.ScoreKey, cand.Score)
	if cand.Score < s.bestScore {
		s.bestModel = model
		s.bestOrder = cand.Order
		s.bestScore = cand.Score
		return true
	}
	return false
}

func (s *searchState) stepwise() {
	starts := [][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}, {2, 2}}
	for _, st := range starts {
		p, q := st[0], st[1]
		if p > s.cfg.MaxP {
			p = s.cfg.MaxP
		}
		if q > s.cfg.MaxQ {
			q = s.cfg.MaxQ
		}
		s.tryOrder(p, q)
		if s.raised != nil {
			return
		}
	}

	neighbors := [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, 1}, {-1, -1}, {1, -1}, {-1, 1}}
	improved := true
	for improved && s.raised == nil && s.bestModel != nil {
		improved = false
		p, q := s.bestOrder.P, s.bestOrder.Q
		for _, n := range neighbors {
			if s.tryOrder(p+n[0], q+n[1]) {
				improved = true
			}
			if s.raised != nil {
				return
			}
		}
	}
}

func (s *searchState) exhaustive() {
	var grid []Order
	for p := 0; p <= s.cfg.MaxP; p++ {
		for q := 0; q <= s.cfg.MaxQ; q++ {
			grid = append(grid, Order{P: p, D: s.d, Q: q})
		}
	}

	type outcome struct {
		cand  Candidate
		model *Model
	}
	results := make([]outcome, len(grid))
	parallel.ParallelizeWithWorkers(len(grid), s.cfg.NJobs, func(start, end int) {
		for i := start; i < end; i++ {
			results[i].cand, results[i].model = fitCandidate(s.y, s.exog, grid[i], s.cfg)
		}
	})

	for _, r := range results {
		s.candidates = append(s.candidates, r.cand)
		s.absorb(r.cand, r.model)
		if s.raised != nil {
			return
		}
	}
}

func (s *searchState) result(constant bool) *SearchResult {
	return &SearchResult{
		Model:          s.bestModel,
		Order:          s.bestOrder,
		D:              s.d,
		Score:          s.bestScore,
		Candidates:     s.candidates,
		ConstantSeries: constant,
	}
}

func fitCandidate(y []float64, exog *mat.Dense, o Order, cfg *Config) (Candidate, *Model) {
	m := NewModel(o, WithTrend(cfg.Trend))
	if err := m.Fit(y, exog); err != nil {
		return Candidate{Order: o, Score: math.Inf(1), Err: err}, nil
	}
	score := candidateScore(m, cfg)
	if math.IsNaN(score) {
		score = math.Inf(1)
	}
	return Candidate{Order: o, Score: score}, m
}

func candidateScore(m *Model, cfg *Config) float64 {
	if cfg.Scoring == ScoringMAE {
		resid, err := m.Resid()
		if err != nil {
			return math.Inf(1)
		}
		mae, err := metrics.MeanAbsolute(resid[m.order.P:])
		if err != nil {
			return math.Inf(1)
		}
		return mae
	}
	switch cfg.Criterion {
	case CriterionAICc:
		return m.AICc()
	case CriterionBIC:
		return m.BIC()
	default:
		return m.AIC()
	}
}
