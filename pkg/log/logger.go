// Package log provides structured logging for tsgo, backed by zerolog.
//
// Estimators obtain a named Logger via GetLoggerWithName and attach model
// context once with With; call sites then log flat key-value pairs. The
// raw zerolog logger remains reachable through GetLogger for code that
// wants the full chaining API.
package log

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Structured logging keys shared across packages.
const (
	ModelNameKey  = "model"
	ComponentKey  = "component"
	OperationKey  = "operation"
	PhaseKey      = "phase"
	SamplesKey    = "samples"
	FeaturesKey   = "features"
	DurationMsKey = "duration_ms"
	PredsKey      = "predictions"
	OrderKey      = "order"
	ScoreKey      = "score"
)

// Canonical values for OperationKey and PhaseKey.
const (
	OperationFit     = "fit"
	OperationPredict = "predict"
	OperationUpdate  = "update"
	OperationSearch  = "search"

	PhaseTraining  = "training"
	PhaseInference = "inference"
	PhaseSearch    = "search"
)

// Logger is the leveled key-value logging interface used by estimators.
// keysAndValues are alternating keys and values; odd trailing entries are
// ignored.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	With(keysAndValues ...interface{}) Logger
}

// LoggerProvider creates named loggers. It exists so orchestration code can
// swap the logging backend in one place.
type LoggerProvider interface {
	GetLoggerWithName(name string) Logger
}

var (
	mu     sync.RWMutex
	global = newConsoleLogger()
)

func newConsoleLogger() zerolog.Logger {
	w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(w).With().Timestamp().Logger()
}

// SetupLogger configures the global logger with the given level
// ("debug", "info", "warn", "error", ...). Unknown levels fall back to info.
func SetupLogger(level string) {
	lvl := ToLogLevel(level)
	zerolog.SetGlobalLevel(lvl)
	mu.Lock()
	global = newConsoleLogger().Level(lvl)
	mu.Unlock()
}

// GetLogger returns the global zerolog logger for code that wants the
// chaining API directly.
func GetLogger() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := global
	return &l
}

// GetLoggerWithName returns a named Logger derived from the global logger.
func GetLoggerWithName(name string) Logger {
	mu.RLock()
	zl := global
	mu.RUnlock()
	return &zerologAdapter{zl: zl.With().Str("logger", name).Logger()}
}

// LogError logs err at error level with the given message.
func LogError(err error, msg string) {
	GetLogger().Error().Err(err).Msg(msg)
}

// ToLogLevel parses a level string, falling back to info.
func ToLogLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// ZerologProvider is the zerolog-backed LoggerProvider.
type ZerologProvider struct {
	base zerolog.Logger
}

// NewZerologProvider creates a provider emitting at the given level.
func NewZerologProvider(level zerolog.Level) *ZerologProvider {
	return &ZerologProvider{base: newConsoleLogger().Level(level)}
}

// GetLoggerWithName returns a named Logger from this provider.
func (p *ZerologProvider) GetLoggerWithName(name string) Logger {
	return &zerologAdapter{zl: p.base.With().Str("logger", name).Logger()}
}

type zerologAdapter struct {
	zl zerolog.Logger
}

func (l *zerologAdapter) Debug(msg string, keysAndValues ...interface{}) {
	emit(l.zl.Debug(), msg, keysAndValues)
}

func (l *zerologAdapter) Info(msg string, keysAndValues ...interface{}) {
	emit(l.zl.Info(), msg, keysAndValues)
}

func (l *zerologAdapter) Warn(msg string, keysAndValues ...interface{}) {
	emit(l.zl.Warn(), msg, keysAndValues)
}

func (l *zerologAdapter) Error(msg string, keysAndValues ...interface{}) {
	emit(l.zl.Error(), msg, keysAndValues)
}

func (l *zerologAdapter) With(keysAndValues ...interface{}) Logger {
	ctx := l.zl.With()
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		ctx = ctx.Interface(keyAt(keysAndValues, i), keysAndValues[i+1])
	}
	return &zerologAdapter{zl: ctx.Logger()}
}

func emit(ev *zerolog.Event, msg string, keysAndValues []interface{}) {
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		ev = ev.Interface(keyAt(keysAndValues, i), keysAndValues[i+1])
	}
	ev.Msg(msg)
}

func keyAt(keysAndValues []interface{}, i int) string {
	if k, ok := keysAndValues[i].(string); ok {
		return k
	}
	return fmt.Sprint(keysAndValues[i])
}
