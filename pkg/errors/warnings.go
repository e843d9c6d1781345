package errors

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// ConvergenceWarning signals that an iterative optimizer stopped at its
// iteration budget rather than at a converged solution. It is an error
// value so it can travel through error chains, but fits are still usable
// when it is raised.
type ConvergenceWarning struct {
	Model      string
	Iterations int
	Message    string
}

// NewConvergenceWarning creates a ConvergenceWarning for the given model.
func NewConvergenceWarning(model string, iterations int, message string) *ConvergenceWarning {
	return &ConvergenceWarning{Model: model, Iterations: iterations, Message: message}
}

func (w *ConvergenceWarning) Error() string {
	return fmt.Sprintf("tsgo: %s: %s after %d iterations", w.Model, w.Message, w.Iterations)
}

var warnLogger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

// Warn emits a non-fatal warning to stderr. Fit methods call this for
// conditions that degrade but do not invalidate a result.
func Warn(w error) {
	if w == nil {
		return
	}
	warnLogger.Warn().Msg(w.Error())
}
