// Package model provides core abstractions shared by tsgo estimators.
//
// The central type is StateManager, which every estimator composes to track
// its lifecycle:
//
//   - Fitted state tracking to prevent usage of untrained models
//   - Training dimensions for later input validation
//   - Thread-safe state management
//
// Example usage:
//
//	type MyEstimator struct {
//		State *model.StateManager
//		// estimator-specific fields
//	}
//
//	func (m *MyEstimator) Fit(y []float64) error {
//		// estimation logic
//		m.State.SetFitted() // mark as trained
//		return nil
//	}
//
// Estimators in tsgo compose StateManager rather than embedding it, keeping
// the exported field available for encoding while avoiding method-set
// surprises.
package model

import "sync"

// EstimatorState represents the learning state of a model
type EstimatorState int

const (
	// NotFitted indicates the model is not yet trained
	NotFitted EstimatorState = iota
	// Fitted indicates the model has been trained
	Fitted
)

// StateManager tracks the fitted state and training dimensions of an
// estimator. All methods are safe for concurrent use.
type StateManager struct {
	mu        sync.RWMutex
	state     EstimatorState
	nFeatures int
	nSamples  int
}

// NewStateManager creates a StateManager in the NotFitted state.
//
// Returns:
//   - *StateManager: state tracker for a fresh, untrained estimator
//
// Example:
//
//	m := &MyEstimator{State: model.NewStateManager()}
func NewStateManager() *StateManager {
	return &StateManager{state: NotFitted}
}

// IsFitted returns whether the estimator has been fitted with training data.
//
// All estimators must be fitted before they can be used for prediction,
// extension or summary output.
//
// Returns:
//   - bool: true if the estimator is fitted, false otherwise
//
// Example:
//
//	if !m.State.IsFitted() {
//	    return errors.NewNotFittedError("ARIMA", "Predict")
//	}
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == Fitted
}

// SetFitted marks the estimator as fitted (trained).
//
// Called internally by estimator implementations after successful training.
// Should only be called by estimator implementations, not by end users.
func (s *StateManager) SetFitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Fitted
}

// Reset returns the estimator to its initial untrained state and clears the
// recorded dimensions. After reset, the estimator must be fitted again
// before use.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = NotFitted
	s.nFeatures = 0
	s.nSamples = 0
}

// SetDimensions records the training data shape for later input validation.
//
// Parameters:
//   - nFeatures: number of feature columns seen during training
//   - nSamples: number of training samples
func (s *StateManager) SetDimensions(nFeatures, nSamples int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nFeatures = nFeatures
	s.nSamples = nSamples
}

// NFeatures returns the number of feature columns recorded at fit time.
func (s *StateManager) NFeatures() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nFeatures
}

// NSamples returns the number of samples recorded at fit time.
func (s *StateManager) NSamples() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nSamples
}
