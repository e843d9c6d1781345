package errors_test

import (
	"errors"
	"fmt"

	tsgoErrors "github.com/ezoic/tsgo/pkg/errors"
)

// Example demonstrates Go 1.13+ error wrapping
func Example() {
	// Create a base error
	baseErr := fmt.Errorf("invalid input value")

	// Wrap the error with context using Go 1.13+ syntax
	wrappedErr := fmt.Errorf("series validation failed: %w", baseErr)

	// Further wrap with operation context
	opErr := fmt.Errorf("ARIMA.Fit: %w", wrappedErr)

	// Use errors.Is to check for specific error types
	if errors.Is(opErr, baseErr) {
		fmt.Println("Found base error in chain")
	}

	// Unwrap errors to get the underlying cause
	unwrapped := errors.Unwrap(opErr)
	fmt.Printf("Unwrapped: %v\n", unwrapped)

	// Output: Found base error in chain
	// Unwrapped: series validation failed: invalid input value
}

// Example_customErrorTypes demonstrates custom error type handling
func Example_customErrorTypes() {
	// Create a custom error using our error constructors
	dimErr := tsgoErrors.NewDimensionError("LagFeatures", 5, 3, 1)

	// Wrap it with additional context
	wrappedErr := fmt.Errorf("feature building failed: %w", dimErr)

	// Check if error is of specific type using errors.As
	var dimensionErr *tsgoErrors.DimensionError
	if errors.As(wrappedErr, &dimensionErr) {
		fmt.Printf("Dimension error: expected %d, got %d\n",
			dimensionErr.Expected, dimensionErr.Got)
	}

	// Output: Dimension error: expected 5, got 3
}

// Example_errorComparison demonstrates error comparison patterns
func Example_errorComparison() {
	// Create different types of errors
	notFittedErr := tsgoErrors.NewNotFittedError("ARIMA", "Predict")
	valueErr := tsgoErrors.NewValueError("TopCorrelated", "k must be positive")

	// Create a sentinel error for comparison
	customErr := errors.New("custom processing error")
	wrappedCustom := fmt.Errorf("operation failed: %w", customErr)

	// Use errors.Is for sentinel error checking
	if errors.Is(wrappedCustom, customErr) {
		fmt.Println("Custom error detected")
	}

	// Use errors.As for type assertions
	var notFitted *tsgoErrors.NotFittedError
	if errors.As(notFittedErr, &notFitted) {
		fmt.Printf("Model %s is not fitted for %s\n",
			notFitted.ModelName, notFitted.Method)
	}

	var valErr *tsgoErrors.ValueError
	if errors.As(valueErr, &valErr) {
		fmt.Printf("Value error in %s: %s\n", valErr.Op, valErr.Message)
	}

	// Output: Custom error detected
	// Model ARIMA is not fitted for Predict
	// Value error in TopCorrelated: k must be positive
}

// Example_errorChaining demonstrates practical error chaining in pipeline operations
func Example_errorChaining() {
	// Simulate a forecasting pipeline error
	simulatePipelineError := func() error {
		// Simulate data validation error
		dataErr := fmt.Errorf("invalid data format")

		// Wrap with preprocessing context
		prepErr := fmt.Errorf("feature building failed: %w", dataErr)

		// Wrap with model fitting context
		fitErr := fmt.Errorf("model fitting failed: %w", prepErr)

		return fitErr
	}

	err := simulatePipelineError()

	// Print the full error chain
	fmt.Printf("Error: %v\n", err)

	// Walk through the error chain
	current := err
	level := 0
	for current != nil {
		fmt.Printf("Level %d: %v\n", level, current)
		current = errors.Unwrap(current)
		level++
	}

	// Output: Error: model fitting failed: feature building failed: invalid data format
	// Level 0: model fitting failed: feature building failed: invalid data format
	// Level 1: feature building failed: invalid data format
	// Level 2: invalid data format
}

// Example_errorLogging demonstrates structured error logging
func Example_errorLogging() {
	// Create a complex error with context
	baseErr := tsgoErrors.NewModelError("AutoFit", "seasonal search requested",
		tsgoErrors.ErrNotImplemented)

	// Wrap with operation context
	opErr := fmt.Errorf("candidate evaluation 5: %w", baseErr)

	// Would log different levels of detail in production
	// slog.Error("Simple error", "error", opErr)
	// slog.Error("Detailed error", "error", fmt.Sprintf("%+v", opErr)) // Stack trace with cockroachdb/errors

	// For production, you'd use structured logging
	fmt.Printf("Error occurred during order search: %v\n", opErr)

	// Output: Error occurred during order search: candidate evaluation 5: tsgo: AutoFit: seasonal search requested: not implemented
}
