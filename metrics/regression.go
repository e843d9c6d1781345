// Package metrics provides evaluation metrics for forecasting models.
//
// This package implements standard error metrics for regression and
// time series forecasting tasks:
//
//   - MSE: Mean Squared Error for measuring prediction accuracy
//   - RMSE: Root Mean Squared Error (square root of MSE)
//   - MAE: Mean Absolute Error for robust error measurement
//   - MeanAbsolute: mean absolute value of a residual series
//   - R²: R-squared coefficient of determination
//   - MAPE: Mean Absolute Percentage Error
//   - Explained Variance Score: Proportion of variance explained by the model
//
// Paired metrics operate on gonum vectors; MeanAbsolute operates directly
// on a residual slice so that model residuals can be scored without an
// intermediate copy.
//
// Example usage:
//
//	// Compare predictions against held-out observations
//	mae := metrics.MAE(yTrue, yPred)
//	rmse := metrics.RMSE(yTrue, yPred)
//
//	// Score a residual series from a fitted model
//	score := metrics.MeanAbsolute(model.Resid())
//
// The metrics integrate with the forecast package's evaluation flow and
// with order-search scoring.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	tsgoErrors "github.com/ezoic/tsgo/pkg/errors"
)

// MSE calculates the Mean Squared Error between true and predicted values.
//
// MSE measures the average squared differences between predictions and actual
// values. Lower values indicate better model performance. MSE is sensitive to
// outliers due to the squared differences.
//
// Parameters:
//   - yTrue: True target values as a vector
//   - yPred: Predicted values as a vector
//
// Returns:
//   - float64: MSE value (non-negative)
//   - error: nil if successful, otherwise an error describing the failure
//
// Errors:
//   - ValueError: if input vectors are empty
//   - DimensionError: if yTrue and yPred have different lengths
//
// Example:
//
//	mse, err := metrics.MSE(yTrue, yPred)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("MSE: %.4f\n", mse)
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, tsgoErrors.NewValueError("MSE", "empty vector")
	}

	if yPred.Len() != n {
		return 0, tsgoErrors.NewDimensionError("MSE", n, yPred.Len(), 0)
	}

	// MSE = (1/n) * Σ(yTrue - yPred)²
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}

	return sum / float64(n), nil
}

// MSEMatrix calculates MSE for matrix inputs (column vectors).
//
// This function provides MSE computation for matrix inputs, specifically
// designed for column vectors (n×1 matrices). It converts the matrices to
// vectors and delegates to the MSE function.
//
// Parameters:
//   - yTrue: True target values as column matrix (n×1)
//   - yPred: Predicted values as column matrix (n×1)
//
// Returns:
//   - float64: MSE value (non-negative)
//   - error: nil if successful, otherwise an error describing the failure
func MSEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()

	if rTrue == 0 || cTrue == 0 {
		return 0, tsgoErrors.NewValueError("MSEMatrix", "empty matrix")
	}

	if rTrue != rPred || cTrue != cPred {
		return 0, tsgoErrors.NewDimensionError("MSEMatrix", rTrue, rPred, 0)
	}

	if cTrue != 1 {
		return 0, tsgoErrors.NewValueError("MSEMatrix", "must be a column vector (n×1 matrix)")
	}

	yTrueVec := mat.NewVecDense(rTrue, nil)
	yPredVec := mat.NewVecDense(rPred, nil)

	for i := 0; i < rTrue; i++ {
		yTrueVec.SetVec(i, yTrue.At(i, 0))
		yPredVec.SetVec(i, yPred.At(i, 0))
	}

	return MSE(yTrueVec, yPredVec)
}

// RMSE calculates the Root Mean Squared Error between true and predicted values.
//
// RMSE is the square root of MSE, providing error measurement in the same units
// as the target variable.
//
// Parameters:
//   - yTrue: True target values as a vector
//   - yPred: Predicted values as a vector
//
// Returns:
//   - float64: RMSE value (non-negative)
//   - error: nil if successful, otherwise error from MSE computation
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE calculates the Mean Absolute Error between true and predicted values.
//
// MAE measures the average absolute differences between predictions and actual
// values. MAE is more robust to outliers compared to MSE as it doesn't square
// the differences. Lower values indicate better model performance.
//
// Parameters:
//   - yTrue: True target values as a vector
//   - yPred: Predicted values as a vector
//
// Returns:
//   - float64: MAE value (non-negative)
//   - error: nil if successful, otherwise an error describing the failure
//
// Errors:
//   - ValueError: if input vectors are empty
//   - DimensionError: if yTrue and yPred have different lengths
//
// Example:
//
//	mae, err := metrics.MAE(yTrue, yPred)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("MAE: %.2f\n", mae)
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, tsgoErrors.NewValueError("MAE", "empty vector")
	}

	if yPred.Len() != n {
		return 0, tsgoErrors.NewDimensionError("MAE", n, yPred.Len(), 0)
	}

	// MAE = (1/n) * Σ|yTrue - yPred|
	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}

	return sum / float64(n), nil
}

// MeanAbsolute calculates the mean absolute value of a series.
//
// Applied to a residual series this is the mean absolute error of the
// underlying forecasts, which is how out-of-sample forecast accuracy and
// in-sample order-search scores are reported. It is equivalent to
// MAE(values, zeros) without constructing vectors.
//
// Parameters:
//   - values: The series, typically residuals from a fitted model
//
// Returns:
//   - float64: Mean of |values[i]| (non-negative)
//   - error: nil if successful, otherwise an error describing the failure
//
// Errors:
//   - ValueError: if values is empty
//
// Example:
//
//	score, err := metrics.MeanAbsolute(resid)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("The MAE equals %.2f\n", score)
func MeanAbsolute(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, tsgoErrors.NewValueError("MeanAbsolute", "empty series")
	}

	var sum float64
	for _, v := range values {
		sum += math.Abs(v)
	}

	return sum / float64(len(values)), nil
}

// R2Score calculates the coefficient of determination (R²) score.
//
// R² represents the proportion of variance in the target variable that is
// predictable from the input features. Values range from negative infinity to 1,
// where 1 indicates perfect predictions, 0 indicates predictions no better than
// the mean, and negative values indicate worse than mean predictions.
//
// Parameters:
//   - yTrue: True target values as a vector
//   - yPred: Predicted values as a vector
//
// Returns:
//   - float64: R² score (can be negative, best possible score is 1.0)
//   - error: nil if successful, otherwise an error describing the failure
//
// Errors:
//   - ValueError: if input vectors are empty, or if all yTrue values are
//     identical (no variance)
//   - DimensionError: if yTrue and yPred have different lengths
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, tsgoErrors.NewValueError("R2Score", "empty vector")
	}

	if yPred.Len() != n {
		return 0, tsgoErrors.NewDimensionError("R2Score", n, yPred.Len(), 0)
	}

	var yMean float64
	for i := 0; i < n; i++ {
		yMean += yTrue.AtVec(i)
	}
	yMean /= float64(n)

	// Total sum of squares and residual sum of squares
	var tss, rss float64
	for i := 0; i < n; i++ {
		yTrueVal := yTrue.AtVec(i)
		yPredVal := yPred.AtVec(i)

		tss += (yTrueVal - yMean) * (yTrueVal - yMean)
		rss += (yTrueVal - yPredVal) * (yTrueVal - yPredVal)
	}

	if tss == 0 {
		return 0, tsgoErrors.NewValueError("R2Score", "total sum of squares is zero (no variance in yTrue)")
	}

	// R² = 1 - RSS/TSS
	return 1 - rss/tss, nil
}

// MAPE calculates the Mean Absolute Percentage Error.
//
// MAPE measures prediction accuracy as a percentage, making it scale-independent
// and easy to interpret. Observations equal to zero are skipped since the
// percentage error is undefined there.
//
// Parameters:
//   - yTrue: True target values as a vector
//   - yPred: Predicted values as a vector
//
// Returns:
//   - float64: MAPE value as percentage (non-negative)
//   - error: nil if successful, otherwise an error describing the failure
//
// Errors:
//   - ValueError: if input vectors are empty, or if all yTrue values are zero
//   - DimensionError: if yTrue and yPred have different lengths
func MAPE(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, tsgoErrors.NewValueError("MAPE", "empty vector")
	}

	if yPred.Len() != n {
		return 0, tsgoErrors.NewDimensionError("MAPE", n, yPred.Len(), 0)
	}

	// MAPE = (100/n) * Σ|yTrue - yPred|/|yTrue|
	var sum float64
	validCount := 0

	for i := 0; i < n; i++ {
		yTrueVal := yTrue.AtVec(i)
		if yTrueVal != 0 {
			diff := math.Abs(yTrueVal - yPred.AtVec(i))
			sum += diff / math.Abs(yTrueVal)
			validCount++
		}
	}

	if validCount == 0 {
		return 0, tsgoErrors.NewValueError("MAPE", "all yTrue values are zero")
	}

	return (sum / float64(validCount)) * 100, nil
}

// ExplainedVarianceScore calculates the explained variance regression score.
//
// This metric measures the proportion of the variance in the target variable
// that is explained by the model. Unlike R², it does not account for systematic
// offset in predictions. The best possible score is 1.0, lower values indicate
// less explained variance.
//
// Parameters:
//   - yTrue: True target values as a vector
//   - yPred: Predicted values as a vector
//
// Returns:
//   - float64: Explained variance score (best possible score is 1.0)
//   - error: nil if successful, otherwise an error describing the failure
//
// Errors:
//   - ValueError: if input vectors are empty, or yTrue has no variance
//   - DimensionError: if yTrue and yPred have different lengths
func ExplainedVarianceScore(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, tsgoErrors.NewValueError("ExplainedVarianceScore", "empty vector")
	}

	if yPred.Len() != n {
		return 0, tsgoErrors.NewDimensionError("ExplainedVarianceScore", n, yPred.Len(), 0)
	}

	var yTrueMean, diffMean float64
	for i := 0; i < n; i++ {
		yTrueMean += yTrue.AtVec(i)
		diffMean += yTrue.AtVec(i) - yPred.AtVec(i)
	}
	yTrueMean /= float64(n)
	diffMean /= float64(n)

	var varYTrue, varDiff float64
	for i := 0; i < n; i++ {
		yTrueVal := yTrue.AtVec(i)
		diff := yTrueVal - yPred.AtVec(i)

		varYTrue += (yTrueVal - yTrueMean) * (yTrueVal - yTrueMean)
		varDiff += (diff - diffMean) * (diff - diffMean)
	}
	varYTrue /= float64(n)
	varDiff /= float64(n)

	if varYTrue == 0 {
		return 0, tsgoErrors.NewValueError("ExplainedVarianceScore", "no variance in yTrue")
	}

	// Explained variance score = 1 - Var(yTrue - yPred) / Var(yTrue)
	return 1 - varDiff/varYTrue, nil
}
