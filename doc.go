// Package heartpredict predicts heart disease from 13 clinical measurements
// with a logistic regression model.
//
// heartpredict follows a scikit-learn-like API: estimators are configured
// with functional options, fitted with Fit and queried with Predict and
// PredictProba on gonum matrices.
//
// # Features
//
// - Dataset loading: header-driven CSV parsing with line-numbered errors
// - Stratified train/test splitting and k-fold cross-validation
// - LogisticRegression with L-BFGS or gradient descent, L2 regularization
// - StandardScaler and MinMaxScaler preprocessing in a Pipeline
// - Classification metrics: accuracy, precision/recall/F1, ROC AUC, log loss
// - A web form and JSON API backed by a model trained once at start-up
//
// # Quick Start
//
// Train on a CSV file and predict one patient:
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/heartpredict/diagnosis"
//	    "github.com/YuminosukeSato/heartpredict/heart"
//	)
//
//	func main() {
//	    ds, err := heart.LoadCSV("heart.csv")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    res, err := diagnosis.Train(context.Background(), ds, diagnosis.DefaultOptions())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println("Test accuracy:", res.Report.TestAccuracy)
//
//	    p, err := diagnosis.NewPredictor(res.Model, 0)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    d, err := p.Predict(heart.ExampleRecord())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(d.Message())
//	}
//
// # Packages
//
//   - heart: patient records, CSV loading, dataset statistics, form catalogue
//   - diagnosis: training workflow, cached predictor, chart rendering
//   - sklearn/linear_model: LogisticRegression
//   - sklearn/model_selection: TrainTestSplit, KFold, StratifiedKFold
//   - sklearn/pipeline: transformer + classifier chaining
//   - preprocessing: StandardScaler, MinMaxScaler
//   - metrics: classification metrics
//   - core/model: core interfaces, state management, weight export
//   - core/parallel: parallel row processing
//   - pkg/errors, pkg/log: structured errors and logging
//
// # Command line
//
// The heartdisease command wraps the library:
//
//	heartdisease --data heart.csv train
//	heartdisease --data heart.csv predict --values 59,1,1,120,360,0,1,180,0,1.8,2,1,0
//	heartdisease --data heart.csv serve --addr :8080
//
// Predictions are for educational purposes only and are not a medical
// diagnosis.
package heartpredict
