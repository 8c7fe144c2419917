// Package diagnosis trains the heart disease classifier and serves
// predictions for single patient records.
package diagnosis

import (
	"context"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/heartpredict/core/model"
	"github.com/YuminosukeSato/heartpredict/heart"
	"github.com/YuminosukeSato/heartpredict/metrics"
	"github.com/YuminosukeSato/heartpredict/pkg/errors"
	"github.com/YuminosukeSato/heartpredict/pkg/log"
	"github.com/YuminosukeSato/heartpredict/preprocessing"
	"github.com/YuminosukeSato/heartpredict/sklearn/linear_model"
	"github.com/YuminosukeSato/heartpredict/sklearn/model_selection"
	"github.com/YuminosukeSato/heartpredict/sklearn/pipeline"
)

// Scaler names accepted by Options.Scaler.
const (
	ScalerStandard = "standard"
	ScalerMinMax   = "minmax"
)

// Options controls the split and the classifier.
type Options struct {
	TestSize    float64
	RandomState int64
	Stratify    bool

	// Scale rescales features before the classifier with the scaler named
	// by Scaler. An empty Scaler means ScalerStandard.
	Scale  bool
	Scaler string

	C       float64
	Solver  string
	MaxIter int
	Tol     float64

	// CVFolds > 1 adds stratified k-fold accuracy on the training split.
	CVFolds int

	Logger log.Logger
}

// DefaultOptions returns a 0.2 stratified split with seed 2 and a
// LogisticRegression with default hyperparameters on standardised features.
func DefaultOptions() Options {
	return Options{
		TestSize:    0.2,
		RandomState: 2,
		Stratify:    true,
		Scale:       true,
		Scaler:      ScalerStandard,
		C:           1.0,
		Solver:      linear_model.SolverLBFGS,
		MaxIter:     100,
		Tol:         1e-4,
	}
}

// Report collects the evaluation of a trained model.
type Report struct {
	Samples      int
	TrainSamples int
	TestSamples  int

	TrainAccuracy float64
	TestAccuracy  float64

	Precision float64
	Recall    float64
	F1        float64
	AUC       float64
	LogLoss   float64

	// ConfusionMatrix rows are true labels, columns predicted labels, both
	// in the order of Labels.
	ConfusionMatrix [][]int
	Labels          []int

	// ROC curve of the test split.
	FPR []float64
	TPR []float64

	CVScores []float64

	Weights  *model.ModelWeights
	Duration time.Duration
}

// Result is a fitted model and its evaluation.
type Result struct {
	Model  *pipeline.Pipeline
	Report Report
}

func newClassifier(opts Options) *linear_model.LogisticRegression {
	return linear_model.NewLogisticRegression(
		linear_model.WithLRC(opts.C),
		linear_model.WithLRSolver(opts.Solver),
		linear_model.WithLRMaxIter(opts.MaxIter),
		linear_model.WithLRTol(opts.Tol),
		linear_model.WithLRRandomState(opts.RandomState),
	)
}

func newPipeline(opts Options) *pipeline.Pipeline {
	var scaler model.Transformer
	if opts.Scale {
		switch opts.Scaler {
		case ScalerMinMax:
			scaler = preprocessing.NewMinMaxScalerDefault()
		default:
			scaler = preprocessing.NewStandardScalerDefault()
		}
	}
	return pipeline.New(scaler, newClassifier(opts))
}

// Train splits ds, fits the pipeline on the training split and evaluates it
// on both splits.
func Train(ctx context.Context, ds *heart.Dataset, opts Options) (*Result, error) {
	start := time.Now()
	logger := opts.Logger
	if logger == nil {
		logger = log.GetLoggerWithName("diagnosis")
	}
	logger = logger.With(log.ComponentKey, "diagnosis", log.ModelNameKey, "LogisticRegression")

	if ds == nil || ds.Len() == 0 {
		return nil, errors.NewModelError("diagnosis.Train", "empty data", errors.ErrEmptyData)
	}

	X := ds.Features()
	y := ds.Targets()

	logger.Info("Class distribution",
		log.SamplesKey, ds.Len(),
		log.ClassCountsKey, ds.ValueCounts(),
	)

	XTrain, XTest, yTrain, yTest, err := model_selection.TrainTestSplit(X, y,
		model_selection.WithTestSize(opts.TestSize),
		model_selection.WithStratify(opts.Stratify),
		model_selection.WithRandomState(opts.RandomState),
	)
	if err != nil {
		return nil, errors.Wrap(err, "split dataset")
	}
	trainRows, _ := XTrain.Dims()
	testRows, _ := XTest.Dims()
	logger.Info("Dataset split",
		log.OperationKey, log.OperationSplit,
		log.TrainSamplesKey, trainRows,
		log.TestSamplesKey, testRows,
		log.RandomSeedKey, opts.RandomState,
	)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := Report{Samples: ds.Len(), TrainSamples: trainRows, TestSamples: testRows}

	if opts.CVFolds > 1 {
		report.CVScores, err = model_selection.CrossValScore(ctx,
			func() model_selection.FitScorer { return newPipeline(opts) },
			XTrain, yTrain,
			model_selection.NewStratifiedKFold(opts.CVFolds, true, opts.RandomState))
		if err != nil {
			return nil, errors.Wrap(err, "cross-validation")
		}
	}

	p := newPipeline(opts)
	if err := p.Fit(XTrain, yTrain); err != nil {
		return nil, errors.Wrap(err, "fit model")
	}
	logger.Info("Model fitted",
		log.OperationKey, log.OperationFit,
		log.SolverKey, opts.Solver,
		log.RegularizationKey, opts.C,
	)

	if report.TrainAccuracy, err = p.Score(XTrain, yTrain); err != nil {
		return nil, errors.Wrap(err, "score training split")
	}
	if err := evaluate(p, XTest, yTest, &report); err != nil {
		return nil, err
	}

	if report.Weights, err = p.ExportWeights(); err != nil {
		return nil, err
	}
	report.Weights.Features = append([]string(nil), heart.FeatureNames...)

	report.Duration = time.Since(start)
	logger.Info("Model evaluated",
		log.OperationKey, log.OperationScore,
		log.TrainAccuracyKey, report.TrainAccuracy,
		log.TestAccuracyKey, report.TestAccuracy,
		log.PrecisionKey, report.Precision,
		log.RecallKey, report.Recall,
		log.F1Key, report.F1,
		log.AUCKey, report.AUC,
		log.DurationMsKey, report.Duration.Milliseconds(),
	)

	return &Result{Model: p, Report: report}, nil
}

// evaluate fills the test-split metrics of report.
func evaluate(p *pipeline.Pipeline, XTest, yTest mat.Matrix, report *Report) error {
	pred, err := p.Predict(XTest)
	if err != nil {
		return errors.Wrap(err, "predict test split")
	}
	proba, err := p.PredictProba(XTest)
	if err != nil {
		return errors.Wrap(err, "predict test probabilities")
	}

	if report.TestAccuracy, err = metrics.AccuracyScore(yTest, pred); err != nil {
		return err
	}
	if report.Precision, report.Recall, report.F1, err = metrics.PrecisionRecallF1(yTest, pred, 1); err != nil {
		return err
	}

	n, _ := yTest.Dims()
	truth := mat.NewVecDense(n, mat.Col(nil, 0, yTest))
	positive := mat.NewVecDense(n, mat.Col(nil, 1, proba))

	if report.AUC, err = metrics.AUC(truth, positive); err != nil {
		return err
	}
	if report.LogLoss, err = metrics.BinaryLogLoss(truth, positive); err != nil {
		return err
	}
	if report.FPR, report.TPR, _, err = metrics.ROCCurve(truth, positive); err != nil {
		return err
	}

	cm, labels, err := metrics.ConfusionMatrix(yTest, pred)
	if err != nil {
		return err
	}
	report.Labels = labels
	report.ConfusionMatrix = make([][]int, len(labels))
	for i := range labels {
		report.ConfusionMatrix[i] = make([]int, len(labels))
		for j := range labels {
			report.ConfusionMatrix[i][j] = int(cm.At(i, j))
		}
	}
	return nil
}
