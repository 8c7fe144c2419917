// Package log defines standard attribute keys for machine learning operations.
//
// Using the same keys everywhere keeps the training report, the CLI output and
// the web server access log greppable with one vocabulary. Keys follow a
// hierarchical "category.name" convention.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of machine learning model.
	// Examples: "LogisticRegression", "StandardScaler", "Pipeline"
	ModelNameKey = "model.name"

	// EstimatorIDKey provides a unique identifier for a specific model instance.
	EstimatorIDKey = "estimator.id"

	// OperationKey specifies the machine learning operation being performed.
	// Standard values: "fit", "predict", "transform", "fit_transform", "score", "split"
	OperationKey = "ml.operation"

	// ComponentKey identifies which component or package is performing the operation.
	// Examples: "linear_model", "preprocessing", "diagnosis", "web"
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of model lifecycle.
	PhaseKey = "ml.phase"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) in the dataset.
	FeaturesKey = "data.features"

	// TrainSamplesKey and TestSamplesKey record the split sizes.
	TrainSamplesKey = "data.train_samples"
	TestSamplesKey  = "data.test_samples"

	// DataPathKey records the file a dataset was read from.
	DataPathKey = "data.path"

	// ClassCountsKey records label frequencies (value_counts).
	ClassCountsKey = "data.class_counts"
)

// Performance and Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records model accuracy for evaluation operations.
	AccuracyKey = "metrics.accuracy"

	// TrainAccuracyKey and TestAccuracyKey separate the two accuracy figures
	// reported after training.
	TrainAccuracyKey = "metrics.train_accuracy"
	TestAccuracyKey  = "metrics.test_accuracy"

	PrecisionKey = "metrics.precision"
	RecallKey    = "metrics.recall"
	F1Key        = "metrics.f1"
	AUCKey       = "metrics.auc"

	// LossKey records loss value during training or evaluation.
	LossKey = "metrics.loss"

	// IterationKey records the number of solver iterations.
	IterationKey = "training.iteration"
)

// Prediction
const (
	// PredsKey indicates the number of predictions made.
	PredsKey = "preds.count"

	// LabelKey records a predicted class label.
	LabelKey = "preds.label"

	// ConfidenceKey records prediction confidence or probability.
	ConfidenceKey = "preds.confidence"

	// ThresholdKey records decision thresholds used for classification.
	ThresholdKey = "preds.threshold"

	// CacheHitKey marks predictions served from the predictor cache.
	CacheHitKey = "preds.cache_hit"
)

// Errors
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"
)

// Hyperparameters and Configuration
const (
	// HyperParamsKey contains model hyperparameters as a structured object.
	HyperParamsKey = "model.hyperparams"

	// RegularizationKey records regularization strength (C).
	RegularizationKey = "hyperparams.regularization"

	// SolverKey records the optimizer used for fitting.
	SolverKey = "hyperparams.solver"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"
)

// HTTP
const (
	HTTPMethodKey  = "http.method"
	HTTPPathKey    = "http.path"
	HTTPStatusKey  = "http.status"
	HTTPRemoteKey  = "http.remote"
	HTTPRequestKey = "http.request_id"
	ServerAddrKey  = "server.addr"
)

// Standard attribute value constants for common operations.
const (
	// Standard ML operations
	OperationFit          = "fit"
	OperationPredict      = "predict"
	OperationTransform    = "transform"
	OperationFitTransform = "fit_transform"
	OperationScore        = "score"
	OperationSplit        = "split"
	OperationLoad         = "load"

	// Standard ML phases
	PhaseTraining      = "training"
	PhaseValidation    = "validation"
	PhaseTesting       = "testing"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"

	// Standard error codes
	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorInvalidInput      = "INVALID_INPUT"
	ErrorConvergence       = "CONVERGENCE_FAILURE"
)
