// Package linear_model provides LogisticRegression, an sklearn-compatible
// linear classifier fitted with L-BFGS (gonum/optimize) or gradient descent.
package linear_model

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/YuminosukeSato/heartpredict/core/model"
	"github.com/YuminosukeSato/heartpredict/core/parallel"
	"github.com/YuminosukeSato/heartpredict/metrics"
	"github.com/YuminosukeSato/heartpredict/pkg/errors"
	"github.com/YuminosukeSato/heartpredict/pkg/log"
)

// Supported penalties and solvers.
const (
	PenaltyL2   = "l2"
	PenaltyNone = "none"

	SolverLBFGS = "lbfgs"
	SolverGD    = "gd"
)

const modelName = "LogisticRegression"

// LogisticRegression implements logistic regression for classification
// Compatible with scikit-learn's LogisticRegression
type LogisticRegression struct {
	state *model.StateManager // State management (composition)

	// Hyperparameters
	penalty      string  // Regularization: "l2", "none"
	C            float64 // Inverse regularization strength
	fitIntercept bool    // Whether to fit intercept
	randomState  int64   // Random seed for the gd initialisation, -1 for time-seeded
	solver       string  // Solver: "lbfgs", "gd"
	maxIter      int     // Maximum iterations
	tol          float64 // Tolerance for stopping

	// Model parameters
	coef_      [][]float64 // Coefficients (1 x n_features for binary, n_classes x n_features for OVR)
	intercept_ []float64   // Intercept terms
	classes_   []int       // Unique class labels
	nIter_     []int       // Actual iterations per fitted problem

	logger log.Logger // nil uses the global provider
}

// LogisticRegressionOption is a functional option for LogisticRegression
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates a new LogisticRegression classifier with
// scikit-learn defaults: l2 penalty, C=1, lbfgs, max_iter=100, tol=1e-4.
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		state:        model.NewStateManager(),
		penalty:      PenaltyL2,
		C:            1.0,
		fitIntercept: true,
		randomState:  -1,
		solver:       SolverLBFGS,
		maxIter:      100,
		tol:          1e-4,
	}

	for _, opt := range opts {
		opt(lr)
	}

	return lr
}

// WithLRPenalty sets the regularization type
func WithLRPenalty(penalty string) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.penalty = penalty
	}
}

// WithLRC sets the inverse regularization strength
func WithLRC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.C = c
	}
}

// WithLogisticFitIntercept sets whether to fit intercept
func WithLogisticFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.fitIntercept = fit
	}
}

// WithLRSolver sets the optimization solver
func WithLRSolver(solver string) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.solver = solver
	}
}

// WithLRMaxIter sets the maximum number of iterations
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.maxIter = maxIter
	}
}

// WithLRTol sets the tolerance for stopping criteria
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.tol = tol
	}
}

// WithLRRandomState sets the random seed
func WithLRRandomState(seed int64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.randomState = seed
	}
}

// WithLRLogger overrides the logger used during fitting.
func WithLRLogger(l log.Logger) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.logger = l
	}
}

func (lr *LogisticRegression) validateParams() error {
	switch lr.penalty {
	case PenaltyL2, PenaltyNone:
	default:
		return errors.NewValidationError("penalty", "must be 'l2' or 'none'", lr.penalty)
	}
	switch lr.solver {
	case SolverLBFGS, SolverGD:
	default:
		return errors.NewValidationError("solver", "must be 'lbfgs' or 'gd'", lr.solver)
	}
	if lr.penalty == PenaltyL2 && !(lr.C > 0) {
		return errors.NewValidationError("C", "must be positive", lr.C)
	}
	if lr.maxIter <= 0 {
		return errors.NewValidationError("max_iter", "must be positive", lr.maxIter)
	}
	if !(lr.tol > 0) {
		return errors.NewValidationError("tol", "must be positive", lr.tol)
	}
	return nil
}

// Fit trains the logistic regression model.
// Binary targets fit a single problem; more than two classes fit one-vs-rest.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	if err := lr.validateParams(); err != nil {
		return err
	}

	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()

	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError(modelName+".Fit", "empty data", errors.ErrEmptyData)
	}
	if nSamples != yRows {
		return errors.NewDimensionError(modelName+".Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewInputShapeError(log.PhaseTraining, []int{nSamples, 1}, []int{yRows, yCols})
	}

	classes := extractClasses(y)
	if len(classes) < 2 {
		return errors.NewModelError(modelName+".Fit", "invalid target", errors.ErrSingleClass)
	}

	Xd := mat.DenseCopyOf(X)
	lr.state.Reset()
	lr.classes_ = classes

	// binary: one problem with classes[1] as the positive class
	positives := classes
	if len(classes) == 2 {
		positives = classes[1:]
	}

	lr.coef_ = make([][]float64, len(positives))
	lr.intercept_ = make([]float64, len(positives))
	lr.nIter_ = make([]int, len(positives))

	var rng *rand.Rand
	if lr.solver == SolverGD {
		seed := lr.randomState
		if seed < 0 {
			seed = rand.Int63()
		}
		rng = rand.New(rand.NewSource(seed))
	}

	for k, class := range positives {
		target := make([]float64, nSamples)
		for i := range target {
			if int(y.At(i, 0)) == class {
				target[i] = 1
			}
		}

		var (
			w     []float64
			b     float64
			nIter int
			err   error
		)
		switch lr.solver {
		case SolverGD:
			w, b, nIter, err = lr.fitGradientDescent(Xd, target, rng)
		default:
			w, b, nIter, err = lr.fitLBFGS(Xd, target)
		}
		if err != nil {
			return errors.Wrapf(err, "failed to fit class %d", class)
		}

		lr.coef_[k] = w
		lr.intercept_[k] = b
		lr.nIter_[k] = nIter
	}

	lr.state.SetDimensions(nFeatures, nSamples)
	lr.state.SetFitted()

	logger := lr.logger
	if logger == nil {
		logger = log.GetLoggerWithName(modelName)
	}
	logger.Debug("Model fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		log.SolverKey, lr.solver,
		log.IterationKey, lr.nIter_,
	)
	return nil
}

// extractClasses returns the sorted unique class labels of y.
func extractClasses(y mat.Matrix) []int {
	rows, _ := y.Dims()
	seen := make(map[int]struct{})
	for i := 0; i < rows; i++ {
		seen[int(y.At(i, 0))] = struct{}{}
	}

	classes := make([]int, 0, len(seen))
	for c := range seen {
		classes = append(classes, c)
	}
	sort.Ints(classes)
	return classes
}

// objective is the mean-scaled l2 logistic loss:
//
//	f(w, b) = mean(logloss) + ||w||² / (2 C n)
//
// which has the same minimiser as sklearn's 0.5||w||² + C Σ logloss.
type objective struct {
	X            *mat.Dense
	target       []float64
	alpha        float64 // 1/(C n), 0 without penalty
	fitIntercept bool

	z []float64 // scratch: linear scores
}

func newObjective(X *mat.Dense, target []float64, penalty string, C float64, fitIntercept bool) *objective {
	n, _ := X.Dims()
	o := &objective{X: X, target: target, fitIntercept: fitIntercept, z: make([]float64, n)}
	if penalty == PenaltyL2 {
		o.alpha = 1.0 / (C * float64(n))
	}
	return o
}

// split separates the parameter vector into weights and intercept.
func (o *objective) split(x []float64) ([]float64, float64) {
	_, p := o.X.Dims()
	if o.fitIntercept {
		return x[:p], x[p]
	}
	return x[:p], 0
}

func (o *objective) scores(x []float64) {
	w, b := o.split(x)
	n, _ := o.X.Dims()
	zv := mat.NewVecDense(n, o.z)
	zv.MulVec(o.X, mat.NewVecDense(len(w), w))
	if b != 0 {
		for i := range o.z {
			o.z[i] += b
		}
	}
}

func (o *objective) Func(x []float64) float64 {
	o.scores(x)
	var loss float64
	for i, z := range o.z {
		// log(1 + e^z) - t z
		loss += softplus(z) - o.target[i]*z
	}
	loss /= float64(len(o.z))

	w, _ := o.split(x)
	return loss + 0.5*o.alpha*floats.Dot(w, w)
}

func (o *objective) Grad(grad, x []float64) {
	o.scores(x)
	n, p := o.X.Dims()

	residual := make([]float64, n)
	var sumResidual float64
	for i, z := range o.z {
		residual[i] = (sigmoid(z) - o.target[i]) / float64(n)
		sumResidual += residual[i]
	}

	gw := mat.NewVecDense(p, grad[:p])
	gw.MulVec(o.X.T(), mat.NewVecDense(n, residual))

	w, _ := o.split(x)
	floats.AddScaled(grad[:p], o.alpha, w)

	if o.fitIntercept {
		grad[p] = sumResidual
	}
}

func (o *objective) dim() int {
	_, p := o.X.Dims()
	if o.fitIntercept {
		return p + 1
	}
	return p
}

// fitLBFGS minimises the objective with gonum's L-BFGS, starting from zero.
func (lr *LogisticRegression) fitLBFGS(X *mat.Dense, target []float64) ([]float64, float64, int, error) {
	obj := newObjective(X, target, lr.penalty, lr.C, lr.fitIntercept)
	problem := optimize.Problem{
		Func: obj.Func,
		Grad: obj.Grad,
	}
	settings := &optimize.Settings{
		GradientThreshold: lr.tol,
		MajorIterations:   lr.maxIter,
	}

	init := make([]float64, obj.dim())
	result, err := optimize.Minimize(problem, init, settings, &optimize.LBFGS{})
	if result == nil {
		return nil, 0, 0, errors.NewModelError(modelName+".Fit", "lbfgs", err)
	}

	nIter := result.Stats.MajorIterations
	if stabErr := errors.CheckNumericalStability(SolverLBFGS, result.X, nIter); stabErr != nil {
		return nil, 0, nIter, stabErr
	}

	switch {
	case result.Status == optimize.IterationLimit:
		errors.Warn(errors.NewConvergenceWarning(SolverLBFGS, nIter, ""))
	case err != nil:
		// line search failures near the optimum still leave a usable point
		errors.Warn(errors.NewConvergenceWarning(SolverLBFGS, nIter, err.Error()))
	}

	w, b := obj.split(result.X)
	return append([]float64(nil), w...), b, nIter, nil
}

// fitGradientDescent is full-batch gradient descent with a decaying step.
// It expects standardised features.
func (lr *LogisticRegression) fitGradientDescent(X *mat.Dense, target []float64, rng *rand.Rand) ([]float64, float64, int, error) {
	obj := newObjective(X, target, lr.penalty, lr.C, lr.fitIntercept)

	x := make([]float64, obj.dim())
	_, p := X.Dims()
	for j := 0; j < p; j++ {
		x[j] = rng.NormFloat64() * 0.01
	}

	grad := make([]float64, len(x))
	const baseLearningRate = 1.0

	nIter := 0
	converged := false
	for iter := 0; iter < lr.maxIter; iter++ {
		obj.Grad(grad, x)
		nIter = iter + 1

		if floats.Norm(grad, math.Inf(1)) < lr.tol {
			converged = true
			break
		}

		learningRate := baseLearningRate / (1.0 + 0.1*float64(iter))
		floats.AddScaled(x, -learningRate, grad)

		if err := errors.CheckNumericalStability("gradient_update", x, nIter); err != nil {
			return nil, 0, nIter, err
		}
	}

	if !converged {
		errors.Warn(errors.NewConvergenceWarning(SolverGD, nIter, ""))
	}

	w, b := obj.split(x)
	return append([]float64(nil), w...), b, nIter, nil
}

func (lr *LogisticRegression) checkInput(method string, X mat.Matrix) error {
	if err := lr.state.RequireFitted(modelName, method); err != nil {
		return err
	}
	if r, _ := X.Dims(); r == 0 {
		return errors.NewModelError(modelName+"."+method, "empty data", errors.ErrEmptyData)
	}
	return lr.state.CheckFeatures(modelName+"."+method, X)
}

// DecisionFunction returns the signed distance to the hyperplane: one
// column for binary models, one column per class for one-vs-rest.
func (lr *LogisticRegression) DecisionFunction(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.checkInput("DecisionFunction", X); err != nil {
		return nil, err
	}
	return lr.decision(X)
}

func (lr *LogisticRegression) decision(X mat.Matrix) (*mat.Dense, error) {
	nSamples, nFeatures := X.Dims()
	k := len(lr.coef_)

	W := mat.NewDense(nFeatures, k, nil)
	for c, w := range lr.coef_ {
		W.SetCol(c, w)
	}

	Xd := mat.DenseCopyOf(X)
	scores := mat.NewDense(nSamples, k, nil)
	// rows are disjoint between workers
	err := parallel.ParallelizeWithThreshold(context.Background(), nSamples, parallel.DefaultThreshold,
		func(_ context.Context, start, end int) error {
			dst := scores.Slice(start, end, 0, k).(*mat.Dense)
			dst.Mul(Xd.Slice(start, end, 0, nFeatures), W)
			for i := 0; i < end-start; i++ {
				for c := 0; c < k; c++ {
					dst.Set(i, c, dst.At(i, c)+lr.intercept_[c])
				}
			}
			return nil
		})
	if err != nil {
		return nil, err
	}
	return scores, nil
}

// PredictProba returns probability estimates for each class, columns in
// the order of Classes(). One-vs-rest probabilities are normalised per row.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.checkInput("PredictProba", X); err != nil {
		return nil, err
	}

	scores, err := lr.decision(X)
	if err != nil {
		return nil, err
	}

	nSamples, _ := X.Dims()
	nClasses := len(lr.classes_)
	probas := mat.NewDense(nSamples, nClasses, nil)

	for i := 0; i < nSamples; i++ {
		if nClasses == 2 {
			p1 := sigmoid(scores.At(i, 0))
			probas.Set(i, 0, 1.0-p1)
			probas.Set(i, 1, p1)
			continue
		}

		row := make([]float64, nClasses)
		for c := range row {
			row[c] = sigmoid(scores.At(i, c))
		}
		sum := floats.Sum(row)
		for c, p := range row {
			probas.Set(i, c, p/sum)
		}
	}

	return probas, nil
}

// Predict makes predictions for input data
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.checkInput("Predict", X); err != nil {
		return nil, err
	}

	scores, err := lr.decision(X)
	if err != nil {
		return nil, err
	}

	nSamples, _ := X.Dims()
	predictions := mat.NewDense(nSamples, 1, nil)

	for i := 0; i < nSamples; i++ {
		if len(lr.classes_) == 2 {
			label := lr.classes_[0]
			if scores.At(i, 0) > 0 {
				label = lr.classes_[1]
			}
			predictions.Set(i, 0, float64(label))
			continue
		}

		best := floats.MaxIdx(scores.RawRowView(i))
		predictions.Set(i, 0, float64(lr.classes_[best]))
	}

	return predictions, nil
}

// Score returns the mean accuracy on the given test data and labels
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyScore(y, predictions)
}

// Classes returns the sorted class labels seen during Fit.
func (lr *LogisticRegression) Classes() []int {
	return append([]int(nil), lr.classes_...)
}

// Coef returns a copy of the coefficient matrix (n_problems x n_features).
func (lr *LogisticRegression) Coef() *mat.Dense {
	if len(lr.coef_) == 0 {
		return nil
	}
	c := mat.NewDense(len(lr.coef_), len(lr.coef_[0]), nil)
	for i, w := range lr.coef_ {
		c.SetRow(i, w)
	}
	return c
}

// Intercept returns a copy of the intercepts.
func (lr *LogisticRegression) Intercept() []float64 {
	return append([]float64(nil), lr.intercept_...)
}

// NIter returns the number of solver iterations per fitted problem.
func (lr *LogisticRegression) NIter() []int {
	return append([]int(nil), lr.nIter_...)
}

// ExportWeights returns the binary model's coefficients. One-vs-rest models
// have no single coefficient vector and return a ValueError.
func (lr *LogisticRegression) ExportWeights() (*model.ModelWeights, error) {
	if err := lr.state.RequireFitted(modelName, "ExportWeights"); err != nil {
		return nil, err
	}
	if len(lr.coef_) != 1 {
		return nil, errors.NewValueError(modelName+".ExportWeights", "only binary models can be exported")
	}

	return &model.ModelWeights{
		ModelType:       modelName,
		Version:         "1",
		Coefficients:    append([]float64(nil), lr.coef_[0]...),
		Intercept:       lr.intercept_[0],
		Hyperparameters: lr.GetParams(),
		Metadata: map[string]interface{}{
			"classes": lr.Classes(),
			"n_iter":  lr.NIter(),
		},
		IsFitted: true,
	}, nil
}

// GetParams returns the model hyperparameters
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"penalty":       lr.penalty,
		"C":             lr.C,
		"fit_intercept": lr.fitIntercept,
		"random_state":  lr.randomState,
		"solver":        lr.solver,
		"max_iter":      lr.maxIter,
		"tol":           lr.tol,
	}
}

// SetParams sets the model hyperparameters. Unknown keys and values of the
// wrong type return a ValidationError; a fitted model must be refitted.
func (lr *LogisticRegression) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		var ok bool
		switch key {
		case "penalty":
			lr.penalty, ok = value.(string)
		case "C":
			lr.C, ok = toFloat(value)
		case "fit_intercept":
			lr.fitIntercept, ok = value.(bool)
		case "random_state":
			var f float64
			f, ok = toFloat(value)
			lr.randomState = int64(f)
		case "solver":
			lr.solver, ok = value.(string)
		case "max_iter":
			var f float64
			f, ok = toFloat(value)
			lr.maxIter = int(f)
		case "tol":
			lr.tol, ok = toFloat(value)
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
		if !ok {
			return errors.NewValidationError(key, fmt.Sprintf("unexpected type %T", value), value)
		}
	}
	return nil
}

func toFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	}
	return 0, false
}

// String returns the sklearn-style representation.
func (lr *LogisticRegression) String() string {
	return fmt.Sprintf("LogisticRegression(penalty=%q, C=%g, solver=%q, max_iter=%d)",
		lr.penalty, lr.C, lr.solver, lr.maxIter)
}

// sigmoid computes the sigmoid function without overflow for large |z|.
func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1.0 / (1.0 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1.0 + e)
}

// softplus computes log(1 + e^z).
func softplus(z float64) float64 {
	return math.Max(z, 0) + math.Log1p(math.Exp(-math.Abs(z)))
}

var (
	_ model.Classifier      = (*LogisticRegression)(nil)
	_ model.ParameterGetter = (*LogisticRegression)(nil)
	_ model.ParameterSetter = (*LogisticRegression)(nil)
	_ model.WeightExporter  = (*LogisticRegression)(nil)
)
