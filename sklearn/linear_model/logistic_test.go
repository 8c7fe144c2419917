package linear_model

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/heartpredict/pkg/errors"
)

func separableData() (*mat.Dense, *mat.Dense) {
	// Class 0: points around (-1, -1)
	// Class 1: points around (1, 1)
	X := mat.NewDense(6, 2, []float64{
		-1.5, -1.5,
		-1.0, -0.5,
		-0.5, -1.0,
		1.0, 0.5,
		0.5, 1.0,
		1.5, 1.5,
	})
	y := mat.NewDense(6, 1, []float64{0, 0, 0, 1, 1, 1})
	return X, y
}

// captureWarnings routes pkg/errors warnings into a slice for the test's duration.
func captureWarnings(t *testing.T) *[]error {
	t.Helper()
	var got []error
	errors.SetWarningHandler(func(w error) { got = append(got, w) })
	t.Cleanup(func() { errors.SetWarningHandler(nil) })
	return &got
}

func TestLogisticRegression_FitPredict_Binary(t *testing.T) {
	for _, solver := range []string{SolverLBFGS, SolverGD} {
		t.Run(solver, func(t *testing.T) {
			captureWarnings(t)
			X, y := separableData()

			lr := NewLogisticRegression(
				WithLRSolver(solver),
				WithLRMaxIter(1000),
				WithLRRandomState(42),
			)
			if err := lr.Fit(X, y); err != nil {
				t.Fatalf("Failed to fit model: %v", err)
			}

			predictions, err := lr.Predict(X)
			if err != nil {
				t.Fatalf("Failed to predict: %v", err)
			}
			for i := 0; i < 6; i++ {
				if predictions.At(i, 0) != y.At(i, 0) {
					t.Errorf("Sample %d: expected %v, got %v", i, y.At(i, 0), predictions.At(i, 0))
				}
			}

			XTest := mat.NewDense(2, 2, []float64{
				-1.0, -1.0, // class 0
				1.0, 1.0, // class 1
			})
			testPreds, err := lr.Predict(XTest)
			if err != nil {
				t.Fatalf("Failed to predict on test data: %v", err)
			}
			if testPreds.At(0, 0) != 0 || testPreds.At(1, 0) != 1 {
				t.Errorf("unexpected test predictions %v", mat.Formatted(testPreds))
			}
		})
	}
}

func TestLogisticRegression_PredictProba(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		1, 1,
	})
	y := mat.NewDense(4, 1, []float64{0, 0, 1, 1})

	lr := NewLogisticRegression(WithLRMaxIter(500))
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}

	probas, err := lr.PredictProba(X)
	if err != nil {
		t.Fatalf("Failed to predict probabilities: %v", err)
	}

	rows, cols := probas.Dims()
	if rows != 4 || cols != 2 {
		t.Fatalf("Expected probas shape (4, 2), got (%d, %d)", rows, cols)
	}

	predictions, _ := lr.Predict(X)
	for i := 0; i < rows; i++ {
		p0, p1 := probas.At(i, 0), probas.At(i, 1)
		if p0 < 0 || p0 > 1 || p1 < 0 || p1 > 1 {
			t.Errorf("Invalid probability in row %d: %v %v", i, p0, p1)
		}
		if math.Abs(p0+p1-1.0) > 1e-9 {
			t.Errorf("Probabilities for sample %d don't sum to 1: %v", i, p0+p1)
		}
		pred := int(predictions.At(i, 0))
		if (pred == 1) != (p1 > p0) {
			t.Errorf("Sample %d: predicted %d but P(0)=%v P(1)=%v", i, pred, p0, p1)
		}
	}
}

func TestLogisticRegression_Score(t *testing.T) {
	// majority of three binary features
	X := mat.NewDense(8, 3, []float64{
		0, 0, 0,
		0, 0, 1,
		0, 1, 0,
		0, 1, 1,
		1, 0, 0,
		1, 0, 1,
		1, 1, 0,
		1, 1, 1,
	})
	y := mat.NewDense(8, 1, []float64{0, 0, 0, 1, 0, 1, 1, 1})

	lr := NewLogisticRegression(WithLRMaxIter(1000), WithLRC(10.0))
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}

	score, err := lr.Score(X, y)
	if err != nil {
		t.Fatal(err)
	}
	if score < 0.75 {
		t.Errorf("Score too low: %v", score)
	}

	if _, err := NewLogisticRegression().Score(X, y); err == nil {
		t.Error("Score on unfitted model should fail")
	}
}

func TestLogisticRegression_LBFGSReachesStationaryPoint(t *testing.T) {
	X, y := separableData()
	lr := NewLogisticRegression(WithLRTol(1e-6), WithLRMaxIter(500))
	if err := lr.Fit(X, y); err != nil {
		t.Fatal(err)
	}

	target := []float64{0, 0, 0, 1, 1, 1}
	obj := newObjective(X, target, PenaltyL2, 1.0, true)
	x := append(lr.Coef().RawRowView(0), lr.Intercept()[0])
	grad := make([]float64, len(x))
	obj.Grad(grad, x)

	if g := floats.Norm(grad, math.Inf(1)); g > 1e-4 {
		t.Errorf("gradient at solution too large: %v", g)
	}
}

func TestLogisticRegression_Regularization(t *testing.T) {
	X := mat.NewDense(10, 5, []float64{
		1, 0, 0, 0, 0,
		0, 1, 0, 0, 0,
		0, 0, 1, 0, 0,
		0, 0, 0, 1, 0,
		0, 0, 0, 0, 1,
		1, 1, 0, 0, 0,
		0, 1, 1, 0, 0,
		0, 0, 1, 1, 0,
		0, 0, 0, 1, 1,
		1, 0, 0, 0, 1,
	})
	y := mat.NewDense(10, 1, []float64{0, 0, 0, 1, 1, 0, 0, 1, 1, 1})

	lrStrong := NewLogisticRegression(WithLRC(0.01), WithLRMaxIter(1000))
	if err := lrStrong.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	lrWeak := NewLogisticRegression(WithLRC(100.0), WithLRMaxIter(1000))
	if err := lrWeak.Fit(X, y); err != nil {
		t.Fatal(err)
	}

	strongNorm := floats.Norm(lrStrong.coef_[0], 2)
	weakNorm := floats.Norm(lrWeak.coef_[0], 2)
	if strongNorm >= weakNorm {
		t.Errorf("Strong regularization should produce smaller weights: strong=%v, weak=%v",
			strongNorm, weakNorm)
	}
}

func TestLogisticRegression_Multiclass(t *testing.T) {
	X := mat.NewDense(9, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		2, 2,
		2, 3,
		3, 2,
		4, 4,
		4, 5,
		5, 4,
	})
	y := mat.NewDense(9, 1, []float64{0, 0, 0, 1, 1, 1, 2, 2, 2})

	lr := NewLogisticRegression(WithLRMaxIter(1000), WithLRC(10.0))
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit multiclass model: %v", err)
	}

	if got := lr.Classes(); len(got) != 3 {
		t.Fatalf("Expected 3 classes, got %v", got)
	}
	if r, c := lr.Coef().Dims(); r != 3 || c != 2 {
		t.Errorf("Expected coef shape (3, 2), got (%d, %d)", r, c)
	}

	predictions, err := lr.Predict(X)
	if err != nil {
		t.Fatalf("Failed to predict: %v", err)
	}
	if predictions.At(0, 0) != 0 || predictions.At(8, 0) != 2 {
		t.Errorf("outer clusters misclassified: %v", mat.Formatted(predictions.T()))
	}

	probas, err := lr.PredictProba(X)
	if err != nil {
		t.Fatalf("Failed to predict probabilities: %v", err)
	}
	rows, cols := probas.Dims()
	if cols != 3 {
		t.Errorf("Expected 3 probability columns, got %d", cols)
	}
	for i := 0; i < rows; i++ {
		row := mat.Row(nil, i, probas)
		if math.Abs(floats.Sum(row)-1.0) > 1e-9 {
			t.Errorf("Probabilities for sample %d don't sum to 1: %v", i, row)
		}
	}

	if _, err := lr.ExportWeights(); err == nil {
		t.Error("ExportWeights should reject one-vs-rest models")
	}
}

func TestLogisticRegression_DecisionFunctionLargeBatch(t *testing.T) {
	X, y := separableData()
	lr := NewLogisticRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatal(err)
	}

	n := 3000
	data := make([]float64, n*2)
	for i := range data {
		data[i] = float64(i%97) / 20
	}
	big := mat.NewDense(n, 2, data)

	scores, err := lr.DecisionFunction(big)
	if err != nil {
		t.Fatal(err)
	}
	w := lr.Coef().RawRowView(0)
	b := lr.Intercept()[0]
	for i := 0; i < n; i++ {
		want := b + w[0]*big.At(i, 0) + w[1]*big.At(i, 1)
		if math.Abs(scores.At(i, 0)-want) > 1e-9 {
			t.Fatalf("row %d: got %v, want %v", i, scores.At(i, 0), want)
		}
	}
}

func TestLogisticRegression_ConvergenceWarning(t *testing.T) {
	warnings := captureWarnings(t)
	X, y := separableData()

	lr := NewLogisticRegression(WithLRMaxIter(1))
	if err := lr.Fit(X, y); err != nil {
		t.Fatal(err)
	}

	if len(*warnings) == 0 {
		t.Fatal("expected a ConvergenceWarning")
	}
	var cw *errors.ConvergenceWarning
	if !errors.As((*warnings)[0], &cw) {
		t.Fatalf("expected ConvergenceWarning, got %T", (*warnings)[0])
	}
	if cw.Algorithm != SolverLBFGS {
		t.Errorf("algorithm = %q", cw.Algorithm)
	}
}

func TestLogisticRegression_ExportWeights(t *testing.T) {
	X, y := separableData()
	lr := NewLogisticRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatal(err)
	}

	mw, err := lr.ExportWeights()
	if err != nil {
		t.Fatal(err)
	}
	if err := mw.Validate(); err != nil {
		t.Fatal(err)
	}
	if mw.ModelType != "LogisticRegression" || len(mw.Coefficients) != 2 {
		t.Errorf("unexpected weights %+v", mw)
	}
	if mw.Intercept != lr.Intercept()[0] {
		t.Errorf("intercept mismatch")
	}
	if len(lr.NIter()) != 1 || lr.NIter()[0] <= 0 {
		t.Errorf("unexpected n_iter %v", lr.NIter())
	}
}

func TestLogisticRegression_GetSetParams(t *testing.T) {
	lr := NewLogisticRegression()

	params := lr.GetParams()
	if params["C"].(float64) != 1.0 {
		t.Errorf("Default C should be 1.0, got %v", params["C"])
	}
	if params["max_iter"].(int) != 100 {
		t.Errorf("Default max_iter should be 100, got %v", params["max_iter"])
	}
	if params["solver"].(string) != SolverLBFGS {
		t.Errorf("Default solver should be lbfgs, got %v", params["solver"])
	}

	err := lr.SetParams(map[string]interface{}{
		"C":        2.0,
		"max_iter": 200,
		"penalty":  "none",
		"tol":      1e-5,
	})
	if err != nil {
		t.Fatalf("Failed to set params: %v", err)
	}
	if lr.C != 2.0 || lr.maxIter != 200 || lr.penalty != PenaltyNone || lr.tol != 1e-5 {
		t.Errorf("params not updated: %v", lr.GetParams())
	}

	var ve *errors.ValidationError
	if err := lr.SetParams(map[string]interface{}{"C": "big"}); !errors.As(err, &ve) {
		t.Errorf("expected ValidationError for wrong type, got %v", err)
	}
	if err := lr.SetParams(map[string]interface{}{"l1_ratio": 0.5}); !errors.As(err, &ve) {
		t.Errorf("expected ValidationError for unknown key, got %v", err)
	}
}

func TestLogisticRegression_Errors(t *testing.T) {
	X, y := separableData()

	tests := []struct {
		name string
		run  func() error
		is   func(error) bool
	}{
		{
			name: "predict before fit",
			run: func() error {
				_, err := NewLogisticRegression().Predict(X)
				return err
			},
			is: func(err error) bool {
				var nf *errors.NotFittedError
				return errors.As(err, &nf)
			},
		},
		{
			name: "proba before fit",
			run: func() error {
				_, err := NewLogisticRegression().PredictProba(X)
				return err
			},
			is: func(err error) bool {
				var nf *errors.NotFittedError
				return errors.As(err, &nf)
			},
		},
		{
			name: "feature mismatch",
			run: func() error {
				lr := NewLogisticRegression()
				if err := lr.Fit(X, y); err != nil {
					return err
				}
				_, err := lr.Predict(mat.NewDense(1, 3, nil))
				return err
			},
			is: func(err error) bool {
				var de *errors.DimensionError
				return errors.As(err, &de)
			},
		},
		{
			name: "single class",
			run: func() error {
				return NewLogisticRegression().Fit(X, mat.NewDense(6, 1, nil))
			},
			is: func(err error) bool { return errors.Is(err, errors.ErrSingleClass) },
		},
		{
			name: "row mismatch",
			run: func() error {
				return NewLogisticRegression().Fit(X, mat.NewDense(5, 1, []float64{0, 1, 0, 1, 0}))
			},
			is: func(err error) bool {
				var de *errors.DimensionError
				return errors.As(err, &de)
			},
		},
		{
			name: "invalid solver",
			run: func() error {
				return NewLogisticRegression(WithLRSolver("saga")).Fit(X, y)
			},
			is: func(err error) bool {
				var ve *errors.ValidationError
				return errors.As(err, &ve)
			},
		},
		{
			name: "non-positive C",
			run: func() error {
				return NewLogisticRegression(WithLRC(0)).Fit(X, y)
			},
			is: func(err error) bool {
				var ve *errors.ValidationError
				return errors.As(err, &ve)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if err == nil {
				t.Fatal("expected error")
			}
			if !tt.is(err) {
				t.Errorf("unexpected error type %T: %v", err, err)
			}
		})
	}
}

func TestSigmoidAndSoftplusStable(t *testing.T) {
	if got := sigmoid(-1000); got != 0 {
		t.Errorf("sigmoid(-1000) = %v", got)
	}
	if got := sigmoid(1000); got != 1 {
		t.Errorf("sigmoid(1000) = %v", got)
	}
	if got := softplus(1000); math.Abs(got-1000) > 1e-9 {
		t.Errorf("softplus(1000) = %v", got)
	}
	if got := softplus(0); math.Abs(got-math.Ln2) > 1e-12 {
		t.Errorf("softplus(0) = %v", got)
	}
}
