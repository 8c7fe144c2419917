package linear_model

import (
	"bytes"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func reproducibilityData() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(100, 3, nil)
	y := mat.NewDense(100, 1, nil)
	for i := 0; i < 100; i++ {
		X.Set(i, 0, math.Sin(float64(i)/10.0))
		X.Set(i, 1, math.Cos(float64(i)/10.0))
		X.Set(i, 2, float64(i)/50.0-1)
		if 2*X.At(i, 0)+3*X.At(i, 1)-X.At(i, 2)+float64(i%5)/10.0 > 0.5 {
			y.Set(i, 0, 1)
		}
	}
	return X, y
}

// TestLogisticRegressionWeightReproducibility は同じデータで学習した重みが完全に一致することをテスト
func TestLogisticRegressionWeightReproducibility(t *testing.T) {
	for _, solver := range []string{SolverLBFGS, SolverGD} {
		t.Run(solver, func(t *testing.T) {
			captureWarnings(t)
			X, y := reproducibilityData()

			model1 := NewLogisticRegression(WithLRSolver(solver), WithLRRandomState(7), WithLRMaxIter(300))
			model2 := NewLogisticRegression(WithLRSolver(solver), WithLRRandomState(7), WithLRMaxIter(300))
			if err := model1.Fit(X, y); err != nil {
				t.Fatalf("Failed to fit model1: %v", err)
			}
			if err := model2.Fit(X, y); err != nil {
				t.Fatalf("Failed to fit model2: %v", err)
			}

			w1, err := model1.ExportWeights()
			if err != nil {
				t.Fatal(err)
			}
			w2, err := model2.ExportWeights()
			if err != nil {
				t.Fatal(err)
			}

			for i := range w1.Coefficients {
				if w1.Coefficients[i] != w2.Coefficients[i] {
					t.Errorf("coefficient %d differs: %v vs %v", i, w1.Coefficients[i], w2.Coefficients[i])
				}
			}
			if w1.Intercept != w2.Intercept {
				t.Errorf("intercept differs: %v vs %v", w1.Intercept, w2.Intercept)
			}

			j1, err := w1.ToJSON()
			if err != nil {
				t.Fatal(err)
			}
			j2, err := w2.ToJSON()
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(j1, j2) {
				t.Error("JSON exports differ")
			}

			p1, _ := model1.PredictProba(X)
			p2, _ := model2.PredictProba(X)
			if !mat.Equal(p1, p2) {
				t.Error("probabilities differ between identical fits")
			}
		})
	}
}

// TestExportWeightsIsCopy は ExportWeights の結果を変更してもモデルに影響しないことをテスト
func TestExportWeightsIsCopy(t *testing.T) {
	X, y := reproducibilityData()
	lr := NewLogisticRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatal(err)
	}

	before := lr.Coef().At(0, 0)
	w, err := lr.ExportWeights()
	if err != nil {
		t.Fatal(err)
	}
	w.Coefficients[0] = 1e9

	if lr.Coef().At(0, 0) != before {
		t.Error("ExportWeights must not share storage with the model")
	}
}
