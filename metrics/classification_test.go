package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/heartpredict/pkg/errors"
)

// vecs builds label and probability vectors, leaving empty inputs nil.
func vecs(yTrue, yPred []float64) (*mat.VecDense, *mat.VecDense) {
	var t, p *mat.VecDense
	if len(yTrue) > 0 {
		t = mat.NewVecDense(len(yTrue), yTrue)
	}
	if len(yPred) > 0 {
		p = mat.NewVecDense(len(yPred), yPred)
	}
	return t, p
}

func TestAUC(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yPred   []float64
		want    float64
		wantErr bool
	}{
		{
			name:  "Diseased patients ranked first",
			yTrue: []float64{0, 0, 0, 1, 1, 1},
			yPred: []float64{0.08, 0.21, 0.34, 0.66, 0.79, 0.93},
			want:  1.0,
		},
		{
			name:  "Ranking inverted",
			yTrue: []float64{0, 0, 0, 1, 1, 1},
			yPred: []float64{0.93, 0.79, 0.66, 0.34, 0.21, 0.08},
			want:  0.0,
		},
		{
			name:  "One healthy patient scored above a diseased one",
			yTrue: []float64{1, 0, 1, 0, 1, 0},
			yPred: []float64{0.91, 0.12, 0.64, 0.71, 0.83, 0.08},
			want:  8.0 / 9.0,
		},
		{
			name:  "Typical case",
			yTrue: []float64{0, 0, 1, 1},
			yPred: []float64{0.1, 0.4, 0.35, 0.8},
			want:  0.75,
		},
		{
			name:    "Target outside 0/1",
			yTrue:   []float64{0, 2, 1},
			yPred:   []float64{0.1, 0.5, 0.9},
			wantErr: true,
		},
		{
			name:    "Dimension mismatch",
			yTrue:   []float64{0, 1},
			yPred:   []float64{0.5},
			wantErr: true,
		},
		{
			name:    "Empty vectors",
			yTrue:   []float64{},
			yPred:   []float64{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yTrue, yPred := vecs(tt.yTrue, tt.yPred)
			got, err := AUC(yTrue, yPred)
			if (err != nil) != tt.wantErr {
				t.Errorf("AUC() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("AUC() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAUC_SingleClassWarns(t *testing.T) {
	for _, label := range []float64{0, 1} {
		var warnings []error
		errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })

		yTrue, yPred := vecs([]float64{label, label, label}, []float64{0.2, 0.6, 0.9})
		got, err := AUC(yTrue, yPred)
		errors.SetWarningHandler(nil)
		if err != nil {
			t.Fatal(err)
		}
		if got != 0.5 {
			t.Errorf("label %v: AUC() = %v, want 0.5", label, got)
		}
		if len(warnings) != 1 {
			t.Fatalf("label %v: expected 1 warning, got %d", label, len(warnings))
		}
		var umw *errors.UndefinedMetricWarning
		if !errors.As(warnings[0], &umw) || umw.Metric != "AUC" || umw.Result != 0.5 {
			t.Errorf("label %v: unexpected warning %v", label, warnings[0])
		}
	}
}

func TestAUCMatrix(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   mat.Matrix
		yPred   mat.Matrix
		want    float64
		wantErr bool
	}{
		{
			name:  "Column of targets",
			yTrue: mat.NewDense(4, 1, []float64{0, 0, 1, 1}),
			yPred: mat.NewDense(4, 1, []float64{0.1, 0.4, 0.35, 0.8}),
			want:  0.75,
		},
		{
			name:  "PredictProba layout uses the first column",
			yTrue: mat.NewDense(4, 2, []float64{0, 9, 0, 9, 1, 9, 1, 9}),
			yPred: mat.NewDense(4, 2, []float64{0.1, 9, 0.4, 9, 0.35, 9, 0.8, 9}),
			want:  0.75,
		},
		{
			name:    "Nil matrix",
			yPred:   mat.NewDense(1, 1, []float64{0.5}),
			wantErr: true,
		},
		{
			name:    "Empty matrix",
			yTrue:   &mat.Dense{},
			yPred:   &mat.Dense{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AUCMatrix(tt.yTrue, tt.yPred)
			if (err != nil) != tt.wantErr {
				t.Errorf("AUCMatrix() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("AUCMatrix() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestROCCurveEndpoints(t *testing.T) {
	yTrue, scores := vecs([]float64{1, 0, 1, 0, 1, 0}, []float64{0.91, 0.12, 0.64, 0.71, 0.83, 0.08})

	fpr, tpr, _, err := ROCCurve(yTrue, scores)
	if err != nil {
		t.Fatal(err)
	}
	if len(fpr) != len(tpr) || len(fpr) < 2 {
		t.Fatalf("unexpected curve lengths %d/%d", len(fpr), len(tpr))
	}
	if fpr[0] != 0 || tpr[0] != 0 {
		t.Errorf("curve should start at (0,0), got (%v,%v)", fpr[0], tpr[0])
	}
	last := len(fpr) - 1
	if fpr[last] != 1 || tpr[last] != 1 {
		t.Errorf("curve should end at (1,1), got (%v,%v)", fpr[last], tpr[last])
	}
}

func TestBinaryLogLoss(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yPred   []float64
		want    float64
		wantErr bool
	}{
		{
			name:  "Certain and correct",
			yTrue: []float64{0, 0, 1, 1},
			yPred: []float64{0, 0, 1, 1},
			want:  0.0, // clipped, so only approximately zero
		},
		{
			name:  "Confident screening",
			yTrue: []float64{0, 0, 1, 1},
			yPred: []float64{0.1, 0.2, 0.8, 0.9},
			want:  0.164252,
		},
		{
			name:  "Two patients",
			yTrue: []float64{1, 0},
			yPred: []float64{0.8, 0.3},
			want:  0.289909,
		},
		{
			name:  "Confidently wrong",
			yTrue: []float64{0, 0, 1, 1},
			yPred: []float64{0.9, 0.9, 0.1, 0.1},
			want:  2.3025851,
		},
		{
			name:    "Target outside 0/1",
			yTrue:   []float64{0, 2, 1},
			yPred:   []float64{0.1, 0.5, 0.9},
			wantErr: true,
		},
		{
			name:    "Empty vectors",
			yTrue:   []float64{},
			yPred:   []float64{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yTrue, yPred := vecs(tt.yTrue, tt.yPred)
			got, err := BinaryLogLoss(yTrue, yPred)
			if (err != nil) != tt.wantErr {
				t.Errorf("BinaryLogLoss() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 0.01 {
				t.Errorf("BinaryLogLoss() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yPred   []float64
		want    float64
		wantErr bool
	}{
		{
			name:  "All patients correct",
			yTrue: []float64{1, 0, 1, 1, 0},
			yPred: []float64{1, 0, 1, 1, 0},
			want:  1.0,
		},
		{
			name:  "One missed disease",
			yTrue: []float64{1, 0, 1, 1, 0},
			yPred: []float64{1, 0, 0, 1, 0},
			want:  0.8,
		},
		{
			name:  "Everyone flagged as diseased",
			yTrue: []float64{0, 0, 0},
			yPred: []float64{1, 1, 1},
			want:  0.0,
		},
		{
			name:    "Empty vectors",
			yTrue:   []float64{},
			yPred:   []float64{},
			wantErr: true,
		},
		{
			name:    "Dimension mismatch",
			yTrue:   []float64{0, 1},
			yPred:   []float64{0},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yTrue, yPred := vecs(tt.yTrue, tt.yPred)
			got, err := Accuracy(yTrue, yPred)
			if (err != nil) != tt.wantErr {
				t.Errorf("Accuracy() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("Accuracy() = %v, want %v", got, tt.want)
			}

			ce, err := ClassificationError(yTrue, yPred)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(ce-(1-tt.want)) > 1e-6 {
				t.Errorf("ClassificationError() = %v, want %v", ce, 1-tt.want)
			}
		})
	}
}

func TestAccuracyScore(t *testing.T) {
	yTrue := mat.NewDense(5, 1, []float64{0, 1, 1, 0, 1})
	yPred := mat.NewDense(5, 1, []float64{0, 1, 0, 0, 1})

	got, err := AccuracyScore(yTrue, yPred)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-0.8) > 1e-12 {
		t.Errorf("AccuracyScore() = %v, want 0.8", got)
	}

	if _, err := AccuracyScore(yTrue, mat.NewDense(4, 1, nil)); err == nil {
		t.Error("expected dimension error")
	}
}

func TestConfusionMatrix(t *testing.T) {
	yTrue := mat.NewDense(6, 1, []float64{0, 0, 1, 1, 1, 0})
	yPred := mat.NewDense(6, 1, []float64{0, 1, 1, 1, 0, 0})

	cm, labels, err := ConfusionMatrix(yTrue, yPred)
	if err != nil {
		t.Fatal(err)
	}
	if len(labels) != 2 || labels[0] != 0 || labels[1] != 1 {
		t.Fatalf("labels = %v", labels)
	}
	want := mat.NewDense(2, 2, []float64{
		2, 1,
		1, 2,
	})
	if !mat.Equal(cm, want) {
		t.Errorf("ConfusionMatrix() =\n%v\nwant\n%v", mat.Formatted(cm), mat.Formatted(want))
	}
}

func TestPrecisionRecallF1(t *testing.T) {
	yTrue := mat.NewDense(6, 1, []float64{1, 1, 1, 0, 0, 0})
	yPred := mat.NewDense(6, 1, []float64{1, 1, 0, 1, 0, 0})

	p, r, f1, err := PrecisionRecallF1(yTrue, yPred, 1)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(p-2.0/3) > 1e-12 || math.Abs(r-2.0/3) > 1e-12 || math.Abs(f1-2.0/3) > 1e-12 {
		t.Errorf("got p=%v r=%v f1=%v", p, r, f1)
	}
}

func TestPrecisionUndefinedWarns(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	defer errors.SetWarningHandler(nil)

	yTrue := mat.NewDense(3, 1, []float64{1, 0, 1})
	yPred := mat.NewDense(3, 1, []float64{0, 0, 0})

	p, r, f1, err := PrecisionRecallF1(yTrue, yPred, 1)
	if err != nil {
		t.Fatal(err)
	}
	if p != 0 || r != 0 || f1 != 0 {
		t.Errorf("expected zeros, got p=%v r=%v f1=%v", p, r, f1)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(warnings))
	}
	var umw *errors.UndefinedMetricWarning
	if !errors.As(warnings[0], &umw) || umw.Metric != "precision" {
		t.Errorf("unexpected warning %v", warnings[0])
	}
}

func BenchmarkAUC(b *testing.B) {
	n := 1000
	yTrue := make([]float64, n)
	yPred := make([]float64, n)
	for i := 0; i < n; i++ {
		if i >= n/2 {
			yTrue[i] = 1
		}
		yPred[i] = float64(i) / float64(n)
	}
	yTrueVec, yPredVec := vecs(yTrue, yPred)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = AUC(yTrueVec, yPredVec)
	}
}
