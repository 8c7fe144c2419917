package preprocessing

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/heartpredict/pkg/errors"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestStandardScaler(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 10,
		3, 10,
		4, 10,
	})

	s := NewStandardScalerDefault()
	out, err := s.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}

	if !almostEqual(s.Mean[0], 2.5) {
		t.Errorf("mean[0] = %v, want 2.5", s.Mean[0])
	}
	// population std of 1..4
	if !almostEqual(s.Scale[0], math.Sqrt(1.25)) {
		t.Errorf("scale[0] = %v, want %v", s.Scale[0], math.Sqrt(1.25))
	}
	// constant column keeps unit scale
	if s.Scale[1] != 1 {
		t.Errorf("scale[1] = %v, want 1", s.Scale[1])
	}

	colSum := 0.0
	for i := 0; i < 4; i++ {
		colSum += out.At(i, 0)
		if out.At(i, 1) != 0 {
			t.Errorf("constant column should map to 0, got %v", out.At(i, 1))
		}
	}
	if !almostEqual(colSum, 0) {
		t.Errorf("standardized column should have zero mean, sum=%v", colSum)
	}

	back, err := s.InverseTransform(out)
	if err != nil {
		t.Fatalf("InverseTransform: %v", err)
	}
	if !mat.EqualApprox(back, X, 1e-9) {
		t.Errorf("round trip mismatch: %v", mat.Formatted(back))
	}
}

func TestStandardScalerWithoutMean(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{2, 4})
	s := NewStandardScaler(false, true)
	out, err := s.FitTransform(X)
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(out.At(0, 0), 2) || !almostEqual(out.At(1, 0), 4) {
		t.Errorf("unexpected output %v", mat.Formatted(out))
	}
}

func TestScalerErrors(t *testing.T) {
	tests := []struct {
		name string
		run  func() error
		want interface{}
	}{
		{
			name: "standard not fitted",
			run: func() error {
				_, err := NewStandardScalerDefault().Transform(mat.NewDense(1, 1, nil))
				return err
			},
			want: &errors.NotFittedError{},
		},
		{
			name: "minmax not fitted",
			run: func() error {
				_, err := NewMinMaxScalerDefault().InverseTransform(mat.NewDense(1, 1, nil))
				return err
			},
			want: &errors.NotFittedError{},
		},
		{
			name: "standard dimension mismatch",
			run: func() error {
				s := NewStandardScalerDefault()
				if err := s.Fit(mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})); err != nil {
					return err
				}
				_, err := s.Transform(mat.NewDense(1, 2, nil))
				return err
			},
			want: &errors.DimensionError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if err == nil {
				t.Fatal("expected error")
			}
			switch tt.want.(type) {
			case *errors.NotFittedError:
				var target *errors.NotFittedError
				if !errors.As(err, &target) {
					t.Errorf("expected NotFittedError, got %T: %v", err, err)
				}
			case *errors.DimensionError:
				var target *errors.DimensionError
				if !errors.As(err, &target) {
					t.Errorf("expected DimensionError, got %T: %v", err, err)
				}
			}
		})
	}
}

func TestMinMaxScaler(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		0, 5,
		5, 5,
		10, 5,
	})

	m := NewMinMaxScaler([2]float64{-1, 1})
	out, err := m.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}

	want := []float64{-1, 0, 1}
	for i, w := range want {
		if !almostEqual(out.At(i, 0), w) {
			t.Errorf("row %d: got %v, want %v", i, out.At(i, 0), w)
		}
		if !almostEqual(out.At(i, 1), -1) {
			t.Errorf("constant column row %d: got %v, want -1", i, out.At(i, 1))
		}
	}

	back, err := m.InverseTransform(out)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.EqualApprox(back, X, 1e-9) {
		t.Errorf("round trip mismatch: %v", mat.Formatted(back))
	}
}

func TestMinMaxScalerInvalidRange(t *testing.T) {
	m := NewMinMaxScaler([2]float64{1, 1})
	err := m.Fit(mat.NewDense(1, 1, []float64{3}))
	var ve *errors.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
