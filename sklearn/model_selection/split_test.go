package model_selection

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/heartpredict/pkg/errors"
)

// heartLikeTarget mimics the class balance of the heart dataset: 138 negatives, 165 positives.
func heartLikeTarget() *mat.Dense {
	y := mat.NewDense(303, 1, nil)
	for i := 138; i < 303; i++ {
		y.Set(i, 0, 1)
	}
	return y
}

func countLabel(y mat.Matrix, label float64) int {
	r, _ := y.Dims()
	n := 0
	for i := 0; i < r; i++ {
		if y.At(i, 0) == label {
			n++
		}
	}
	return n
}

func TestTrainTestSplitStratified(t *testing.T) {
	y := heartLikeTarget()
	X := mat.NewDense(303, 2, nil)
	for i := 0; i < 303; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, y.At(i, 0))
	}

	XTrain, XTest, yTrain, yTest, err := TrainTestSplit(X, y,
		WithTestSize(0.2), WithStratify(true), WithRandomState(2))
	require.NoError(t, err)

	trainRows, _ := XTrain.Dims()
	testRows, _ := XTest.Dims()
	assert.Equal(t, 242, trainRows)
	assert.Equal(t, 61, testRows)

	assert.Equal(t, 28, countLabel(yTest, 0))
	assert.Equal(t, 33, countLabel(yTest, 1))
	assert.Equal(t, 110, countLabel(yTrain, 0))
	assert.Equal(t, 132, countLabel(yTrain, 1))

	// rows stay aligned with their labels
	for i := 0; i < testRows; i++ {
		assert.Equal(t, XTest.At(i, 1), yTest.At(i, 0))
	}

	// every row lands in exactly one split
	seen := make([]int, 0, 303)
	for i := 0; i < trainRows; i++ {
		seen = append(seen, int(XTrain.At(i, 0)))
	}
	for i := 0; i < testRows; i++ {
		seen = append(seen, int(XTest.At(i, 0)))
	}
	sort.Ints(seen)
	for i, v := range seen {
		require.Equal(t, i, v)
	}
}

func TestTrainTestSplitDeterministic(t *testing.T) {
	y := heartLikeTarget()

	train1, test1, err := TrainTestSplitIndices(y, WithTestSize(0.2), WithStratify(true), WithRandomState(2))
	require.NoError(t, err)
	train2, test2, err := TrainTestSplitIndices(y, WithTestSize(0.2), WithStratify(true), WithRandomState(2))
	require.NoError(t, err)
	assert.Equal(t, train1, train2)
	assert.Equal(t, test1, test2)

	_, test3, err := TrainTestSplitIndices(y, WithTestSize(0.2), WithStratify(true), WithRandomState(3))
	require.NoError(t, err)
	assert.NotEqual(t, test1, test3)
}

func TestTrainTestSplitNoShuffle(t *testing.T) {
	y := mat.NewDense(10, 1, []float64{0, 1, 0, 1, 0, 1, 0, 1, 0, 1})
	train, test, err := TrainTestSplitIndices(y, WithTestSize(0.25), WithShuffle(false))
	require.NoError(t, err)

	// ceil(10 * 0.25) = 3
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, train)
	assert.Equal(t, []int{7, 8, 9}, test)
}

func TestTrainTestSplitShuffled(t *testing.T) {
	y := mat.NewDense(10, 1, nil)
	train, test, err := TrainTestSplitIndices(y, WithTestSize(0.2), WithRandomState(1))
	require.NoError(t, err)
	assert.Len(t, train, 8)
	assert.Len(t, test, 2)
}

func TestTrainTestSplitErrors(t *testing.T) {
	X := mat.NewDense(4, 1, nil)
	y := mat.NewDense(4, 1, []float64{0, 0, 0, 1})

	tests := []struct {
		name string
		X, y mat.Matrix
		opts []Option
	}{
		{name: "test size zero", X: X, y: y, opts: []Option{WithTestSize(0)}},
		{name: "test size one", X: X, y: y, opts: []Option{WithTestSize(1)}},
		{name: "singleton class", X: X, y: y, opts: []Option{WithStratify(true)}},
		{name: "stratify without shuffle", X: X, y: mat.NewDense(4, 1, []float64{0, 0, 1, 1}),
			opts: []Option{WithStratify(true), WithShuffle(false)}},
		{name: "row mismatch", X: mat.NewDense(3, 1, nil), y: y},
		{name: "2d target", X: X, y: mat.NewDense(4, 2, nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, _, err := TrainTestSplit(tt.X, tt.y, tt.opts...)
			assert.Error(t, err)
		})
	}

	var ve *errors.ValidationError
	_, _, err := TrainTestSplitIndices(y, WithTestSize(1.5))
	assert.True(t, errors.As(err, &ve))
}

func TestAllocateLargestRemainder(t *testing.T) {
	classIndices := map[float64][]int{
		0: make([]int, 138),
		1: make([]int, 165),
	}
	alloc := allocate([]float64{0, 1}, classIndices, 61, 303)
	assert.Equal(t, 28, alloc[0])
	assert.Equal(t, 33, alloc[1])
}
