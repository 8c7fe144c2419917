// Package model_selection provides train/test splitting and k-fold
// cross-validation with scikit-learn semantics.
package model_selection

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/heartpredict/pkg/errors"
)

// splitConfig holds TrainTestSplit options.
type splitConfig struct {
	testSize    float64
	randomState int64
	stratify    bool
	shuffle     bool
}

// Option configures TrainTestSplit.
type Option func(*splitConfig)

// WithTestSize sets the fraction of rows placed in the test split (default 0.25).
func WithTestSize(size float64) Option {
	return func(c *splitConfig) {
		c.testSize = size
	}
}

// WithRandomState seeds the shuffle so that splits are reproducible.
func WithRandomState(seed int64) Option {
	return func(c *splitConfig) {
		c.randomState = seed
	}
}

// WithStratify keeps the class proportions of y in both splits.
func WithStratify(stratify bool) Option {
	return func(c *splitConfig) {
		c.stratify = stratify
	}
}

// WithShuffle controls whether rows are shuffled before splitting (default true).
func WithShuffle(shuffle bool) Option {
	return func(c *splitConfig) {
		c.shuffle = shuffle
	}
}

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
}

// TrainTestSplitIndices returns the row indices of the train and test splits.
// The test split has ceil(n*testSize) rows. Stratified splits allocate test
// rows per class proportionally, handing out the rounding remainder to the
// classes with the largest fractional parts.
func TrainTestSplitIndices(y mat.Matrix, opts ...Option) (train, test []int, err error) {
	cfg := splitConfig{testSize: 0.25, shuffle: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	if y == nil {
		return nil, nil, errors.NewValueError("TrainTestSplit", "nil target")
	}
	n, _ := y.Dims()
	if n == 0 {
		return nil, nil, errors.NewModelError("TrainTestSplit", "empty data", errors.ErrEmptyData)
	}
	if !(cfg.testSize > 0 && cfg.testSize < 1) {
		return nil, nil, errors.NewValidationError("test_size", "must be in the open interval (0, 1)", cfg.testSize)
	}

	nTest := int(math.Ceil(float64(n) * cfg.testSize))
	nTrain := n - nTest
	if nTrain < 1 || nTest < 1 {
		return nil, nil, errors.NewValueError("TrainTestSplit",
			"with the given test_size one of the resulting splits would be empty")
	}

	if cfg.stratify {
		if !cfg.shuffle {
			return nil, nil, errors.NewValidationError("shuffle", "stratified splits require shuffle=true", cfg.shuffle)
		}
		return stratifiedSplit(y, nTest, newRand(cfg.randomState))
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	if !cfg.shuffle {
		return indices[:nTrain], indices[nTrain:], nil
	}

	r := newRand(cfg.randomState)
	r.Shuffle(len(indices), func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})
	return indices[nTest:], indices[:nTest], nil
}

func stratifiedSplit(y mat.Matrix, nTest int, r *rand.Rand) (train, test []int, err error) {
	n, _ := y.Dims()

	classIndices := make(map[float64][]int)
	for i := 0; i < n; i++ {
		label := y.At(i, 0)
		classIndices[label] = append(classIndices[label], i)
	}

	labels := make([]float64, 0, len(classIndices))
	for label, idx := range classIndices {
		if len(idx) < 2 {
			return nil, nil, errors.NewValueError("TrainTestSplit",
				"the least populated class in y has only 1 member, which is too few to stratify")
		}
		labels = append(labels, label)
	}
	sort.Float64s(labels)

	if nTest < len(labels) || n-nTest < len(labels) {
		return nil, nil, errors.NewValueError("TrainTestSplit",
			"both splits must be at least as large as the number of classes")
	}

	alloc := allocate(labels, classIndices, nTest, n)

	for _, label := range labels {
		idx := classIndices[label]
		r.Shuffle(len(idx), func(i, j int) {
			idx[i], idx[j] = idx[j], idx[i]
		})
		test = append(test, idx[:alloc[label]]...)
		train = append(train, idx[alloc[label]:]...)
	}

	// interleave classes
	r.Shuffle(len(train), func(i, j int) { train[i], train[j] = train[j], train[i] })
	r.Shuffle(len(test), func(i, j int) { test[i], test[j] = test[j], test[i] })
	return train, test, nil
}

// allocate distributes total test rows across classes with the
// largest-remainder method. Ties go to the lower label.
func allocate(labels []float64, classIndices map[float64][]int, total, n int) map[float64]int {
	type share struct {
		label     float64
		remainder float64
	}

	alloc := make(map[float64]int, len(labels))
	shares := make([]share, 0, len(labels))
	assigned := 0
	for _, label := range labels {
		exact := float64(total) * float64(len(classIndices[label])) / float64(n)
		whole := math.Floor(exact)
		alloc[label] = int(whole)
		assigned += int(whole)
		shares = append(shares, share{label: label, remainder: exact - whole})
	}

	sort.SliceStable(shares, func(i, j int) bool { return shares[i].remainder > shares[j].remainder })
	for i := 0; assigned < total; i = (i + 1) % len(shares) {
		label := shares[i].label
		if alloc[label] < len(classIndices[label]) {
			alloc[label]++
			assigned++
		}
	}
	return alloc
}

// TrainTestSplit splits X and y into random train and test subsets.
//
// 使用例:
//
//	XTrain, XTest, yTrain, yTest, err := model_selection.TrainTestSplit(X, y,
//	    model_selection.WithTestSize(0.2),
//	    model_selection.WithStratify(true),
//	    model_selection.WithRandomState(2),
//	)
func TrainTestSplit(X, y mat.Matrix, opts ...Option) (XTrain, XTest, yTrain, yTest *mat.Dense, err error) {
	if X == nil || y == nil {
		return nil, nil, nil, nil, errors.NewValueError("TrainTestSplit", "nil input")
	}
	xRows, _ := X.Dims()
	yRows, yCols := y.Dims()
	if xRows != yRows {
		return nil, nil, nil, nil, errors.NewDimensionError("TrainTestSplit", xRows, yRows, 0)
	}
	if yCols != 1 {
		return nil, nil, nil, nil, errors.NewInputShapeError("split", []int{yRows, 1}, []int{yRows, yCols})
	}

	train, test, err := TrainTestSplitIndices(y, opts...)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	XTrain, yTrain = Subset(X, y, train)
	XTest, yTest = Subset(X, y, test)
	return XTrain, XTest, yTrain, yTest, nil
}

// Subset copies the given rows of X and y, in the order of indices.
func Subset(X, y mat.Matrix, indices []int) (*mat.Dense, *mat.Dense) {
	_, xCols := X.Dims()
	_, yCols := y.Dims()

	xSubset := mat.NewDense(len(indices), xCols, nil)
	ySubset := mat.NewDense(len(indices), yCols, nil)

	for i, idx := range indices {
		for j := 0; j < xCols; j++ {
			xSubset.Set(i, j, X.At(idx, j))
		}
		for j := 0; j < yCols; j++ {
			ySubset.Set(i, j, y.At(idx, j))
		}
	}

	return xSubset, ySubset
}
