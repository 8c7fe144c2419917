package heart

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Dataset is an ordered collection of records.
type Dataset struct {
	Source  string
	Records []Record
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.Records)
}

// Shape returns (rows, columns) counting the target column, like DataFrame.shape.
func (d *Dataset) Shape() (int, int) {
	return len(d.Records), NumFeatures + 1
}

// Features returns the n×13 feature matrix in canonical order.
func (d *Dataset) Features() *mat.Dense {
	X := mat.NewDense(len(d.Records), NumFeatures, nil)
	for i, r := range d.Records {
		X.SetRow(i, r.Vector())
	}
	return X
}

// Targets returns the n×1 label matrix.
func (d *Dataset) Targets() *mat.Dense {
	y := mat.NewDense(len(d.Records), 1, nil)
	for i, r := range d.Records {
		y.Set(i, 0, float64(r.Target))
	}
	return y
}

// Head returns the first n records.
func (d *Dataset) Head(n int) []Record {
	if n > len(d.Records) {
		n = len(d.Records)
	}
	if n < 0 {
		n = 0
	}
	return d.Records[:n]
}

// Tail returns the last n records.
func (d *Dataset) Tail(n int) []Record {
	if n > len(d.Records) {
		n = len(d.Records)
	}
	if n < 0 {
		n = 0
	}
	return d.Records[len(d.Records)-n:]
}

// ClassCount is the frequency of one target value.
type ClassCount struct {
	Label int
	Count int
}

// ValueCounts returns target frequencies, most frequent first.
func (d *Dataset) ValueCounts() []ClassCount {
	counts := make(map[int]int)
	for _, r := range d.Records {
		counts[r.Target]++
	}

	out := make([]ClassCount, 0, len(counts))
	for label, n := range counts {
		out = append(out, ClassCount{Label: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}
