package heart

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ColumnSummary holds the statistics of one column, like a column of
// DataFrame.describe(). Std is the sample standard deviation.
type ColumnSummary struct {
	Name  string
	Count int
	Mean  float64
	Std   float64
	Min   float64
	Q25   float64
	Q50   float64
	Q75   float64
	Max   float64
}

// Columns returns the feature names followed by target.
func Columns() []string {
	return append(append([]string(nil), FeatureNames...), ColTarget)
}

// Column returns the values of one column, including target.
func (d *Dataset) Column(name string) []float64 {
	out := make([]float64, len(d.Records))
	for i, r := range d.Records {
		if name == ColTarget {
			out[i] = float64(r.Target)
			continue
		}
		out[i], _ = r.Get(name)
	}
	return out
}

// Describe summarises every column of the dataset.
func Describe(d *Dataset) []ColumnSummary {
	summaries := make([]ColumnSummary, 0, NumFeatures+1)
	for _, name := range Columns() {
		summaries = append(summaries, summarize(name, d.Column(name)))
	}
	return summaries
}

func summarize(name string, values []float64) ColumnSummary {
	s := ColumnSummary{Name: name, Count: len(values)}
	if len(values) == 0 {
		return s
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	s.Mean = stat.Mean(values, nil)
	if len(values) > 1 {
		s.Std = stat.StdDev(values, nil)
	}
	s.Min = floats.Min(sorted)
	s.Max = floats.Max(sorted)
	s.Q25 = percentile(sorted, 0.25)
	s.Q50 = percentile(sorted, 0.50)
	s.Q75 = percentile(sorted, 0.75)
	return s
}

// percentile interpolates linearly between the closest ranks at (n-1)*p.
// stat.Quantile only offers empirical and p*n based interpolation.
func percentile(sorted []float64, p float64) float64 {
	pos := p * float64(len(sorted)-1)
	lo := int(pos)
	if lo+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// MissingCounts reports missing values per column. Parsing rejects empty
// cells, so every count of a loaded dataset is zero.
func MissingCounts(d *Dataset) map[string]int {
	counts := make(map[string]int, NumFeatures+1)
	for _, name := range Columns() {
		counts[name] = 0
	}
	return counts
}
