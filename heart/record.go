// Package heart models the patient records of the UCI heart disease dataset:
// typed records with a canonical feature order, CSV loading, summary
// statistics and the form field catalogue.
package heart

import (
	"fmt"

	"github.com/YuminosukeSato/heartpredict/pkg/errors"
)

// Column names as they appear in the dataset header.
const (
	ColAge      = "age"
	ColSex      = "sex"
	ColCP       = "cp"
	ColTrestbps = "trestbps"
	ColChol     = "chol"
	ColFbs      = "fbs"
	ColRestecg  = "restecg"
	ColThalach  = "thalach"
	ColExang    = "exang"
	ColOldpeak  = "oldpeak"
	ColSlope    = "slope"
	ColCA       = "ca"
	ColThal     = "thal"
	ColTarget   = "target"
)

// FeatureNames is the canonical feature order. Every vector handed to a
// model is laid out in this order.
var FeatureNames = []string{
	ColAge, ColSex, ColCP, ColTrestbps, ColChol, ColFbs, ColRestecg,
	ColThalach, ColExang, ColOldpeak, ColSlope, ColCA, ColThal,
}

// NumFeatures is the length of a feature vector.
const NumFeatures = 13

// Record is one patient. Target is 1 when heart disease is present.
type Record struct {
	Age      float64 `json:"age"`
	Sex      float64 `json:"sex"`
	CP       float64 `json:"cp"`
	Trestbps float64 `json:"trestbps"`
	Chol     float64 `json:"chol"`
	Fbs      float64 `json:"fbs"`
	Restecg  float64 `json:"restecg"`
	Thalach  float64 `json:"thalach"`
	Exang    float64 `json:"exang"`
	Oldpeak  float64 `json:"oldpeak"`
	Slope    float64 `json:"slope"`
	CA       float64 `json:"ca"`
	Thal     float64 `json:"thal"`
	Target   int     `json:"target"`
}

// Vector returns the features in FeatureNames order.
func (r Record) Vector() []float64 {
	return []float64{
		r.Age, r.Sex, r.CP, r.Trestbps, r.Chol, r.Fbs, r.Restecg,
		r.Thalach, r.Exang, r.Oldpeak, r.Slope, r.CA, r.Thal,
	}
}

// field returns a pointer to the feature stored under name.
func (r *Record) field(name string) (*float64, bool) {
	switch name {
	case ColAge:
		return &r.Age, true
	case ColSex:
		return &r.Sex, true
	case ColCP:
		return &r.CP, true
	case ColTrestbps:
		return &r.Trestbps, true
	case ColChol:
		return &r.Chol, true
	case ColFbs:
		return &r.Fbs, true
	case ColRestecg:
		return &r.Restecg, true
	case ColThalach:
		return &r.Thalach, true
	case ColExang:
		return &r.Exang, true
	case ColOldpeak:
		return &r.Oldpeak, true
	case ColSlope:
		return &r.Slope, true
	case ColCA:
		return &r.CA, true
	case ColThal:
		return &r.Thal, true
	}
	return nil, false
}

// Get returns the feature stored under name.
func (r Record) Get(name string) (float64, bool) {
	p, ok := r.field(name)
	if !ok {
		return 0, false
	}
	return *p, true
}

// Set stores v under the feature name.
func (r *Record) Set(name string, v float64) error {
	p, ok := r.field(name)
	if !ok {
		return errors.NewValueError("Record.Set", fmt.Sprintf("unknown feature %q", name))
	}
	*p = v
	return nil
}

// RecordFromVector is the inverse of Vector.
func RecordFromVector(v []float64) (Record, error) {
	if len(v) != NumFeatures {
		return Record{}, errors.NewDimensionError("RecordFromVector", NumFeatures, len(v), 1)
	}
	var r Record
	for i, name := range FeatureNames {
		p, _ := r.field(name)
		*p = v[i]
	}
	return r, nil
}

// ExampleRecord is the sample patient used by the predict command:
// (59, 1, 1, 120, 360, 0, 1, 180, 0, 1.8, 2, 1, 0).
func ExampleRecord() Record {
	return Record{
		Age:      59,
		Sex:      1,
		CP:       1,
		Trestbps: 120,
		Chol:     360,
		Fbs:      0,
		Restecg:  1,
		Thalach:  180,
		Exang:    0,
		Oldpeak:  1.8,
		Slope:    2,
		CA:       1,
		Thal:     0,
	}
}
