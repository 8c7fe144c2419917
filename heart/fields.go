package heart

import (
	"fmt"
	"math"
	"strings"

	"github.com/YuminosukeSato/heartpredict/pkg/errors"
)

// WidgetKind selects how a field is rendered on the form.
type WidgetKind string

const (
	Slider WidgetKind = "slider"
	Select WidgetKind = "select"
)

// Choice is one option of a select widget.
type Choice struct {
	Label string
	Value float64
}

// Field describes how one feature is collected from a user.
type Field struct {
	Name    string
	Label   string
	Help    string
	Kind    WidgetKind
	Min     float64
	Max     float64
	Step    float64
	Choices []Choice
}

// Decimals returns the number of decimals implied by Step.
func (f Field) Decimals() int {
	if f.Step >= 1 || f.Step <= 0 {
		return 0
	}
	return int(math.Ceil(-math.Log10(f.Step)))
}

// stepTolerance absorbs float error such as 1.8/0.1 = 18.000000000000004.
const stepTolerance = 1e-6

// Check reports whether v is acceptable for the field. Slider values must
// sit on the slider's grid.
func (f Field) Check(v float64) error {
	switch f.Kind {
	case Select:
		for _, c := range f.Choices {
			if c.Value == v {
				return nil
			}
		}
		labels := make([]string, len(f.Choices))
		for i, c := range f.Choices {
			labels[i] = fmt.Sprintf("%g (%s)", c.Value, c.Label)
		}
		return errors.NewValidationError(f.Name, "must be one of "+strings.Join(labels, ", "), v)
	default:
		if math.IsNaN(v) || v < f.Min || v > f.Max {
			return errors.NewValidationError(f.Name, fmt.Sprintf("must be between %g and %g", f.Min, f.Max), v)
		}
		if f.Step > 0 {
			k := (v - f.Min) / f.Step
			if math.Abs(k-math.Round(k)) > stepTolerance {
				return errors.NewValidationError(f.Name, fmt.Sprintf("must be in steps of %g", f.Step), v)
			}
		}
		return nil
	}
}

// fields mirrors the inputs of the prediction form, in canonical order.
var fields = []Field{
	{Name: ColAge, Label: "Age", Help: "The age of the patient.",
		Kind: Slider, Min: 0, Max: 100, Step: 1},
	{Name: ColSex, Label: "Sex", Help: "The gender of the patient. (1 = male, 0 = female).",
		Kind: Select, Choices: []Choice{{"Male", 1}, {"Female", 0}}},
	{Name: ColCP, Label: "Chest Pain Type (select 'Asymptomatic' if no pain)",
		Help: "Type of chest pain. (0 = typical angina, 1 = atypical angina, 2 = non-anginal pain, 3 = asymptotic).",
		Kind: Select, Choices: []Choice{
			{"Typical Angina", 0}, {"Atypical Angina", 1}, {"Non-anginal Pain", 2}, {"Asymptomatic", 3},
		}},
	{Name: ColTrestbps, Label: "Resting Blood Pressure (mmHG)", Help: "Resting blood pressure in mmHg.",
		Kind: Slider, Min: 0, Max: 220, Step: 1},
	{Name: ColChol, Label: "Serum Cholesterol (mg/dl)", Help: "Serum Cholesterol in mg/dl.",
		Kind: Slider, Min: 0, Max: 500, Step: 1},
	{Name: ColFbs, Label: "Fasting Blood Sugar (mg/dl)",
		Help: "Fasting Blood Sugar. (1 = fasting blood sugar is more than 120mg/dl, 0 = otherwise).",
		Kind: Select, Choices: []Choice{{"Over 120 mg/dl", 1}, {"Under 120 mg/dl", 0}}},
	{Name: ColRestecg, Label: "Resting ElectroCardioGraphic (ECG) Results",
		Help: "Resting ElectroCardioGraphic results (0 = normal, 1 = ST-T wave abnormality, 2 = left ventricular hyperthrophy).",
		Kind: Select, Choices: []Choice{
			{"Normal", 0}, {"ST-T Wave Abnormality", 1}, {"Left Ventricular Hypertrophy", 2},
		}},
	{Name: ColThalach, Label: "Maximum Heart Rate Achieved (bpm)", Help: "Max heart rate achieved.",
		Kind: Slider, Min: 0, Max: 300, Step: 1},
	{Name: ColExang, Label: "Do you have Exercise Induced Angina?", Help: "Exercise induced angina (1 = yes, 0 = no).",
		Kind: Select, Choices: []Choice{{"Yes", 1}, {"No", 0}}},
	{Name: ColOldpeak, Label: "Oldpeak (ST depression induced by exercise relative to rest)",
		Help: "ST depression induced by exercise relative to rest.",
		Kind: Slider, Min: 0, Max: 7, Step: 0.1},
	{Name: ColSlope, Label: "Slope (Peak exercise ST segment)",
		Help: "Peak exercise ST segment (0 = upsloping, 1 = flat, 2 = downsloping).",
		Kind: Select, Choices: []Choice{{"Upsloping", 0}, {"Flat", 1}, {"Downsloping", 2}}},
	{Name: ColCA, Label: "Number of Major Vessels Colored by Fluoroscopy",
		Help: "Number of major vessels (0-3) colored by fluoroscopy.",
		Kind: Slider, Min: 0, Max: 3, Step: 1},
	{Name: ColThal, Label: "Thalassemia",
		Help: "Thalassemia (2 = normal, 6 = fixed defect, 7 = reversible defect).",
		Kind: Select, Choices: []Choice{{"Normal", 2}, {"Fixed Defect", 6}, {"Reversible Defect", 7}}},
}

// Fields returns the form catalogue in canonical feature order.
func Fields() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// FieldByName looks up one field.
func FieldByName(name string) (Field, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// TargetHelp describes the label column for the form legend.
const TargetHelp = "Diagnosis of heart disease (0 = absence, 1 = present)"

// Validate checks every feature against the form catalogue and returns the
// first violation.
func (r Record) Validate() error {
	for _, f := range fields {
		v, _ := r.Get(f.Name)
		if err := f.Check(v); err != nil {
			return err
		}
	}
	return nil
}
