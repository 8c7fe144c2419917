package diagnosis

import "fmt"

// Outcome labels.
const (
	LabelHealthy = 0
	LabelDisease = 1
)

// Diagnosis is the model's answer for one record.
type Diagnosis struct {
	Label int `json:"label"`
	// Probability of heart disease.
	Probability float64 `json:"probability"`
	CacheHit    bool    `json:"cache_hit"`
}

// HasDisease reports whether the positive class was predicted.
func (d Diagnosis) HasDisease() bool {
	return d.Label == LabelDisease
}

// Message is the verdict printed by the command line workflow.
func (d Diagnosis) Message() string {
	if d.HasDisease() {
		return "The Person has heart Disease"
	}
	return "The person does not have a Heart Disease"
}

// FormMessage is the verdict shown on the web form.
func (d Diagnosis) FormMessage() string {
	if d.HasDisease() {
		return "The model predicts that you have heart disease."
	}
	return "The model predicts that you do not have heart disease."
}

// PredictionLine shows the raw label with its legend.
func (d Diagnosis) PredictionLine() string {
	return fmt.Sprintf("Model Prediction: %d (1 = heart disease present, 0 = no heart disease)", d.Label)
}
