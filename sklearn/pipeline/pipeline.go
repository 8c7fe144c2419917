// Package pipeline chains an optional feature transformer with a classifier
// so that the same preprocessing is applied at fit and predict time.
package pipeline

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/heartpredict/core/model"
	"github.com/YuminosukeSato/heartpredict/pkg/errors"
)

// Pipeline is a transformer followed by a classifier.
type Pipeline struct {
	transformer model.Transformer
	classifier  model.Classifier
	fitted      bool
}

// New creates a pipeline. transformer may be nil.
func New(transformer model.Transformer, classifier model.Classifier) *Pipeline {
	return &Pipeline{transformer: transformer, classifier: classifier}
}

// Transformer returns the preprocessing step, or nil.
func (p *Pipeline) Transformer() model.Transformer {
	return p.transformer
}

// Classifier returns the final estimator.
func (p *Pipeline) Classifier() model.Classifier {
	return p.classifier
}

// Fit fits the transformer on X and the classifier on the transformed X.
func (p *Pipeline) Fit(X, y mat.Matrix) error {
	if p.classifier == nil {
		return errors.NewValueError("Pipeline.Fit", "no classifier configured")
	}
	p.fitted = false

	Xt := X
	if p.transformer != nil {
		var err error
		if Xt, err = p.transformer.FitTransform(X); err != nil {
			return errors.Wrap(err, "pipeline transform")
		}
	}

	if err := p.classifier.Fit(Xt, y); err != nil {
		return errors.Wrap(err, "pipeline classifier")
	}
	p.fitted = true
	return nil
}

// Transform applies the fitted transformer, or returns X unchanged.
func (p *Pipeline) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !p.fitted {
		return nil, errors.NewNotFittedError("Pipeline", "Transform")
	}
	if p.transformer == nil {
		return X, nil
	}
	return p.transformer.Transform(X)
}

// Predict returns class labels for X.
func (p *Pipeline) Predict(X mat.Matrix) (mat.Matrix, error) {
	Xt, err := p.Transform(X)
	if err != nil {
		return nil, err
	}
	return p.classifier.Predict(Xt)
}

// PredictProba returns class probabilities for X.
func (p *Pipeline) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	Xt, err := p.Transform(X)
	if err != nil {
		return nil, err
	}
	return p.classifier.PredictProba(Xt)
}

// Score returns the classifier's mean accuracy on the transformed X.
func (p *Pipeline) Score(X, y mat.Matrix) (float64, error) {
	Xt, err := p.Transform(X)
	if err != nil {
		return 0, err
	}
	return p.classifier.Score(Xt, y)
}

// Classes returns the classifier's class labels.
func (p *Pipeline) Classes() []int {
	return p.classifier.Classes()
}

// ExportWeights exports the classifier weights when it supports it.
// Coefficients are in the transformed feature space.
func (p *Pipeline) ExportWeights() (*model.ModelWeights, error) {
	we, ok := p.classifier.(model.WeightExporter)
	if !ok {
		return nil, errors.NewValueError("Pipeline.ExportWeights",
			fmt.Sprintf("%T does not export weights", p.classifier))
	}
	return we.ExportWeights()
}

// GetParams returns the step parameters prefixed with the step name.
func (p *Pipeline) GetParams() map[string]interface{} {
	params := make(map[string]interface{})
	if pg, ok := p.transformer.(model.ParameterGetter); ok {
		for k, v := range pg.GetParams() {
			params["scaler__"+k] = v
		}
	}
	if pg, ok := p.classifier.(model.ParameterGetter); ok {
		for k, v := range pg.GetParams() {
			params["classifier__"+k] = v
		}
	}
	return params
}

// String returns a short description of the steps.
func (p *Pipeline) String() string {
	return fmt.Sprintf("Pipeline(steps=[%v, %v])", p.transformer, p.classifier)
}

var _ model.Classifier = (*Pipeline)(nil)
