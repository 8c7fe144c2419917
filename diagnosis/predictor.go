package diagnosis

import (
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/heartpredict/heart"
	"github.com/YuminosukeSato/heartpredict/pkg/errors"
	"github.com/YuminosukeSato/heartpredict/pkg/log"
)

// DefaultCacheSize is the number of distinct records remembered by a Predictor.
const DefaultCacheSize = 256

// ProbabilisticModel is what a Predictor needs from a fitted model.
type ProbabilisticModel interface {
	PredictProba(X mat.Matrix) (mat.Matrix, error)
	Classes() []int
}

// Predictor answers single-record queries against a fitted binary model.
// Answers are cached by feature vector. It is safe for concurrent use as long
// as the model is not refitted.
type Predictor struct {
	model  ProbabilisticModel
	cache  *lru.Cache[[heart.NumFeatures]float64, Diagnosis]
	logger log.Logger
}

// NewPredictor wraps model. cacheSize <= 0 uses DefaultCacheSize.
func NewPredictor(model ProbabilisticModel, cacheSize int) (*Predictor, error) {
	if model == nil {
		return nil, errors.NewValueError("NewPredictor", "model is nil")
	}
	classes := model.Classes()
	if len(classes) != 2 || classes[0] != LabelHealthy || classes[1] != LabelDisease {
		return nil, errors.NewValueError("NewPredictor",
			"model must be fitted on labels {0, 1}")
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[[heart.NumFeatures]float64, Diagnosis](cacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "create prediction cache")
	}
	return &Predictor{
		model:  model,
		cache:  cache,
		logger: log.GetLoggerWithName("diagnosis.predictor"),
	}, nil
}

// Predict classifies r. Range checks belong to the caller; Predict only
// rejects non-finite values.
func (p *Predictor) Predict(r heart.Record) (Diagnosis, error) {
	var key [heart.NumFeatures]float64
	for i, v := range r.Vector() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Diagnosis{}, errors.NewValidationError(heart.FeatureNames[i], "must be a finite number", v)
		}
		key[i] = v
	}

	if d, ok := p.cache.Get(key); ok {
		d.CacheHit = true
		p.logger.Debug("Prediction served from cache", log.LabelKey, d.Label, log.CacheHitKey, true)
		return d, nil
	}

	proba, err := p.model.PredictProba(mat.NewDense(1, heart.NumFeatures, key[:]))
	if err != nil {
		return Diagnosis{}, errors.Wrap(err, "predict record")
	}

	d := Diagnosis{Probability: proba.At(0, 1)}
	if d.Probability > 0.5 {
		d.Label = LabelDisease
	}
	p.cache.Add(key, d)

	p.logger.Debug("Prediction computed",
		log.OperationKey, log.OperationPredict,
		log.LabelKey, d.Label,
		log.ConfidenceKey, d.Probability,
		log.CacheHitKey, false,
	)
	return d, nil
}

// Purge empties the cache.
func (p *Predictor) Purge() {
	p.cache.Purge()
}

// CacheLen returns the number of cached records.
func (p *Predictor) CacheLen() int {
	return p.cache.Len()
}
