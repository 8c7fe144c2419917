package web

import (
	"encoding/json"
	"math"
	"net/http"

	"github.com/YuminosukeSato/heartpredict/heart"
	"github.com/YuminosukeSato/heartpredict/pkg/errors"
	"github.com/YuminosukeSato/heartpredict/pkg/log"
)

const maxBodyBytes = 1 << 16

type predictResponse struct {
	Label       int     `json:"label"`
	Probability float64 `json:"probability"`
	CacheHit    bool    `json:"cache_hit"`
	Message     string  `json:"message"`
	ID          string  `json:"id,omitempty"`
}

type modelResponse struct {
	Model         string             `json:"model"`
	Features      []string           `json:"features"`
	Coefficients  map[string]float64 `json:"coefficients"`
	Intercept     float64            `json:"intercept"`
	Samples       int                `json:"samples"`
	TrainSamples  int                `json:"train_samples"`
	TestSamples   int                `json:"test_samples"`
	TrainAccuracy float64            `json:"train_accuracy"`
	TestAccuracy  float64            `json:"test_accuracy"`
	Precision     float64            `json:"precision"`
	Recall        float64            `json:"recall"`
	F1            float64            `json:"f1"`
	AUC           float64            `json:"auc"`
	LogLoss       float64            `json:"log_loss"`
	CVScores      []float64          `json:"cv_scores,omitempty"`
	Confusion     [][]int            `json:"confusion_matrix"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := errorResponse{Error: err.Error()}
	var ve *errors.ValidationError
	if errors.As(err, &ve) {
		resp.Field = ve.ParamName
	}
	writeJSON(w, status, resp)
}

// decodeRecord requires every feature key and rejects unknown ones.
func decodeRecord(w http.ResponseWriter, r *http.Request) (heart.Record, error) {
	var raw map[string]*float64
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&raw); err != nil {
		return heart.Record{}, errors.NewValueError("decode request", err.Error())
	}
	for name := range raw {
		if _, ok := heart.FieldByName(name); !ok {
			return heart.Record{}, errors.NewValidationError(name, "unknown feature", nil)
		}
	}

	values := make([]float64, heart.NumFeatures)
	for i, name := range heart.FeatureNames {
		v, ok := raw[name]
		if !ok || v == nil {
			return heart.Record{}, errors.NewValidationError(name, "is required", nil)
		}
		if math.IsNaN(*v) || math.IsInf(*v, 0) {
			return heart.Record{}, errors.NewValidationError(name, "must be a finite number", *v)
		}
		values[i] = *v
	}
	return heart.RecordFromVector(values)
}

func (s *Server) handlePredictAPI(w http.ResponseWriter, r *http.Request) {
	rec, err := decodeRecord(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	d, err := s.predictor.Predict(rec)
	if err != nil {
		var ve *errors.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		s.logger.Error("Prediction failed", err)
		writeError(w, http.StatusInternalServerError, errors.New("prediction failed"))
		return
	}

	resp := predictResponse{
		Label:       d.Label,
		Probability: d.Probability,
		CacheHit:    d.CacheHit,
		Message:     d.Message(),
	}
	if s.historyEnabled() {
		if e, err := s.history.Save(r.Context(), "api", rec, d); err != nil {
			s.logger.Warn("Failed to record prediction", log.ErrAttrKey, err)
		} else {
			resp.ID = e.ID
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleModel(w http.ResponseWriter, _ *http.Request) {
	rep := s.report
	resp := modelResponse{
		Features:      heart.FeatureNames,
		Samples:       rep.Samples,
		TrainSamples:  rep.TrainSamples,
		TestSamples:   rep.TestSamples,
		TrainAccuracy: rep.TrainAccuracy,
		TestAccuracy:  rep.TestAccuracy,
		Precision:     rep.Precision,
		Recall:        rep.Recall,
		F1:            rep.F1,
		AUC:           rep.AUC,
		LogLoss:       rep.LogLoss,
		CVScores:      rep.CVScores,
		Confusion:     rep.ConfusionMatrix,
	}
	if wts := rep.Weights; wts != nil {
		resp.Model = wts.ModelType
		resp.Intercept = wts.Intercept
		resp.Coefficients = make(map[string]float64, len(wts.Coefficients))
		for i, c := range wts.Coefficients {
			if i < len(wts.Features) {
				resp.Coefficients[wts.Features[i]] = c
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistoryAPI(w http.ResponseWriter, r *http.Request) {
	if !s.historyEnabled() {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "prediction history disabled"})
		return
	}
	entries, err := s.history.Recent(r.Context(), historyLimit)
	if err != nil {
		s.logger.Error("Failed to load history", err)
		writeError(w, http.StatusInternalServerError, errors.New("history unavailable"))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
