package web

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/heartpredict/diagnosis"
	"github.com/YuminosukeSato/heartpredict/heart"
	"github.com/YuminosukeSato/heartpredict/pkg/errors"
	"github.com/YuminosukeSato/heartpredict/pkg/log"
)

const (
	agreementField = "agreement"

	agreementText = "I understand that this is not a medical diagnosis and that I should visit a " +
		"healthcare provider if I have any health concerns"
	agreementMissing = "Please confirm that you understand this is not a medical diagnosis before getting results."
)

type legendEntry struct {
	Name string
	Help string
}

type formField struct {
	heart.Field
	Value float64
}

// Display formats v with the field's precision.
func (f formField) Display(v float64) string {
	return strconv.FormatFloat(v, 'f', f.Decimals(), 64)
}

type formResult struct {
	Message     string
	Line        string
	Probability float64
}

type formPage struct {
	Legend        []legendEntry
	TestAccuracy  float64
	Fields        []formField
	AgreementText string
	Agreed        bool
	Error         string
	Result        *formResult
	History       bool
}

// defaultRecord seeds the form with the sample patient, with a thal code the
// form offers.
func defaultRecord() heart.Record {
	r := heart.ExampleRecord()
	r.Thal = 2
	return r
}

func (s *Server) newFormPage(r heart.Record) *formPage {
	fields := heart.Fields()
	page := &formPage{
		Legend:        make([]legendEntry, 0, len(fields)+1),
		TestAccuracy:  s.report.TestAccuracy,
		Fields:        make([]formField, len(fields)),
		AgreementText: agreementText,
		History:       s.historyEnabled(),
	}
	for i, f := range fields {
		v, _ := r.Get(f.Name)
		page.Fields[i] = formField{Field: f, Value: v}
		page.Legend = append(page.Legend, legendEntry{Name: f.Name, Help: f.Help})
	}
	page.Legend = append(page.Legend, legendEntry{Name: heart.ColTarget, Help: heart.TargetHelp})
	return page
}

func (s *Server) handleForm(w http.ResponseWriter, _ *http.Request) {
	s.render(w, http.StatusOK, "form.html", s.newFormPage(defaultRecord()))
}

func (s *Server) handlePredictForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}

	rec, err := recordFromForm(r.PostForm)
	page := s.newFormPage(rec)
	page.Agreed = r.PostForm.Get(agreementField) != ""

	// the agreement gate comes before any field is judged
	if !page.Agreed {
		s.logger.Info("Prediction refused", log.ErrAttrKey, errors.ErrAgreementRequired)
		page.Error = agreementMissing
		s.render(w, http.StatusBadRequest, "form.html", page)
		return
	}
	if err != nil {
		page.Error = userMessage(err)
		s.render(w, http.StatusUnprocessableEntity, "form.html", page)
		return
	}

	d, err := s.predictor.Predict(rec)
	if err != nil {
		s.logger.Error("Prediction failed", err)
		page.Error = "The prediction could not be computed."
		s.render(w, http.StatusInternalServerError, "form.html", page)
		return
	}
	s.saveHistory(r, "form", rec, d)

	page.Result = &formResult{
		Message:     d.FormMessage(),
		Line:        d.PredictionLine(),
		Probability: d.Probability,
	}
	s.render(w, http.StatusOK, "form.html", page)
}

// recordFromForm reads every catalogue field from values in canonical order,
// then validates the whole record against the catalogue. Fields that fail to
// parse keep their default so the form can be redisplayed.
func recordFromForm(values url.Values) (heart.Record, error) {
	rec := defaultRecord()
	var firstErr error
	for _, f := range heart.Fields() {
		raw := strings.TrimSpace(values.Get(f.Name))
		if raw == "" {
			if firstErr == nil {
				firstErr = errors.NewValidationError(f.Name, "is required", raw)
			}
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			if firstErr == nil {
				firstErr = errors.NewValidationError(f.Name, "must be a number", raw)
			}
			continue
		}
		if err := rec.Set(f.Name, v); err != nil {
			return rec, err
		}
	}
	if firstErr != nil {
		return rec, firstErr
	}
	return rec, rec.Validate()
}

// userMessage turns a validation error into text for the form.
func userMessage(err error) string {
	var ve *errors.ValidationError
	if errors.As(err, &ve) {
		if f, ok := heart.FieldByName(ve.ParamName); ok {
			return fmt.Sprintf("%s %s.", f.Label, ve.Reason)
		}
		return fmt.Sprintf("%s %s.", ve.ParamName, ve.Reason)
	}
	return "The submitted values are invalid."
}

func (s *Server) saveHistory(r *http.Request, source string, rec heart.Record, d diagnosis.Diagnosis) {
	if !s.historyEnabled() {
		return
	}
	if _, err := s.history.Save(r.Context(), source, rec, d); err != nil {
		s.logger.Warn("Failed to record prediction", log.ErrAttrKey, err)
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !s.historyEnabled() {
		http.NotFound(w, r)
		return
	}
	entries, err := s.history.Recent(r.Context(), historyLimit)
	if err != nil {
		s.logger.Error("Failed to load history", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	s.render(w, http.StatusOK, "history.html", map[string]any{
		"Entries":  entries,
		"Features": heart.FeatureNames,
	})
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("Failed to render template", err, "template", name)
	}
}
