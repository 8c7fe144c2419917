// Package web serves the heart disease prediction form and its JSON API.
package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/YuminosukeSato/heartpredict/diagnosis"
	"github.com/YuminosukeSato/heartpredict/heart"
	"github.com/YuminosukeSato/heartpredict/internal/store"
	"github.com/YuminosukeSato/heartpredict/pkg/errors"
	"github.com/YuminosukeSato/heartpredict/pkg/log"
)

const historyLimit = 50

//go:embed templates/*.html
var templateFS embed.FS

// Predictor classifies a single record.
type Predictor interface {
	Predict(r heart.Record) (diagnosis.Diagnosis, error)
}

// History persists served predictions.
type History interface {
	Enabled() bool
	Save(ctx context.Context, source string, r heart.Record, d diagnosis.Diagnosis) (*store.Entry, error)
	Recent(ctx context.Context, n int) ([]*store.Entry, error)
}

// Server holds the handlers' shared, read-only state.
type Server struct {
	predictor Predictor
	report    diagnosis.Report
	history   History
	tmpl      *template.Template
	logger    log.Logger
}

// NewServer builds a Server around an already trained model. history may be
// nil.
func NewServer(p Predictor, report diagnosis.Report, history History) (*Server, error) {
	if p == nil {
		return nil, errors.NewValueError("web.NewServer", "predictor is nil")
	}
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"num": formatNumber,
		"pct": func(v float64) string { return strconv.FormatFloat(v*100, 'f', 1, 64) + "%" },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "parse templates")
	}
	return &Server{
		predictor: p,
		report:    report,
		history:   history,
		tmpl:      tmpl,
		logger:    log.GetLoggerWithName("web"),
	}, nil
}

// Router returns the HTTP handler with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.requestLogger, s.recoverer)

	r.HandleFunc("/", s.handleForm).Methods(http.MethodGet)
	r.HandleFunc("/predict", s.handlePredictForm).Methods(http.MethodPost)
	r.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/predict", s.handlePredictAPI).Methods(http.MethodPost)
	api.HandleFunc("/model", s.handleModel).Methods(http.MethodGet)
	api.HandleFunc("/history", s.handleHistoryAPI).Methods(http.MethodGet)

	return r
}

// NewHTTPServer wraps handler with the given timeouts. Server errors go
// through the structured error log.
func NewHTTPServer(addr string, handler http.Handler, readTimeout, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
		MaxHeaderBytes:    1 << 20,
		ErrorLog:          log.NewServerErrorLog(os.Stderr),
	}
}

func (s *Server) historyEnabled() bool {
	return s.history != nil && s.history.Enabled()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
