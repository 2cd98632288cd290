package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	hypernote "github.com/futurepaul/hypernote-pages"
	"github.com/futurepaul/hypernote-pages/pkg/domain"
	"github.com/futurepaul/hypernote-pages/pkg/observability"
	"github.com/futurepaul/hypernote-pages/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the shared collaborators every request-scoped engine gets.
type Deps struct {
	Queries   ports.QuerySource
	Records   ports.RecordSource
	Fetcher   ports.ComponentFetcher
	Signer    ports.Signer
	Publisher ports.Publisher
	Logger    *slog.Logger
	Metrics   *observability.Metrics
	Gatherer  prometheus.Gatherer
}

// Server exposes rendering and action execution over JSON.
type Server struct {
	deps Deps
}

// NewHandler creates the HTTP handler.
func NewHandler(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{deps: deps}

	r := chi.NewRouter()
	r.Get("/healthz", s.Healthz)
	r.Post("/render", s.Render)
	r.Post("/form", s.FormState)
	r.Post("/action", s.ExecuteAction)
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Healthz reports liveness.
func (s *Server) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

type renderRequest struct {
	// Document is the AST JSON of the document to render.
	Document json.RawMessage `json:"document"`
	// Form optionally seeds field values before rendering.
	Form map[string]string `json:"form,omitempty"`
}

type renderResponse struct {
	Title string               `json:"title,omitempty"`
	Tree  []*domain.RenderNode `json:"tree"`
}

// Render evaluates a document against the server's collaborators.
func (s *Server) Render(w http.ResponseWriter, r *http.Request) {
	var body renderRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.deps.Logger.Warn("render: invalid request body", "err", err)
		return
	}

	eng, err := s.engineFor(body.Document, body.Form)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid document: %v", err), http.StatusBadRequest)
		return
	}

	writeJSON(w, renderResponse{
		Title: eng.Meta().Title,
		Tree:  eng.Render(r.Context()),
	})
}

type formResponse struct {
	Form map[string]string `json:"form"`
}

// FormState applies posted field values to a document and returns the
// effective form state after defaults (including deferred query/state
// references) have been applied.
func (s *Server) FormState(w http.ResponseWriter, r *http.Request) {
	var body renderRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	eng, err := s.engineFor(body.Document, body.Form)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid document: %v", err), http.StatusBadRequest)
		return
	}

	// A render pass seeds any referenced defaults that have data.
	eng.Render(r.Context())

	fields := make(map[string]string, len(eng.Meta().Form))
	for field := range eng.Meta().Form {
		fields[field] = eng.FormValue(field)
	}
	writeJSON(w, formResponse{Form: fields})
}

type actionRequest struct {
	Document json.RawMessage   `json:"document"`
	Name     string            `json:"name"`
	Form     map[string]string `json:"form,omitempty"`
}

type actionResponse struct {
	Event *domain.SignedEvent `json:"event"`
}

// ExecuteAction runs one declared action of the posted document.
func (s *Server) ExecuteAction(w http.ResponseWriter, r *http.Request) {
	var body actionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	eng, err := s.engineFor(body.Document, body.Form)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid document: %v", err), http.StatusBadRequest)
		return
	}

	signed, err := eng.ExecuteAction(r.Context(), body.Name)
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, domain.ErrActionNotFound):
			status = http.StatusNotFound
		case errors.Is(err, domain.ErrActionInFlight):
			status = http.StatusConflict
		}
		http.Error(w, err.Error(), status)
		s.deps.Logger.Warn("action failed", "action", body.Name, "err", err)
		return
	}
	writeJSON(w, actionResponse{Event: signed})
}

func (s *Server) engineFor(document json.RawMessage, form map[string]string) (*hypernote.Engine, error) {
	eng, err := hypernote.Load(document,
		hypernote.WithLogger(s.deps.Logger),
		hypernote.WithQuerySource(s.deps.Queries),
		hypernote.WithRecordSource(s.deps.Records),
		hypernote.WithComponentFetcher(s.deps.Fetcher),
		hypernote.WithSigner(s.deps.Signer),
		hypernote.WithPublisher(s.deps.Publisher),
		hypernote.WithMetrics(s.deps.Metrics),
	)
	if err != nil {
		return nil, err
	}
	for field, value := range form {
		eng.SetFormValue(field, value)
	}
	return eng, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Encoding error", http.StatusInternalServerError)
	}
}
