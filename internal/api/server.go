package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/davidschrooten/solr-schema-sync/config"
	"github.com/davidschrooten/solr-schema-sync/internal/reconciler"
	"github.com/davidschrooten/solr-schema-sync/internal/schema"
	"github.com/davidschrooten/solr-schema-sync/internal/search"
	syncstate "github.com/davidschrooten/solr-schema-sync/internal/sync"
)

// Reconciler is the part of the reconciler service the API drives
type Reconciler interface {
	Preview(ctx context.Context) (*reconciler.Preview, error)
	Reconcile(ctx context.Context) (*reconciler.Result, error)
	State() syncstate.ReconcileState
	Running() bool
}

// Server represents the API server
type Server struct {
	reconciler Reconciler
	catalog    search.FieldCatalog
	config     *config.Config
	logger     zerolog.Logger
}

// NewServer creates a new API server
func NewServer(rec Reconciler, catalog search.FieldCatalog, cfg *config.Config, logger zerolog.Logger) *Server {
	return &Server{
		reconciler: rec,
		catalog:    catalog,
		config:     cfg,
		logger:     logger.With().Str("component", "api").Logger(),
	}
}

// Router setups the API routes
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Get("/status", s.handleStatus)
	r.Get("/plan", s.handlePlan)
	r.Post("/reconcile", s.handleReconcile)
	r.Get("/schema/fields", s.handleFields)

	return r
}

type planResponse struct {
	*reconciler.Preview
	Operations []json.RawMessage `json:"operations"`
}

func newPlanResponse(preview *reconciler.Preview) (*planResponse, error) {
	ops := make([]json.RawMessage, 0, len(preview.Plan.Operations))
	for _, op := range preview.Plan.Operations {
		raw, err := schema.EncodeOperations([]schema.Operation{op})
		if err != nil {
			return nil, err
		}
		ops = append(ops, raw)
	}
	return &planResponse{Preview: preview, Operations: ops}, nil
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	if s.reconciler == nil {
		http.Error(w, "reconciler not initialized", http.StatusServiceUnavailable)
		return
	}

	preview, err := s.reconciler.Preview(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Plan error")
		http.Error(w, "failed to compute plan", http.StatusBadGateway)
		return
	}

	// bulk returns the exact Schema API request body
	if r.URL.Query().Get("format") == "bulk" {
		body, err := preview.Plan.MarshalJSON()
		if err != nil {
			s.logger.Error().Err(err).Msg("Plan encode error")
			http.Error(w, "failed to encode plan", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
		return
	}

	resp, err := newPlanResponse(preview)
	if err != nil {
		s.logger.Error().Err(err).Msg("Plan encode error")
		http.Error(w, "failed to encode plan", http.StatusInternalServerError)
		return
	}
	response(w, http.StatusOK, resp)
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	if s.reconciler == nil {
		http.Error(w, "reconciler not initialized", http.StatusServiceUnavailable)
		return
	}

	result, err := s.reconciler.Reconcile(r.Context())
	if err != nil {
		if errors.Is(err, reconciler.ErrLocked) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		body := map[string]interface{}{"error": err.Error()}
		if result != nil {
			body["batchesSent"] = result.BatchesSent
			body["digest"] = result.Digest
		}
		response(w, http.StatusBadGateway, body)
		return
	}

	response(w, http.StatusOK, result)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.reconciler == nil {
		http.Error(w, "reconciler not initialized", http.StatusServiceUnavailable)
		return
	}

	status := map[string]interface{}{
		"service": "solr-schema-sync",
		"running": s.reconciler.Running(),
		"state":   s.reconciler.State(),
	}
	if s.config != nil {
		status["core"] = s.config.Solr.Core
		status["dryRun"] = s.config.Reconcile.DryRun
	}
	if s.catalog != nil {
		if count, err := s.catalog.Count(); err == nil {
			status["catalogEntries"] = count
		}
	}

	response(w, http.StatusOK, status)
}

func (s *Server) handleFields(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		http.Error(w, "field catalog not initialized", http.StatusServiceUnavailable)
		return
	}

	q := r.URL.Query()
	req := search.SearchRequest{
		Query: q.Get("q"),
		Kind:  q.Get("kind"),
	}
	switch req.Kind {
	case "", search.KindField, search.KindDynamicField, search.KindFieldType:
	default:
		http.Error(w, "kind must be field, dynamicField or fieldType", http.StatusBadRequest)
		return
	}

	var err error
	if req.Size, err = intParam(q.Get("size")); err != nil {
		http.Error(w, "invalid size", http.StatusBadRequest)
		return
	}
	if req.From, err = intParam(q.Get("from")); err != nil {
		http.Error(w, "invalid from", http.StatusBadRequest)
		return
	}

	result, err := s.catalog.Search(req)
	if err != nil {
		s.logger.Error().Err(err).Msg("Catalog search error")
		http.Error(w, "search failed", http.StatusBadRequest)
		return
	}

	response(w, http.StatusOK, result)
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New("invalid integer")
	}
	return n, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	// Simple health check
	response(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.reconciler == nil {
		http.Error(w, "reconciler not initialized", http.StatusServiceUnavailable)
		return
	}

	if s.catalog == nil {
		http.Error(w, "field catalog not initialized", http.StatusServiceUnavailable)
		return
	}

	// Ready once a plan has been computed against the live schema
	state := s.reconciler.State()
	if state.LastRun == nil && state.LastSuccess == nil {
		http.Error(w, "no reconciliation has run yet", http.StatusServiceUnavailable)
		return
	}

	response(w, http.StatusOK, map[string]interface{}{
		"status": "ready",
		"checks": map[string]string{
			"reconciler": "ok",
			"catalog":    "ok",
		},
	})
}

func response(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
