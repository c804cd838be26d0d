package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/kaigaicareerlog/castlog/internal/controllers"
	"github.com/kaigaicareerlog/castlog/internal/store"
	"github.com/kaigaicareerlog/castlog/internal/utils"
	"github.com/sirupsen/logrus"
)

// Enricher runs one enrichment of the latest episodes file
type Enricher interface {
	RunEnrich(ctx context.Context) (*controllers.EnrichResult, error)
}

// EnrichHandler triggers an enrichment run on demand
type EnrichHandler struct {
	enricher Enricher
	logger   *logrus.Logger
}

// NewEnrichHandler creates a new enrich handler
func NewEnrichHandler(enricher Enricher, logger *logrus.Logger) *EnrichHandler {
	return &EnrichHandler{
		enricher: enricher,
		logger:   logger,
	}
}

// EnrichResponse represents the result of a manual run
type EnrichResponse struct {
	RunID    string         `json:"run_id"`
	Updated  map[string]int `json:"updated"`
	NotFound map[string]int `json:"not_found"`
	Skipped  []string       `json:"skipped,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// ServeHTTP handles the enrich endpoint
func (h *EnrichHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	runID := uuid.NewString()
	ctx := utils.WithRunID(r.Context(), runID)
	log := h.logger.WithField("run_id", runID)
	log.Info("Manual enrichment requested")

	result, err := h.enricher.RunEnrich(ctx)
	if errors.Is(err, store.ErrLocked) {
		log.WithError(err).Warn("Enrichment already running")
		http.Error(w, "Enrichment already running", http.StatusConflict)
		return
	}

	response := EnrichResponse{
		RunID:    runID,
		Updated:  make(map[string]int),
		NotFound: make(map[string]int),
	}
	if result != nil {
		for p, n := range result.Updated {
			response.Updated[string(p)] = n
		}
		for p, n := range result.NotFound {
			response.NotFound[string(p)] = n
		}
		for _, p := range result.Skipped {
			response.Skipped = append(response.Skipped, string(p))
		}
	}

	status := http.StatusOK
	if err != nil {
		log.WithError(err).Error("Manual enrichment failed")
		response.Error = err.Error()
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}
