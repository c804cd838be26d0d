package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/kaigaicareerlog/castlog/internal/models"
	"github.com/kaigaicareerlog/castlog/internal/store"
	"github.com/sirupsen/logrus"
)

// StatusHandler reports URL coverage of the latest episodes file
type StatusHandler struct {
	db     *models.Database
	rssDir string
	logger *logrus.Logger
}

// NewStatusHandler creates a new status handler. db may be nil.
func NewStatusHandler(db *models.Database, rssDir string, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{
		db:     db,
		rssDir: rssDir,
		logger: logger,
	}
}

// StatusResponse represents the status response
type StatusResponse struct {
	File          string                  `json:"file"`
	TotalEpisodes int                     `json:"total_episodes"`
	Coverage      map[models.Platform]int `json:"coverage"`
	Missing       map[models.Platform]int `json:"missing"`
	Unposted      int                     `json:"unposted"`
	PendingPosts  int                     `json:"pending_posts"`
	LastEnrich    *LastEnrich             `json:"last_enrich,omitempty"`
}

// LastEnrich summarizes the most recent enrichment run
type LastEnrich struct {
	RunID      string                  `json:"run_id"`
	StartedAt  time.Time               `json:"started_at"`
	FinishedAt time.Time               `json:"finished_at"`
	Updated    map[models.Platform]int `json:"updated"`
	NotFound   map[models.Platform]int `json:"not_found"`
	Skipped    []models.Platform       `json:"skipped,omitempty"`
	Saved      bool                    `json:"saved"`
	Error      string                  `json:"error,omitempty"`
}

// ServeHTTP handles the status endpoint
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path, err := store.Latest(h.rssDir)
	if errors.Is(err, store.ErrNoEpisodesFile) {
		http.Error(w, "No episodes file", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to find episodes file")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	doc, err := store.NewFileStore(path).Load()
	if err != nil {
		h.logger.WithError(err).Error("Failed to load episodes")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	response := StatusResponse{
		File:          filepath.Base(path),
		TotalEpisodes: len(doc.Episodes),
		Coverage:      make(map[models.Platform]int),
		Missing:       make(map[models.Platform]int),
	}

	for _, ep := range doc.Episodes {
		for _, p := range models.Platforms {
			if ep.NeedsURL(p) {
				response.Missing[p]++
			} else {
				response.Coverage[p]++
			}
		}
		if !ep.NewEpisodeIntroPostedToX {
			response.Unposted++
		}
	}

	if h.db != nil {
		h.addLedger(&response)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (h *StatusHandler) addLedger(response *StatusResponse) {
	pending, err := h.db.GetPostsByStatus(models.PostStatusPending)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to read pending posts")
	}
	response.PendingPosts = len(pending)

	run, err := h.db.GetLatestEnrichRun()
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			h.logger.WithError(err).Warn("Failed to read last enrichment run")
		}
		return
	}
	response.LastEnrich = &LastEnrich{
		RunID:      run.RunID,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Updated:    run.Updated,
		NotFound:   run.NotFound,
		Skipped:    run.Skipped,
		Saved:      run.Saved,
		Error:      run.Error,
	}
}
