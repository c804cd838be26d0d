package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/kaigaicareerlog/castlog/internal/store"
	"github.com/sirupsen/logrus"
)

// EpisodeHandler serves one episode of the latest episodes file
type EpisodeHandler struct {
	rssDir string
	logger *logrus.Logger
}

// NewEpisodeHandler creates a new episode handler
func NewEpisodeHandler(rssDir string, logger *logrus.Logger) *EpisodeHandler {
	return &EpisodeHandler{
		rssDir: rssDir,
		logger: logger,
	}
}

// ServeHTTP handles GET /api/episodes/{guid}
func (h *EpisodeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	guid := mux.Vars(r)["guid"]

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

	ep, err := doc.Find(guid)
	if err != nil {
		http.Error(w, "Episode not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ep)
}
