package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kaigaicareerlog/castlog/internal/models"
)

// ErrTranscriptNotFound is returned when an episode has no transcript file
var ErrTranscriptNotFound = errors.New("transcript not found")

// TranscriptStore reads and writes <guid>.json transcript files
type TranscriptStore struct {
	dir string
}

// NewTranscriptStore creates a store rooted at dir
func NewTranscriptStore(dir string) *TranscriptStore {
	return &TranscriptStore{dir: dir}
}

// Path returns the transcript file for guid
func (s *TranscriptStore) Path(guid string) string {
	return filepath.Join(s.dir, guid+".json")
}

// Exists reports whether guid has a transcript file
func (s *TranscriptStore) Exists(guid string) bool {
	_, err := os.Stat(s.Path(guid))
	return err == nil
}

// Load reads the transcript for guid
func (s *TranscriptStore) Load(guid string) (*models.Transcript, error) {
	data, err := os.ReadFile(s.Path(guid))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTranscriptNotFound, s.Path(guid))
		}
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}

	var t models.Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse transcript %s: %w", guid, err)
	}
	return &t, nil
}

// Save writes the transcript atomically
func (s *TranscriptStore) Save(t *models.Transcript) error {
	if t.EpisodeGUID == "" {
		return fmt.Errorf("transcript has no episode GUID")
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("failed to encode transcript: %w", err)
	}

	return WriteFileAtomic(s.Path(t.EpisodeGUID), buf.Bytes(), 0644)
}
