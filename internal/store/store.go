package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kaigaicareerlog/castlog/internal/models"
)

// Format is the on-disk layout of an episodes file
type Format int

const (
	// FormatArray is a bare JSON array of episodes
	FormatArray Format = iota
	// FormatLegacy is {channel, episodes, lastUpdated}
	FormatLegacy
)

// ErrEpisodeNotFound is returned when a GUID is not in the collection
var ErrEpisodeNotFound = errors.New("episode not found")

// Document is a loaded episodes file. It remembers its format so Save
// writes back the same layout.
type Document struct {
	Format      Format
	Channel     *models.Channel
	Episodes    []*models.Episode
	LastUpdated string
}

type legacyDocument struct {
	Channel     *models.Channel   `json:"channel"`
	Episodes    []*models.Episode `json:"episodes"`
	LastUpdated string            `json:"lastUpdated"`
}

// Repository loads and saves episode documents
type Repository interface {
	Load() (*Document, error)
	Save(doc *Document) error
}

// Find returns the episode with the given GUID
func (d *Document) Find(guid string) (*models.Episode, error) {
	for _, ep := range d.Episodes {
		if ep.GUID == guid {
			return ep, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrEpisodeNotFound, guid)
}

// Index returns the episodes keyed by GUID
func (d *Document) Index() map[string]*models.Episode {
	idx := make(map[string]*models.Episode, len(d.Episodes))
	for _, ep := range d.Episodes {
		idx[ep.GUID] = ep
	}
	return idx
}

// Decode parses either episodes file format
func Decode(data []byte) (*Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("episodes file is empty")
	}

	if trimmed[0] == '[' {
		var episodes []*models.Episode
		if err := json.Unmarshal(trimmed, &episodes); err != nil {
			return nil, fmt.Errorf("failed to parse episodes array: %w", err)
		}
		return &Document{Format: FormatArray, Episodes: episodes}, nil
	}

	var legacy legacyDocument
	if err := json.Unmarshal(trimmed, &legacy); err != nil {
		return nil, fmt.Errorf("failed to parse episodes object: %w", err)
	}
	return &Document{
		Format:      FormatLegacy,
		Channel:     legacy.Channel,
		Episodes:    legacy.Episodes,
		LastUpdated: legacy.LastUpdated,
	}, nil
}

// Encode renders the document as indented JSON with a trailing newline
func Encode(doc *Document) ([]byte, error) {
	episodes := doc.Episodes
	if episodes == nil {
		episodes = []*models.Episode{}
	}

	var v any = episodes
	if doc.Format == FormatLegacy {
		v = legacyDocument{
			Channel:     doc.Channel,
			Episodes:    episodes,
			LastUpdated: doc.LastUpdated,
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode episodes: %w", err)
	}
	return buf.Bytes(), nil
}

// FileStore is an episodes file on disk
type FileStore struct {
	path string
	now  func() time.Time
}

// NewFileStore creates a store bound to one episodes file
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

// Path returns the file the store reads and writes
func (s *FileStore) Path() string {
	return s.path
}

// Load reads and parses the episodes file
func (s *FileStore) Load() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read episodes file: %w", err)
	}

	doc, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(s.path), err)
	}
	return doc, nil
}

// Save writes the document to a temp file in the same directory and renames
// it over the target, so readers never observe a partial file
func (s *FileStore) Save(doc *Document) error {
	if doc.Format == FormatLegacy {
		doc.LastUpdated = s.now().UTC().Format(time.RFC3339Nano)
	}

	data, err := Encode(doc)
	if err != nil {
		return err
	}

	return WriteFileAtomic(s.path, data, 0644)
}

// WriteFileAtomic writes data to path via temp file, fsync and rename
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("failed to set file mode: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

// MemoryStore keeps a document in memory
type MemoryStore struct {
	Doc   *Document
	Saves int
}

// NewMemoryStore creates an in-memory array-format store
func NewMemoryStore(episodes []*models.Episode) *MemoryStore {
	return &MemoryStore{Doc: &Document{Format: FormatArray, Episodes: episodes}}
}

// Load returns the held document
func (m *MemoryStore) Load() (*Document, error) {
	if m.Doc == nil {
		return nil, fmt.Errorf("no episodes loaded")
	}
	return m.Doc, nil
}

// Save replaces the held document and counts the call
func (m *MemoryStore) Save(doc *Document) error {
	m.Doc = doc
	m.Saves++
	return nil
}
