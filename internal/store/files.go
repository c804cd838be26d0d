package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"
)

const fileTimeLayout = "20060102-1504"

var (
	episodesFilePattern = regexp.MustCompile(`^\d{8}-\d{4}-episodes\.json$`)
	timestampPattern    = regexp.MustCompile(`^(\d{8}-\d{4})-`)
)

// ErrNoEpisodesFile is returned when a directory holds no episodes files
var ErrNoEpisodesFile = errors.New("no episodes files found")

// NewFileName returns the episodes file name for t (YYYYMMDD-HHMM-episodes.json)
func NewFileName(t time.Time) string {
	return t.Format(fileTimeLayout) + "-episodes.json"
}

// NewRSSFileName returns the raw feed snapshot name for t
func NewRSSFileName(t time.Time) string {
	return t.Format(fileTimeLayout) + "-rss-file.xml"
}

// IsEpisodesFile reports whether name follows the episodes file pattern
func IsEpisodesFile(name string) bool {
	return episodesFilePattern.MatchString(name)
}

// ParseFileTimestamp extracts the timestamp prefix from a snapshot file name
func ParseFileTimestamp(name string) (time.Time, bool) {
	m := timestampPattern.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(fileTimeLayout, m[1], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ListEpisodeFiles returns the episodes files in dir, newest first
func ListEpisodeFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && IsEpisodesFile(entry.Name()) {
			names = append(names, entry.Name())
		}
	}

	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
	}
	return paths, nil
}

// Latest returns the lexicographically greatest episodes file in dir
func Latest(dir string) (string, error) {
	files, err := ListEpisodeFiles(dir)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoEpisodesFile, dir)
	}
	return files[0], nil
}

// Resolve returns path when set, otherwise the latest episodes file in dir
func Resolve(path, dir string) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("episodes file not found: %w", err)
		}
		return path, nil
	}
	return Latest(dir)
}
