package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// CleanupResult lists the files removed and kept by a retention run
type CleanupResult struct {
	DeletedRSS      []string
	KeptRSS         string
	DeletedEpisodes []string
	KeptEpisodes    []string
}

type datedFile struct {
	name string
	date time.Time
}

func datedFiles(dir, suffix string) ([]datedFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []datedFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		date, ok := ParseFileTimestamp(entry.Name())
		if !ok {
			continue
		}
		files = append(files, datedFile{name: entry.Name(), date: date})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].date.After(files[j].date)
	})
	return files, nil
}

// Cleanup keeps only the newest RSS snapshot and deletes episodes files
// older than keepDays. The newest episodes file is always kept.
func Cleanup(dir string, keepDays int, now time.Time, logger *logrus.Logger) (*CleanupResult, error) {
	result := &CleanupResult{}

	rssFiles, err := datedFiles(dir, "-rss-file.xml")
	if err != nil {
		return nil, err
	}
	if len(rssFiles) > 0 {
		result.KeptRSS = rssFiles[0].name
		for _, f := range rssFiles[1:] {
			if err := os.Remove(filepath.Join(dir, f.name)); err != nil {
				return result, fmt.Errorf("failed to delete %s: %w", f.name, err)
			}
			result.DeletedRSS = append(result.DeletedRSS, f.name)
		}
	}

	episodeFiles, err := datedFiles(dir, "-episodes.json")
	if err != nil {
		return result, err
	}

	cutoff := now.Add(-time.Duration(keepDays) * 24 * time.Hour)
	for i, f := range episodeFiles {
		if i == 0 || !f.date.Before(cutoff) {
			result.KeptEpisodes = append(result.KeptEpisodes, f.name)
			continue
		}
		if err := os.Remove(filepath.Join(dir, f.name)); err != nil {
			return result, fmt.Errorf("failed to delete %s: %w", f.name, err)
		}
		result.DeletedEpisodes = append(result.DeletedEpisodes, f.name)
	}

	logger.WithFields(logrus.Fields{
		"dir":              dir,
		"kept_rss":         result.KeptRSS,
		"deleted_rss":      len(result.DeletedRSS),
		"kept_episodes":    len(result.KeptEpisodes),
		"deleted_episodes": len(result.DeletedEpisodes),
		"cutoff":           cutoff.Format(time.RFC3339),
	}).Info("Retention cleanup completed")

	return result, nil
}
