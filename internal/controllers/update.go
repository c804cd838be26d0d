package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/kaigaicareerlog/castlog/internal/models"
	"github.com/kaigaicareerlog/castlog/internal/store"
	"github.com/sirupsen/logrus"
)

// ErrNoURLs is returned when an update names no platform URL
var ErrNoURLs = errors.New("no URLs provided, use --spotify, --youtube, --apple or --amazon")

// URLUpdate is one entry of a batch update file
type URLUpdate struct {
	GUID            string  `json:"guid"`
	SpotifyURL      *string `json:"spotifyUrl,omitempty"`
	YouTubeURL      *string `json:"youtubeUrl,omitempty"`
	ApplePodcastURL *string `json:"applePodcastUrl,omitempty"`
	AmazonMusicURL  *string `json:"amazonMusicUrl,omitempty"`
}

// URLs returns the platform URLs set in the update
func (u URLUpdate) URLs() map[models.Platform]string {
	urls := make(map[models.Platform]string)
	for p, v := range map[models.Platform]*string{
		models.PlatformSpotify: u.SpotifyURL,
		models.PlatformYouTube: u.YouTubeURL,
		models.PlatformApple:   u.ApplePodcastURL,
		models.PlatformAmazon:  u.AmazonMusicURL,
	} {
		if v != nil {
			urls[p] = *v
		}
	}
	return urls
}

// BatchResult summarizes a batch update
type BatchResult struct {
	Updated  int
	Missing  []string
	NoGUID   int
	FilePath string
}

// UpdateController applies manual URL corrections
type UpdateController struct {
	logger *logrus.Logger
}

// NewUpdateController creates a new update controller
func NewUpdateController(logger *logrus.Logger) *UpdateController {
	return &UpdateController{logger: logger}
}

// UpdateEpisode sets the given platform URLs on one episode
func (c *UpdateController) UpdateEpisode(path, guid string, urls map[models.Platform]string) (*models.Episode, error) {
	if len(urls) == 0 {
		return nil, ErrNoURLs
	}

	var updated *models.Episode
	err := store.Update(path, func(doc *store.Document) (bool, error) {
		ep, err := doc.Find(guid)
		if err != nil {
			return false, err
		}
		c.applyURLs(ep, urls)
		updated = ep
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// LoadUpdates reads a batch update file
func LoadUpdates(path string) ([]URLUpdate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read updates file: %w", err)
	}

	var updates []URLUpdate
	if err := json.Unmarshal(data, &updates); err != nil {
		return nil, fmt.Errorf("updates file must contain an array of episode updates: %w", err)
	}
	return updates, nil
}

// BatchUpdate applies updates to the episodes file at path. Entries
// without a GUID or with an unknown GUID are skipped with a warning.
func (c *UpdateController) BatchUpdate(path string, updates []URLUpdate) (*BatchResult, error) {
	result := &BatchResult{FilePath: path}

	err := store.Update(path, func(doc *store.Document) (bool, error) {
		idx := doc.Index()
		for _, u := range updates {
			if u.GUID == "" {
				result.NoGUID++
				c.logger.Warn("Skipping update without GUID")
				continue
			}

			ep, ok := idx[u.GUID]
			if !ok {
				result.Missing = append(result.Missing, u.GUID)
				c.logger.WithField("guid", u.GUID).Warn("Episode not found")
				continue
			}

			urls := u.URLs()
			if len(urls) == 0 {
				continue
			}
			c.applyURLs(ep, urls)
			result.Updated++
		}
		return result.Updated > 0, nil
	})
	if err != nil {
		return nil, err
	}

	if result.Updated == 0 {
		c.logger.Info("No episodes were updated")
	}
	return result, nil
}

func (c *UpdateController) applyURLs(ep *models.Episode, urls map[models.Platform]string) {
	for _, p := range models.Platforms {
		url, ok := urls[p]
		if !ok {
			continue
		}
		old := ep.URL(p)
		if old == "" {
			old = "(empty)"
		}
		ep.SetURL(p, url)
		c.logger.WithFields(logrus.Fields{
			"guid":     ep.GUID,
			"platform": p,
			"old":      old,
			"new":      url,
		}).Info("Updated URL")
	}
}
