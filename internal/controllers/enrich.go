package controllers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kaigaicareerlog/castlog/internal/config"
	"github.com/kaigaicareerlog/castlog/internal/models"
	"github.com/kaigaicareerlog/castlog/internal/services"
	"github.com/kaigaicareerlog/castlog/internal/services/amazon"
	"github.com/kaigaicareerlog/castlog/internal/services/apple"
	"github.com/kaigaicareerlog/castlog/internal/services/spotify"
	"github.com/kaigaicareerlog/castlog/internal/services/youtube"
	"github.com/kaigaicareerlog/castlog/internal/store"
	"github.com/kaigaicareerlog/castlog/internal/utils"
	"github.com/sirupsen/logrus"
)

// Fetcher returns every episode a platform lists for the show
type Fetcher interface {
	Platform() models.Platform
	FetchCandidates(ctx context.Context) ([]models.Candidate, error)
}

// NewFetchers builds a fetcher for every configured platform in only (all
// platforms when only is empty). Platforms without credentials are skipped
// with a warning.
func NewFetchers(cfg *config.Config, only []models.Platform, logger *logrus.Logger) ([]Fetcher, error) {
	wanted := make(map[models.Platform]bool)
	for _, p := range only {
		wanted[p] = true
	}

	var fetchers []Fetcher
	for _, p := range models.Platforms {
		if len(wanted) > 0 && !wanted[p] {
			continue
		}

		var (
			f   Fetcher
			err error
		)
		switch p {
		case models.PlatformSpotify:
			if cfg.Spotify != nil {
				f, err = spotify.NewClient(cfg.Spotify, logger)
			}
		case models.PlatformYouTube:
			if cfg.YouTube != nil {
				f, err = youtube.NewClient(cfg.YouTube, logger)
			}
		case models.PlatformApple:
			if cfg.Apple != nil {
				f = apple.NewClient(cfg.Apple, logger)
			}
		case models.PlatformAmazon:
			if cfg.Amazon != nil {
				f = amazon.NewClient(cfg.Amazon, logger)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create %s client: %w", p, err)
		}

		if f == nil {
			logger.WithField("platform", p).Warn("Skipping platform, credentials not configured")
			continue
		}
		fetchers = append(fetchers, f)
	}

	return fetchers, nil
}

// EnrichResult holds per-platform counts for one enrichment run
type EnrichResult struct {
	Updated  map[models.Platform]int
	NotFound map[models.Platform]int
	Skipped  []models.Platform
	Fetched  []models.Platform
}

func newEnrichResult() *EnrichResult {
	return &EnrichResult{
		Updated:  make(map[models.Platform]int),
		NotFound: make(map[models.Platform]int),
	}
}

// Changed returns the number of URL fields written
func (r *EnrichResult) Changed() int {
	total := 0
	for _, n := range r.Updated {
		total += n
	}
	return total
}

// EnrichController fills in missing platform URLs
type EnrichController struct {
	db     *models.Database
	logger *logrus.Logger
	now    func() time.Time
}

// NewEnrichController creates a new enrich controller. db may be nil, in
// which case run history is not recorded.
func NewEnrichController(db *models.Database, logger *logrus.Logger) *EnrichController {
	return &EnrichController{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// EnrichMissingURLs matches episodes missing a platform URL against that
// platform's candidate list. Each platform is fetched at most once.
// Episodes are updated in place. On a fatal platform error the result
// still holds the updates made so far.
func (c *EnrichController) EnrichMissingURLs(ctx context.Context, episodes []*models.Episode, fetchers []Fetcher) (*EnrichResult, error) {
	result := newEnrichResult()

	for _, f := range fetchers {
		platform := f.Platform()
		log := c.logger.WithField("platform", platform)

		var needs []*models.Episode
		for _, ep := range episodes {
			if ep.NeedsURL(platform) {
				needs = append(needs, ep)
			}
		}

		if len(needs) == 0 {
			log.Info("All episodes already have URLs")
			continue
		}

		log.WithField("missing", len(needs)).Info("Fetching platform episodes")

		candidates, err := f.FetchCandidates(ctx)
		if err != nil {
			if platform == models.PlatformAmazon && services.IsAutomationError(err) {
				log.WithError(err).Warn("Skipping platform, browser automation failed")
				result.Skipped = append(result.Skipped, platform)
				continue
			}
			return result, fmt.Errorf("failed to fetch %s episodes: %w", platform, err)
		}
		result.Fetched = append(result.Fetched, platform)

		log.WithField("candidates", len(candidates)).Debug("Fetched platform episodes")

		for _, ep := range needs {
			if ep.Title == "" {
				result.NotFound[platform]++
				log.WithField("guid", ep.GUID).Warn("Episode has no title, cannot match")
				continue
			}

			url, ok := utils.MatchTitle(candidates, ep.Title)
			if !ok {
				result.NotFound[platform]++
				closest, distance := utils.ClosestTitle(candidates, ep.Title)
				log.WithFields(logrus.Fields{
					"title":    ep.Title,
					"closest":  closest,
					"distance": distance,
				}).Info("No match found")
				continue
			}

			ep.SetURL(platform, url)
			result.Updated[platform]++
			log.WithFields(logrus.Fields{
				"title": ep.Title,
				"url":   url,
			}).Info("Found URL")
		}

		log.WithFields(logrus.Fields{
			"updated":   result.Updated[platform],
			"not_found": result.NotFound[platform],
		}).Info("Platform enrichment finished")
	}

	return result, nil
}

// EnrichStore enriches the episodes file at path under the store lock and
// saves it when at least one URL was found. Updates are saved even when a
// later platform fails.
func (c *EnrichController) EnrichStore(ctx context.Context, path string, fetchers []Fetcher) (*EnrichResult, error) {
	run := &models.EnrichRun{
		RunID:     utils.RunID(ctx),
		StoreFile: path,
		StartedAt: c.now(),
	}

	var result *EnrichResult
	err := store.Update(path, func(doc *store.Document) (bool, error) {
		var err error
		result, err = c.EnrichMissingURLs(ctx, doc.Episodes, fetchers)
		run.Saved = result.Changed() > 0
		return run.Saved, err
	})

	if result != nil {
		run.Updated = result.Updated
		run.NotFound = result.NotFound
		run.Skipped = result.Skipped
	}
	if err != nil {
		run.Error = err.Error()
	}
	run.FinishedAt = c.now()
	c.recordRun(run)

	if err != nil {
		return result, err
	}

	fields := logrus.Fields{"file": path, "changed": result.Changed()}
	if result.Changed() == 0 {
		c.logger.WithFields(fields).Info("No new URLs found, file unchanged")
	} else {
		c.logger.WithFields(fields).Info("Saved enriched episodes")
	}
	return result, nil
}

func (c *EnrichController) recordRun(run *models.EnrichRun) {
	if c.db == nil {
		return
	}
	if err := c.db.CreateEnrichRun(run); err != nil {
		c.logger.WithError(err).Warn("Failed to record enrichment run")
	}
}

// ErrNoMatch is returned when a lookup finds no matching title
var ErrNoMatch = errors.New("no matching episode found")

// Lookup finds the URL of a single title on one platform
func (c *EnrichController) Lookup(ctx context.Context, f Fetcher, title string) (string, error) {
	if utils.NormalizeTitle(title) == "" {
		return "", fmt.Errorf("%w: empty title", ErrNoMatch)
	}

	candidates, err := f.FetchCandidates(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s episodes: %w", f.Platform(), err)
	}

	if url, ok := utils.MatchTitle(candidates, title); ok {
		return url, nil
	}

	if closest, distance := utils.ClosestTitle(candidates, title); distance >= 0 {
		return "", fmt.Errorf("%w for %q (closest: %q, distance %d)", ErrNoMatch, title, closest, distance)
	}
	return "", fmt.Errorf("%w for %q", ErrNoMatch, title)
}
