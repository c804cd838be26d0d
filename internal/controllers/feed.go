package controllers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kaigaicareerlog/castlog/internal/models"
	"github.com/kaigaicareerlog/castlog/internal/services/feed"
	"github.com/kaigaicareerlog/castlog/internal/store"
	"github.com/sirupsen/logrus"
)

// GenerateResult describes a generated episodes file
type GenerateResult struct {
	Path     string
	Snapshot string
	Total    int
	New      []*models.Episode
}

// FeedController turns the podcast RSS feed into episodes files
type FeedController struct {
	parser *feed.Parser
	rssDir string
	logger *logrus.Logger
	now    func() time.Time
}

// NewFeedController creates a new feed controller
func NewFeedController(parser *feed.Parser, rssDir string, logger *logrus.Logger) *FeedController {
	return &FeedController{
		parser: parser,
		rssDir: rssDir,
		logger: logger,
		now:    time.Now,
	}
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Generate parses the feed at source and writes a new episodes file to
// outPath (a timestamped name in the RSS directory when empty). Episodes
// already in the latest file keep their platform URLs and posted flag.
// New episodes start unposted unless markPosted is set, which is used to
// seed a store without announcing the back catalog.
func (c *FeedController) Generate(ctx context.Context, source, outPath string, markPosted bool) (*GenerateResult, error) {
	data, err := c.parser.Read(ctx, source)
	if err != nil {
		return nil, err
	}

	now := c.now()
	result := &GenerateResult{}

	if isRemote(source) {
		result.Snapshot = filepath.Join(c.rssDir, store.NewRSSFileName(now))
		if err := store.WriteFileAtomic(result.Snapshot, data, 0644); err != nil {
			return nil, fmt.Errorf("failed to save feed snapshot: %w", err)
		}
		c.logger.WithField("file", result.Snapshot).Info("Saved feed snapshot")
	}

	parsed, err := c.parser.Parse(data)
	if err != nil {
		return nil, err
	}
	c.logger.WithField("count", len(parsed.Episodes)).Info("Parsed episodes from feed")

	if outPath == "" {
		outPath = filepath.Join(c.rssDir, store.NewFileName(now))
	}
	result.Path = outPath

	existing, err := c.loadExisting(filepath.Dir(outPath))
	if err != nil {
		return nil, err
	}

	episodes := make([]*models.Episode, 0, len(parsed.Episodes))
	for _, ep := range parsed.Episodes {
		prev, ok := existing[ep.GUID]
		switch {
		case ok:
			for _, p := range models.Platforms {
				ep.SetURL(p, prev.URL(p))
			}
			ep.NewEpisodeIntroPostedToX = prev.NewEpisodeIntroPostedToX
		default:
			ep.NewEpisodeIntroPostedToX = markPosted
			result.New = append(result.New, ep)
		}
		episodes = append(episodes, ep)
	}
	result.Total = len(episodes)

	lock, err := store.Acquire(outPath)
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	doc := &store.Document{Format: store.FormatArray, Episodes: episodes}
	if err := store.NewFileStore(outPath).Save(doc); err != nil {
		return nil, err
	}

	for _, ep := range result.New {
		c.logger.WithFields(logrus.Fields{
			"guid":  ep.GUID,
			"title": ep.Title,
		}).Info("New episode added")
	}
	c.logger.WithFields(logrus.Fields{
		"file":  outPath,
		"total": result.Total,
		"new":   len(result.New),
	}).Info("Generated episodes file")

	return result, nil
}

// loadExisting indexes the latest episodes file in dir. It returns nil when
// there is none or when it cannot be parsed, in which case nothing is merged.
func (c *FeedController) loadExisting(dir string) (map[string]*models.Episode, error) {
	latest, err := store.Latest(dir)
	if err != nil {
		if errors.Is(err, store.ErrNoEpisodesFile) || errors.Is(err, os.ErrNotExist) {
			c.logger.Info("No existing episodes files found, creating new file")
			return nil, nil
		}
		return nil, err
	}

	doc, err := store.NewFileStore(latest).Load()
	if err != nil {
		c.logger.WithError(err).WithField("file", filepath.Base(latest)).
			Warn("Could not load existing episodes, generating without merge")
		return nil, nil
	}

	c.logger.WithFields(logrus.Fields{
		"file":  filepath.Base(latest),
		"count": len(doc.Episodes),
	}).Info("Loaded existing episodes")
	return doc.Index(), nil
}

// XMLToJSON converts a feed into a legacy format file with channel info
func (c *FeedController) XMLToJSON(ctx context.Context, source, outPath string) (*store.Document, error) {
	data, err := c.parser.Read(ctx, source)
	if err != nil {
		return nil, err
	}

	parsed, err := c.parser.Parse(data)
	if err != nil {
		return nil, err
	}

	doc := &store.Document{
		Format:   store.FormatLegacy,
		Channel:  parsed.Channel,
		Episodes: parsed.Episodes,
	}
	if err := store.NewFileStore(outPath).Save(doc); err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"file":     outPath,
		"episodes": len(doc.Episodes),
	}).Info("Converted feed to JSON")
	return doc, nil
}
