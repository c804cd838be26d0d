package controllers

import (
	"time"

	"github.com/kaigaicareerlog/castlog/internal/models"
	"github.com/kaigaicareerlog/castlog/internal/store"
	"github.com/sirupsen/logrus"
)

// CleanupController handles retention of feed snapshots and episodes files
type CleanupController struct {
	db       *models.Database
	rssDir   string
	keepDays int
	logger   *logrus.Logger
	now      func() time.Time
}

// NewCleanupController creates a new cleanup controller
func NewCleanupController(db *models.Database, rssDir string, keepDays int, logger *logrus.Logger) *CleanupController {
	return &CleanupController{
		db:       db,
		rssDir:   rssDir,
		keepDays: keepDays,
		logger:   logger,
		now:      time.Now,
	}
}

// CleanupOldFiles keeps the newest RSS snapshot and the episodes files of
// the last keepDays days
func (c *CleanupController) CleanupOldFiles() (*store.CleanupResult, error) {
	c.logger.WithFields(logrus.Fields{
		"dir":       c.rssDir,
		"keep_days": c.keepDays,
	}).Info("Starting cleanup of old RSS files")

	return store.Cleanup(c.rssDir, c.keepDays, c.now(), c.logger)
}

// CleanupFailedPosts removes failed ledger entries older than keepDays so
// the ledger does not grow without bound. Pending and completed entries are
// always kept.
func (c *CleanupController) CleanupFailedPosts() (int, error) {
	if c.db == nil {
		return 0, nil
	}

	recs, err := c.db.GetPostsByStatus(models.PostStatusFailed)
	if err != nil {
		return 0, err
	}

	cutoff := c.now().AddDate(0, 0, -c.keepDays)
	removed := 0
	for _, rec := range recs {
		if rec.UpdatedAt.After(cutoff) {
			continue
		}
		if err := c.db.DeletePost(rec.Key); err != nil {
			c.logger.WithError(err).WithField("post_key", rec.Key).Error("Failed to delete ledger entry")
			continue
		}
		removed++
	}

	if removed > 0 {
		c.logger.WithField("count", removed).Info("Removed failed ledger entries")
	}
	return removed, nil
}
