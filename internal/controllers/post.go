package controllers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kaigaicareerlog/castlog/internal/models"
	"github.com/kaigaicareerlog/castlog/internal/services/x"
	"github.com/kaigaicareerlog/castlog/internal/store"
	"github.com/sirupsen/logrus"
)

var (
	// ErrAlreadyPosted is returned when the ledger shows a completed post
	ErrAlreadyPosted = errors.New("already posted")
	// ErrPostPending is returned when an earlier attempt never confirmed
	ErrPostPending = errors.New("previous post attempt did not complete, check X and re-run with --force")
)

// PostController publishes episode announcements to X
type PostController struct {
	db     *models.Database
	poster x.Poster
	dryRun bool
	logger *logrus.Logger
	now    func() time.Time
}

// NewPostController creates a new post controller. With a nil db no post
// ledger is kept and every call posts again.
func NewPostController(db *models.Database, poster x.Poster, dryRun bool, logger *logrus.Logger) *PostController {
	return &PostController{
		db:     db,
		poster: poster,
		dryRun: dryRun,
		logger: logger,
		now:    time.Now,
	}
}

// PostIntro announces one episode with a main post and a links reply, then
// sets its posted flag
func (c *PostController) PostIntro(ctx context.Context, path, guid, hosts string, force bool) ([]string, error) {
	var ids []string
	err := store.Update(path, func(doc *store.Document) (bool, error) {
		ep, err := doc.Find(guid)
		if err != nil {
			return false, err
		}

		var changed bool
		ids, changed, err = c.postIntro(ctx, ep, hosts, force)
		return changed, err
	})
	return ids, err
}

// AutoPost announces the first episode whose posted flag is false. Flags
// lost after a confirmed post are repaired from the ledger instead of
// posting again. It returns nil when nothing needs posting.
func (c *PostController) AutoPost(ctx context.Context, path, hosts string) (*models.Episode, error) {
	var posted *models.Episode
	err := store.Update(path, func(doc *store.Document) (bool, error) {
		changed := false
		for _, ep := range doc.Episodes {
			if ep.NewEpisodeIntroPostedToX {
				continue
			}

			_, repaired, err := c.postIntro(ctx, ep, hosts, false)
			changed = changed || repaired
			if errors.Is(err, ErrAlreadyPosted) {
				continue
			}
			if err != nil {
				return changed, err
			}
			posted = ep
			return changed, nil
		}
		return changed, nil
	})
	if err != nil {
		return nil, err
	}

	if posted == nil {
		c.logger.Info("No episodes need to be posted to X")
	}
	return posted, nil
}

func (c *PostController) postIntro(ctx context.Context, ep *models.Episode, hosts string, force bool) ([]string, bool, error) {
	log := c.logger.WithFields(logrus.Fields{
		"guid":  ep.GUID,
		"title": ep.Title,
	})

	texts := []string{x.IntroTweet(ep, hosts)}
	if urls, ok := x.URLsTweet(ep); ok {
		texts = append(texts, urls)
	} else {
		log.Warn("Episode has no platform URLs yet, posting without links reply")
	}

	ids, err := c.publish(ctx, ep.GUID, models.PostKindIntro, 0, force, texts)
	if errors.Is(err, ErrAlreadyPosted) {
		if !ep.NewEpisodeIntroPostedToX {
			ep.NewEpisodeIntroPostedToX = true
			log.Warn("Intro already posted according to ledger, repairing posted flag")
			return ids, true, err
		}
		return ids, false, err
	}
	if len(ids) == 0 {
		return nil, false, err
	}

	ep.NewEpisodeIntroPostedToX = true
	log.WithField("tweet_id", ids[0]).Info("Posted episode intro")
	return ids, true, err
}

// PostHighlight posts highlight n of an episode with a links reply
func (c *PostController) PostHighlight(ctx context.Context, ep *models.Episode, t *models.Transcript, n int, force bool) ([]string, error) {
	text, err := x.HighlightTweet(ep, t, n)
	if err != nil {
		return nil, err
	}

	texts := []string{text}
	if urls, ok := x.URLsTweet(ep); ok {
		texts = append(texts, urls)
	}
	return c.publish(ctx, ep.GUID, models.PostKindHighlight, n, force, texts)
}

// PostFormReminder posts the listener form reminder at most once a day
func (c *PostController) PostFormReminder(ctx context.Context, formURL string, force bool) ([]string, error) {
	if formURL == "" {
		return nil, fmt.Errorf("form URL is required")
	}
	day := c.now().Format("2006-01-02")
	return c.publish(ctx, day, models.PostKindFormReminder, 0, force, []string{x.FormReminderTweet(formURL)})
}

// publish posts texts as a thread under a ledger entry. When a reply fails
// after the first post succeeded, the entry is still completed with the
// ids that were posted.
func (c *PostController) publish(ctx context.Context, guid string, kind models.PostKind, n int, force bool, texts []string) ([]string, error) {
	key := models.PostKey(guid, kind, n)
	log := c.logger.WithField("post_key", key)

	if c.dryRun {
		for i, text := range texts {
			log.WithFields(logrus.Fields{
				"part":  i + 1,
				"chars": len([]rune(text)),
			}).Info("Dry run, not posting:\n" + text)
		}
		return nil, nil
	}

	if c.db != nil {
		if err := c.begin(guid, kind, n, force); err != nil {
			if errors.Is(err, ErrAlreadyPosted) {
				rec, _ := c.db.GetPost(key)
				if rec != nil {
					return rec.TweetIDs, err
				}
			}
			return nil, err
		}
	}

	var ids []string
	for i, text := range texts {
		replyTo := ""
		if i > 0 {
			replyTo = ids[0]
		}

		id, err := c.poster.Post(ctx, text, replyTo)
		if err != nil {
			if len(ids) == 0 {
				c.fail(key, err)
				return nil, fmt.Errorf("failed to post: %w", err)
			}
			c.complete(key, ids)
			return ids, fmt.Errorf("posted %s but reply failed: %w", ids[0], err)
		}
		ids = append(ids, id)
	}

	c.complete(key, ids)
	return ids, nil
}

func (c *PostController) begin(guid string, kind models.PostKind, n int, force bool) error {
	key := models.PostKey(guid, kind, n)

	rec, err := c.db.GetPost(key)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to read post ledger: %w", err)
	}

	if rec != nil && !force {
		switch rec.Status {
		case models.PostStatusCompleted:
			return fmt.Errorf("%w: %s", ErrAlreadyPosted, key)
		case models.PostStatusPending:
			return fmt.Errorf("%w: %s", ErrPostPending, key)
		}
	}

	if rec != nil && force && rec.Status == models.PostStatusCompleted {
		c.logger.WithField("post_key", key).Warn("Forcing repost of a completed post")
		if err := c.db.DeletePost(key); err != nil {
			return fmt.Errorf("failed to reset post ledger: %w", err)
		}
	}

	if _, err := c.db.BeginPost(guid, kind, n); err != nil {
		return err
	}
	return nil
}

func (c *PostController) complete(key string, ids []string) {
	if c.db == nil {
		return
	}
	if err := c.db.CompletePost(key, ids); err != nil {
		c.logger.WithError(err).WithField("post_key", key).Error("Failed to record completed post")
	}
}

func (c *PostController) fail(key string, cause error) {
	if c.db == nil {
		return
	}
	if err := c.db.FailPost(key, cause); err != nil {
		c.logger.WithError(err).WithField("post_key", key).Error("Failed to record failed post")
	}
}
