package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/kaigaicareerlog/castlog/internal/controllers"
	"github.com/kaigaicareerlog/castlog/internal/store"
	"github.com/kaigaicareerlog/castlog/internal/utils"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const cleanupSchedule = "0 3 * * *"

// Options holds the schedules and inputs of the daemon jobs
type Options struct {
	RSSDir         string
	FeedURL        string // refreshed before each enrichment when set
	Hosts          string
	EnrichSchedule string
	PostSchedule   string
}

// Scheduler manages scheduled tasks
type Scheduler struct {
	cron        *cron.Cron
	feedCtrl    *controllers.FeedController
	enrichCtrl  *controllers.EnrichController
	postCtrl    *controllers.PostController
	cleanupCtrl *controllers.CleanupController
	fetchers    []controllers.Fetcher
	opts        Options
	logger      *logrus.Logger
}

// NewScheduler creates a new scheduler. postCtrl may be nil when X is not
// configured, which disables the auto-post job.
func NewScheduler(
	feedCtrl *controllers.FeedController,
	enrichCtrl *controllers.EnrichController,
	postCtrl *controllers.PostController,
	cleanupCtrl *controllers.CleanupController,
	fetchers []controllers.Fetcher,
	opts Options,
	logger *logrus.Logger,
) *Scheduler {
	// Runs of the same job never overlap
	c := cron.New(cron.WithChain(
		cron.Recover(cron.PrintfLogger(logger)),
		cron.SkipIfStillRunning(cron.PrintfLogger(logger)),
	))

	return &Scheduler{
		cron:        c,
		feedCtrl:    feedCtrl,
		enrichCtrl:  enrichCtrl,
		postCtrl:    postCtrl,
		cleanupCtrl: cleanupCtrl,
		fetchers:    fetchers,
		opts:        opts,
		logger:      logger,
	}
}

// Start registers the jobs and starts the scheduler
func (s *Scheduler) Start() error {
	s.logger.Info("Starting scheduler")

	if _, err := s.cron.AddFunc(s.opts.EnrichSchedule, func() {
		s.runJob("enrich", func(ctx context.Context) error {
			_, err := s.RunEnrich(ctx)
			return err
		})
	}); err != nil {
		return fmt.Errorf("failed to add enrich job: %w", err)
	}

	if s.postCtrl != nil && s.opts.Hosts != "" {
		if _, err := s.cron.AddFunc(s.opts.PostSchedule, func() {
			s.runJob("auto-post", s.RunAutoPost)
		}); err != nil {
			return fmt.Errorf("failed to add auto-post job: %w", err)
		}
	} else {
		s.logger.Warn("X credentials or hosts not configured, auto-post job disabled")
	}

	if _, err := s.cron.AddFunc(cleanupSchedule, func() {
		s.runJob("cleanup", s.RunCleanup)
	}); err != nil {
		return fmt.Errorf("failed to add cleanup job: %w", err)
	}

	s.cron.Start()
	s.logger.WithFields(logrus.Fields{
		"enrich_schedule": s.opts.EnrichSchedule,
		"post_schedule":   s.opts.PostSchedule,
	}).Info("Scheduler started")

	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runJob(name string, fn func(ctx context.Context) error) {
	runID := uuid.NewString()
	ctx := utils.WithRunID(context.Background(), runID)
	log := s.logger.WithFields(logrus.Fields{
		"job":    name,
		"run_id": runID,
	})

	log.Info("Running scheduled job")
	if err := fn(ctx); err != nil {
		if errors.Is(err, store.ErrLocked) {
			log.WithError(err).Warn("Episodes file busy, skipping run")
			return
		}
		log.WithError(err).Error("Scheduled job failed")
		return
	}
	log.Info("Scheduled job completed successfully")
}

// RunEnrich refreshes the episodes file from the feed when a feed URL is
// configured, then enriches the latest episodes file
func (s *Scheduler) RunEnrich(ctx context.Context) (*controllers.EnrichResult, error) {
	if s.opts.FeedURL != "" {
		if _, err := s.feedCtrl.Generate(ctx, s.opts.FeedURL, "", false); err != nil {
			return nil, fmt.Errorf("failed to refresh feed: %w", err)
		}
	}

	path, err := store.Latest(s.opts.RSSDir)
	if err != nil {
		return nil, err
	}
	return s.enrichCtrl.EnrichStore(ctx, path, s.fetchers)
}

// RunAutoPost announces the next unposted episode
func (s *Scheduler) RunAutoPost(ctx context.Context) error {
	if s.postCtrl == nil {
		return fmt.Errorf("posting is not configured")
	}

	path, err := store.Latest(s.opts.RSSDir)
	if err != nil {
		return err
	}

	ep, err := s.postCtrl.AutoPost(ctx, path, s.opts.Hosts)
	if err != nil {
		return err
	}
	if ep != nil {
		s.logger.WithField("guid", ep.GUID).Info("Announced new episode")
	}
	return nil
}

// RunCleanup applies file retention and prunes the post ledger
func (s *Scheduler) RunCleanup(ctx context.Context) error {
	if _, err := s.cleanupCtrl.CleanupOldFiles(); err != nil {
		return err
	}
	_, err := s.cleanupCtrl.CleanupFailedPosts()
	return err
}
