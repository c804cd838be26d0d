package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kaigaicareerlog/castlog/internal/api"
	"github.com/kaigaicareerlog/castlog/internal/controllers"
	"github.com/kaigaicareerlog/castlog/internal/scheduler"
	"github.com/kaigaicareerlog/castlog/internal/services/feed"
	"github.com/kaigaicareerlog/castlog/internal/services/x"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run scheduled enrichment and posting with an HTTP status server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.log()
			logger.Info("Starting castlog daemon")

			// 1. Initialize database
			db, err := ctx.openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			logger.WithField("file", cfg.DatabaseFile).Info("Database initialized")

			// 2. Initialize services
			fetchers, err := controllers.NewFetchers(cfg, nil, logger)
			if err != nil {
				return err
			}

			var postCtrl *controllers.PostController
			if xcfg, err := cfg.RequireX(); err != nil {
				logger.WithError(err).Warn("Posting disabled")
			} else {
				client, err := x.NewClient(xcfg, logger)
				if err != nil {
					return fmt.Errorf("failed to initialize X client: %w", err)
				}
				postCtrl = controllers.NewPostController(db, client, ctx.dryRun(), logger)
			}

			// 3. Initialize controllers
			feedCtrl := controllers.NewFeedController(feed.NewParser(logger), cfg.RSSDir, logger)
			enrichCtrl := controllers.NewEnrichController(db, logger)
			cleanupCtrl := controllers.NewCleanupController(db, cfg.RSSDir, cfg.RetentionDays, logger)

			// 4. Initialize scheduler
			sched := scheduler.NewScheduler(feedCtrl, enrichCtrl, postCtrl, cleanupCtrl, fetchers, scheduler.Options{
				RSSDir:         cfg.RSSDir,
				FeedURL:        cfg.FeedURL,
				Hosts:          cfg.Hosts,
				EnrichSchedule: cfg.EnrichSchedule,
				PostSchedule:   cfg.PostSchedule,
			}, logger)
			if err := sched.Start(); err != nil {
				return fmt.Errorf("failed to start scheduler: %w", err)
			}
			defer sched.Stop()

			// 5. Start HTTP server
			server := api.NewServer(cfg.ServerPort, cfg.RSSDir, db, sched, logger)

			runCtx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			serverErrChan := make(chan error, 1)
			go func() {
				if err := server.Start(runCtx); err != nil {
					serverErrChan <- err
				}
			}()

			// 6. Wait for shutdown signal
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			logger.Info("castlog is running")

			select {
			case err := <-serverErrChan:
				return fmt.Errorf("server error: %w", err)
			case sig := <-sigChan:
				logger.WithField("signal", sig).Info("Received shutdown signal")
				cancel()
				if err := server.Shutdown(context.Background()); err != nil {
					logger.WithError(err).Error("Error during server shutdown")
				}
			}

			logger.Info("castlog stopped")
			return nil
		},
	}
}
