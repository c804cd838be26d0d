package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kaigaicareerlog/castlog/internal/config"
	"github.com/kaigaicareerlog/castlog/internal/controllers"
	"github.com/kaigaicareerlog/castlog/internal/models"
	"github.com/kaigaicareerlog/castlog/internal/services/apple"
)

func parsePlatforms(names []string) ([]models.Platform, error) {
	var platforms []models.Platform
	for _, name := range names {
		p, ok := models.ParsePlatform(name)
		if !ok {
			return nil, fmt.Errorf("unknown platform %q", name)
		}
		platforms = append(platforms, p)
	}
	return platforms, nil
}

func newEnrichCommand(ctx *commandContext) *cobra.Command {
	var platformNames []string

	cmd := &cobra.Command{
		Use:   "enrich [episodes.json]",
		Short: "Find missing platform URLs for every episode",
		Long: "Fetches each configured platform's episode list once and fills in missing URLs by\n" +
			"title. Defaults to the latest episodes file. Platforms without credentials are skipped.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			only, err := parsePlatforms(platformNames)
			if err != nil {
				return err
			}
			path, err := ctx.episodesPath(args, 0)
			if err != nil {
				return err
			}

			logger := ctx.log()
			fetchers, err := controllers.NewFetchers(cfg, only, logger)
			if err != nil {
				return err
			}

			db, err := ctx.openDB()
			if err != nil {
				logger.WithError(err).Warn("Post ledger unavailable, run history will not be recorded")
				db = nil
			} else {
				defer db.Close()
			}

			ctrl := controllers.NewEnrichController(db, logger)
			result, err := ctrl.EnrichStore(ctx.runContext(cmd.Context()), path, fetchers)
			if result != nil {
				printEnrichResult(cmd, result)
			}
			return err
		},
	}

	cmd.Flags().StringSliceVar(&platformNames, "platform", nil, "Only enrich these platforms (spotify, youtube, apple, amazon)")
	return cmd
}

func printEnrichResult(cmd *cobra.Command, result *controllers.EnrichResult) {
	out := cmd.OutOrStdout()
	for _, p := range result.Fetched {
		fmt.Fprintf(out, "%s: %d updated, %d not found\n", p.DisplayName(), result.Updated[p], result.NotFound[p])
	}
	if len(result.Skipped) > 0 {
		names := make([]string, 0, len(result.Skipped))
		for _, p := range result.Skipped {
			names = append(names, p.DisplayName())
		}
		fmt.Fprintf(out, "Skipped: %s\n", strings.Join(names, ", "))
	}
	fmt.Fprintf(out, "Total updated: %d\n", result.Changed())
}

func newLookupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <platform> <title>",
		Short: "Print the platform URL of one episode title",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			p, ok := models.ParsePlatform(args[0])
			if !ok {
				return fmt.Errorf("unknown platform %q", args[0])
			}

			logger := ctx.log()
			fetchers, err := controllers.NewFetchers(cfg, []models.Platform{p}, logger)
			if err != nil {
				return err
			}
			if len(fetchers) == 0 {
				return fmt.Errorf("%w: %s credentials not set", config.ErrMissingConfig, p.DisplayName())
			}

			url, err := controllers.NewEnrichController(nil, logger).Lookup(cmd.Context(), fetchers[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}
}

func newSearchPodcastsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "search-podcasts <term>",
		Short: "Search Apple Podcasts for a show to find its APPLE_PODCAST_ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			term := strings.TrimSpace(args[0])
			if term == "" {
				return fmt.Errorf("search term is required")
			}
			if limit < 1 || limit > 200 {
				return fmt.Errorf("limit must be between 1 and 200, got %d", limit)
			}

			shows, err := apple.NewClient(cfg.Apple, ctx.log()).SearchPodcasts(cmd.Context(), term, limit)
			if err != nil {
				return err
			}

			if asJSON || !isTerminal(cmd) {
				return writeJSON(cmd, shows)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderPodcasts(shows))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of shows")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func renderPodcasts(shows []*apple.Podcast) string {
	rows := make([][]string, 0, len(shows))
	for _, show := range shows {
		rows = append(rows, []string{
			fmt.Sprint(show.CollectionID),
			show.CollectionName,
			show.ArtistName,
			show.CollectionViewURL,
		})
	}
	return renderTable(
		[]string{"ID", "Name", "Artist", "URL"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
	)
}
