package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kaigaicareerlog/castlog/internal/controllers"
	"github.com/kaigaicareerlog/castlog/internal/models"
)

func newCleanupRSSCommand(ctx *commandContext) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "cleanup-rss",
		Short: "Delete old feed snapshots and episodes files",
		Long: "Keeps the newest RSS snapshot and the episodes files of the last N days. The newest\n" +
			"episodes file is always kept.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("days") {
				days = cfg.RetentionDays
			}
			if days < 0 {
				return fmt.Errorf("--days must not be negative, got %d", days)
			}

			ctrl := controllers.NewCleanupController(nil, cfg.RSSDir, days, ctx.log())
			result, err := ctrl.CleanupOldFiles()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, name := range result.DeletedRSS {
				fmt.Fprintf(out, "deleted %s\n", name)
			}
			for _, name := range result.DeletedEpisodes {
				fmt.Fprintf(out, "deleted %s\n", name)
			}
			fmt.Fprintf(out, "Removed %d files\n", len(result.DeletedRSS)+len(result.DeletedEpisodes))
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 3, "Days of episodes files to keep (default: RETENTION_DAYS)")
	return cmd
}

func newEnrichHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "enrich-history",
		Short: "Show recent enrichment runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			db, err := ctx.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			runs, err := db.GetRecentEnrichRuns(limit)
			if err != nil {
				return err
			}
			if asJSON || !isTerminal(cmd) {
				return writeJSON(cmd, runs)
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.StartedAt.Format("2006-01-02 15:04"),
					formatCounts(run.Updated),
					formatCounts(run.NotFound),
					yesNo(run.Saved),
					run.Error,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Started", "Updated", "Not found", "Saved", "Error"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Number of runs to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func formatCounts(counts map[models.Platform]int) string {
	var parts []string
	for _, p := range models.Platforms {
		if n := counts[p]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", p, n))
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
