package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kaigaicareerlog/castlog/internal/models"
	"github.com/kaigaicareerlog/castlog/internal/store"
	"github.com/kaigaicareerlog/castlog/internal/utils"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list [episodes.json]",
		Short: "List episodes and their platform URL coverage",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			path, err := ctx.episodesPath(args, 0)
			if err != nil {
				return err
			}
			doc, err := store.NewFileStore(path).Load()
			if err != nil {
				return err
			}

			if asJSON || !isTerminal(cmd) {
				return writeJSON(cmd, doc.Episodes)
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderEpisodes(doc.Episodes))
			fmt.Fprintln(cmd.OutOrStdout(), renderCoverage(doc.Episodes))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func renderEpisodes(episodes []*models.Episode) string {
	headers := []string{"Date", "Title", "Length"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignRight}
	for _, p := range models.Platforms {
		headers = append(headers, p.DisplayName())
		aligns = append(aligns, alignLeft)
	}
	headers = append(headers, "Posted")
	aligns = append(aligns, alignLeft)

	rows := make([][]string, 0, len(episodes))
	for _, ep := range episodes {
		title, _ := utils.Truncate(ep.Title, 40, "…")
		row := []string{ep.Date, title, formatDuration(ep.DurationSeconds())}
		for _, p := range models.Platforms {
			row = append(row, mark(!ep.NeedsURL(p)))
		}
		row = append(row, mark(ep.NewEpisodeIntroPostedToX))
		rows = append(rows, row)
	}
	return renderTable(headers, rows, aligns)
}

func renderCoverage(episodes []*models.Episode) string {
	rows := make([][]string, 0, len(models.Platforms))
	for _, p := range models.Platforms {
		found := 0
		for _, ep := range episodes {
			if !ep.NeedsURL(p) {
				found++
			}
		}
		rows = append(rows, []string{
			p.DisplayName(),
			fmt.Sprintf("%d/%d", found, len(episodes)),
		})
	}
	return renderTable([]string{"Platform", "Coverage"}, rows, []columnAlignment{alignLeft, alignRight})
}

// formatDuration renders seconds as M:SS or H:MM:SS, and "-" when unknown
func formatDuration(secs int) string {
	if secs <= 0 {
		return "-"
	}
	h, m, s := secs/3600, secs%3600/60, secs%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func mark(ok bool) string {
	if ok {
		return "✓"
	}
	return "-"
}
