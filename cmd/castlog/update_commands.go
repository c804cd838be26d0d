package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kaigaicareerlog/castlog/internal/controllers"
	"github.com/kaigaicareerlog/castlog/internal/models"
	"github.com/kaigaicareerlog/castlog/internal/services/spotify"
)

func newUpdateEpisodeCommand(ctx *commandContext) *cobra.Command {
	urls := make(map[models.Platform]*string)
	for _, p := range models.Platforms {
		urls[p] = new(string)
	}

	cmd := &cobra.Command{
		Use:   "update-episode [episodes.json] <guid>",
		Short: "Set platform URLs of one episode by hand",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}

			guid := args[len(args)-1]
			path, err := ctx.episodesPath(args[:len(args)-1], 0)
			if err != nil {
				return err
			}

			set := make(map[models.Platform]string)
			for _, p := range models.Platforms {
				if cmd.Flags().Changed(string(p)) {
					set[p] = *urls[p]
				}
			}
			if u := set[models.PlatformSpotify]; u != "" && !spotify.IsEpisodeURL(u) {
				return fmt.Errorf("not a Spotify episode URL: %s", u)
			}

			ep, err := controllers.NewUpdateController(ctx.log()).UpdateEpisode(path, guid, set)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s (%s)\n", ep.GUID, ep.Title)
			return nil
		},
	}

	for _, p := range models.Platforms {
		cmd.Flags().StringVar(urls[p], string(p), "", p.DisplayName()+" URL")
	}
	return cmd
}

func newBatchUpdateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "batch-update <updates.json> [episodes.json]",
		Short: "Apply a list of URL updates to the episodes file",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			path, err := ctx.episodesPath(args, 1)
			if err != nil {
				return err
			}
			updates, err := controllers.LoadUpdates(args[0])
			if err != nil {
				return err
			}

			result, err := controllers.NewUpdateController(ctx.log()).BatchUpdate(path, updates)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Updated %d episodes in %s\n", result.Updated, result.FilePath)
			for _, guid := range result.Missing {
				fmt.Fprintf(out, "  not found: %s\n", guid)
			}
			if result.NoGUID > 0 {
				fmt.Fprintf(out, "  skipped %d entries without guid\n", result.NoGUID)
			}
			return nil
		},
	}
}
