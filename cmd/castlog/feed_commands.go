package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kaigaicareerlog/castlog/internal/controllers"
	"github.com/kaigaicareerlog/castlog/internal/services/feed"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var markPosted bool

	cmd := &cobra.Command{
		Use:   "generate [feed.xml|url] [out.json]",
		Short: "Generate an episodes file from the podcast RSS feed",
		Long: "Parses the feed and writes a new episodes file. Episodes already present in the\n" +
			"latest file keep their platform URLs and posted flag. New episodes are queued for\n" +
			"announcement unless --mark-posted is given.",
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			source := cfg.FeedURL
			if len(args) > 0 {
				source = args[0]
			}
			if source == "" {
				return errors.New("feed source required: pass a file or URL, or set FEED_URL")
			}
			out := ""
			if len(args) > 1 {
				out = args[1]
			}

			logger := ctx.log()
			ctrl := controllers.NewFeedController(feed.NewParser(logger), cfg.RSSDir, logger)
			result, err := ctrl.Generate(ctx.runContext(cmd.Context()), source, out, markPosted)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Generated %s (%d episodes, %d new)\n", result.Path, result.Total, len(result.New))
			for _, ep := range result.New {
				fmt.Fprintf(cmd.OutOrStdout(), "  new: %s  %s\n", ep.GUID, ep.Title)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&markPosted, "mark-posted", false, "Mark new episodes as already announced on X")
	return cmd
}

func newXMLToJSONCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "xml-to-json <feed.xml|url> <out.json>",
		Short: "Convert a feed into a JSON file with channel info",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger := ctx.log()
			ctrl := controllers.NewFeedController(feed.NewParser(logger), cfg.RSSDir, logger)
			doc, err := ctrl.XMLToJSON(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Converted %d episodes to %s\n", len(doc.Episodes), args[1])
			return nil
		},
	}
}
