package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var logLevel string
	var dryRun bool

	ctx := newCommandContext(&logLevel, &dryRun)

	rootCmd := &cobra.Command{
		Use:           "castlog",
		Short:         "Podcast episode catalog and distribution tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Log posts instead of publishing them")

	rootCmd.AddCommand(newGenerateCommand(ctx))
	rootCmd.AddCommand(newXMLToJSONCommand(ctx))
	rootCmd.AddCommand(newEnrichCommand(ctx))
	rootCmd.AddCommand(newLookupCommand(ctx))
	rootCmd.AddCommand(newSearchPodcastsCommand(ctx))
	rootCmd.AddCommand(newUpdateEpisodeCommand(ctx))
	rootCmd.AddCommand(newBatchUpdateCommand(ctx))
	rootCmd.AddCommand(newListCommand(ctx))
	for _, cmd := range newTranscriptCommands(ctx) {
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range newPostCommands(ctx) {
		rootCmd.AddCommand(cmd)
	}
	rootCmd.AddCommand(newCleanupRSSCommand(ctx))
	rootCmd.AddCommand(newEnrichHistoryCommand(ctx))
	rootCmd.AddCommand(newServeCommand(ctx))

	return rootCmd
}
