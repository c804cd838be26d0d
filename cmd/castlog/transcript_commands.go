package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kaigaicareerlog/castlog/internal/controllers"
	"github.com/kaigaicareerlog/castlog/internal/models"
	"github.com/kaigaicareerlog/castlog/internal/services/assemblyai"
	"github.com/kaigaicareerlog/castlog/internal/services/groq"
	"github.com/kaigaicareerlog/castlog/internal/store"
)

func newTranscriptCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newTranscribeCommand(ctx),
		newCleanupTranscriptCommand(ctx),
		newUpdateSpeakersCommand(ctx),
		newHighlightsCommand(ctx),
		newMissingTranscriptsCommand(ctx),
	}
}

func (c *commandContext) transcriptController() *controllers.TranscriptController {
	return controllers.NewTranscriptController(store.NewTranscriptStore(c.config.TranscriptsDir), c.log())
}

// findEpisode loads one episode from the latest episodes file
func (c *commandContext) findEpisode(guid string) (*models.Episode, error) {
	path, err := store.Latest(c.config.RSSDir)
	if err != nil {
		return nil, err
	}
	doc, err := store.NewFileStore(path).Load()
	if err != nil {
		return nil, err
	}
	return doc.Find(guid)
}

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "transcribe <guid>",
		Short: "Transcribe an episode's audio with speaker labels",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			key, err := cfg.RequireAssemblyAI()
			if err != nil {
				return err
			}
			ep, err := ctx.findEpisode(args[0])
			if err != nil {
				return err
			}

			client, err := assemblyai.NewClient(key, ctx.log())
			if err != nil {
				return err
			}

			t, err := ctx.transcriptController().Transcribe(cmd.Context(), client, ep, force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Transcribed %s: %d utterances\n", ep.GUID, len(t.Utterances))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing transcript")
	return cmd
}

func newCleanupTranscriptCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup-transcript <guid>",
		Short: "Collapse whitespace in a transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			t, err := ctx.transcriptController().Cleanup(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleaned %d utterances\n", len(t.Utterances))
			return nil
		},
	}
}

func newUpdateSpeakersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "update-speakers <guid> <old> <new>",
		Short: "Rename a speaker label in a transcript",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			n, err := ctx.transcriptController().RenameSpeaker(args[0], args[1], args[2])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %d utterances from %q to %q\n", n, args[1], args[2])
			return nil
		},
	}
}

func newHighlightsCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "highlights <guid>",
		Short: "Generate three post-sized highlights from a transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			key, err := cfg.RequireGroq()
			if err != nil {
				return err
			}
			client, err := groq.NewClient(key, ctx.log())
			if err != nil {
				return err
			}

			t, err := ctx.transcriptController().GenerateHighlights(cmd.Context(), client, args[0], force)
			if err != nil {
				return err
			}
			for i := 1; i <= 3; i++ {
				h, err := t.Highlight(i)
				if err != nil {
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i, h)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Regenerate existing highlights")
	return cmd
}

func newMissingTranscriptsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "missing-transcripts [episodes.json]",
		Short: "List episodes without a transcript as JSON",
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
			return writeJSON(cmd, ctx.transcriptController().Missing(doc.Episodes))
		},
	}
}
