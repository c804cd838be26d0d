package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kaigaicareerlog/castlog/internal/controllers"
	"github.com/kaigaicareerlog/castlog/internal/models"
)

func newPostCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newPostIntroCommand(ctx),
		newAutoPostCommand(ctx),
		newPostHighlightCommand(ctx),
		newPostFormReminderCommand(ctx),
		newPostsCommand(ctx),
	}
}

// withPostController opens the ledger and the X client for one command. A
// dry run neither reads nor writes the ledger, so it is not opened.
func (c *commandContext) withPostController(fn func(*controllers.PostController) error) error {
	poster, err := c.poster()
	if err != nil {
		return err
	}

	logger := c.log()
	if c.dryRun() {
		return fn(controllers.NewPostController(nil, poster, true, logger))
	}

	db, err := c.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(controllers.NewPostController(db, poster, false, logger))
}

func printPosted(cmd *cobra.Command, ids []string) {
	if len(ids) == 0 {
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Posted: https://x.com/i/web/status/%s\n", ids[0])
	if len(ids) > 1 {
		fmt.Fprintf(cmd.OutOrStdout(), "Replies: %s\n", strings.Join(ids[1:], ", "))
	}
}

func newPostIntroCommand(ctx *commandContext) *cobra.Command {
	var force bool
	var file string

	cmd := &cobra.Command{
		Use:   "post-intro <guid> <hosts>",
		Short: "Announce an episode with its platform links",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			path, err := ctx.episodesPath([]string{file}, 0)
			if err != nil {
				return err
			}

			return ctx.withPostController(func(ctrl *controllers.PostController) error {
				ids, err := ctrl.PostIntro(ctx.runContext(cmd.Context()), path, args[0], args[1], force)
				printPosted(cmd, ids)
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Post even if the ledger shows a pending or completed post")
	cmd.Flags().StringVar(&file, "file", "", "Episodes file (default: latest)")
	return cmd
}

func newAutoPostCommand(ctx *commandContext) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "auto-post [hosts]",
		Short: "Announce the first episode that has not been posted",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			hosts := cfg.Hosts
			if len(args) > 0 {
				hosts = args[0]
			}
			if hosts == "" {
				return errors.New("hosts required: pass them as an argument or set X_HOSTS")
			}
			path, err := ctx.episodesPath([]string{file}, 0)
			if err != nil {
				return err
			}

			return ctx.withPostController(func(ctrl *controllers.PostController) error {
				ep, err := ctrl.AutoPost(ctx.runContext(cmd.Context()), path, hosts)
				if err != nil {
					return err
				}
				if ep == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "No episodes need to be posted")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Announced %s (%s)\n", ep.GUID, ep.Title)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Episodes file (default: latest)")
	return cmd
}

func newPostHighlightCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "post-highlight <guid> <1-3>",
		Short: "Post one transcript highlight of an episode",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 || n > 3 {
				return fmt.Errorf("highlight number must be 1, 2 or 3, got %q", args[1])
			}

			ep, err := ctx.findEpisode(args[0])
			if err != nil {
				return err
			}
			t, err := ctx.transcriptController().Load(args[0])
			if err != nil {
				return err
			}

			return ctx.withPostController(func(ctrl *controllers.PostController) error {
				ids, err := ctrl.PostHighlight(ctx.runContext(cmd.Context()), ep, t, n, force)
				printPosted(cmd, ids)
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Post even if this highlight was already posted")
	return cmd
}

func newPostFormReminderCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "post-form-reminder [form-url]",
		Short: "Post the listener question form reminder",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			formURL := cfg.GoogleFormURL
			if len(args) > 0 {
				formURL = args[0]
			}

			return ctx.withPostController(func(ctrl *controllers.PostController) error {
				ids, err := ctrl.PostFormReminder(ctx.runContext(cmd.Context()), formURL, force)
				printPosted(cmd, ids)
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Post even if a reminder was posted today")
	return cmd
}

func newPostsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "posts [guid]",
		Short: "Show post ledger entries",
		Long:  "Lists ledger entries for one episode, or every pending and failed entry.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			db, err := ctx.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			var recs []*models.PostRecord
			if len(args) > 0 {
				recs, err = db.GetPostsByEpisode(args[0])
				if err != nil {
					return err
				}
			} else {
				for _, status := range []models.PostStatus{models.PostStatusPending, models.PostStatusFailed} {
					found, err := db.GetPostsByStatus(status)
					if err != nil {
						return err
					}
					recs = append(recs, found...)
				}
			}

			if asJSON || !isTerminal(cmd) {
				return writeJSON(cmd, recs)
			}

			rows := make([][]string, 0, len(recs))
			for _, rec := range recs {
				rows = append(rows, []string{
					rec.Key,
					string(rec.Status),
					strings.Join(rec.TweetIDs, ", "),
					rec.UpdatedAt.Format("2006-01-02 15:04"),
					rec.Error,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Key", "Status", "Tweets", "Updated", "Error"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}
