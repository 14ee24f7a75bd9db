package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"go-wanandroid/internal/app"
	"go-wanandroid/internal/util"
)

func newCollectCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Manage the collect list of the logged-in account",
	}

	cmd.AddCommand(newCollectListCmd(opts), newCollectAddCmd(opts), newCollectRemoveCmd(opts))
	return cmd
}

func newCollectListCmd(opts *options) *cobra.Command {
	var pages int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List collected articles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withStack(cmd, func(ctx context.Context, stack *app.Stack) error {
				collect := stack.Services.Collect
				state, err := loadPages(ctx, pages, collect.List, collect.LoadMore)
				if err != nil {
					return err
				}
				return opts.emit(cmd.OutOrStdout(), state, func(w io.Writer) error {
					return printArticles(w, state)
				})
			})
		},
	}

	cmd.Flags().IntVarP(&pages, "pages", "p", 1, "number of pages to load")
	return cmd
}

func newCollectAddCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "add <article-id>",
		Short: "Collect an article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := util.ParseID(args[0], "article id")
			if err != nil {
				return err
			}

			return opts.withStack(cmd, func(ctx context.Context, stack *app.Stack) error {
				if err := stack.Services.Collect.Collect(ctx, id); err != nil {
					return err
				}
				return opts.emit(cmd.OutOrStdout(), map[string]any{"article_id": id, "collected": true}, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "collected article %d\n", id)
					return err
				})
			})
		},
	}
}

func newCollectRemoveCmd(opts *options) *cobra.Command {
	var originID int
	var byArticle bool

	cmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove an entry from the collect list",
		Long: `remove takes the id of a collect list entry together with the article it
was collected from (--origin-id, -1 for entries added by link). With
--article the id is an article id from a feed instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := util.ParseID(args[0], "collect id")
			if err != nil {
				return err
			}

			return opts.withStack(cmd, func(ctx context.Context, stack *app.Stack) error {
				collect := stack.Services.Collect
				if byArticle {
					err = collect.Uncollect(ctx, id)
				} else {
					err = collect.UncollectMine(ctx, id, originID)
				}
				if err != nil {
					return err
				}
				return opts.emit(cmd.OutOrStdout(), map[string]any{"id": id, "collected": false}, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "removed %d from the collect list\n", id)
					return err
				})
			})
		},
	}

	cmd.Flags().IntVar(&originID, "origin-id", -1, "article the entry was collected from")
	cmd.Flags().BoolVar(&byArticle, "article", false, "treat the id as an article id")
	return cmd
}
