package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"go-wanandroid/internal/app"
	"go-wanandroid/internal/model"
	"go-wanandroid/internal/service"
	"go-wanandroid/internal/util"
)

type treeKind int

const (
	treeCategory treeKind = iota
	treeProject
)

type treeFeed interface {
	Tree(ctx context.Context, refresh bool) ([]model.Category, error)
	Articles(ctx context.Context, cid int) (service.ArticleState, error)
	LoadMoreArticles(ctx context.Context, cid int) (service.ArticleState, error)
}

func (k treeKind) feed(s *service.Services) treeFeed {
	if k == treeProject {
		return s.Project
	}
	return s.Category
}

type loadFunc func(ctx context.Context) (service.ArticleState, error)

// loadPages runs first and then keeps loading until pages pages are in or
// the listing is exhausted.
func loadPages(ctx context.Context, pages int, first loadFunc, more loadFunc) (service.ArticleState, error) {
	state, err := first(ctx)
	if err != nil {
		return state, err
	}

	for loaded := 1; loaded < pages && state.HasMore; loaded++ {
		state, err = more(ctx)
		if err != nil {
			return state, err
		}
	}
	return state, nil
}

func newHomeCmd(opts *options) *cobra.Command {
	var pages int
	var top bool

	cmd := &cobra.Command{
		Use:   "home",
		Short: "List the home feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withStack(cmd, func(ctx context.Context, stack *app.Stack) error {
				home := stack.Services.Home

				var pinned []model.Article
				if top {
					var err error
					if pinned, err = home.TopArticles(ctx); err != nil {
						return err
					}
				}

				state, err := loadPages(ctx, pages, home.Articles, home.LoadMoreArticles)
				if err != nil {
					return err
				}

				out := struct {
					Top      []model.Article      `json:"top,omitempty"`
					Articles service.ArticleState `json:"articles"`
				}{Top: pinned, Articles: state}

				return opts.emit(cmd.OutOrStdout(), out, func(w io.Writer) error {
					if err := printTopArticles(w, pinned); err != nil {
						return err
					}
					return printArticles(w, state)
				})
			})
		},
	}

	cmd.Flags().IntVarP(&pages, "pages", "p", 1, "number of pages to load")
	cmd.Flags().BoolVar(&top, "top", false, "include pinned articles")
	return cmd
}

func newBannersCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "banners",
		Short: "List the home banners",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withStack(cmd, func(ctx context.Context, stack *app.Stack) error {
				banners, err := stack.Services.Home.Banners(ctx)
				if err != nil {
					return err
				}
				return opts.emit(cmd.OutOrStdout(), banners, func(w io.Writer) error {
					return printBanners(w, banners)
				})
			})
		},
	}
}

func newTreeCmd(opts *options, use string, short string, kind treeKind) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withStack(cmd, func(ctx context.Context, stack *app.Stack) error {
				tree, err := kind.feed(stack.Services).Tree(ctx, false)
				if err != nil {
					return err
				}
				return opts.emit(cmd.OutOrStdout(), tree, func(w io.Writer) error {
					return printTree(w, tree)
				})
			})
		},
	}
}

func newTreeArticlesCmd(opts *options, use string, short string, kind treeKind) *cobra.Command {
	var pages int

	cmd := &cobra.Command{
		Use:   use + " <cid>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cid, err := util.ParseID(args[0], use+" id")
			if err != nil {
				return err
			}

			return opts.withStack(cmd, func(ctx context.Context, stack *app.Stack) error {
				feed := kind.feed(stack.Services)
				state, err := loadPages(ctx, pages,
					func(ctx context.Context) (service.ArticleState, error) { return feed.Articles(ctx, cid) },
					func(ctx context.Context) (service.ArticleState, error) { return feed.LoadMoreArticles(ctx, cid) },
				)
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

func newSearchCmd(opts *options) *cobra.Command {
	var pages int

	cmd := &cobra.Command{
		Use:   "search <keyword>...",
		Short: "Search articles by keyword",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.Join(args, " ")

			return opts.withStack(cmd, func(ctx context.Context, stack *app.Stack) error {
				search := stack.Services.Search
				state, err := loadPages(ctx, pages,
					func(ctx context.Context) (service.ArticleState, error) { return search.Search(ctx, key) },
					search.LoadMore,
				)
				if err != nil {
					return err
				}
				return opts.emit(cmd.OutOrStdout(), state, func(w io.Writer) error {
					fmt.Fprintf(w, "results for %q\n", search.Keyword())
					return printArticles(w, state)
				})
			})
		},
	}

	cmd.Flags().IntVarP(&pages, "pages", "p", 1, "number of pages to load")
	return cmd
}

func newHotkeysCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "hotkeys",
		Short: "List the popular search keywords",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withStack(cmd, func(ctx context.Context, stack *app.Stack) error {
				hotkeys, err := stack.Services.Search.Hotkeys(ctx)
				if err != nil {
					return err
				}
				return opts.emit(cmd.OutOrStdout(), hotkeys, func(w io.Writer) error {
					return printHotkeys(w, hotkeys)
				})
			})
		},
	}
}
