package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"go-wanandroid/internal/model"
	"go-wanandroid/internal/service"
	"go-wanandroid/internal/util"
)

const titleWidth = 60

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func printArticles(w io.Writer, state service.ArticleState) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tDATE\t")
	for _, a := range state.Items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			a.ID,
			util.Truncate(util.CleanText(a.Title), titleWidth),
			util.CleanText(a.DisplayAuthor()),
			a.NiceDate,
			collectMark(a),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	footer := fmt.Sprintf("page %d of %d, %d articles", state.CurrentPage+1, state.PageCount, len(state.Items))
	if state.HasMore {
		footer += ", more available"
	}
	_, err := fmt.Fprintln(w, footer)
	return err
}

func printTopArticles(w io.Writer, articles []model.Article) error {
	tw := newTable(w)
	for _, a := range articles {
		fmt.Fprintf(tw, "%d\t[top] %s\t%s\t%s\n",
			a.ID,
			util.Truncate(util.CleanText(a.Title), titleWidth),
			util.CleanText(a.DisplayAuthor()),
			a.NiceDate,
		)
	}
	return tw.Flush()
}

func collectMark(a model.Article) string {
	if a.Collect {
		return "*"
	}
	return ""
}

func printBanners(w io.Writer, banners []model.Banner) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTITLE\tURL")
	for _, b := range banners {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", b.ID, util.CleanText(b.Title), b.URL)
	}
	return tw.Flush()
}

// printTree lists each top-level category followed by its children, which
// carry the ids used by the category and project commands.
func printTree(w io.Writer, tree []model.Category) error {
	tw := newTable(w)
	for _, parent := range tree {
		fmt.Fprintf(tw, "%d\t%s\n", parent.ID, util.CleanText(parent.Name))
		for _, child := range parent.Children {
			fmt.Fprintf(tw, "  %d\t  %s\n", child.ID, util.CleanText(child.Name))
		}
	}
	return tw.Flush()
}

func printHotkeys(w io.Writer, hotkeys []model.Hotkey) error {
	names := make([]string, 0, len(hotkeys))
	for _, h := range hotkeys {
		names = append(names, util.CleanText(h.Name))
	}
	_, err := fmt.Fprintln(w, strings.Join(names, ", "))
	return err
}

func printUser(w io.Writer, user *model.User) error {
	if user == nil {
		_, err := fmt.Fprintln(w, "not logged in")
		return err
	}

	tw := newTable(w)
	fmt.Fprintf(tw, "id\t%d\n", user.ID)
	fmt.Fprintf(tw, "username\t%s\n", user.Username)
	if user.Nickname != "" {
		fmt.Fprintf(tw, "nickname\t%s\n", user.Nickname)
	}
	fmt.Fprintf(tw, "coins\t%d\n", user.CoinCount)
	fmt.Fprintf(tw, "collected\t%d\n", len(user.CollectIDs))
	return tw.Flush()
}
