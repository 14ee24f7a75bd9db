// Package service holds the per-screen state of the client: feeds, trees,
// search, collections and the login session.
package service

import (
	"context"
	"encoding/json"
	"errors"

	"go-wanandroid/internal/event"
	"go-wanandroid/internal/feed"
	"go-wanandroid/internal/model"
	"go-wanandroid/internal/result"
)

// API is the upstream surface the services depend on. *client.Client
// implements it.
type API interface {
	Banners(ctx context.Context) (model.Envelope[[]model.Banner], error)
	Articles(ctx context.Context, page int) (model.Envelope[model.ArticlePage], error)
	TopArticles(ctx context.Context) (model.Envelope[[]model.Article], error)
	CategoryTree(ctx context.Context) (model.Envelope[[]model.Category], error)
	CategoryArticles(ctx context.Context, page int, cid int) (model.Envelope[model.ArticlePage], error)
	ProjectTree(ctx context.Context) (model.Envelope[[]model.Category], error)
	ProjectArticles(ctx context.Context, page int, cid int) (model.Envelope[model.ArticlePage], error)
	Search(ctx context.Context, page int, key string) (model.Envelope[model.ArticlePage], error)
	Hotkeys(ctx context.Context) (model.Envelope[[]model.Hotkey], error)
	Login(ctx context.Context, username string, password string) (model.Envelope[*model.User], error)
	Register(ctx context.Context, username string, password string, repassword string) (model.Envelope[*model.User], error)
	Logout(ctx context.Context) (model.Envelope[json.RawMessage], error)
	CollectList(ctx context.Context, page int) (model.Envelope[model.ArticlePage], error)
	Collect(ctx context.Context, id int) (model.Envelope[json.RawMessage], error)
	Uncollect(ctx context.Context, id int) (model.Envelope[json.RawMessage], error)
	UncollectMine(ctx context.Context, id int, originID int) (model.Envelope[json.RawMessage], error)
}

// CookieStore is the part of the cookie jar logout needs.
type CookieStore interface {
	Clear(ctx context.Context) error
}

type ArticleState = feed.State[model.Article]

func articleKey(a model.Article) int { return a.ID }

// articleFetcher adapts a paged upstream listing to a pager fetcher.
func articleFetcher(list func(ctx context.Context, page int) (model.Envelope[model.ArticlePage], error)) feed.Fetcher[model.Article] {
	return func(ctx context.Context, page int) result.Outcome[feed.Page[model.Article]] {
		out := result.Call(ctx, func(ctx context.Context) (model.Envelope[model.ArticlePage], error) {
			return list(ctx, page)
		})
		return result.Map(out, toPage)
	}
}

func toPage(p model.ArticlePage) feed.Page[model.Article] {
	return feed.Page[model.Article]{Items: p.Datas, PageCount: p.PageCount}
}

// reportFeedError publishes a feed.error event for a failed load.
func reportFeedError(bus event.Bus, name string, err error) {
	if err == nil {
		return
	}

	message := err.Error()
	var resErr *result.Error
	if errors.As(err, &resErr) {
		message = resErr.Message
	}

	bus.Publish(event.New(event.TypeFeedError, event.FeedErrorPayload{Feed: name, Message: message}))
}
