package service

import (
	"context"
	"log/slog"

	"go-wanandroid/internal/event"
	"go-wanandroid/internal/feed"
	"go-wanandroid/internal/model"
	"go-wanandroid/internal/result"
)

const homeFeed = "home"

type HomeService struct {
	api      API
	bus      event.Bus
	collect  *CollectService
	articles *feed.Pager[model.Article]
}

func NewHomeService(api API, bus event.Bus, collect *CollectService) *HomeService {
	s := &HomeService{
		api:      api,
		bus:      bus,
		collect:  collect,
		articles: feed.New(homeFeed, articleFetcher(api.Articles), articleKey),
	}
	collect.Track(s.articles)
	return s
}

func (s *HomeService) Banners(ctx context.Context) ([]model.Banner, error) {
	out := result.Call(ctx, s.api.Banners)
	if err := out.Err(); err != nil {
		reportFeedError(s.bus, "banner", err)
		return nil, err
	}
	return nonNil(out.Data()), nil
}

func (s *HomeService) TopArticles(ctx context.Context) ([]model.Article, error) {
	out := result.Call(ctx, s.api.TopArticles)
	if err := out.Err(); err != nil {
		return nil, err
	}
	return nonNil(out.Data()), nil
}

// Articles returns the home feed, loading the first page if needed.
func (s *HomeService) Articles(ctx context.Context) (ArticleState, error) {
	state, err := s.articles.RefreshIfNeeded(ctx)
	reportFeedError(s.bus, homeFeed, err)
	return state, err
}

func (s *HomeService) RefreshArticles(ctx context.Context) (ArticleState, error) {
	state, err := s.articles.Refresh(ctx)
	reportFeedError(s.bus, homeFeed, err)
	return state, err
}

func (s *HomeService) LoadMoreArticles(ctx context.Context) (ArticleState, error) {
	state, err := s.articles.LoadMore(ctx)
	reportFeedError(s.bus, homeFeed, err)
	return state, err
}

func (s *HomeService) ToggleCollect(ctx context.Context, articleID int) (bool, error) {
	return s.collect.Toggle(ctx, articleID)
}

// Run refreshes a loaded home feed whenever the login state changes, so the
// collect flags match the new session. It returns when ctx is done.
func (s *HomeService) Run(ctx context.Context) {
	events, unsubscribe := s.bus.Subscribe(event.TypeLogin, event.TypeLogout)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if !s.articles.State().Loaded {
				continue
			}
			if _, err := s.RefreshArticles(ctx); err != nil {
				slog.Warn("home refresh after session change failed", "event", e.Type, "error", err)
			}
		}
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
