package service

import (
	"context"
	"strings"
	"sync"

	"go-wanandroid/internal/event"
	"go-wanandroid/internal/feed"
	"go-wanandroid/internal/model"
	"go-wanandroid/internal/result"
	"go-wanandroid/pkg/apierror"
)

const searchFeed = "search"

type SearchService struct {
	api     API
	bus     event.Bus
	results *feed.Pager[model.Article]

	mu  sync.RWMutex
	key string
}

func NewSearchService(api API, bus event.Bus, collect *CollectService) *SearchService {
	s := &SearchService{api: api, bus: bus}
	s.results = feed.New(searchFeed, articleFetcher(s.fetch), articleKey)
	collect.Track(s.results)
	return s
}

// fetch searches the keyword that is current when the page is requested. A
// keyword change always refreshes, which discards loads for the old keyword.
func (s *SearchService) fetch(ctx context.Context, page int) (model.Envelope[model.ArticlePage], error) {
	s.mu.RLock()
	key := s.key
	s.mu.RUnlock()

	return s.api.Search(ctx, page, key)
}

func (s *SearchService) Hotkeys(ctx context.Context) ([]model.Hotkey, error) {
	out := result.Call(ctx, s.api.Hotkeys)
	if err := out.Err(); err != nil {
		return nil, err
	}
	return nonNil(out.Data()), nil
}

// Search starts a new result list for key. Searching the same key again
// refreshes the current list.
func (s *SearchService) Search(ctx context.Context, key string) (ArticleState, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return ArticleState{}, apierror.BadRequest("search keyword is required", "")
	}

	s.mu.Lock()
	changed := s.key != key
	s.key = key
	s.mu.Unlock()

	if changed {
		s.results.Reset()
	}

	state, err := s.results.Refresh(ctx)
	reportFeedError(s.bus, searchFeed, err)
	return state, err
}

// LoadMore continues the current search.
func (s *SearchService) LoadMore(ctx context.Context) (ArticleState, error) {
	if s.Keyword() == "" {
		return ArticleState{}, apierror.BadRequest("no search in progress", "")
	}

	state, err := s.results.LoadMore(ctx)
	reportFeedError(s.bus, searchFeed, err)
	return state, err
}

func (s *SearchService) Keyword() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key
}

func (s *SearchService) State() ArticleState {
	return s.results.State()
}
