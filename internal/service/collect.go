package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go-wanandroid/internal/event"
	"go-wanandroid/internal/feed"
	"go-wanandroid/internal/model"
	"go-wanandroid/internal/result"
	"go-wanandroid/internal/session"
)

const collectFeed = "collect"

// CollectService owns the user's collect list and the collect flag of every
// article list registered with Track.
type CollectService struct {
	api     API
	session *session.Session
	bus     event.Bus
	list    *feed.Pager[model.Article]

	mu      sync.RWMutex
	tracked []*feed.Pager[model.Article]
}

func NewCollectService(api API, sess *session.Session, bus event.Bus) *CollectService {
	s := &CollectService{api: api, session: sess, bus: bus}
	s.list = feed.New(collectFeed, articleFetcher(s.fetchCollectList), articleKey)
	return s
}

// fetchCollectList marks every entry as collected; the upstream leaves the
// flag unset on this listing.
func (s *CollectService) fetchCollectList(ctx context.Context, page int) (model.Envelope[model.ArticlePage], error) {
	env, err := s.api.CollectList(ctx, page)
	for i := range env.Data.Datas {
		env.Data.Datas[i].Collect = true
	}
	return env, err
}

// Track registers an article list whose collect flags follow collect and
// uncollect calls.
func (s *CollectService) Track(p *feed.Pager[model.Article]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracked = append(s.tracked, p)
}

func (s *CollectService) List(ctx context.Context) (ArticleState, error) {
	if err := s.requireLogin(ctx); err != nil {
		return ArticleState{}, err
	}
	state, err := s.list.RefreshIfNeeded(ctx)
	reportFeedError(s.bus, collectFeed, err)
	return state, err
}

func (s *CollectService) Refresh(ctx context.Context) (ArticleState, error) {
	if err := s.requireLogin(ctx); err != nil {
		return ArticleState{}, err
	}
	state, err := s.list.Refresh(ctx)
	reportFeedError(s.bus, collectFeed, err)
	return state, err
}

func (s *CollectService) LoadMore(ctx context.Context) (ArticleState, error) {
	if err := s.requireLogin(ctx); err != nil {
		return ArticleState{}, err
	}
	state, err := s.list.LoadMore(ctx)
	reportFeedError(s.bus, collectFeed, err)
	return state, err
}

// Collect adds the article with the given id to the collect list.
func (s *CollectService) Collect(ctx context.Context, id int) error {
	if err := s.requireLogin(ctx); err != nil {
		return err
	}

	if err := call(ctx, func(ctx context.Context) (model.Envelope[json.RawMessage], error) {
		return s.api.Collect(ctx, id)
	}); err != nil {
		return fmt.Errorf("collect article %d: %w", id, err)
	}

	s.setCollected(id, true)
	// The collect list gained an entry whose id is only known upstream.
	s.list.Reset()
	s.bus.Publish(event.New(event.TypeCollected, event.CollectPayload{ArticleID: id, Collected: true}))
	return nil
}

// Uncollect removes an article addressed by its article-list id.
func (s *CollectService) Uncollect(ctx context.Context, id int) error {
	if err := s.requireLogin(ctx); err != nil {
		return err
	}

	if err := call(ctx, func(ctx context.Context) (model.Envelope[json.RawMessage], error) {
		return s.api.Uncollect(ctx, id)
	}); err != nil {
		return fmt.Errorf("uncollect article %d: %w", id, err)
	}

	s.setCollected(id, false)
	s.list.Remove(func(a model.Article) bool { return a.OriginID == id })
	s.bus.Publish(event.New(event.TypeUncollected, event.CollectPayload{ArticleID: id, Collected: false}))
	return nil
}

// UncollectMine removes an entry of the collect list. originID is the
// article it was collected from, or -1 when it was added by link.
func (s *CollectService) UncollectMine(ctx context.Context, id int, originID int) error {
	if err := s.requireLogin(ctx); err != nil {
		return err
	}

	if err := call(ctx, func(ctx context.Context) (model.Envelope[json.RawMessage], error) {
		return s.api.UncollectMine(ctx, id, originID)
	}); err != nil {
		return fmt.Errorf("uncollect entry %d: %w", id, err)
	}

	s.list.Remove(func(a model.Article) bool { return a.ID == id })
	if originID > 0 {
		s.setCollected(originID, false)
	}
	s.bus.Publish(event.New(event.TypeUncollected, event.CollectPayload{ArticleID: id, OriginID: originID, Collected: false}))
	return nil
}

// Toggle flips the collect flag of an article that is loaded in one of the
// tracked lists and returns the new flag.
func (s *CollectService) Toggle(ctx context.Context, id int) (bool, error) {
	article, ok := s.find(id)
	if !ok {
		return false, fmt.Errorf("article %d: %w", id, model.ErrArticleNotFound)
	}

	if article.Collect {
		return false, s.Uncollect(ctx, id)
	}
	return true, s.Collect(ctx, id)
}

// Forget drops the collect list, for example after logout.
func (s *CollectService) Forget() {
	s.list.Reset()
	s.setAllUncollected()
}

func (s *CollectService) State() ArticleState {
	return s.list.State()
}

func (s *CollectService) requireLogin(ctx context.Context) error {
	user, err := s.session.User(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		return model.ErrNotLoggedIn
	}
	return nil
}

func (s *CollectService) find(id int) (model.Article, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.tracked {
		if a, ok := p.Find(func(a model.Article) bool { return a.ID == id }); ok {
			return a, true
		}
	}
	return model.Article{}, false
}

func (s *CollectService) setCollected(id int, collected bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.tracked {
		p.UpdateItems(func(a *model.Article) {
			if a.ID == id {
				a.Collect = collected
			}
		})
	}
}

func (s *CollectService) setAllUncollected() {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.tracked {
		p.UpdateItems(func(a *model.Article) { a.Collect = false })
	}
}

// call runs an upstream call whose payload is ignored.
func call[T any](ctx context.Context, fn func(ctx context.Context) (model.Envelope[T], error)) error {
	return result.Call(ctx, fn).Err()
}
