package service

import (
	"context"
	"fmt"
	"sync"

	"go-wanandroid/internal/event"
	"go-wanandroid/internal/feed"
	"go-wanandroid/internal/model"
	"go-wanandroid/internal/result"
)

// treeFeeds is a category tree with one article pager per leaf category.
// Category and project screens share it.
type treeFeeds struct {
	name     string
	bus      event.Bus
	collect  *CollectService
	loadTree func(ctx context.Context) (model.Envelope[[]model.Category], error)
	list     func(ctx context.Context, page int, cid int) (model.Envelope[model.ArticlePage], error)

	mu         sync.Mutex
	tree       []model.Category
	treeLoaded bool
	pagers     map[int]*feed.Pager[model.Article]
}

func newTreeFeeds(
	name string,
	bus event.Bus,
	collect *CollectService,
	loadTree func(ctx context.Context) (model.Envelope[[]model.Category], error),
	list func(ctx context.Context, page int, cid int) (model.Envelope[model.ArticlePage], error),
) *treeFeeds {
	return &treeFeeds{
		name:     name,
		bus:      bus,
		collect:  collect,
		loadTree: loadTree,
		list:     list,
		pagers:   map[int]*feed.Pager[model.Article]{},
	}
}

// Tree returns the cached tree, fetching it on first use or when refresh is
// set. A failed refresh keeps the cached tree.
func (t *treeFeeds) Tree(ctx context.Context, refresh bool) ([]model.Category, error) {
	t.mu.Lock()
	if t.treeLoaded && !refresh {
		tree := t.tree
		t.mu.Unlock()
		return tree, nil
	}
	t.mu.Unlock()

	out := result.Call(ctx, t.loadTree)
	if err := out.Err(); err != nil {
		reportFeedError(t.bus, t.name+"_tree", err)
		return nil, err
	}

	tree := nonNil(out.Data())

	t.mu.Lock()
	t.tree = tree
	t.treeLoaded = true
	t.mu.Unlock()

	return tree, nil
}

// Articles returns the listing of category cid, loading it only if it has
// not been loaded before.
func (t *treeFeeds) Articles(ctx context.Context, cid int) (ArticleState, error) {
	return t.load(ctx, cid, (*feed.Pager[model.Article]).RefreshIfNeeded)
}

func (t *treeFeeds) RefreshArticles(ctx context.Context, cid int) (ArticleState, error) {
	return t.load(ctx, cid, (*feed.Pager[model.Article]).Refresh)
}

func (t *treeFeeds) LoadMoreArticles(ctx context.Context, cid int) (ArticleState, error) {
	return t.load(ctx, cid, (*feed.Pager[model.Article]).LoadMore)
}

// load runs step on the pager of cid. A pager for a category that has never
// loaded successfully is kept only once its first load succeeds, so failed
// or bogus ids leave nothing behind.
func (t *treeFeeds) load(
	ctx context.Context,
	cid int,
	step func(*feed.Pager[model.Article], context.Context) (ArticleState, error),
) (ArticleState, error) {
	p, known, err := t.pager(cid)
	if err != nil {
		return ArticleState{}, err
	}

	state, err := step(p, ctx)
	reportFeedError(t.bus, p.Name(), err)
	if err != nil {
		return state, err
	}

	if !known {
		t.keep(cid, p)
	}
	return state, nil
}

func (t *treeFeeds) pager(cid int) (*feed.Pager[model.Article], bool, error) {
	if cid <= 0 {
		return nil, false, fmt.Errorf("category id %d: %w", cid, model.ErrInvalidInput)
	}

	t.mu.Lock()
	p, ok := t.pagers[cid]
	t.mu.Unlock()
	if ok {
		return p, true, nil
	}

	fetch := articleFetcher(func(ctx context.Context, page int) (model.Envelope[model.ArticlePage], error) {
		return t.list(ctx, page, cid)
	})
	return feed.New(fmt.Sprintf("%s_%d", t.name, cid), fetch, articleKey), false, nil
}

// keep registers p for cid unless a concurrent first load got there first.
func (t *treeFeeds) keep(cid int, p *feed.Pager[model.Article]) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.pagers[cid]; ok {
		return
	}
	t.pagers[cid] = p
	t.collect.Track(p)
}

// CategoryService is the knowledge tree and its per-category listings.
type CategoryService struct {
	*treeFeeds
}

func NewCategoryService(api API, bus event.Bus, collect *CollectService) *CategoryService {
	return &CategoryService{newTreeFeeds("category", bus, collect, api.CategoryTree, api.CategoryArticles)}
}

// ProjectService is the project tree and its per-category listings.
type ProjectService struct {
	*treeFeeds
}

func NewProjectService(api API, bus event.Bus, collect *CollectService) *ProjectService {
	return &ProjectService{newTreeFeeds("project", bus, collect, api.ProjectTree, api.ProjectArticles)}
}
