package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go-wanandroid/internal/model"
)

var errOffline = errors.New("dial tcp: network is unreachable")

// fakeAPI serves canned listings. Unset listings return an empty page.
type fakeAPI struct {
	mu sync.Mutex

	home      [][]model.Article
	category  map[int][][]model.Article
	project   map[int][][]model.Article
	search    map[string][][]model.Article
	collected [][]model.Article
	tree      []model.Category
	hotkeys   []model.Hotkey
	user      *model.User

	offline     bool
	loginCode   int
	collectCode int

	calls []string
}

func (f *fakeAPI) record(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	return f.offline
}

func (f *fakeAPI) called(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func success[T any](data T) model.Envelope[T] {
	return model.Envelope[T]{Data: data}
}

func pageOf(pages [][]model.Article, page int) model.Envelope[model.ArticlePage] {
	p := model.ArticlePage{CurPage: page + 1, PageCount: len(pages)}
	if page < len(pages) {
		p.Datas = append([]model.Article(nil), pages[page]...)
	}
	return success(p)
}

func (f *fakeAPI) Banners(context.Context) (model.Envelope[[]model.Banner], error) {
	if f.record("banners") {
		return model.Envelope[[]model.Banner]{}, errOffline
	}
	return success([]model.Banner{{ID: 1, Title: "banner"}}), nil
}

func (f *fakeAPI) Articles(_ context.Context, page int) (model.Envelope[model.ArticlePage], error) {
	if f.record("articles") {
		return model.Envelope[model.ArticlePage]{}, errOffline
	}
	return pageOf(f.home, page), nil
}

func (f *fakeAPI) TopArticles(context.Context) (model.Envelope[[]model.Article], error) {
	if f.record("top") {
		return model.Envelope[[]model.Article]{}, errOffline
	}
	return model.Envelope[[]model.Article]{}, nil
}

func (f *fakeAPI) CategoryTree(context.Context) (model.Envelope[[]model.Category], error) {
	if f.record("tree") {
		return model.Envelope[[]model.Category]{}, errOffline
	}
	return success(f.tree), nil
}

func (f *fakeAPI) CategoryArticles(_ context.Context, page int, cid int) (model.Envelope[model.ArticlePage], error) {
	if f.record("category") {
		return model.Envelope[model.ArticlePage]{}, errOffline
	}
	return pageOf(f.category[cid], page), nil
}

func (f *fakeAPI) ProjectTree(context.Context) (model.Envelope[[]model.Category], error) {
	if f.record("project_tree") {
		return model.Envelope[[]model.Category]{}, errOffline
	}
	return success(f.tree), nil
}

func (f *fakeAPI) ProjectArticles(_ context.Context, page int, cid int) (model.Envelope[model.ArticlePage], error) {
	if f.record("project") {
		return model.Envelope[model.ArticlePage]{}, errOffline
	}
	return pageOf(f.project[cid], page), nil
}

func (f *fakeAPI) Search(_ context.Context, page int, key string) (model.Envelope[model.ArticlePage], error) {
	if f.record("search:" + key) {
		return model.Envelope[model.ArticlePage]{}, errOffline
	}
	return pageOf(f.search[key], page), nil
}

func (f *fakeAPI) Hotkeys(context.Context) (model.Envelope[[]model.Hotkey], error) {
	if f.record("hotkeys") {
		return model.Envelope[[]model.Hotkey]{}, errOffline
	}
	return success(f.hotkeys), nil
}

func (f *fakeAPI) Login(_ context.Context, username string, _ string) (model.Envelope[*model.User], error) {
	if f.record("login") {
		return model.Envelope[*model.User]{}, errOffline
	}
	if f.loginCode != 0 {
		return model.Envelope[*model.User]{ErrorCode: f.loginCode, ErrorMsg: "账号密码不匹配！"}, nil
	}
	if f.user == nil {
		return success[*model.User](nil), nil
	}
	u := *f.user
	u.Username = username
	return success(&u), nil
}

func (f *fakeAPI) Register(ctx context.Context, username string, password string, _ string) (model.Envelope[*model.User], error) {
	f.record("register")
	return f.Login(ctx, username, password)
}

func (f *fakeAPI) Logout(context.Context) (model.Envelope[json.RawMessage], error) {
	if f.record("logout") {
		return model.Envelope[json.RawMessage]{}, errOffline
	}
	return success[json.RawMessage](nil), nil
}

func (f *fakeAPI) CollectList(_ context.Context, page int) (model.Envelope[model.ArticlePage], error) {
	if f.record("collect_list") {
		return model.Envelope[model.ArticlePage]{}, errOffline
	}
	return pageOf(f.collected, page), nil
}

func (f *fakeAPI) ack(name string) (model.Envelope[json.RawMessage], error) {
	if f.record(name) {
		return model.Envelope[json.RawMessage]{}, errOffline
	}
	if f.collectCode != 0 {
		return model.Envelope[json.RawMessage]{ErrorCode: f.collectCode, ErrorMsg: "请先登录！"}, nil
	}
	return success[json.RawMessage](nil), nil
}

func (f *fakeAPI) Collect(context.Context, int) (model.Envelope[json.RawMessage], error) {
	return f.ack("collect")
}

func (f *fakeAPI) Uncollect(context.Context, int) (model.Envelope[json.RawMessage], error) {
	return f.ack("uncollect")
}

func (f *fakeAPI) UncollectMine(context.Context, int, int) (model.Envelope[json.RawMessage], error) {
	return f.ack("uncollect_mine")
}
