package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"go-wanandroid/internal/model"
)

func (c *Client) Banners(ctx context.Context) (model.Envelope[[]model.Banner], error) {
	return call[[]model.Banner](ctx, c, request{endpoint: "banner", method: http.MethodGet, path: "banner/json"})
}

// Articles lists the home feed. page is 0-based.
func (c *Client) Articles(ctx context.Context, page int) (model.Envelope[model.ArticlePage], error) {
	return call[model.ArticlePage](ctx, c, request{
		endpoint: "article_list",
		method:   http.MethodGet,
		path:     fmt.Sprintf("article/list/%d/json", page),
	})
}

func (c *Client) TopArticles(ctx context.Context) (model.Envelope[[]model.Article], error) {
	return call[[]model.Article](ctx, c, request{endpoint: "article_top", method: http.MethodGet, path: "article/top/json"})
}

func (c *Client) CategoryTree(ctx context.Context) (model.Envelope[[]model.Category], error) {
	return call[[]model.Category](ctx, c, request{endpoint: "tree", method: http.MethodGet, path: "tree/json"})
}

// CategoryArticles lists one knowledge-tree category. page is 0-based.
func (c *Client) CategoryArticles(ctx context.Context, page int, cid int) (model.Envelope[model.ArticlePage], error) {
	return call[model.ArticlePage](ctx, c, request{
		endpoint: "category_articles",
		method:   http.MethodGet,
		path:     fmt.Sprintf("article/list/%d/json", page),
		query:    url.Values{"cid": {strconv.Itoa(cid)}},
	})
}

func (c *Client) ProjectTree(ctx context.Context) (model.Envelope[[]model.Category], error) {
	return call[[]model.Category](ctx, c, request{endpoint: "project_tree", method: http.MethodGet, path: "project/tree/json"})
}

// ProjectArticles lists one project category. page is 0-based here; the
// upstream numbers project pages from 1.
func (c *Client) ProjectArticles(ctx context.Context, page int, cid int) (model.Envelope[model.ArticlePage], error) {
	return call[model.ArticlePage](ctx, c, request{
		endpoint: "project_list",
		method:   http.MethodGet,
		path:     fmt.Sprintf("project/list/%d/json", page+1),
		query:    url.Values{"cid": {strconv.Itoa(cid)}},
	})
}

// Search queries articles by keyword. page is 0-based.
func (c *Client) Search(ctx context.Context, page int, key string) (model.Envelope[model.ArticlePage], error) {
	return call[model.ArticlePage](ctx, c, request{
		endpoint: "search",
		method:   http.MethodPost,
		path:     fmt.Sprintf("article/query/%d/json", page),
		form:     url.Values{"k": {key}},
	})
}

func (c *Client) Hotkeys(ctx context.Context) (model.Envelope[[]model.Hotkey], error) {
	return call[[]model.Hotkey](ctx, c, request{endpoint: "hotkey", method: http.MethodGet, path: "hotkey/json"})
}

func (c *Client) Login(ctx context.Context, username string, password string) (model.Envelope[*model.User], error) {
	return call[*model.User](ctx, c, request{
		endpoint: "login",
		method:   http.MethodPost,
		path:     "user/login",
		form:     url.Values{"username": {username}, "password": {password}},
	})
}

func (c *Client) Register(ctx context.Context, username string, password string, repassword string) (model.Envelope[*model.User], error) {
	return call[*model.User](ctx, c, request{
		endpoint: "register",
		method:   http.MethodPost,
		path:     "user/register",
		form:     url.Values{"username": {username}, "password": {password}, "repassword": {repassword}},
	})
}

func (c *Client) Logout(ctx context.Context) (model.Envelope[json.RawMessage], error) {
	return call[json.RawMessage](ctx, c, request{endpoint: "logout", method: http.MethodGet, path: "user/logout/json"})
}

// CollectList lists the user's collected articles. page is 0-based.
func (c *Client) CollectList(ctx context.Context, page int) (model.Envelope[model.ArticlePage], error) {
	return call[model.ArticlePage](ctx, c, request{
		endpoint: "collect_list",
		method:   http.MethodGet,
		path:     fmt.Sprintf("lg/collect/list/%d/json", page),
	})
}

func (c *Client) Collect(ctx context.Context, id int) (model.Envelope[json.RawMessage], error) {
	return call[json.RawMessage](ctx, c, request{
		endpoint: "collect",
		method:   http.MethodPost,
		path:     fmt.Sprintf("lg/collect/%d/json", id),
	})
}

// Uncollect removes a collected article addressed by its article-list id.
func (c *Client) Uncollect(ctx context.Context, id int) (model.Envelope[json.RawMessage], error) {
	return call[json.RawMessage](ctx, c, request{
		endpoint: "uncollect",
		method:   http.MethodPost,
		path:     fmt.Sprintf("lg/uncollect_originId/%d/json", id),
	})
}

// UncollectMine removes an entry of the collect list. originID is -1 for
// entries that were added by link rather than from an article.
func (c *Client) UncollectMine(ctx context.Context, id int, originID int) (model.Envelope[json.RawMessage], error) {
	return call[json.RawMessage](ctx, c, request{
		endpoint: "uncollect_mine",
		method:   http.MethodPost,
		path:     fmt.Sprintf("lg/uncollect/%d/json", id),
		form:     url.Values{"originId": {strconv.Itoa(originID)}},
	})
}
