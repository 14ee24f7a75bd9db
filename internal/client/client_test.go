package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-wanandroid/internal/cookie"
	"go-wanandroid/internal/storage"
)

type recorded struct {
	method string
	path   string
	query  url.Values
	form   url.Values
	cookie string
	agent  string
}

type fakeUpstream struct {
	mu       sync.Mutex
	requests []recorded
	srv      *httptest.Server
}

func newFakeUpstream(t *testing.T, routes map[string]string) *fakeUpstream {
	t.Helper()
	f := &fakeUpstream{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		form := url.Values{}
		if r.Method == http.MethodPost {
			form = r.PostForm
		}
		f.mu.Lock()
		f.requests = append(f.requests, recorded{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.Query(),
			form:   form,
			cookie: r.Header.Get("Cookie"),
			agent:  r.Header.Get("User-Agent"),
		})
		f.mu.Unlock()

		if r.URL.Path == "/user/login" {
			http.SetCookie(w, &http.Cookie{Name: "loginUserName", Value: r.PostForm.Get("username"), Path: "/"})
		}

		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeUpstream) last() recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newTestClient(t *testing.T, f *fakeUpstream, jar http.CookieJar) *Client {
	t.Helper()
	c, err := New(Options{BaseURL: f.srv.URL, UserAgent: "wanctl-test", Jar: jar})
	require.NoError(t, err)
	return c
}

func TestNewRejectsRelativeBase(t *testing.T) {
	_, err := New(Options{BaseURL: "/relative"})
	require.Error(t, err)
}

func TestArticlesDecodesEnvelope(t *testing.T) {
	f := newFakeUpstream(t, map[string]string{
		"/article/list/0/json": `{"data":{"curPage":1,"datas":[{"id":7,"title":"Compose","author":"","shareUser":"jim"}],"pageCount":3,"size":20,"total":41,"over":false},"errorCode":0,"errorMsg":""}`,
	})
	c := newTestClient(t, f, nil)

	env, err := c.Articles(context.Background(), 0)
	require.NoError(t, err)
	assert.True(t, env.OK())
	require.Len(t, env.Data.Datas, 1)
	assert.Equal(t, 7, env.Data.Datas[0].ID)
	assert.Equal(t, "jim", env.Data.Datas[0].DisplayAuthor())
	assert.Equal(t, 3, env.Data.PageCount)

	req := f.last()
	assert.Equal(t, http.MethodGet, req.method)
	assert.Equal(t, "wanctl-test", req.agent)
}

func TestProjectArticlesUsesOneBasedPages(t *testing.T) {
	f := newFakeUpstream(t, map[string]string{
		"/project/list/1/json": `{"data":{"datas":[],"pageCount":1},"errorCode":0,"errorMsg":""}`,
	})
	c := newTestClient(t, f, nil)

	_, err := c.ProjectArticles(context.Background(), 0, 294)
	require.NoError(t, err)
	assert.Equal(t, "294", f.last().query.Get("cid"))
}

func TestSearchPostsKeyword(t *testing.T) {
	f := newFakeUpstream(t, map[string]string{
		"/article/query/2/json": `{"data":{"datas":[],"pageCount":0},"errorCode":0,"errorMsg":""}`,
	})
	c := newTestClient(t, f, nil)

	_, err := c.Search(context.Background(), 2, "kotlin flow")
	require.NoError(t, err)

	req := f.last()
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "kotlin flow", req.form.Get("k"))
}

func TestCollectListIsGet(t *testing.T) {
	f := newFakeUpstream(t, map[string]string{
		"/lg/collect/list/3/json": `{"data":{"datas":[],"pageCount":0},"errorCode":0,"errorMsg":""}`,
	})
	c := newTestClient(t, f, nil)

	env, err := c.CollectList(context.Background(), 3)
	require.NoError(t, err)
	assert.True(t, env.OK())

	req := f.last()
	assert.Equal(t, http.MethodGet, req.method)
	assert.Equal(t, "/lg/collect/list/3/json", req.path)
	assert.Empty(t, req.form)
}

func TestApplicationErrorIsNotTransportError(t *testing.T) {
	f := newFakeUpstream(t, map[string]string{
		"/lg/collect/list/0/json": `{"data":null,"errorCode":-1001,"errorMsg":"请先登录！"}`,
	})
	c := newTestClient(t, f, nil)

	env, err := c.CollectList(context.Background(), 0)
	require.NoError(t, err)
	assert.False(t, env.OK())
	assert.Equal(t, -1001, env.ErrorCode)
	assert.Equal(t, "请先登录！", env.ErrorMsg)
}

func TestHTTPStatusError(t *testing.T) {
	f := newFakeUpstream(t, map[string]string{})
	c := newTestClient(t, f, nil)

	_, err := c.Banners(context.Background())
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, "banner", statusErr.Endpoint)
}

func TestMalformedBody(t *testing.T) {
	f := newFakeUpstream(t, map[string]string{"/hotkey/json": `{"data":`})
	c := newTestClient(t, f, nil)

	_, err := c.Hotkeys(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestCanceledContext(t *testing.T) {
	f := newFakeUpstream(t, map[string]string{"/banner/json": `{"data":[],"errorCode":0,"errorMsg":""}`})
	c := newTestClient(t, f, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Banners(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoginCookiesAreReplayed(t *testing.T) {
	f := newFakeUpstream(t, map[string]string{
		"/user/login":             `{"data":{"id":1,"username":"alice","nickname":"alice"},"errorCode":0,"errorMsg":""}`,
		"/lg/collect/list/0/json": `{"data":{"datas":[],"pageCount":0},"errorCode":0,"errorMsg":""}`,
	})
	jar := cookie.NewJar(storage.NewMemory())
	c := newTestClient(t, f, jar)

	env, err := c.Login(context.Background(), "alice", "secret1")
	require.NoError(t, err)
	require.NotNil(t, env.Data)
	assert.Equal(t, "alice", env.Data.Username)
	assert.Equal(t, "secret1", f.last().form.Get("password"))

	_, err = c.CollectList(context.Background(), 0)
	require.NoError(t, err)
	assert.Contains(t, f.last().cookie, "loginUserName=alice")
}

func TestUncollectMineSendsOriginID(t *testing.T) {
	f := newFakeUpstream(t, map[string]string{
		"/lg/uncollect/12/json": `{"data":null,"errorCode":0,"errorMsg":""}`,
	})
	c := newTestClient(t, f, nil)

	env, err := c.UncollectMine(context.Background(), 12, -1)
	require.NoError(t, err)
	assert.True(t, env.OK())
	assert.Equal(t, "-1", f.last().form.Get("originId"))
}

func TestBaseURLWithPath(t *testing.T) {
	c, err := New(Options{BaseURL: "https://example.com/api"})
	require.NoError(t, err)
	assert.Equal(t, "/api/", c.BaseURL().Path)
}
