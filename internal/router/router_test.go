package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-wanandroid/internal/client"
	"go-wanandroid/internal/config"
	"go-wanandroid/internal/cookie"
	"go-wanandroid/internal/event"
	"go-wanandroid/internal/handler"
	"go-wanandroid/internal/metrics"
	"go-wanandroid/internal/middleware"
	"go-wanandroid/internal/model"
	"go-wanandroid/internal/service"
	"go-wanandroid/internal/session"
	"go-wanandroid/internal/storage"
)

// upstream imitates the WanAndroid API closely enough for the gateway:
// two home pages, a login that sets a cookie, and a collect list that
// requires it.
type upstream struct {
	mu        sync.Mutex
	collected map[int]bool
	busy      bool
}

func (u *upstream) setBusy(busy bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.busy = busy
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	w.Header().Set("Content-Type", "application/json")

	u.mu.Lock()
	defer u.mu.Unlock()

	loggedIn := false
	if c, err := r.Cookie("loginUserName"); err == nil && c.Value != "" {
		loggedIn = true
	}

	switch {
	case u.busy:
		fmt.Fprint(w, `{"data":null,"errorCode":-1,"errorMsg":"server busy"}`)
	case r.URL.Path == "/banner/json":
		fmt.Fprint(w, `{"data":[{"id":1,"title":"banner"}],"errorCode":0,"errorMsg":""}`)
	case r.URL.Path == "/article/list/0/json":
		fmt.Fprintf(w, `{"data":{"datas":[{"id":1,"title":"one","collect":%t},{"id":2,"title":"two"}],"pageCount":2},"errorCode":0,"errorMsg":""}`, u.collected[1])
	case r.URL.Path == "/article/list/1/json":
		fmt.Fprint(w, `{"data":{"datas":[{"id":3,"title":"three"}],"pageCount":2},"errorCode":0,"errorMsg":""}`)
	case r.URL.Path == "/user/login":
		http.SetCookie(w, &http.Cookie{Name: "loginUserName", Value: r.PostForm.Get("username"), Path: "/"})
		fmt.Fprintf(w, `{"data":{"id":5,"username":%q},"errorCode":0,"errorMsg":""}`, r.PostForm.Get("username"))
	case !loggedIn && strings.HasPrefix(r.URL.Path, "/lg/"):
		fmt.Fprint(w, `{"data":null,"errorCode":-1001,"errorMsg":"请先登录！"}`)
	case r.URL.Path == "/lg/collect/list/0/json":
		fmt.Fprint(w, `{"data":{"datas":[{"id":90,"originId":1,"title":"one"}],"pageCount":1},"errorCode":0,"errorMsg":""}`)
	case r.URL.Path == "/lg/collect/1/json":
		u.collected[1] = true
		fmt.Fprint(w, `{"data":null,"errorCode":0,"errorMsg":""}`)
	case r.URL.Path == "/lg/uncollect_originId/1/json":
		u.collected[1] = false
		fmt.Fprint(w, `{"data":null,"errorCode":0,"errorMsg":""}`)
	case r.URL.Path == "/user/logout/json":
		http.SetCookie(w, &http.Cookie{Name: "loginUserName", Value: "", Path: "/", MaxAge: -1})
		fmt.Fprint(w, `{"data":null,"errorCode":0,"errorMsg":""}`)
	default:
		http.NotFound(w, r)
	}
}

type gateway struct {
	upstream *upstream
	server   *httptest.Server
	tokens   *service.TokenService
}

func newGateway(t *testing.T, withTokens bool) *gateway {
	t.Helper()

	up := &upstream{collected: map[int]bool{}}
	upSrv := httptest.NewServer(up)
	t.Cleanup(upSrv.Close)

	store := storage.NewMemory()
	jar := cookie.NewJar(store)
	api, err := client.New(client.Options{BaseURL: upSrv.URL, Jar: jar, Timeout: 5 * time.Second})
	require.NoError(t, err)

	bus := event.NewBus()
	sess := session.New(store)
	svc := service.New(api, sess, jar, bus)

	var tokens *service.TokenService
	var auth *middleware.AuthMiddleware
	if withTokens {
		tokens, err = service.NewTokenService("router-test-secret-0123", time.Hour)
		require.NoError(t, err)
		auth = middleware.NewAuthMiddleware(tokens, sess)
	} else {
		auth = middleware.NewAuthMiddleware(nil, sess)
	}

	cfg := &config.Config{RequestTimeout: 5 * time.Second, RateLimitRPM: 0, AuthRateLimitRPM: 100}
	h := New(cfg, auth, Handlers{
		Home:     handler.NewHomeHandler(svc.Home),
		Category: handler.NewTreeHandler(svc.Category),
		Project:  handler.NewTreeHandler(svc.Project),
		Search:   handler.NewSearchHandler(svc.Search),
		Auth:     handler.NewAuthHandler(svc.Auth),
		Collect:  handler.NewCollectHandler(svc.Collect),
		Metrics:  metrics.Handler(),
	})

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return &gateway{upstream: up, server: srv, tokens: tokens}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *model.APIError `json:"error"`
	Meta    *model.Meta     `json:"meta"`
}

func (g *gateway) do(t *testing.T, method string, path string, body string, token string) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, g.server.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(raw, &env))
	}
	return resp.StatusCode, env
}

type feedState struct {
	Items       []model.Article `json:"items"`
	CurrentPage int             `json:"current_page"`
	HasMore     bool            `json:"has_more"`
}

func decodeFeed(t *testing.T, env envelope) feedState {
	t.Helper()
	var state feedState
	require.NoError(t, json.Unmarshal(env.Data, &state))
	return state
}

func TestHealth(t *testing.T) {
	g := newGateway(t, false)

	resp, err := http.Get(g.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
}

func TestHomeFeed(t *testing.T) {
	g := newGateway(t, false)

	status, env := g.do(t, http.MethodGet, "/api/v1/home/articles", "", "")
	require.Equal(t, http.StatusOK, status)
	state := decodeFeed(t, env)
	assert.Len(t, state.Items, 2)
	assert.True(t, state.HasMore)
	require.NotNil(t, env.Meta)
	assert.Equal(t, 2, env.Meta.TotalPages)

	status, env = g.do(t, http.MethodPost, "/api/v1/home/articles/more", "", "")
	require.Equal(t, http.StatusOK, status)
	state = decodeFeed(t, env)
	assert.Len(t, state.Items, 3)
	assert.Equal(t, 1, state.CurrentPage)
	assert.False(t, state.HasMore)

	status, env = g.do(t, http.MethodPost, "/api/v1/home/articles/more", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decodeFeed(t, env).Items, 3)

	status, env = g.do(t, http.MethodGet, "/api/v1/home/banners", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)
}

func TestUpstreamFailureIsBadGateway(t *testing.T) {
	g := newGateway(t, false)
	g.upstream.setBusy(true)

	status, env := g.do(t, http.MethodPost, "/api/v1/home/articles/refresh", "", "")
	assert.Equal(t, http.StatusBadGateway, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UPSTREAM_FAILURE", env.Error.Code)
	assert.Equal(t, "server busy", env.Error.Message)
}

func TestCollectFlow(t *testing.T) {
	g := newGateway(t, false)

	status, _ := g.do(t, http.MethodGet, "/api/v1/collect", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env := g.do(t, http.MethodPost, "/api/v1/auth/login", `{"username":"alice","password":"secret1"}`, "")
	require.Equal(t, http.StatusOK, status, "%+v", env.Error)

	status, env = g.do(t, http.MethodGet, "/api/v1/auth/me", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"logged_in":true`)

	status, env = g.do(t, http.MethodGet, "/api/v1/collect", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decodeFeed(t, env).Items, 1)

	status, _ = g.do(t, http.MethodPost, "/api/v1/articles/1/collect", "", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = g.do(t, http.MethodGet, "/api/v1/home/articles", "", "")
	require.Equal(t, http.StatusOK, status)

	status, env = g.do(t, http.MethodPost, "/api/v1/articles/1/collect", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"article_id":1,"collected":true}`, string(env.Data))

	status, env = g.do(t, http.MethodPost, "/api/v1/articles/1/collect", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"article_id":1,"collected":false}`, string(env.Data))

	status, _ = g.do(t, http.MethodPost, "/api/v1/auth/logout", "", "")
	require.Equal(t, http.StatusOK, status)

	status, _ = g.do(t, http.MethodGet, "/api/v1/collect", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRegisterValidation(t *testing.T) {
	g := newGateway(t, false)

	status, env := g.do(t, http.MethodPost, "/api/v1/auth/register", `{"username":"bob","password":"123","repassword":"123"}`, "")
	assert.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, env.Error)

	status, _ = g.do(t, http.MethodPost, "/api/v1/auth/login", `not json`, "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestSearchRequiresKeyword(t *testing.T) {
	g := newGateway(t, false)

	status, env := g.do(t, http.MethodGet, "/api/v1/search", "", "")
	assert.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "BAD_REQUEST", env.Error.Code)
}

func TestInvalidCategoryID(t *testing.T) {
	g := newGateway(t, false)

	status, _ := g.do(t, http.MethodGet, "/api/v1/categories/abc/articles", "", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestGatewayToken(t *testing.T) {
	g := newGateway(t, true)

	status, _ := g.do(t, http.MethodGet, "/api/v1/home/banners", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	issued, err := g.tokens.Issue("test")
	require.NoError(t, err)

	status, _ = g.do(t, http.MethodGet, "/api/v1/home/banners", "", issued.AccessToken)
	assert.Equal(t, http.StatusOK, status)

	resp, err := http.Get(g.server.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	g := newGateway(t, false)

	status, _ := g.do(t, http.MethodGet, "/api/v1/home/banners", "", "")
	require.Equal(t, http.StatusOK, status)

	resp, err := http.Get(g.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "wanandroid_upstream_requests_total")
}

func TestHealthReportsBackendDown(t *testing.T) {
	cfg := &config.Config{RequestTimeout: time.Second}
	auth := middleware.NewAuthMiddleware(nil, nil)
	h := New(cfg, auth, Handlers{
		Ready: func(context.Context) error { return errors.New("connection refused") },
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
