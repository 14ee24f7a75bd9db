//go:build integration

package integration

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"go-wanandroid/internal/app"
	"go-wanandroid/internal/config"
	"go-wanandroid/internal/model"
	"go-wanandroid/internal/service"
)

const gatewaySecret = "integration-secret-0123456789"

// wanServer is a stand-in for the WanAndroid API: one page of home
// articles, a cookie-based login and a collect list behind it.
type wanServer struct {
	mu        sync.Mutex
	collected map[int]bool
}

func (s *wanServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	w.Header().Set("Content-Type", "application/json")

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := r.Cookie("loginUserName")
	loggedIn := err == nil

	switch {
	case r.URL.Path == "/banner/json":
		fmt.Fprint(w, `{"data":[{"id":30,"title":"Android 15"}],"errorCode":0,"errorMsg":""}`)
	case r.URL.Path == "/article/list/0/json":
		fmt.Fprintf(w, `{"data":{"datas":[{"id":1,"title":"one","collect":%t}],"pageCount":1},"errorCode":0,"errorMsg":""}`, loggedIn && s.collected[1])
	case r.URL.Path == "/user/login":
		http.SetCookie(w, &http.Cookie{Name: "loginUserName", Value: r.PostForm.Get("username"), Path: "/", Expires: time.Now().Add(time.Hour)})
		fmt.Fprintf(w, `{"data":{"id":5,"username":%q},"errorCode":0,"errorMsg":""}`, r.PostForm.Get("username"))
	case r.URL.Path == "/user/logout/json":
		fmt.Fprint(w, `{"data":null,"errorCode":0,"errorMsg":""}`)
	case !loggedIn && strings.HasPrefix(r.URL.Path, "/lg/"):
		fmt.Fprint(w, `{"data":null,"errorCode":-1001,"errorMsg":"请先登录！"}`)
	case r.URL.Path == "/lg/collect/list/0/json":
		fmt.Fprint(w, `{"data":{"datas":[],"pageCount":0},"errorCode":0,"errorMsg":""}`)
	case r.URL.Path == "/lg/collect/1/json":
		s.collected[1] = true
		fmt.Fprint(w, `{"data":null,"errorCode":0,"errorMsg":""}`)
	case r.URL.Path == "/lg/uncollect_originId/1/json":
		s.collected[1] = false
		fmt.Fprint(w, `{"data":null,"errorCode":0,"errorMsg":""}`)
	default:
		http.NotFound(w, r)
	}
}

type gateway struct {
	server *httptest.Server
	token  string
}

func newConfig(t *testing.T, upstreamURL string, stateDir string) *config.Config {
	t.Helper()

	return &config.Config{
		BaseURL:            upstreamURL,
		UpstreamTimeout:    5 * time.Second,
		StateBackend:       config.BackendPebble,
		StateDir:           stateDir,
		ServerPort:         "0",
		ServerReadTimeout:  5 * time.Second,
		ServerWriteTimeout: 10 * time.Second,
		ServerIdleTimeout:  30 * time.Second,
		RequestTimeout:     5 * time.Second,
		CORSOrigins:        []string{"*"},
		RateLimitRPM:       0,
		AuthRateLimitRPM:   100,
		GatewaySecret:      gatewaySecret,
		GatewayTokenTTL:    time.Hour,
		EventBuffer:        16,
	}
}

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(&wanServer{collected: map[int]bool{}})
	t.Cleanup(srv.Close)
	return srv
}

// startGateway runs the full application on cfg. The returned stop func
// releases the state directory so another gateway can reopen it.
func startGateway(t *testing.T, cfg *config.Config) (*gateway, func()) {
	t.Helper()

	application, err := app.New(cfg)
	require.NoError(t, err)

	srv := httptest.NewServer(application.Handler())

	tokens, err := service.NewTokenService(gatewaySecret, time.Hour)
	require.NoError(t, err)
	issued, err := tokens.Issue("integration")
	require.NoError(t, err)

	var once sync.Once
	stop := func() {
		once.Do(func() {
			srv.Close()
			application.Close()
		})
	}
	t.Cleanup(stop)

	return &gateway{server: srv, token: issued.AccessToken}, stop
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *model.APIError `json:"error"`
}

func (g *gateway) do(t *testing.T, method string, path string, body string, authorized bool) (int, envelope) {
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
	if authorized {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env))
	}
	return resp.StatusCode, env
}

type streamedEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func (g *gateway) dialEvents(t *testing.T, types string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(g.server.URL, "http") + "/ws?types=" + types
	header := http.Header{"Authorization": []string{"Bearer " + g.token}}

	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) streamedEvent {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var e streamedEvent
	require.NoError(t, conn.ReadJSON(&e))
	return e
}
