//go:build integration

package integration

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-wanandroid/internal/event"
	"go-wanandroid/internal/model"
)

const loginBody = `{"username":"alice","password":"secret123"}`

func TestGatewayRequiresBearerToken(t *testing.T) {
	upstream := newUpstream(t)
	g, _ := startGateway(t, newConfig(t, upstream.URL, t.TempDir()))

	status, env := g.do(t, http.MethodGet, "/api/v1/home/banners", "", false)
	assert.Equal(t, http.StatusUnauthorized, status)
	require.NotNil(t, env.Error)

	status, env = g.do(t, http.MethodGet, "/api/v1/home/banners", "", true)
	require.Equal(t, http.StatusOK, status)
	var banners []model.Banner
	require.NoError(t, json.Unmarshal(env.Data, &banners))
	require.Len(t, banners, 1)
	assert.Equal(t, "Android 15", banners[0].Title)

	resp, err := http.Get(g.server.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSessionEventsAreStreamed(t *testing.T) {
	upstream := newUpstream(t)
	g, _ := startGateway(t, newConfig(t, upstream.URL, t.TempDir()))

	first := g.dialEvents(t, "auth.login,auth.logout")

	status, _ := g.do(t, http.MethodPost, "/api/v1/auth/login", loginBody, true)
	require.Equal(t, http.StatusOK, status)

	e := readEvent(t, first)
	require.Equal(t, string(event.TypeLogin), e.Type)
	var payload event.LoginPayload
	require.NoError(t, json.Unmarshal(e.Payload, &payload))
	assert.True(t, payload.LoggedIn)
	assert.Equal(t, "alice", payload.Username)

	// A late subscriber is told the current session straight away.
	late := g.dialEvents(t, "auth.login")
	assert.Equal(t, string(event.TypeLogin), readEvent(t, late).Type)

	status, _ = g.do(t, http.MethodPost, "/api/v1/auth/logout", "", true)
	require.Equal(t, http.StatusOK, status)

	for {
		e = readEvent(t, first)
		if e.Type == string(event.TypeLogout) {
			break
		}
	}
}

func TestCollectToggleIsStreamed(t *testing.T) {
	upstream := newUpstream(t)
	g, _ := startGateway(t, newConfig(t, upstream.URL, t.TempDir()))

	status, _ := g.do(t, http.MethodPost, "/api/v1/auth/login", loginBody, true)
	require.Equal(t, http.StatusOK, status)
	status, _ = g.do(t, http.MethodGet, "/api/v1/home/articles", "", true)
	require.Equal(t, http.StatusOK, status)

	conn := g.dialEvents(t, "auth.login,article.collected")
	// The replayed login confirms the stream is attached.
	require.Equal(t, string(event.TypeLogin), readEvent(t, conn).Type)

	status, env := g.do(t, http.MethodPost, "/api/v1/articles/1/collect", "", true)
	require.Equal(t, http.StatusOK, status)
	var toggled model.CollectToggleResponse
	require.NoError(t, json.Unmarshal(env.Data, &toggled))
	assert.True(t, toggled.Collected)

	e := readEvent(t, conn)
	require.Equal(t, string(event.TypeCollected), e.Type)
	var payload event.CollectPayload
	require.NoError(t, json.Unmarshal(e.Payload, &payload))
	assert.Equal(t, 1, payload.ArticleID)
	assert.True(t, payload.Collected)
}

func TestSessionSurvivesRestart(t *testing.T) {
	upstream := newUpstream(t)
	stateDir := t.TempDir()

	g, stop := startGateway(t, newConfig(t, upstream.URL, stateDir))
	status, _ := g.do(t, http.MethodPost, "/api/v1/auth/login", loginBody, true)
	require.Equal(t, http.StatusOK, status)
	stop()

	restarted, _ := startGateway(t, newConfig(t, upstream.URL, stateDir))

	status, env := restarted.do(t, http.MethodGet, "/api/v1/auth/me", "", true)
	require.Equal(t, http.StatusOK, status)
	var view struct {
		LoggedIn bool        `json:"logged_in"`
		User     *model.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.True(t, view.LoggedIn)
	require.NotNil(t, view.User)
	assert.Equal(t, "alice", view.User.Username)

	// The restored cookie still authenticates the collect list upstream.
	status, _ = restarted.do(t, http.MethodGet, "/api/v1/collect", "", true)
	assert.Equal(t, http.StatusOK, status)
}
