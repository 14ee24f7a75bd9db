package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-wanandroid/internal/config"
	"go-wanandroid/internal/model"
	"go-wanandroid/internal/storage"
)

func testConfig(backend string, dir string) *config.Config {
	return &config.Config{
		BaseURL:         "http://127.0.0.1:1/",
		UpstreamTimeout: time.Second,
		StateBackend:    backend,
		StateDir:        dir,
		EventBuffer:     8,
	}
}

func TestStackMemoryBackend(t *testing.T) {
	ctx := context.Background()

	stack, err := NewStack(ctx, testConfig(config.BackendMemory, ""))
	require.NoError(t, err)
	defer stack.Close()

	require.NoError(t, stack.Ready(ctx))
	assert.NotNil(t, stack.Services.Home)
	assert.Equal(t, "127.0.0.1:1", stack.Client.BaseURL().Host)
}

func TestStackPebbleStatePersists(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(config.BackendPebble, t.TempDir())
	cfg.StateSecret = "state-secret-for-tests"

	stack, err := NewStack(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, stack.Session.Save(ctx, &model.User{ID: 11, Username: "alice"}))
	stack.Close()
	stack.Close()

	reopened, err := NewStack(ctx, cfg)
	require.NoError(t, err)
	defer reopened.Close()

	user, err := reopened.Session.User(ctx)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "alice", user.Username)
}

func TestStackPebbleDirInUse(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(config.BackendPebble, t.TempDir())

	gateway, err := NewStack(ctx, cfg)
	require.NoError(t, err)
	defer gateway.Close()

	_, err = NewStack(ctx, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrStateLocked)
}

func TestStackWrongSecretCannotReadUser(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(config.BackendPebble, t.TempDir())
	cfg.StateSecret = "state-secret-for-tests"

	stack, err := NewStack(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, stack.Session.Save(ctx, &model.User{ID: 11, Username: "alice"}))
	stack.Close()

	cfg.StateSecret = "a-different-secret-value"
	reopened, err := NewStack(ctx, cfg)
	require.NoError(t, err)
	defer reopened.Close()

	_, err = reopened.Session.User(ctx)
	require.Error(t, err)
}
