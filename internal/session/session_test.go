package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"go-wanandroid/internal/model"
	"go-wanandroid/internal/storage"
)

func TestSaveAndReload(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := storage.NewMemory()

	s := New(store)
	user, err := s.User(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.False(t, s.LoggedIn(ctx))

	require.NoError(t, s.Save(ctx, &model.User{ID: 42, Username: "alice", CollectIDs: []int{7}}))
	assert.True(t, s.LoggedIn(ctx))

	reopened := New(store)
	user, err = reopened.User(ctx)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, 42, user.ID)
	assert.Equal(t, []int{7}, user.CollectIDs)
}

func TestClear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := storage.NewMemory()
	s := New(store)

	require.NoError(t, s.Save(ctx, &model.User{ID: 1, Username: "bob"}))
	require.NoError(t, s.Clear(ctx))

	assert.False(t, s.LoggedIn(ctx))
	_, ok, err := store.Get(ctx, userKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUndecodableRecordMeansLoggedOut(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := storage.NewMemory()
	require.NoError(t, store.Set(ctx, userKey, []byte("{not json")))

	user, err := New(store).User(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestSaveRejectsNil(t *testing.T) {
	t.Parallel()

	err := New(storage.NewMemory()).Save(context.Background(), nil)
	assert.ErrorIs(t, err, model.ErrEmptyUser)
}

func TestReadIsLazyAndCached(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := new(storage.MockStore)
	store.On("Get", mock.Anything, userKey).Return([]byte(`{"id":3,"username":"carol"}`), true, nil).Once()

	s := New(store)
	store.AssertNotCalled(t, "Get", mock.Anything, userKey)

	for range 3 {
		user, err := s.User(ctx)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "carol", user.Username)
	}

	store.AssertExpectations(t)
}

func TestReadErrorIsReturned(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := new(storage.MockStore)
	store.On("Get", mock.Anything, userKey).Return(nil, false, errors.New("disk gone"))

	s := New(store)
	_, err := s.User(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk gone")
	assert.False(t, s.LoggedIn(ctx))
}

func TestReturnedUserIsACopy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New(storage.NewMemory())
	require.NoError(t, s.Save(ctx, &model.User{ID: 5, Username: "dave"}))

	user, err := s.User(ctx)
	require.NoError(t, err)
	user.Username = "mallory"

	again, err := s.User(ctx)
	require.NoError(t, err)
	assert.Equal(t, "dave", again.Username)
}
