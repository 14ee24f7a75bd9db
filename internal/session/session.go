// Package session persists the logged-in user record.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"go-wanandroid/internal/model"
	"go-wanandroid/internal/storage"
)

const userKey = "user"

// Session caches the user record after the first read. A missing or
// undecodable record means nobody is logged in.
type Session struct {
	store storage.Store

	mu     sync.RWMutex
	loaded bool
	user   *model.User
}

func New(store storage.Store) *Session {
	return &Session{store: store}
}

// User returns a copy of the stored user, or nil when logged out.
func (s *Session) User(ctx context.Context) (*model.User, error) {
	s.mu.RLock()
	if s.loaded {
		user := cloneUser(s.user)
		s.mu.RUnlock()
		return user, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		user, err := s.readLocked(ctx)
		if err != nil {
			return nil, err
		}
		s.user = user
		s.loaded = true
	}

	return cloneUser(s.user), nil
}

func (s *Session) LoggedIn(ctx context.Context) bool {
	user, err := s.User(ctx)
	return err == nil && user != nil
}

func (s *Session) Save(ctx context.Context, user *model.User) error {
	if user == nil {
		return model.ErrEmptyUser
	}

	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Set(ctx, userKey, raw); err != nil {
		return fmt.Errorf("save user: %w", err)
	}

	s.user = cloneUser(user)
	s.loaded = true
	return nil
}

func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx, userKey); err != nil {
		return fmt.Errorf("clear user: %w", err)
	}

	s.user = nil
	s.loaded = true
	return nil
}

func (s *Session) readLocked(ctx context.Context) (*model.User, error) {
	raw, ok, err := s.store.Get(ctx, userKey)
	if err != nil {
		return nil, fmt.Errorf("read user: %w", err)
	}
	if !ok || len(raw) == 0 {
		return nil, nil
	}

	var user model.User
	if err := json.Unmarshal(raw, &user); err != nil {
		slog.Warn("discarding undecodable user record", "error", err)
		return nil, nil
	}

	return &user, nil
}

func cloneUser(u *model.User) *model.User {
	if u == nil {
		return nil
	}
	c := *u
	c.ChapterTops = append([]string(nil), u.ChapterTops...)
	c.CollectIDs = append([]int(nil), u.CollectIDs...)
	return &c
}
