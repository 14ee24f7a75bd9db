package app

import (
	"context"
	"fmt"
	"log/slog"

	"go-wanandroid/internal/client"
	"go-wanandroid/internal/config"
	"go-wanandroid/internal/cookie"
	"go-wanandroid/internal/database"
	"go-wanandroid/internal/event"
	"go-wanandroid/internal/metrics"
	"go-wanandroid/internal/repository"
	"go-wanandroid/internal/service"
	"go-wanandroid/internal/session"
	"go-wanandroid/internal/storage"
)

// Stack is the client core shared by the gateway and the CLI: persisted
// state, cookies, the upstream client, the event bus and the services.
type Stack struct {
	Config   *config.Config
	Store    storage.Store
	Jar      *cookie.Jar
	Client   *client.Client
	Bus      *event.InMemoryBus
	Session  *session.Session
	Services *service.Services

	ready   func(ctx context.Context) error
	closers []func()
}

func NewStack(ctx context.Context, cfg *config.Config) (*Stack, error) {
	s := &Stack{Config: cfg, ready: func(context.Context) error { return nil }}

	store, err := s.openState(ctx)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Store = store

	s.Jar = cookie.NewJar(store)
	if err := s.Jar.Load(ctx); err != nil {
		s.Close()
		return nil, err
	}

	s.Client, err = client.New(client.Options{
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.UpstreamTimeout,
		RPS:       cfg.UpstreamRPS,
		Burst:     cfg.UpstreamBurst,
		UserAgent: cfg.UserAgent,
		Jar:       s.Jar,
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create upstream client: %w", err)
	}

	s.Bus = event.NewBusWithBuffer(cfg.EventBuffer)
	if err := metrics.RegisterDropped("events_dropped_total", "Events dropped from full subscriber buffers.", s.Bus.Dropped); err != nil {
		slog.Warn("event drop counter not registered", "error", err)
	}

	s.Session = session.New(store)
	s.Services = service.New(s.Client, s.Session, s.Jar, s.Bus)

	return s, nil
}

// openState picks the persistence backend and wraps it in a sealed store
// when a state secret is configured.
func (s *Stack) openState(ctx context.Context) (storage.Store, error) {
	var store storage.Store

	switch s.Config.StateBackend {
	case config.BackendMemory:
		store = storage.NewMemory()
	case config.BackendPostgres:
		db, err := database.Open(ctx, database.Settings{
			URL:      s.Config.DatabaseURL,
			MaxConns: s.Config.DBMaxConns,
			MinConns: s.Config.DBMinConns,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open state database: %w", err)
		}
		s.closers = append(s.closers, db.Close)
		s.ready = db.Health
		store = repository.NewStateRepository(db.Pool)
	default:
		pebbleStore, err := storage.OpenPebble(s.Config.StateDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open state dir: %w", err)
		}
		store = pebbleStore
	}

	// Registered after the database so it closes first.
	s.closers = append(s.closers, func() {
		if err := store.Close(); err != nil {
			slog.Warn("closing state store failed", "error", err)
		}
	})

	slog.Debug("state backend ready", "backend", s.Config.StateBackend, "sealed", s.Config.StateSecret != "")

	if s.Config.StateSecret == "" {
		return store, nil
	}

	sealed, err := storage.NewSealed(store, s.Config.StateSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to seal state store: %w", err)
	}
	return sealed, nil
}

// Ready reports whether the state backend is reachable.
func (s *Stack) Ready(ctx context.Context) error {
	return s.ready(ctx)
}

// Close releases the state backend. It is safe to call more than once.
func (s *Stack) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
