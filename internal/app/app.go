package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-wanandroid/internal/config"
	"go-wanandroid/internal/handler"
	"go-wanandroid/internal/metrics"
	"go-wanandroid/internal/middleware"
	"go-wanandroid/internal/router"
	"go-wanandroid/internal/service"
	"go-wanandroid/internal/websocket"
)

type App struct {
	server       *http.Server
	stack        *Stack
	cleanupFuncs []func()
}

func New(cfg *config.Config) (*App, error) {
	stack, err := NewStack(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	var validator *service.TokenService
	if cfg.GatewaySecret != "" {
		validator, err = service.NewTokenService(cfg.GatewaySecret, cfg.GatewayTokenTTL)
		if err != nil {
			stack.Close()
			return nil, fmt.Errorf("failed to initialize gateway tokens: %w", err)
		}
	}
	authMiddleware := newAuthMiddleware(validator, stack)
	if !authMiddleware.Enabled() {
		slog.Warn("gateway tokens disabled, GATEWAY_SECRET is not set")
	}

	background, cancel := context.WithCancel(context.Background())

	hub := websocket.NewHub(stack.Bus)
	go hub.Run(background)
	go stack.Services.Home.Run(background)

	svc := stack.Services
	appRouter := router.New(cfg, authMiddleware, router.Handlers{
		Home:     handler.NewHomeHandler(svc.Home),
		Category: handler.NewTreeHandler(svc.Category),
		Project:  handler.NewTreeHandler(svc.Project),
		Search:   handler.NewSearchHandler(svc.Search),
		Auth:     handler.NewAuthHandler(svc.Auth),
		Collect:  handler.NewCollectHandler(svc.Collect),
		Events:   websocket.NewHandler(hub, cfg.CORSOrigins),
		Metrics:  metrics.Handler(),
		Ready:    stack.Ready,
	})

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		stack:  stack,
		cleanupFuncs: []func(){
			cancel,
			stack.Close,
		},
	}, nil
}

// newAuthMiddleware keeps a nil *TokenService from becoming a non-nil
// validator interface.
func newAuthMiddleware(tokens *service.TokenService, stack *Stack) *middleware.AuthMiddleware {
	if tokens == nil {
		return middleware.NewAuthMiddleware(nil, stack.Session)
	}
	return middleware.NewAuthMiddleware(tokens, stack.Session)
}

func (a *App) Run() error {
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("gateway starting", "addr", a.server.Addr, "upstream", a.stack.Client.BaseURL().String())
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-serveErr:
		a.cleanup()
		return fmt.Errorf("server failed: %w", err)
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cleanup()
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	a.cleanup()

	slog.Info("gateway stopped")
	return nil
}

// Handler exposes the gateway routes without starting the listener.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Close stops background work and releases the stack without serving.
func (a *App) Close() {
	a.cleanup()
}

func (a *App) cleanup() {
	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}
}
