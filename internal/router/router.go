package router

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-wanandroid/internal/config"
	"go-wanandroid/internal/handler"
	"go-wanandroid/internal/middleware"
)

type Handlers struct {
	Home     *handler.HomeHandler
	Category *handler.TreeHandler
	Project  *handler.TreeHandler
	Search   *handler.SearchHandler
	Auth     *handler.AuthHandler
	Collect  *handler.CollectHandler
	Events   http.Handler
	Metrics  http.Handler
	// Ready reports whether the state backend is reachable; nil means always.
	Ready func(ctx context.Context) error
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if h.Ready != nil {
			if err := h.Ready(req.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("state backend unavailable"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics)
	}

	// The event stream hijacks the connection, so it stays outside the
	// buffered request timeout.
	if h.Events != nil {
		r.With(authMiddleware.RequireToken).Method(http.MethodGet, "/ws", h.Events)
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(authMiddleware.RequireToken)
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/home", func(home chi.Router) {
			home.Get("/banners", h.Home.Banners)
			home.Get("/top", h.Home.TopArticles)
			home.Get("/articles", h.Home.Articles)
			home.Post("/articles/refresh", h.Home.Refresh)
			home.Post("/articles/more", h.Home.More)
		})

		mountTree(api, "/categories", h.Category)
		mountTree(api, "/projects", h.Project)

		api.Route("/search", func(search chi.Router) {
			search.Get("/", h.Search.Search)
			search.Get("/hotkeys", h.Search.Hotkeys)
			search.Post("/more", h.Search.More)
		})

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/login", h.Auth.Login)
			auth.Post("/register", h.Auth.Register)
			auth.Post("/logout", h.Auth.Logout)
			auth.Get("/me", h.Auth.Me)
		})

		api.Group(func(session chi.Router) {
			session.Use(authMiddleware.RequireSession)

			session.Get("/collect", h.Collect.List)
			session.Post("/collect/refresh", h.Collect.Refresh)
			session.Post("/collect/more", h.Collect.More)
			session.Delete("/collect/{id}", h.Collect.Remove)
			session.Post("/articles/{id}/collect", h.Collect.Toggle)
		})
	})

	return r
}

func mountTree(api chi.Router, prefix string, h *handler.TreeHandler) {
	api.Route(prefix, func(tree chi.Router) {
		tree.Get("/", h.Tree)
		tree.Get("/{cid}/articles", h.Articles)
		tree.Post("/{cid}/articles/refresh", h.Refresh)
		tree.Post("/{cid}/articles/more", h.More)
	})
}
