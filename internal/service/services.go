package service

import (
	"go-wanandroid/internal/event"
	"go-wanandroid/internal/session"
)

// Services is every screen of the client wired to one upstream, session
// and event bus.
type Services struct {
	Home     *HomeService
	Category *CategoryService
	Project  *ProjectService
	Collect  *CollectService
	Search   *SearchService
	Auth     *AuthService
}

func New(api API, sess *session.Session, cookies CookieStore, bus event.Bus) *Services {
	collect := NewCollectService(api, sess, bus)

	return &Services{
		Home:     NewHomeService(api, bus, collect),
		Category: NewCategoryService(api, bus, collect),
		Project:  NewProjectService(api, bus, collect),
		Collect:  collect,
		Search:   NewSearchService(api, bus, collect),
		Auth:     NewAuthService(api, sess, cookies, bus, collect),
	}
}
