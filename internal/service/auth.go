package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go-wanandroid/internal/event"
	"go-wanandroid/internal/model"
	"go-wanandroid/internal/result"
	"go-wanandroid/internal/session"
	"go-wanandroid/pkg/apierror"
)

const minPasswordLength = 6

type AuthService struct {
	api     API
	session *session.Session
	cookies CookieStore
	bus     event.Bus
	collect *CollectService
}

func NewAuthService(api API, sess *session.Session, cookies CookieStore, bus event.Bus, collect *CollectService) *AuthService {
	return &AuthService{api: api, session: sess, cookies: cookies, bus: bus, collect: collect}
}

func (s *AuthService) Login(ctx context.Context, username string, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apierror.BadRequest("username and password are required", "")
	}
	if len(password) < minPasswordLength {
		return nil, apierror.BadRequest(fmt.Sprintf("password must be at least %d characters", minPasswordLength), "")
	}

	out := result.Call(ctx, func(ctx context.Context) (model.Envelope[*model.User], error) {
		return s.api.Login(ctx, username, password)
	})
	return s.establish(ctx, out)
}

func (s *AuthService) Register(ctx context.Context, username string, password string, repassword string) (*model.User, error) {
	if err := ValidateRegistration(username, password, repassword); err != nil {
		return nil, err
	}
	username = strings.TrimSpace(username)

	out := result.Call(ctx, func(ctx context.Context) (model.Envelope[*model.User], error) {
		return s.api.Register(ctx, username, password, repassword)
	})
	return s.establish(ctx, out)
}

// ValidateRegistration checks a registration form before it is sent.
func ValidateRegistration(username string, password string, repassword string) error {
	if strings.TrimSpace(username) == "" {
		return apierror.BadRequest("username is required", "")
	}
	if len(password) < minPasswordLength {
		return apierror.BadRequest(fmt.Sprintf("password must be at least %d characters", minPasswordLength), "")
	}
	if password != repassword {
		return fmt.Errorf("register: %w", model.ErrPasswordMismatch)
	}
	return nil
}

func (s *AuthService) establish(ctx context.Context, out result.Outcome[*model.User]) (*model.User, error) {
	if err := out.Err(); err != nil {
		return nil, err
	}

	user := out.Data()
	if user == nil {
		return nil, model.ErrEmptyUser
	}

	if err := s.session.Save(ctx, user); err != nil {
		return nil, err
	}
	// The collect list and flags belong to whoever was logged in before.
	s.collect.Forget()

	s.bus.RemoveSticky(event.TypeLogout)
	s.bus.PublishSticky(event.New(event.TypeLogin, event.LoginPayload{LoggedIn: true, Username: user.Username}))
	slog.Info("logged in", "username", user.Username)

	return user, nil
}

// Logout ends the session locally even when the upstream call fails.
func (s *AuthService) Logout(ctx context.Context) error {
	out := result.Call(ctx, s.api.Logout)
	if err := out.Err(); err != nil {
		slog.Warn("upstream logout failed", "error", err)
	}

	if err := s.session.Clear(ctx); err != nil {
		return err
	}
	if err := s.cookies.Clear(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.collect.Forget()

	s.bus.RemoveSticky(event.TypeLogin)
	s.bus.PublishSticky(event.New(event.TypeLogout, event.LoginPayload{LoggedIn: false}))
	slog.Info("logged out")

	return nil
}

// CurrentUser returns the persisted user, or nil when logged out.
func (s *AuthService) CurrentUser(ctx context.Context) (*model.User, error) {
	return s.session.User(ctx)
}
