// Package cookie keeps upstream session cookies per host and persists them
// across restarts.
package cookie

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go-wanandroid/internal/storage"
)

const keyPrefix = "cookies/"

// Jar is an http.CookieJar keyed by request host. Cookies are unique per
// (name, path) within a host and are filtered by expiry and path prefix on
// every read.
type Jar struct {
	mu    sync.RWMutex
	store storage.Store
	hosts map[string][]*http.Cookie
	now   func() time.Time
}

var _ http.CookieJar = (*Jar)(nil)

func NewJar(store storage.Store) *Jar {
	return &Jar{
		store: store,
		hosts: map[string][]*http.Cookie{},
		now:   time.Now,
	}
}

// Load restores every persisted host. Unparseable entries are skipped.
func (j *Jar) Load(ctx context.Context) error {
	entries, err := j.store.List(ctx, keyPrefix)
	if err != nil {
		return fmt.Errorf("load cookies: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	for key, raw := range entries {
		host := strings.TrimPrefix(key, keyPrefix)
		cookies := decode(string(raw))
		if len(cookies) == 0 {
			continue
		}
		j.hosts[host] = cookies
	}

	slog.Debug("cookies restored", "hosts", len(j.hosts))
	return nil
}

func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	host := u.Hostname()
	if host == "" || len(cookies) == 0 {
		return
	}

	now := j.now()

	// The store write happens under the lock so concurrent responses persist
	// in the same order they were merged.
	j.mu.Lock()
	defer j.mu.Unlock()

	list := j.hosts[host]
	for _, incoming := range cookies {
		c := normalize(incoming, u, now)
		list = removeMatching(list, c.Name, c.Path)
		if !expired(c, now) {
			list = append(list, c)
		}
	}
	j.hosts[host] = list

	if err := j.persist(context.Background(), host, encode(list)); err != nil {
		slog.Warn("failed to persist cookies", "host", host, "error", err)
	}
}

func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	host := u.Hostname()
	requestPath := u.EscapedPath()
	if requestPath == "" {
		requestPath = "/"
	}

	now := j.now()

	j.mu.RLock()
	defer j.mu.RUnlock()

	var out []*http.Cookie
	for _, c := range j.hosts[host] {
		if expired(c, now) {
			continue
		}
		if !strings.HasPrefix(requestPath, c.Path) {
			continue
		}
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	return out
}

// Stored returns a copy of everything kept for host, including entries that
// have expired since they were saved.
func (j *Jar) Stored(host string) []*http.Cookie {
	j.mu.RLock()
	defer j.mu.RUnlock()

	list := j.hosts[host]
	out := make([]*http.Cookie, 0, len(list))
	for _, c := range list {
		cp := *c
		out = append(out, &cp)
	}
	return out
}

func (j *Jar) Clear(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.hosts = map[string][]*http.Cookie{}
	if err := j.store.DeletePrefix(ctx, keyPrefix); err != nil {
		return fmt.Errorf("clear cookies: %w", err)
	}
	return nil
}

func (j *Jar) persist(ctx context.Context, host string, flat string) error {
	if flat == "" {
		return j.store.Delete(ctx, keyPrefix+host)
	}
	return j.store.Set(ctx, keyPrefix+host, []byte(flat))
}

// normalize resolves the default path and turns Max-Age into an absolute
// expiry so stored cookies survive a restart with the right lifetime.
func normalize(in *http.Cookie, u *url.URL, now time.Time) *http.Cookie {
	c := &http.Cookie{
		Name:     in.Name,
		Value:    in.Value,
		Path:     in.Path,
		Domain:   in.Domain,
		Expires:  in.Expires,
		Secure:   in.Secure,
		HttpOnly: in.HttpOnly,
		SameSite: in.SameSite,
	}

	if c.Path == "" || !strings.HasPrefix(c.Path, "/") {
		c.Path = defaultPath(u)
	}

	switch {
	case in.MaxAge < 0:
		c.Expires = time.Unix(0, 0)
	case in.MaxAge > 0:
		c.Expires = now.Add(time.Duration(in.MaxAge) * time.Second)
	}

	return c
}

// defaultPath is the directory of the request path, per RFC 6265 5.1.4.
func defaultPath(u *url.URL) string {
	p := u.EscapedPath()
	if p == "" || p[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(p, "/")
	if i == 0 {
		return "/"
	}
	return p[:i]
}

// expired treats a zero Expires as a session cookie that never expires.
func expired(c *http.Cookie, now time.Time) bool {
	return !c.Expires.IsZero() && c.Expires.Before(now)
}

func removeMatching(list []*http.Cookie, name, path string) []*http.Cookie {
	out := list[:0]
	for _, c := range list {
		if c.Name == name && c.Path == path {
			continue
		}
		out = append(out, c)
	}
	return out
}
