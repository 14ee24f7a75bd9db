package cookie

import (
	"net/http"
	"strings"
)

const lineSeparator = "\n"

// encode flattens cookies to Set-Cookie lines, one per cookie.
func encode(cookies []*http.Cookie) string {
	lines := make([]string, 0, len(cookies))
	for _, c := range cookies {
		line := c.String()
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, lineSeparator)
}

func decode(flat string) []*http.Cookie {
	var out []*http.Cookie
	for _, line := range strings.Split(flat, lineSeparator) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		c, err := http.ParseSetCookie(line)
		if err != nil {
			continue
		}
		if c.Path == "" {
			c.Path = "/"
		}
		out = append(out, c)
	}
	return out
}
