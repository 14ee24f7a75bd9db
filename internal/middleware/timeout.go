package middleware

import (
	"net/http"
	"time"
)

// Timeout bounds a gateway request, including the upstream calls it makes.
// It buffers the response, so the event stream must not be wrapped in it.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	message := `{"success":false,"error":{"code":"GATEWAY_TIMEOUT","message":"request timed out"}}`

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, message)
	}
}
