package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveUpstream(t *testing.T) {
	before := testutil.ToFloat64(upstreamRequests.WithLabelValues("banner", "success"))
	ObserveUpstream("banner", "success", 20*time.Millisecond)
	require.Equal(t, before+1, testutil.ToFloat64(upstreamRequests.WithLabelValues("banner", "success")))
}

func TestRegisterDroppedTwiceReportsLatest(t *testing.T) {
	require.NoError(t, RegisterDropped("test_dropped_total", "test counter", func() uint64 { return 3 }))
	require.NoError(t, RegisterDropped("test_dropped_total", "test counter", func() uint64 { return 11 }))

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "wanandroid_test_dropped_total 11")
	require.NotContains(t, rec.Body.String(), "wanandroid_test_dropped_total 3")
}

func TestObserveRequestUsesStatusClass(t *testing.T) {
	counter := gatewayRequests.WithLabelValues("GET", "/api/v1/categories/{cid}/articles", "5xx")
	before := testutil.ToFloat64(counter)

	ObserveRequest("GET", "/api/v1/categories/{cid}/articles", 502)
	ObserveRequest("GET", "/api/v1/categories/{cid}/articles", 504)

	require.Equal(t, before+2, testutil.ToFloat64(counter))

	unmatched := gatewayRequests.WithLabelValues("GET", "unmatched", "4xx")
	before = testutil.ToFloat64(unmatched)
	ObserveRequest("GET", "", 404)
	require.Equal(t, before+1, testutil.ToFloat64(unmatched))
}
