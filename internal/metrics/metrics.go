// Package metrics holds the Prometheus collectors shared by the client,
// the pagers and the gateway.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Registry = prometheus.NewRegistry()

	upstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wanandroid",
			Name:      "upstream_requests_total",
			Help:      "Upstream API calls by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)

	upstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wanandroid",
			Name:      "upstream_request_duration_seconds",
			Help:      "Latency of upstream API calls.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	feedLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wanandroid",
			Name:      "feed_loads_total",
			Help:      "Paged list loads by feed, mode and outcome.",
		},
		[]string{"feed", "mode", "outcome"},
	)

	gatewayRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wanandroid",
			Name:      "gateway_requests_total",
			Help:      "Gateway requests by route pattern and status class.",
		},
		[]string{"method", "route", "status"},
	)
)

var (
	droppedMu sync.Mutex
	dropped   = map[string]*atomic.Pointer[func() uint64]{}
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		upstreamRequests,
		upstreamDuration,
		feedLoads,
		gatewayRequests,
	)
}

func ObserveUpstream(endpoint string, outcome string, elapsed time.Duration) {
	upstreamRequests.WithLabelValues(endpoint, outcome).Inc()
	upstreamDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

func ObserveFeedLoad(feed string, mode string, outcome string) {
	feedLoads.WithLabelValues(feed, mode, outcome).Inc()
}

// ObserveRequest counts a gateway request. route is the matched pattern,
// never the raw path, to keep label cardinality bounded.
func ObserveRequest(method string, route string, status int) {
	if route == "" {
		route = "unmatched"
	}
	gatewayRequests.WithLabelValues(method, route, strconv.Itoa(status/100)+"xx").Inc()
}

// RegisterDropped exposes a monotonically increasing drop count, such as the
// event bus overflow counter. Registering a name again points the existing
// collector at the new fn.
func RegisterDropped(name string, help string, fn func() uint64) error {
	droppedMu.Lock()
	defer droppedMu.Unlock()

	if src, ok := dropped[name]; ok {
		src.Store(&fn)
		return nil
	}

	src := &atomic.Pointer[func() uint64]{}
	src.Store(&fn)
	collector := prometheus.NewCounterFunc(
		prometheus.CounterOpts{Namespace: "wanandroid", Name: name, Help: help},
		func() float64 { return float64((*src.Load())()) },
	)
	if err := Registry.Register(collector); err != nil {
		return err
	}

	dropped[name] = src
	return nil
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
