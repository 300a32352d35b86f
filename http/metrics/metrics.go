// Package metrics exposes Prometheus metrics about the responses an app sends.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xy-planning-network/trailhead/http/middleware"
)

const namespace = "trailhead"

// A Collector counts and times responses and requests.
//
// Collector implements responses.Observer.
type Collector struct {
	durations *prometheus.HistogramVec
	gatherer  prometheus.Gatherer
	requests  *prometheus.CounterVec
	responses *prometheus.CounterVec
}

// New constructs a *Collector registering its metrics with reg.
// When reg is nil, New uses a fresh *prometheus.Registry.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	c := &Collector{
		durations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "response_duration_seconds",
				Help:      "Time spent sending responses, by response name.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"response"},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by status code and method.",
			},
			[]string{"code", "method"},
		),
		responses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "responses_total",
				Help:      "Responses sent by response name and status code.",
			},
			[]string{"response", "code"},
		),
	}

	for _, col := range []prometheus.Collector{c.durations, c.requests, c.responses} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}

	c.gatherer = prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		c.gatherer = g
	}

	return c, nil
}

// ObserveResponse records the response called name finishing with code after elapsed.
func (c *Collector) ObserveResponse(name string, code int, elapsed time.Duration) {
	c.responses.WithLabelValues(name, strconv.Itoa(code)).Inc()
	c.durations.WithLabelValues(name).Observe(elapsed.Seconds())
}

// Collect counts every request by status code and method,
// skipping those for the metrics themselves at skipPath.
func (c *Collector) Collect(skipPath string) middleware.Adapter {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == skipPath {
				h.ServeHTTP(w, r)
				return
			}

			m := httpsnoop.CaptureMetrics(h, w, r)
			c.requests.WithLabelValues(strconv.Itoa(m.Code), r.Method).Inc()
		})
	}
}

// Handler serves the metrics registered alongside those of c.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
