package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// API tracks calls the console makes to the remote trademark API.
type API struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	expired  prometheus.Counter
}

func NewAPI() *API {
	return &API{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_api_requests_total",
				Help: "Outgoing trademark API requests by method and status (0 = transport failure).",
			},
			[]string{"method", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "console_api_request_duration_seconds",
				Help:    "Outgoing trademark API request latencies in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		expired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "console_sessions_expired_total",
			Help: "Sessions ended by an unauthorized API response.",
		}),
	}
}

// Register adds the collectors to reg; nil means the default registry.
func (m *API) Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{m.requests, m.duration, m.expired} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *API) Observe(method string, status int, took time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method).Observe(took.Seconds())
}

func (m *API) SessionExpired() {
	if m == nil {
		return
	}
	m.expired.Inc()
}

func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
