// Package metrics exposes Prometheus metrics for the web server, the form
// panels and the outbound barn API client.
package metrics

import (
	"bytes"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
	"github.com/rohanthewiz/serr"
)

// Namespace prefixes every metric name
const Namespace = "galpones"

// Metrics holds the application collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	panelActions    *prometheus.CounterVec
	apiRequests     *prometheus.CounterVec
	apiDuration     *prometheus.HistogramVec
}

// New registers the collectors with a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the collectors with reg and serves them from gatherer
func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		registerer: reg,
		gatherer:   gatherer,

		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests handled, by route template and status code",
		}, []string{"method", "path", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request handling time in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),

		panelActions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "panel_actions_total",
			Help:      "Barn form panel actions, by action and outcome",
		}, []string{"action", "outcome"}),

		apiRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "barn_api_requests_total",
			Help:      "Requests sent to the barn API, by method and status code (0 for transport errors)",
		}, []string{"method", "status"}),

		apiDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "barn_api_request_duration_seconds",
			Help:      "Barn API round trip time in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

// ObserveRequest records one handled HTTP request. route must be a route
// template, never a raw request path.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObservePanelAction records the outcome of a form panel action
func (m *Metrics) ObservePanelAction(action, outcome string) {
	if m == nil {
		return
	}
	m.panelActions.WithLabelValues(action, outcome).Inc()
}

// ObserveBarnAPI records one barn API round trip
func (m *Metrics) ObserveBarnAPI(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.apiDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// RegisterGauge exposes a value computed at scrape time
func (m *Metrics) RegisterGauge(name, help string, value func() float64) {
	if m == nil {
		return
	}
	promauto.With(m.registerer).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      name,
		Help:      help,
	}, value)
}

// Expose renders every gathered metric in the Prometheus text format
func (m *Metrics) Expose() ([]byte, string, error) {
	format := expfmt.NewFormat(expfmt.TypeTextPlain)
	if m == nil {
		return nil, string(format), nil
	}

	families, err := m.gatherer.Gather()
	if err != nil {
		return nil, "", serr.Wrap(err, "failed to gather metrics")
	}

	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, format)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return nil, "", serr.Wrap(err, "failed to encode metrics", "family", mf.GetName())
		}
	}
	return buf.Bytes(), string(format), nil
}
