package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const unknownLabel = "unknown"

// Metrics collects dispatch metrics per endpoint, method and status.
type Metrics struct {
	inFlight prometheus.Gauge
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) (m *Metrics, err error) {

	m = &Metrics{
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "actuator",
				Subsystem: "http",
				Name:      "inflight_requests",
				Help:      "Current number of in-flight management requests.",
			},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "actuator",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of management requests handled.",
			},
			[]string{"endpoint", "method", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "actuator",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of management requests.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
			},
			[]string{"endpoint", "method"},
		),
	}

	for _, c := range []prometheus.Collector{m.inFlight, m.requests, m.duration} {
		err = reg.Register(c)
		if err != nil {
			return nil, err
		}
	}

	return
}

func (m *Metrics) observe(endpointID, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if endpointID == "" {
		endpointID = unknownLabel
	}
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodOptions:
	default:
		method = unknownLabel
	}
	m.requests.WithLabelValues(endpointID, method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(endpointID, method).Observe(d.Seconds())
}

func (m *Metrics) begin() func() {
	if m == nil {
		return func() {}
	}
	m.inFlight.Inc()
	return m.inFlight.Dec
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}
