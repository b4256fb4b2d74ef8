package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/soundprediction/aboxlink"
)

// Metrics holds the Prometheus collectors for the HTTP surface.
type Metrics struct {
	triples         *prometheus.CounterVec   // by outcome
	runs            *prometheus.CounterVec   // by source (triples/text)
	requestDuration *prometheus.HistogramVec // by route and status
	reloads         *prometheus.CounterVec   // by status (ok/error)
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		triples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aboxlink",
			Subsystem: "link",
			Name:      "triples_total",
			Help:      "Raw triples processed, by outcome",
		}, []string{"outcome"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aboxlink",
			Subsystem: "link",
			Name:      "runs_total",
			Help:      "Completed linking runs, by input source",
		}, []string{"source"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "aboxlink",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"route", "status"}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aboxlink",
			Subsystem: "vocabulary",
			Name:      "reloads_total",
			Help:      "Vocabulary reload attempts, by status",
		}, []string{"status"}),
	}

	for _, c := range []prometheus.Collector{m.triples, m.runs, m.requestDuration, m.reloads} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveRun records the per-triple outcomes of a finished run.
func (m *Metrics) ObserveRun(s aboxlink.Summary, source string) {
	m.runs.WithLabelValues(source).Inc()
	m.triples.WithLabelValues("succeeded").Add(float64(s.Succeeded))
	m.triples.WithLabelValues("skipped").Add(float64(s.Skipped))
	m.triples.WithLabelValues("unusable").Add(float64(s.Unusable))
	m.triples.WithLabelValues("unresolved").Add(float64(s.Unresolved))
	m.triples.WithLabelValues("dropped").Add(float64(s.Dropped))
}

// ObserveReload records a vocabulary reload attempt.
func (m *Metrics) ObserveReload(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.reloads.WithLabelValues(status).Inc()
}

func (m *Metrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requestDuration.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
