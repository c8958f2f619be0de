package deploy

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var durationBuckets = []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}

type metrics struct {
	deployments    *prometheus.CounterVec
	rollbacks      *prometheus.CounterVec
	pagesPublished prometheus.Counter
	mediaUploaded  prometheus.Counter
	deployDuration prometheus.Histogram
}

func newMetrics() *metrics {
	m := &metrics{
		deployments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tenweb",
			Subsystem: "deploy",
			Name:      "deployments_total",
			Help:      "Count of deployment runs by outcome",
		}, []string{"outcome"}),
		rollbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tenweb",
			Subsystem: "deploy",
			Name:      "rollbacks_total",
			Help:      "Count of rollback attempts by outcome",
		}, []string{"outcome"}),
		pagesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tenweb",
			Subsystem: "deploy",
			Name:      "pages_published_total",
			Help:      "Pages successfully created or updated",
		}),
		mediaUploaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tenweb",
			Subsystem: "deploy",
			Name:      "media_uploaded_total",
			Help:      "Media assets successfully mirrored",
		}),
		deployDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tenweb",
			Subsystem: "deploy",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of deployment runs",
			Buckets:   durationBuckets,
		}),
	}
	m.deployments = registerCounterVec(m.deployments)
	m.rollbacks = registerCounterVec(m.rollbacks)
	m.pagesPublished = registerCounter(m.pagesPublished)
	m.mediaUploaded = registerCounter(m.mediaUploaded)
	m.deployDuration = registerHistogram(m.deployDuration)
	return m
}

func registerCounterVec(c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := prometheus.Register(c); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return already.ExistingCollector.(*prometheus.CounterVec)
		}
	}
	return c
}

func registerCounter(c prometheus.Counter) prometheus.Counter {
	if err := prometheus.Register(c); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return already.ExistingCollector.(prometheus.Counter)
		}
	}
	return c
}

func registerHistogram(h prometheus.Histogram) prometheus.Histogram {
	if err := prometheus.Register(h); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return already.ExistingCollector.(prometheus.Histogram)
		}
	}
	return h
}

func (m *metrics) recordDeploy(outcome string, pages, media int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.deployments.With(prometheus.Labels{"outcome": outcome}).Inc()
	m.pagesPublished.Add(float64(pages))
	m.mediaUploaded.Add(float64(media))
	m.deployDuration.Observe(elapsed.Seconds())
}

func (m *metrics) recordRollback(outcome string) {
	if m == nil {
		return
	}
	m.rollbacks.With(prometheus.Labels{"outcome": outcome}).Inc()
}
