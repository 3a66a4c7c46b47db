package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector mirrors a Collector into Prometheus series.
type PrometheusCollector struct {
	inner    Collector
	episodes *prometheus.CounterVec
	nodes    prometheus.Counter
	workers  prometheus.Gauge
	duration prometheus.Histogram
}

func NewPrometheusCollector(reg prometheus.Registerer, inner Collector) (*PrometheusCollector, error) {
	if inner == nil {
		inner = NewCollector()
	}
	c := &PrometheusCollector{
		inner: inner,
		episodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "abt",
			Subsystem: "search",
			Name:      "episodes_total",
			Help:      "Simulated episodes by final search status.",
		}, []string{"status"}),
		nodes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "abt",
			Subsystem: "search",
			Name:      "belief_nodes_created_total",
			Help:      "Belief nodes added to the tree.",
		}),
		workers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "abt",
			Subsystem: "search",
			Name:      "active_workers",
			Help:      "Goroutines currently running episodes.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "abt",
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "Wall time of complete searches.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}

	for _, collector := range []prometheus.Collector{c.episodes, c.nodes, c.workers, c.duration} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("failed to register search metrics: %w", err)
		}
	}
	return c, nil
}

func (c *PrometheusCollector) Start(goroutines, maxDepth int) {
	c.inner.Start(goroutines, maxDepth)
}

func (c *PrometheusCollector) AddEpisode(status string) {
	c.inner.AddEpisode(status)
	c.episodes.WithLabelValues(status).Inc()
}

func (c *PrometheusCollector) AddNode() {
	c.inner.AddNode()
	c.nodes.Inc()
}

func (c *PrometheusCollector) AddWorkers(delta int) {
	c.inner.AddWorkers(delta)
	c.workers.Add(float64(delta))
}

func (c *PrometheusCollector) Complete() SearchMetric {
	metric := c.inner.Complete()
	c.duration.Observe(metric.Duration.Seconds())
	return metric
}
