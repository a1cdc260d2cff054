// Package telemetry exposes geotape engine and batch metrics to Prometheus.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gogpu/geotape"
)

const namespace = "geotape"

// Metrics holds the collectors for one CLI run or long-lived process.
type Metrics struct {
	Registry *prometheus.Registry

	images   *prometheus.CounterVec
	duration prometheus.Histogram
}

// New registers the engine cache collector and the image counters on a
// fresh registry. engine may be nil.
func New(engine *geotape.Engine) *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		images: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "images_total",
			Help:      "Images processed, by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "image_duration_seconds",
			Help:      "Time to decode, warp and encode one image.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
	m.Registry.MustRegister(m.images, m.duration)
	if engine != nil {
		m.Registry.MustRegister(NewCacheCollector(engine))
	}
	return m
}

// ObserveImage records one processed image.
func (m *Metrics) ObserveImage(elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.images.WithLabelValues(result).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// WriteTextfile writes every metric in the text exposition format, for the
// node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}

// CacheCollector reports the result cache statistics of an Engine.
type CacheCollector struct {
	engine *geotape.Engine

	entries   *prometheus.Desc
	capacity  *prometheus.Desc
	hits      *prometheus.Desc
	misses    *prometheus.Desc
	evictions *prometheus.Desc
}

// NewCacheCollector returns a collector reading engine.CacheStats on
// every scrape.
func NewCacheCollector(engine *geotape.Engine) *CacheCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "cache", name), help, nil, nil)
	}
	return &CacheCollector{
		engine:    engine,
		entries:   desc("entries", "Composed results currently cached."),
		capacity:  desc("capacity", "Maximum number of cached results per shard."),
		hits:      desc("hits_total", "Result cache hits."),
		misses:    desc("misses_total", "Result cache misses."),
		evictions: desc("evictions_total", "Results evicted from the cache."),
	}
}

// Describe implements prometheus.Collector.
func (c *CacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.entries
	ch <- c.capacity
	ch <- c.hits
	ch <- c.misses
	ch <- c.evictions
}

// Collect implements prometheus.Collector.
func (c *CacheCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.engine.CacheStats()
	ch <- prometheus.MustNewConstMetric(c.entries, prometheus.GaugeValue, float64(s.Len))
	ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(s.Capacity))
	ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(s.Hits))
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(s.Misses))
	ch <- prometheus.MustNewConstMetric(c.evictions, prometheus.CounterValue, float64(s.Evictions))
}
