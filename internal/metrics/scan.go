// Package metrics provides Prometheus metrics for the scan ingest pipeline.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// ScanMetrics contains all Prometheus metrics related to classifier event
// processing. All increment methods are safe on a nil receiver so the
// pipeline can run without metrics in tests.
type ScanMetrics struct {
	EventsProcessed *prometheus.CounterVec
	ImagesPurged    prometheus.Counter
	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
	TagsCreated     prometheus.Counter
	TagsDropped     prometheus.Counter
	ScansRepaired   prometheus.Counter

	registry *prometheus.Registry
}

func NewScanMetrics(registry *prometheus.Registry) (*ScanMetrics, error) {
	m := &ScanMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register scan metrics: %w", err)
	}
	return m, nil
}

func (m *ScanMetrics) initMetrics() {
	m.EventsProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scan_events_processed_total",
		Help: "Total number of classifier deliveries processed, by outcome",
	}, []string{"outcome"})

	m.ImagesPurged = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scan_images_purged_total",
		Help: "Total number of images deleted after being declared invalid",
	})

	m.CacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scan_tag_cache_hits_total",
		Help: "Total number of tag name resolutions served from the cache",
	})

	m.CacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scan_tag_cache_misses_total",
		Help: "Total number of tag name resolutions that went to the store",
	})

	m.TagsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scan_tags_created_total",
		Help: "Total number of tag rows submitted for creation",
	})

	m.TagsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scan_tags_dropped_total",
		Help: "Total number of tag names left unresolved and excluded",
	})

	m.ScansRepaired = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scan_repairs_total",
		Help: "Total number of moderation-flag updates retried by the sweep",
	})
}

func (m *ScanMetrics) IncrementEvents(outcome string) {
	if m == nil {
		return
	}
	m.EventsProcessed.WithLabelValues(outcome).Inc()
}

func (m *ScanMetrics) IncrementPurged() {
	if m == nil {
		return
	}
	m.ImagesPurged.Inc()
}

func (m *ScanMetrics) AddCacheHits(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.CacheHits.Add(float64(n))
}

func (m *ScanMetrics) AddCacheMisses(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.CacheMisses.Add(float64(n))
}

func (m *ScanMetrics) AddTagsCreated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.TagsCreated.Add(float64(n))
}

func (m *ScanMetrics) AddTagsDropped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.TagsDropped.Add(float64(n))
}

func (m *ScanMetrics) AddScansRepaired(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ScansRepaired.Add(float64(n))
}

// Describe implements the prometheus.Collector interface.
func (m *ScanMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.EventsProcessed.Describe(ch)
	ch <- m.ImagesPurged.Desc()
	ch <- m.CacheHits.Desc()
	ch <- m.CacheMisses.Desc()
	ch <- m.TagsCreated.Desc()
	ch <- m.TagsDropped.Desc()
	ch <- m.ScansRepaired.Desc()
}

// Collect implements the prometheus.Collector interface.
func (m *ScanMetrics) Collect(ch chan<- prometheus.Metric) {
	m.EventsProcessed.Collect(ch)
	ch <- m.ImagesPurged
	ch <- m.CacheHits
	ch <- m.CacheMisses
	ch <- m.TagsCreated
	ch <- m.TagsDropped
	ch <- m.ScansRepaired
}
