// Package metrics exposes collection progress as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const NAMESPACE = "tweetflow"

// Collector records per-topic pages, items, sink outcomes and retries.
type Collector struct {
	pages          *prometheus.CounterVec
	items          *prometheus.CounterVec
	written        *prometheus.CounterVec
	droppedBatches *prometheus.CounterVec
	droppedItems   *prometheus.CounterVec
	retries        *prometheus.CounterVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		pages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: NAMESPACE,
			Name:      "pages_fetched_total",
			Help:      "Search result pages fetched.",
		}, []string{"topic"}),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: NAMESPACE,
			Name:      "items_received_total",
			Help:      "Posts received from the search API.",
		}, []string{"topic"}),
		written: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: NAMESPACE,
			Name:      "records_written_total",
			Help:      "Records appended to the sink.",
		}, []string{"topic"}),
		droppedBatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: NAMESPACE,
			Name:      "batches_dropped_total",
			Help:      "Pages the sink failed to persist.",
		}, []string{"topic"}),
		droppedItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: NAMESPACE,
			Name:      "records_dropped_total",
			Help:      "Records lost to sink failures.",
		}, []string{"topic"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: NAMESPACE,
			Name:      "request_retries_total",
			Help:      "Search requests retried, by failure kind.",
		}, []string{"kind"}),
	}

	reg.MustRegister(
		c.pages,
		c.items,
		c.written,
		c.droppedBatches,
		c.droppedItems,
		c.retries,
	)
	return c
}

func (c *Collector) PageFetched(topic string, items int) {
	c.pages.WithLabelValues(topic).Inc()
	c.items.WithLabelValues(topic).Add(float64(items))
}

func (c *Collector) RecordsWritten(topic string, n int) {
	c.written.WithLabelValues(topic).Add(float64(n))
}

func (c *Collector) BatchDropped(topic string, n int) {
	c.droppedBatches.WithLabelValues(topic).Inc()
	c.droppedItems.WithLabelValues(topic).Add(float64(n))
}

func (c *Collector) Retried(kind string) {
	c.retries.WithLabelValues(kind).Inc()
}

// Router serves the gatherer's metrics on /metrics.
func Router(gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return r
}
