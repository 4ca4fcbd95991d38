// Package metrics holds the prometheus collectors for order placement and
// HTTP traffic. Collectors are registered on the default registry and exposed
// at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrdersCreatedTotal counts successfully written orders by caller role.
	OrdersCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Total number of orders written",
		},
		[]string{"role"},
	)

	// OrdersCompletedTotal counts orders moved to complete.
	OrdersCompletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_completed_total",
			Help: "Total number of orders marked complete",
		},
	)

	// OrderRejectionsTotal counts rejected order requests by error kind.
	OrderRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_rejections_total",
			Help: "Total number of order requests rejected by validation",
		},
		[]string{"kind"},
	)

	// OrderWriteFailuresTotal counts rolled back order writes.
	OrderWriteFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "order_write_failures_total",
			Help: "Total number of order writes rolled back on persistence errors",
		},
	)

	// OrderItemsPerOrder tracks product lines per created order.
	OrderItemsPerOrder = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "order_items_per_order",
			Help:    "Number of product lines written per order",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		},
	)

	// HTTPRequestDuration tracks request latency by route and status.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

func RecordOrderCreated(role string, lines int) {
	OrdersCreatedTotal.WithLabelValues(role).Inc()
	OrderItemsPerOrder.Observe(float64(lines))
}

func RecordOrderRejected(kind string) {
	OrderRejectionsTotal.WithLabelValues(kind).Inc()
}

func RecordOrderWriteFailure() {
	OrderWriteFailuresTotal.Inc()
}

func RecordOrderCompleted() {
	OrdersCompletedTotal.Inc()
}

func RecordHTTPRequest(method, route, status string, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}
