// Package metrics holds the engine's Prometheus instrumentation: one
// histogram observed by the event processor when a settlement clears.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PurchaseClearanceDuration observes, per destination chain, the wall-clock
// time between the hub's invoice-enqueued timestamp and the matching
// settlement event clearing the cached purchase.
var PurchaseClearanceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "purchase_clearance_duration_seconds",
	Help:    "Time between a hub invoice being enqueued and its settlement clearing, by destination chain.",
	Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s .. 2048s (~34min)
}, []string{"destination"})

// ObserveClearance records a clearance duration for destination, computed by
// the caller as settledAt - hubEnqueuedAt.
func ObserveClearance(destination string, hubEnqueuedAt, settledAt time.Time) {
	PurchaseClearanceDuration.WithLabelValues(destination).Observe(settledAt.Sub(hubEnqueuedAt).Seconds())
}
