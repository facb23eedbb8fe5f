// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpdatesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relaybot",
		Name:      "updates_processed_total",
		Help:      "Updates dispatched by the poller, by outcome.",
	}, []string{"outcome"})

	PollErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "relaybot",
		Name:      "poll_errors_total",
		Help:      "Failed getUpdates and startup getMe calls.",
	})

	Checkpoint = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "relaybot",
		Name:      "checkpoint_offset",
		Help:      "Next update offset persisted by the poller.",
	})

	Forwards = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relaybot",
		Name:      "forwards_total",
		Help:      "User messages forwarded to admins, by result.",
	}, []string{"result"})

	BroadcastDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relaybot",
		Name:      "broadcast_deliveries_total",
		Help:      "Broadcast sends, by result.",
	}, []string{"result"})

	StoreFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relaybot",
		Name:      "store_fallbacks_total",
		Help:      "Primary store failures that fell back to the local mirror.",
	}, []string{"entity", "op"})

	DirectorySize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "relaybot",
		Name:      "directory_entries",
		Help:      "Entries in the in-memory directory after the last save.",
	}, []string{"entity"})
)

// Result label values
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

// ResultLabel maps a delivery outcome to a label value
func ResultLabel(ok bool) string {
	if ok {
		return ResultOK
	}
	return ResultFailed
}
