package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "topicsync"

var (
	eventsApplied = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "events_applied_total",
		Help:      "Channel events applied to the store.",
	}, []string{"event"})

	eventsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "events_dropped_total",
		Help:      "Channel events dropped, e.g. messages for unknown chats.",
	}, []string{"event"})

	workflowFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "workflow_failures_total",
		Help:      "Aborted user workflows.",
	}, []string{"workflow"})

	gatewayFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "gateway_failures_total",
		Help:      "Failed gateway calls that were degraded or skipped.",
	}, []string{"op"})

	duplicatePairs = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "duplicate_topic_pairs_total",
		Help:      "Chats added for a topic pair that already had a chat.",
	})

	channelReady = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "channel_ready",
		Help:      "1 once the channel is up and all known rooms are joined.",
	})
)

func init() {
	prometheus.MustRegister(eventsApplied, eventsDropped, workflowFailures, gatewayFailures, duplicatePairs, channelReady)
}
