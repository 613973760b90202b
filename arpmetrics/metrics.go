// Package arpmetrics implements arp.Counters with Prometheus
// instrumentation, all under the "etharp_" namespace.
package arpmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "etharp"

var (
	entriesExpired = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "entries_expired_total",
		Help:      "Total cache entries expired back to EMPTY, by prior state.",
	}, []string{"state"})

	entriesRecycled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "entries_recycled_total",
		Help:      "Total times a STABLE entry was evicted to make room for a new address.",
	})

	requestsSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_sent_total",
		Help:      "Total ARP requests transmitted.",
	})

	repliesSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "replies_sent_total",
		Help:      "Total ARP replies transmitted.",
	})

	packetsQueued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "packets_queued_total",
		Help:      "Total packets queued against a PENDING entry awaiting resolution.",
	})

	packetsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "packets_dropped_total",
		Help:      "Total packets dropped, by reason.",
	}, []string{"reason"})
)

// Counters is a ready-to-use arp.Counters backed by the package-level
// Prometheus collectors above. Its zero value is usable directly; it
// exists only to satisfy the arp.Counters interface by method set.
type Counters struct{}

func (Counters) EntryExpired(wasPending bool) {
	if wasPending {
		entriesExpired.WithLabelValues("pending").Inc()
	} else {
		entriesExpired.WithLabelValues("stable").Inc()
	}
}

func (Counters) EntryRecycled() { entriesRecycled.Inc() }

func (Counters) RequestSent() { requestsSent.Inc() }

func (Counters) ReplySent() { repliesSent.Inc() }

func (Counters) PacketQueued() { packetsQueued.Inc() }

func (Counters) PacketDropped(reason string) {
	packetsDropped.WithLabelValues(reason).Inc()
}
