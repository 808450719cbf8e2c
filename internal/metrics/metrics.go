// Package metrics defines the Prometheus collectors exported by labelq.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Key constants are exported primarily for documentation reasons. Typically,
// they will not be used programmatically outside of defining the collectors.

// Label values.
const (
	Fail = "fail"
	Ok   = "ok"

	AssignAssigned = "assigned"
	AssignEmpty    = "empty"
	AssignRaced    = "raced"
	AssignStale    = "stale"
	AssignError    = "error"

	AnomalyMembershipDelete = "membership_delete"
	AnomalyAlreadyAssigned  = "already_assigned"
	AnomalyStaleMembership  = "stale_membership"
)

// Keys for fill metrics.
const (
	FillTotalKey         = "labelq_fill_total"
	FillItemsTotalKey    = "labelq_fill_items_total"
	FillFallbackTotalKey = "labelq_fill_fallback_total"
	RebuildEntriesKey    = "labelq_rebuild_entries_total"
)

// Collectors for fill metrics.
var (
	FillTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: FillTotalKey,
		Help: "Cumulative number of queue fills by result.",
	}, []string{"result"})
	FillItemsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: FillItemsTotalKey,
		Help: "Cumulative number of data added to queues by fills.",
	})
	FillFallbackTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: FillFallbackTotalKey,
		Help: "Cumulative number of fills that took the whole eligible population.",
	})
	RebuildEntriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: RebuildEntriesKey,
		Help: "Cumulative number of fast queue entries pushed by rebuilds.",
	})
)

// Keys for assignment metrics.
const (
	AssignTotalKey             = "labelq_assign_total"
	AssignDurationSecondsKey   = "labelq_assign_duration_seconds"
	IntegrityAnomaliesTotalKey = "labelq_integrity_anomalies_total"
)

// Collectors for assignment metrics.
var (
	AssignTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: AssignTotalKey,
		Help: "Cumulative number of assignment requests by outcome.",
	}, []string{"outcome"})
	AssignDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    AssignDurationSecondsKey,
		Help:    "Latency of assignment requests.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	})
	IntegrityAnomaliesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: IntegrityAnomaliesTotalKey,
		Help: "Cumulative number of divergences observed between the fast queue and the durable store.",
	}, []string{"kind"})
)

// LabelqCollectors returns every labelq collector for registration.
func LabelqCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		FillTotal,
		FillItemsTotal,
		FillFallbackTotal,
		RebuildEntriesTotal,
		AssignTotal,
		AssignDurationSeconds,
		IntegrityAnomaliesTotal,
	}
}

// NewRegistry returns a registry holding the labelq collectors plus the Go
// runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(LabelqCollectors()...)
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}
