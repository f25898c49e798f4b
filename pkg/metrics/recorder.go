// Package metrics wires Prometheus instrumentation for the runtime tick
// loop and the J-batch broadcaster, exactly the way the teacher's stack
// depends on github.com/prometheus/client_golang even though the teacher's
// own code doesn't instantiate any collectors directly -- Recorder is the
// first concrete user of that dependency in this tree.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder holds every collector the validator node reports. A nil
// *Recorder is not valid to call methods on; callers that want metrics to
// be optional should leave an Env's Metrics field unset instead, the same
// nil-means-disabled convention pkg/server and pkg/storage use for their
// own optional dependencies.
type Recorder struct {
	registry *prometheus.Registry

	tickDuration      prometheus.Histogram
	tickGroupsRun     prometheus.Histogram
	tickOutputsRouted prometheus.Counter
	tickOutputsUnrouted prometheus.Counter
	tickJObserved     prometheus.Counter

	broadcastFailures prometheus.CounterVec
	broadcastSuccess  prometheus.CounterVec
	batchPendingOps   prometheus.GaugeVec
}

// NewRecorder builds a Recorder against its own private Registry, rather
// than prometheus.DefaultRegisterer, so more than one Env (e.g. in tests)
// can each have a Recorder without a duplicate-registration panic.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		tickDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Namespace: "xln",
			Subsystem: "runtime",
			Name:      "tick_duration_seconds",
			Help:      "Wall-clock duration of one Env.Tick call.",
			Buckets:   prometheus.DefBuckets,
		}),
		tickGroupsRun: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Namespace: "xln",
			Subsystem: "runtime",
			Name:      "tick_groups_run",
			Help:      "Number of entity groups that ran a consensus round in one tick.",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
		}),
		tickOutputsRouted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "xln",
			Subsystem: "runtime",
			Name:      "tick_outputs_routed_total",
			Help:      "Entity outputs routed to a locally-held target entity.",
		}),
		tickOutputsUnrouted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "xln",
			Subsystem: "runtime",
			Name:      "tick_outputs_unrouted_total",
			Help:      "Entity outputs queued to pendingNetwork because the target isn't held locally.",
		}),
		tickJObserved: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "xln",
			Subsystem: "runtime",
			Name:      "tick_j_events_observed_total",
			Help:      "Jurisdiction events delivered to a local entity as j_event inputs.",
		}),
		broadcastFailures: *promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "xln",
			Subsystem: "jbatch",
			Name:      "broadcast_failures_total",
			Help:      "J-batch broadcast attempts that returned an error, by entity.",
		}, []string{"entity"}),
		broadcastSuccess: *promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "xln",
			Subsystem: "jbatch",
			Name:      "broadcast_success_total",
			Help:      "J-batch broadcasts that submitted without error, by entity.",
		}, []string{"entity"}),
		batchPendingOps: *promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "xln",
			Subsystem: "jbatch",
			Name:      "pending_ops",
			Help:      "Operations queued in an entity's current J-batch as of its last successful broadcast.",
		}, []string{"entity"}),
	}
	return r
}

// Handler serves the registry's collected metrics in the Prometheus
// exposition format, for mounting at /metrics.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ObserveTick records one Env.Tick call's shape and duration. Matches
// runtime.Metrics -- kept to primitive arguments rather than
// runtime.Result so this package never imports pkg/runtime.
func (r *Recorder) ObserveTick(groupsRun, outputsRouted, outputsUnrouted, jObserved int, durationSeconds float64) {
	r.tickDuration.Observe(durationSeconds)
	r.tickGroupsRun.Observe(float64(groupsRun))
	r.tickOutputsRouted.Add(float64(outputsRouted))
	r.tickOutputsUnrouted.Add(float64(outputsUnrouted))
	r.tickJObserved.Add(float64(jObserved))
}

// ObserveBroadcastFailure records a failed J-batch broadcast attempt for
// entityID (hex-prefixed, as runtime.hexID formats it).
func (r *Recorder) ObserveBroadcastFailure(entityID string) {
	r.broadcastFailures.WithLabelValues(entityID).Inc()
}

// ObserveBroadcastSuccess records a successful J-batch broadcast and the
// batch size it carried.
func (r *Recorder) ObserveBroadcastSuccess(entityID string, pendingOps int) {
	r.broadcastSuccess.WithLabelValues(entityID).Inc()
	r.batchPendingOps.WithLabelValues(entityID).Set(float64(pendingOps))
}
