// Package metrics implements Prometheus metrics.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"firestige.xyz/pktgate/internal/core"
)

var (
	// FramesTotal counts frames by worker queue and final disposition.
	FramesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pktgate_frames_total",
			Help: "Total number of frames classified, by queue and disposition",
		},
		[]string{"queue", "disposition"},
	)

	// DecisionStageTotal counts frames by the last layer the engine reached.
	DecisionStageTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pktgate_decision_stage_total",
			Help: "Total number of frames by last parsed layer",
		},
		[]string{"stage"},
	)

	// QueueDropsTotal counts frames discarded because a worker queue was full.
	QueueDropsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pktgate_queue_drops_total",
			Help: "Total number of frames dropped on a full worker queue",
		},
		[]string{"queue"},
	)

	// QueueDepth tracks the number of frames waiting per worker queue.
	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pktgate_queue_depth",
			Help: "Current number of frames waiting in a worker queue",
		},
		[]string{"queue"},
	)

	// SourceErrorsTotal counts read errors by source.
	SourceErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pktgate_source_errors_total",
			Help: "Total number of frame source read errors",
		},
		[]string{"source"},
	)

	// SinkErrorsTotal counts forwarding errors by sink.
	SinkErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pktgate_sink_errors_total",
			Help: "Total number of sink forwarding errors",
		},
		[]string{"sink"},
	)
)

// DispositionRecorder records dispositions for one queue into FramesTotal.
// Counters are resolved once so Record does no label lookups.
type DispositionRecorder struct {
	counters [core.NumDispositions]prometheus.Counter
}

// NewDispositionRecorder creates a recorder bound to queue.
func NewDispositionRecorder(queue int) *DispositionRecorder {
	q := strconv.Itoa(queue)
	r := &DispositionRecorder{}
	for d := core.Disposition(0); d < core.NumDispositions; d++ {
		r.counters[d] = FramesTotal.WithLabelValues(q, d.String())
	}
	return r
}

// Record implements stats.Recorder.
func (r *DispositionRecorder) Record(d core.Disposition) {
	if int(d) < len(r.counters) {
		r.counters[d].Inc()
	}
}

// ObserveStage counts one frame at stage.
func ObserveStage(stage core.Stage) {
	DecisionStageTotal.WithLabelValues(stage.String()).Inc()
}
