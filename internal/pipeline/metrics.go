package pipeline

import (
	"strconv"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"firestige.xyz/pktgate/internal/metrics"
	"firestige.xyz/pktgate/internal/stats"
)

// queueMetrics holds the counters owned by one worker queue.
type queueMetrics struct {
	dispositions *stats.Counters
	forwarded    atomic.Uint64
	sinkErrors   atomic.Uint64
	drops        atomic.Uint64

	depth   prometheus.Gauge
	dropped prometheus.Counter
}

func newQueueMetrics(queue int) *queueMetrics {
	q := strconv.Itoa(queue)
	return &queueMetrics{
		dispositions: stats.NewCounters(),
		depth:        metrics.QueueDepth.WithLabelValues(q),
		dropped:      metrics.QueueDropsTotal.WithLabelValues(q),
	}
}

// QueueStats is a point-in-time copy of one queue's counters.
type QueueStats struct {
	Queue        int            `json:"queue" yaml:"queue"`
	Dispositions stats.Snapshot `json:"dispositions" yaml:"dispositions"`
	Forwarded    uint64         `json:"forwarded" yaml:"forwarded"`
	SinkErrors   uint64         `json:"sink_errors" yaml:"sink_errors"`
	QueueDrops   uint64         `json:"queue_drops" yaml:"queue_drops"`
}

// Stats is a point-in-time copy of the pipeline counters.
type Stats struct {
	Received     uint64         `json:"received" yaml:"received"`
	SourceErrors uint64         `json:"source_errors" yaml:"source_errors"`
	Dispositions stats.Snapshot `json:"dispositions" yaml:"dispositions"`
	Forwarded    uint64         `json:"forwarded" yaml:"forwarded"`
	SinkErrors   uint64         `json:"sink_errors" yaml:"sink_errors"`
	QueueDrops   uint64         `json:"queue_drops" yaml:"queue_drops"`
	Queues       []QueueStats   `json:"queues" yaml:"queues"`
}

func (m *queueMetrics) snapshot(queue int) QueueStats {
	return QueueStats{
		Queue:        queue,
		Dispositions: m.dispositions.Snapshot(),
		Forwarded:    m.forwarded.Load(),
		SinkErrors:   m.sinkErrors.Load(),
		QueueDrops:   m.drops.Load(),
	}
}
