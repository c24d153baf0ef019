// Package pipeline moves frames from a source through per-queue decision
// engines to the sinks.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"firestige.xyz/pktgate/internal/core"
	"firestige.xyz/pktgate/internal/core/decoder"
	"firestige.xyz/pktgate/internal/metrics"
	"firestige.xyz/pktgate/internal/sink"
	"firestige.xyz/pktgate/internal/source"
	"firestige.xyz/pktgate/internal/stats"
)

const (
	defaultQueueCapacity = 1024
	// maxSourceErrors consecutive read failures abort Run.
	maxSourceErrors = 16
	depthInterval   = time.Second
)

// Config contains pipeline configuration.
type Config struct {
	Workers       int
	QueueCapacity int
	Dispatch      string
	VLANDepth     int
}

// socketStatser is implemented by live sources that expose kernel counters.
type socketStatser interface {
	SocketStats() (packets, drops uint, err error)
}

// Pipeline reads from one source, spreads frames over worker queues and
// forwards passed frames to every sink. Workers share nothing but the sinks.
type Pipeline struct {
	source     source.Source
	sinks      []sink.Sink
	dispatcher Dispatcher
	engines    []*decoder.Engine
	queues     []chan core.RawPacket
	metrics    []*queueMetrics
	logger     *slog.Logger

	received     atomic.Uint64
	sourceErrors atomic.Uint64
	running      atomic.Bool
}

// New creates a pipeline. The pipeline owns src and sinks and closes them
// when Run returns.
func New(cfg Config, src source.Source, sinks []sink.Sink, logger *slog.Logger) (*Pipeline, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: pipeline requires a source", core.ErrConfigInvalid)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = defaultQueueCapacity
	}
	if logger == nil {
		logger = slog.Default()
	}
	dispatcher, err := NewDispatcher(cfg.Dispatch, cfg.VLANDepth)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		source:     src,
		sinks:      sinks,
		dispatcher: dispatcher,
		engines:    make([]*decoder.Engine, cfg.Workers),
		queues:     make([]chan core.RawPacket, cfg.Workers),
		metrics:    make([]*queueMetrics, cfg.Workers),
		logger:     logger.With("component", "pipeline"),
	}
	for q := 0; q < cfg.Workers; q++ {
		m := newQueueMetrics(q)
		p.metrics[q] = m
		p.queues[q] = make(chan core.RawPacket, cfg.QueueCapacity)
		p.engines[q] = decoder.NewEngine(
			decoder.WithVLANDepth(cfg.VLANDepth),
			decoder.WithRecorder(stats.Multi(metrics.NewDispositionRecorder(q), m.dispositions)),
		)
	}
	return p, nil
}

// Run blocks until the source is exhausted, ctx is cancelled or the source
// fails repeatedly. Queued frames are drained before the sinks are closed.
// Reaching EOF or cancellation returns nil.
func (p *Pipeline) Run(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return errors.New("pipeline already running")
	}

	p.logger.Info("pipeline starting",
		"source", p.source.Name(),
		"workers", len(p.queues),
		"dispatch", p.dispatcher.Name(),
		"sinks", len(p.sinks),
	)

	// Sinks keep working while queues drain after cancellation.
	fwdCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	for q := range p.queues {
		wg.Add(1)
		go func(q int) {
			defer wg.Done()
			p.worker(fwdCtx, q)
		}(q)
	}

	depthDone := make(chan struct{})
	go p.reportDepth(depthDone)

	readErr := p.readLoop(ctx)

	for _, q := range p.queues {
		close(q)
	}
	wg.Wait()
	close(depthDone)

	if ks, ok := p.source.(socketStatser); ok {
		if packets, drops, err := ks.SocketStats(); err == nil {
			p.logger.Info("kernel capture stats", "packets", packets, "drops", drops)
		}
	}
	if err := p.source.Close(); err != nil {
		p.logger.Warn("source close failed", "error", err)
	}
	if err := sink.CloseAll(p.sinks); err != nil {
		p.logger.Warn("sink close failed", "error", err)
	}

	st := p.Stats()
	p.logger.Info("pipeline stopped",
		"received", st.Received,
		"pass", st.Dispositions.Pass,
		"drop", st.Dispositions.Drop,
		"forwarded", st.Forwarded,
		"queue_drops", st.QueueDrops,
		"source_errors", st.SourceErrors,
		"sink_errors", st.SinkErrors,
	)
	return readErr
}

func (p *Pipeline) readLoop(ctx context.Context) error {
	name := p.source.Name()
	failures := 0
	for {
		pkt, err := p.source.ReadPacket(ctx)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				p.logger.Info("source exhausted", "source", name)
				return nil
			case ctx.Err() != nil:
				return nil
			}
			p.sourceErrors.Add(1)
			metrics.SourceErrorsTotal.WithLabelValues(name).Inc()
			failures++
			if failures >= maxSourceErrors {
				return fmt.Errorf("source %s failed %d times in a row: %w", name, failures, err)
			}
			p.logger.Warn("source read failed", "source", name, "error", err)
			continue
		}
		failures = 0
		p.received.Add(1)
		p.enqueue(pkt)
	}
}

// enqueue never blocks; a full queue drops the frame.
func (p *Pipeline) enqueue(pkt core.RawPacket) {
	q := p.dispatcher.Dispatch(pkt.Data, len(p.queues))
	pkt.Queue = q
	select {
	case p.queues[q] <- pkt:
	default:
		m := p.metrics[q]
		m.drops.Add(1)
		m.dropped.Inc()
	}
}

func (p *Pipeline) worker(ctx context.Context, q int) {
	engine := p.engines[q]
	m := p.metrics[q]
	for pkt := range p.queues[q] {
		dec := engine.ProcessDecision(pkt.Data)
		metrics.ObserveStage(dec.Stage)
		if dec.Disposition != core.Pass {
			continue
		}
		for _, s := range p.sinks {
			if err := s.Forward(ctx, pkt); err != nil {
				m.sinkErrors.Add(1)
				metrics.SinkErrorsTotal.WithLabelValues(s.Name()).Inc()
				p.logger.Debug("sink forward failed", "sink", s.Name(), "queue", q, "error", err)
			}
		}
		m.forwarded.Add(1)
	}
}

func (p *Pipeline) reportDepth(done <-chan struct{}) {
	ticker := time.NewTicker(depthInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			for _, m := range p.metrics {
				m.depth.Set(0)
			}
			return
		case <-ticker.C:
			for q, m := range p.metrics {
				m.depth.Set(float64(len(p.queues[q])))
			}
		}
	}
}

// Workers returns the number of worker queues.
func (p *Pipeline) Workers() int { return len(p.queues) }

// Stats returns a snapshot of the pipeline counters. Safe to call while
// Run is in progress.
func (p *Pipeline) Stats() Stats {
	st := Stats{
		Received:     p.received.Load(),
		SourceErrors: p.sourceErrors.Load(),
		Queues:       make([]QueueStats, len(p.metrics)),
	}
	for q, m := range p.metrics {
		qs := m.snapshot(q)
		st.Queues[q] = qs
		st.Dispositions = st.Dispositions.Add(qs.Dispositions)
		st.Forwarded += qs.Forwarded
		st.SinkErrors += qs.SinkErrors
		st.QueueDrops += qs.QueueDrops
	}
	return st
}
