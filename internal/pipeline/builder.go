package pipeline

import (
	"fmt"
	"log/slog"

	"firestige.xyz/pktgate/internal/config"
	"firestige.xyz/pktgate/internal/core/decoder"
	"firestige.xyz/pktgate/internal/sink"
	"firestige.xyz/pktgate/internal/source"
)

// Builder provides a fluent interface for building pipelines.
// This is an alternative to calling New directly.
type Builder struct {
	config Config
	source source.Source
	sinks  []sink.Sink
	logger *slog.Logger
}

// NewBuilder creates a new pipeline builder.
func NewBuilder() *Builder {
	return &Builder{
		config: Config{
			Workers:       1,
			QueueCapacity: defaultQueueCapacity,
			Dispatch:      config.DispatchFlowHash,
			VLANDepth:     decoder.DefaultVLANDepth,
		},
	}
}

// WithSource sets the frame source.
func (b *Builder) WithSource(s source.Source) *Builder {
	b.source = s
	return b
}

// WithSinks sets the sinks that receive passed frames.
func (b *Builder) WithSinks(sinks ...sink.Sink) *Builder {
	b.sinks = sinks
	return b
}

// WithWorkers sets the number of worker queues.
func (b *Builder) WithWorkers(n int) *Builder {
	b.config.Workers = n
	return b
}

// WithQueueCapacity sets the per-queue channel buffer size.
func (b *Builder) WithQueueCapacity(n int) *Builder {
	b.config.QueueCapacity = n
	return b
}

// WithDispatch sets the dispatch strategy name.
func (b *Builder) WithDispatch(name string) *Builder {
	b.config.Dispatch = name
	return b
}

// WithVLANDepth sets the VLAN unwrapping limit of every engine.
func (b *Builder) WithVLANDepth(n int) *Builder {
	b.config.VLANDepth = n
	return b
}

// WithLogger sets the logger.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// Build creates the pipeline.
func (b *Builder) Build() (*Pipeline, error) {
	return New(b.config, b.source, b.sinks, b.logger)
}

// FromConfig opens the configured source and sinks and builds a pipeline
// over them. Anything opened is closed again on failure.
func FromConfig(cfg *config.GlobalConfig, logger *slog.Logger) (*Pipeline, error) {
	src, err := source.New(cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to create source: %w", err)
	}
	sinks, err := sink.NewAll(cfg.Sinks)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("failed to create sinks: %w", err)
	}

	p, err := NewBuilder().
		WithSource(src).
		WithSinks(sinks...).
		WithWorkers(cfg.Pipeline.Workers).
		WithQueueCapacity(cfg.Pipeline.QueueCapacity).
		WithDispatch(cfg.Pipeline.Dispatch).
		WithVLANDepth(cfg.Engine.VLANMaxDepth).
		WithLogger(logger).
		Build()
	if err != nil {
		src.Close()
		sink.CloseAll(sinks)
		return nil, err
	}
	return p, nil
}
