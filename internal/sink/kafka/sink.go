// Package kafka publishes forwarded frames to a Kafka topic.
package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"

	"firestige.xyz/pktgate/internal/core"
)

// Name is the sink type name.
const Name = "kafka"

const (
	defaultBatchSize    = 100
	defaultBatchTimeout = 100 * time.Millisecond
	defaultCompression  = "snappy"
	defaultMaxAttempts  = 3
)

// Config holds kafka sink options.
type Config struct {
	Brokers      []string      `mapstructure:"brokers"` // required
	Topic        string        `mapstructure:"topic"`   // required
	BatchSize    int           `mapstructure:"batch_size"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	Compression  string        `mapstructure:"compression"` // none|gzip|snappy|lz4|zstd
	MaxAttempts  int           `mapstructure:"max_attempts"`
	Async        bool          `mapstructure:"async"`
}

// DefaultConfig returns the options used for keys left unset.
func DefaultConfig() Config {
	return Config{
		BatchSize:    defaultBatchSize,
		BatchTimeout: defaultBatchTimeout,
		Compression:  defaultCompression,
		MaxAttempts:  defaultMaxAttempts,
	}
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Sink writes one message per frame: the raw frame as value, the worker
// queue as key.
type Sink struct {
	writer messageWriter
	config Config
	copy   bool

	forwarded atomic.Uint64
	errors    atomic.Uint64
}

// NewSink validates cfg and creates the kafka writer. No connection is made
// until the first write.
func NewSink(cfg Config) (*Sink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("%w: kafka sink requires brokers", core.ErrConfigInvalid)
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("%w: kafka sink requires topic", core.ErrConfigInvalid)
	}
	codec, err := compressionCodec(cfg.Compression)
	if err != nil {
		return nil, err
	}

	w := kafka.NewWriter(writerConfig(cfg, codec))

	slog.Info("kafka sink created",
		"brokers", cfg.Brokers,
		"topic", cfg.Topic,
		"batch_size", cfg.BatchSize,
		"batch_timeout", cfg.BatchTimeout,
		"compression", cfg.Compression,
		"async", cfg.Async,
	)
	return newSink(w, cfg), nil
}

// writerConfig maps cfg onto kafka-go. A synchronous writer sends one message
// per Forward and waits for a full batch or BatchTimeout, so it gets a batch
// size of one.
func writerConfig(cfg Config, codec compress.Codec) kafka.WriterConfig {
	batchSize := cfg.BatchSize
	if !cfg.Async {
		batchSize = 1
	}
	return kafka.WriterConfig{
		Brokers:          cfg.Brokers,
		Topic:            cfg.Topic,
		Balancer:         &kafka.Hash{},
		BatchSize:        batchSize,
		BatchTimeout:     cfg.BatchTimeout,
		MaxAttempts:      cfg.MaxAttempts,
		Async:            cfg.Async,
		CompressionCodec: codec,
	}
}

func newSink(w messageWriter, cfg Config) *Sink {
	return &Sink{writer: w, config: cfg, copy: cfg.Async}
}

func compressionCodec(name string) (compress.Codec, error) {
	switch name {
	case "none", "":
		return nil, nil
	case "gzip":
		return compress.Gzip.Codec(), nil
	case "snappy":
		return compress.Snappy.Codec(), nil
	case "lz4":
		return compress.Lz4.Codec(), nil
	case "zstd":
		return compress.Zstd.Codec(), nil
	default:
		return nil, fmt.Errorf("%w: invalid compression type: %s", core.ErrConfigInvalid, name)
	}
}

// Name implements sink.Sink.
func (s *Sink) Name() string { return Name }

// Forward publishes pkt. Async writers get a private copy of the frame.
func (s *Sink) Forward(ctx context.Context, pkt core.RawPacket) error {
	value := pkt.Data
	if s.copy {
		value = append([]byte(nil), pkt.Data...)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.Itoa(pkt.Queue)),
		Value: value,
		Time:  pkt.Timestamp,
		Headers: []kafka.Header{
			{Key: "orig_len", Value: []byte(strconv.FormatUint(uint64(pkt.OrigLen), 10))},
			{Key: "ifindex", Value: []byte(strconv.Itoa(pkt.InterfaceIndex))},
		},
	}

	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		s.errors.Add(1)
		return fmt.Errorf("kafka write failed: %w", err)
	}
	s.forwarded.Add(1)
	return nil
}

// Close flushes pending messages and closes the writer.
func (s *Sink) Close() error {
	err := s.writer.Close()
	slog.Info("kafka sink closed",
		"topic", s.config.Topic,
		"total_forwarded", s.forwarded.Load(),
		"total_errors", s.errors.Load(),
	)
	if err != nil {
		return fmt.Errorf("close kafka writer: %w", err)
	}
	return nil
}
