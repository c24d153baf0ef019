package sink

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/pktgate/internal/config"
	"firestige.xyz/pktgate/internal/core"
)

type failingCloser struct{ err error }

func (f failingCloser) Name() string                                        { return "failing" }
func (f failingCloser) Forward(ctx context.Context, _ core.RawPacket) error { return nil }
func (f failingCloser) Close() error                                        { return f.err }

func TestNewEachType(t *testing.T) {
	dir := t.TempDir()
	sinks, err := NewAll([]config.SinkConfig{
		{Type: config.SinkConsole},
		{Type: config.SinkPcap, Options: map[string]any{"path": filepath.Join(dir, "out.pcap"), "snap_len": "128"}},
		{Type: config.SinkKafka, Options: map[string]any{
			"brokers":       []any{"localhost:9092"},
			"topic":         "frames",
			"batch_timeout": "50ms",
			"compression":   "lz4",
		}},
	})
	require.NoError(t, err)
	require.Len(t, sinks, 3)
	assert.Equal(t, "console", sinks[0].Name())
	assert.Equal(t, "pcap", sinks[1].Name())
	assert.Equal(t, "kafka", sinks[2].Name())
	assert.NoError(t, CloseAll(sinks))
}

func TestNewErrors(t *testing.T) {
	_, err := New(config.SinkConfig{Type: "syslog"})
	assert.ErrorIs(t, err, core.ErrUnsupportedSink)

	_, err = New(config.SinkConfig{Type: config.SinkConsole, Options: map[string]any{"colour": true}})
	assert.ErrorIs(t, err, core.ErrConfigInvalid)

	_, err = New(config.SinkConfig{Type: config.SinkKafka, Options: map[string]any{"topic": "t"}})
	assert.ErrorIs(t, err, core.ErrConfigInvalid)

	_, err = NewAll([]config.SinkConfig{{Type: config.SinkConsole}, {Type: config.SinkPcap}})
	assert.ErrorIs(t, err, core.ErrConfigInvalid)
	assert.Contains(t, err.Error(), "sinks[1]")
}

func TestCloseAllReturnsFirstError(t *testing.T) {
	first := errors.New("first")
	err := CloseAll([]Sink{failingCloser{}, failingCloser{err: first}, failingCloser{err: errors.New("second")}})
	assert.ErrorIs(t, err, first)
}
