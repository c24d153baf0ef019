package file

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/pktgate/internal/core"
)

var testFrames = [][]byte{
	bytes.Repeat([]byte{0xaa}, 60),
	bytes.Repeat([]byte{0xbb}, 98),
}

func writePcap(t *testing.T, w io.Writer, lt layers.LinkType) {
	t.Helper()
	pw := pcapgo.NewWriter(w)
	require.NoError(t, pw.WriteFileHeader(65535, lt))
	for i, f := range testFrames {
		ci := gopacket.CaptureInfo{
			Timestamp:     time.Unix(1700000000+int64(i), 0),
			CaptureLength: len(f),
			Length:        len(f),
		}
		require.NoError(t, pw.WritePacket(ci, f))
	}
}

func readAll(t *testing.T, s *Source) []core.RawPacket {
	t.Helper()
	var out []core.RawPacket
	for {
		pkt, err := s.ReadPacket(context.Background())
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		pkt.Data = append([]byte(nil), pkt.Data...)
		out = append(out, pkt)
	}
}

func TestReaderSourcePcap(t *testing.T) {
	var buf bytes.Buffer
	writePcap(t, &buf, layers.LinkTypeEthernet)

	s, err := NewReaderSource("mem", &buf)
	require.NoError(t, err)
	defer s.Close()

	pkts := readAll(t, s)
	require.Len(t, pkts, len(testFrames))
	for i, p := range pkts {
		assert.Equal(t, testFrames[i], p.Data)
		assert.Equal(t, uint32(len(testFrames[i])), p.CaptureLen)
		assert.Equal(t, uint32(len(testFrames[i])), p.OrigLen)
		assert.Equal(t, int64(1700000000+i), p.Timestamp.Unix())
	}
	assert.Equal(t, Name, s.Name())
}

func TestReaderSourcePcapng(t *testing.T) {
	var buf bytes.Buffer
	nw, err := pcapgo.NewNgWriter(&buf, layers.LinkTypeEthernet)
	require.NoError(t, err)
	for _, f := range testFrames {
		ci := gopacket.CaptureInfo{
			Timestamp:     time.Now(),
			CaptureLength: len(f),
			Length:        len(f),
		}
		require.NoError(t, nw.WritePacket(ci, f))
	}
	require.NoError(t, nw.Flush())

	s, err := NewReaderSource("mem", &buf)
	require.NoError(t, err)

	pkts := readAll(t, s)
	require.Len(t, pkts, len(testFrames))
	assert.Equal(t, testFrames[1], pkts[1].Data)
}

func TestReaderSourceRejectsNonEthernet(t *testing.T) {
	var buf bytes.Buffer
	writePcap(t, &buf, layers.LinkTypeRaw)

	_, err := NewReaderSource("mem", &buf)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUnsupportedSource)
}

func TestReaderSourceRejectsGarbage(t *testing.T) {
	_, err := NewReaderSource("mem", bytes.NewReader([]byte{1, 2}))
	assert.Error(t, err)

	_, err = NewReaderSource("mem", bytes.NewReader(bytes.Repeat([]byte{0x42}, 64)))
	assert.Error(t, err)
}

func TestNewSourceFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames.pcap")
	f, err := os.Create(path)
	require.NoError(t, err)
	writePcap(t, f, layers.LinkTypeEthernet)
	require.NoError(t, f.Close())

	s, err := NewSource(Config{Path: path})
	require.NoError(t, err)
	assert.Len(t, readAll(t, s), len(testFrames))
	require.NoError(t, s.Close())

	_, err = s.ReadPacket(context.Background())
	assert.ErrorIs(t, err, core.ErrSourceClosed)
}

func TestNewSourceErrors(t *testing.T) {
	_, err := NewSource(Config{})
	assert.ErrorIs(t, err, core.ErrConfigInvalid)

	_, err = NewSource(Config{Path: filepath.Join(t.TempDir(), "missing.pcap")})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadPacketHonoursContext(t *testing.T) {
	var buf bytes.Buffer
	writePcap(t, &buf, layers.LinkTypeEthernet)
	s, err := NewReaderSource("mem", &buf)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.ReadPacket(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
