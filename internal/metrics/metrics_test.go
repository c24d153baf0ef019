package metrics

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/pktgate/internal/core"
	"firestige.xyz/pktgate/internal/stats"
)

var _ stats.Recorder = (*DispositionRecorder)(nil)

func TestDispositionRecorder(t *testing.T) {
	r := NewDispositionRecorder(7)
	pass := testutil.ToFloat64(FramesTotal.WithLabelValues("7", "pass"))
	drop := testutil.ToFloat64(FramesTotal.WithLabelValues("7", "drop"))

	r.Record(core.Pass)
	r.Record(core.Drop)
	r.Record(core.Drop)
	r.Record(core.Disposition(9)) // ignored

	assert.Equal(t, pass+1, testutil.ToFloat64(FramesTotal.WithLabelValues("7", "pass")))
	assert.Equal(t, drop+2, testutil.ToFloat64(FramesTotal.WithLabelValues("7", "drop")))
}

func TestObserveStage(t *testing.T) {
	before := testutil.ToFloat64(DecisionStageTotal.WithLabelValues("transport"))
	ObserveStage(core.StageTransport)
	assert.Equal(t, before+1, testutil.ToFloat64(DecisionStageTotal.WithLabelValues("transport")))
}

func TestServerServesMetrics(t *testing.T) {
	NewDispositionRecorder(99).Record(core.Pass)

	s := NewServer("127.0.0.1:0", "")
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	resp, err := http.Get("http://" + s.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `pktgate_frames_total{disposition="pass",queue="99"}`))
}

func TestServerStopWithoutStart(t *testing.T) {
	assert.NoError(t, NewServer(":0", "/m").Stop(context.Background()))
}
