package decoder

import (
	"firestige.xyz/pktgate/internal/core"
	"firestige.xyz/pktgate/internal/stats"
)

// Engine runs the header parsers in order and applies the parity rule:
// an ICMP or ICMPv6 message with an odd sequence number passes, an even
// one is dropped, and anything that cannot be parsed that far passes.
//
// An Engine holds only options fixed at construction and is safe for
// concurrent use from any number of receive queues.
type Engine struct {
	vlanDepth int
	recorder  stats.Recorder
}

// Option configures an Engine.
type Option func(*Engine)

// WithVLANDepth sets the maximum number of stacked VLAN tags unwrapped.
// Negative values are treated as zero.
func WithVLANDepth(n int) Option {
	return func(e *Engine) {
		if n < 0 {
			n = 0
		}
		e.vlanDepth = n
	}
}

// WithRecorder sets the sink that Process reports each disposition to.
func WithRecorder(r stats.Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// NewEngine creates an engine. Defaults: DefaultVLANDepth, no recorder.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		vlanDepth: DefaultVLANDepth,
		recorder:  stats.Nop{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// VLANDepth returns the configured VLAN unwrapping limit.
func (e *Engine) VLANDepth() int { return e.vlanDepth }

// Decide returns the disposition for frame.
func (e *Engine) Decide(frame []byte) core.Disposition {
	return e.Analyze(frame).Disposition
}

// Process is Decide followed by exactly one Record call on the recorder.
func (e *Engine) Process(frame []byte) core.Disposition {
	return e.ProcessDecision(frame).Disposition
}

// ProcessDecision is Analyze followed by exactly one Record call on the
// recorder.
func (e *Engine) ProcessDecision(frame []byte) core.Decision {
	dec := e.Analyze(frame)
	e.record(dec.Disposition)
	return dec
}

// record isolates the verdict from a misbehaving recorder.
func (e *Engine) record(d core.Disposition) {
	defer func() { _ = recover() }()
	e.recorder.Record(d)
}

// Analyze walks the frame and reports how far it got along with the
// disposition. Truncation at any layer ends the walk with Pass.
func (e *Engine) Analyze(frame []byte) core.Decision {
	var dec core.Decision // Pass, StageStart

	c := NewCursor(frame)
	_, proto, err := ParseEthernet(&c, e.vlanDepth)
	if err != nil {
		return dec
	}
	dec.Stage = core.StageEthernet
	dec.L3 = proto

	switch proto {
	case core.EtherTypeIPv6:
		if _, _, err := ParseIPv6(&c); err != nil {
			return dec
		}
		dec.Stage = core.StageNetwork
		icmp6, _, err := ParseICMPv6(&c)
		if err != nil {
			return dec
		}
		dec.Sequence = icmp6.Sequence()

	case core.EtherTypeIPv4:
		if _, _, err := ParseIPv4(&c); err != nil {
			return dec
		}
		dec.Stage = core.StageNetwork
		icmp, _, err := ParseICMP(&c)
		if err != nil {
			return dec
		}
		dec.Sequence = icmp.Sequence()

	default:
		return dec
	}

	dec.Stage = core.StageTransport
	dec.Disposition = parity(dec.Sequence)
	return dec
}

// parity maps odd sequence numbers to Pass and even ones to Drop.
func parity(seq uint16) core.Disposition {
	if seq%2 == 1 {
		return core.Pass
	}
	return core.Drop
}
