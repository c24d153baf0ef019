// Package stats implements per-disposition frame counters.
package stats

import (
	"sync/atomic"

	"firestige.xyz/pktgate/internal/core"
)

// Recorder receives the final disposition of every processed frame.
// Implementations must be safe for concurrent use.
type Recorder interface {
	Record(d core.Disposition)
}

// Nop discards every record.
type Nop struct{}

func (Nop) Record(core.Disposition) {}

// Counters counts frames per disposition with atomic increments.
type Counters struct {
	counts [core.NumDispositions]atomic.Uint64
}

// NewCounters creates a zeroed counter set.
func NewCounters() *Counters {
	return &Counters{}
}

// Record increments the counter for d. Unknown dispositions are ignored.
func (c *Counters) Record(d core.Disposition) {
	if int(d) < len(c.counts) {
		c.counts[d].Add(1)
	}
}

// Load returns the current count for d.
func (c *Counters) Load(d core.Disposition) uint64 {
	if int(d) >= len(c.counts) {
		return 0
	}
	return c.counts[d].Load()
}

// Snapshot returns a point-in-time copy of all counters.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Pass: c.counts[core.Pass].Load(),
		Drop: c.counts[core.Drop].Load(),
	}
}

// Reset resets all counters to zero.
func (c *Counters) Reset() {
	for i := range c.counts {
		c.counts[i].Store(0)
	}
}

// Snapshot is a copy of the counters.
type Snapshot struct {
	Pass uint64 `json:"pass" yaml:"pass"`
	Drop uint64 `json:"drop" yaml:"drop"`
}

// Total returns Pass + Drop.
func (s Snapshot) Total() uint64 { return s.Pass + s.Drop }

// Add returns the element-wise sum of two snapshots.
func (s Snapshot) Add(o Snapshot) Snapshot {
	return Snapshot{Pass: s.Pass + o.Pass, Drop: s.Drop + o.Drop}
}

type multi []Recorder

// Multi fans each record out to all non-nil recorders.
func Multi(recorders ...Recorder) Recorder {
	m := make(multi, 0, len(recorders))
	for _, r := range recorders {
		if r != nil {
			m = append(m, r)
		}
	}
	return m
}

// Record delivers d to every recorder. A panicking recorder does not keep
// the ones after it from seeing d.
func (m multi) Record(d core.Disposition) {
	for _, r := range m {
		recordSafe(r, d)
	}
}

func recordSafe(r Recorder, d core.Disposition) {
	defer func() { _ = recover() }()
	r.Record(d)
}
