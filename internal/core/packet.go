// Package core defines core data structures with zero external dependencies.
package core

import "time"

// RawPacket is one frame handed over by a source. Data is borrowed and
// must not be mutated.
type RawPacket struct {
	Data           []byte    // Raw frame data, zero-copy slice
	Timestamp      time.Time // Capture timestamp (kernel timestamp preferred)
	CaptureLen     uint32    // Actual captured length
	OrigLen        uint32    // Original frame length
	InterfaceIndex int       // Network interface index
	Queue          int       // Worker queue the frame was dispatched to
}
