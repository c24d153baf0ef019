// Package core defines sentinel errors.
package core

import "errors"

var (
	// ErrTruncated means a header, or the remainder of a variable-length
	// header, does not fit within the frame.
	ErrTruncated = errors.New("pktgate: header truncated")

	// Configuration errors
	ErrConfigInvalid = errors.New("pktgate: invalid configuration")

	// Source / sink errors
	ErrSourceClosed      = errors.New("pktgate: source closed")
	ErrUnsupportedSource = errors.New("pktgate: unsupported source")
	ErrUnsupportedSink   = errors.New("pktgate: unsupported sink")
	ErrSinkClosed        = errors.New("pktgate: sink closed")
)
