//go:build !cgo

package utils

import (
	"fmt"

	"golang.org/x/net/bpf"
)

// CompileBpf needs libpcap; without cgo every non-empty filter is rejected.
func CompileBpf(filter string, snapLen int) ([]bpf.RawInstruction, error) {
	if filter == "" {
		return nil, nil
	}
	return nil, fmt.Errorf("failed to compile BPF filter %q: built without cgo/libpcap", filter)
}
