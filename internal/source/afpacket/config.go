// Package afpacket captures live frames through a TPACKET_V3 ring.
package afpacket

// Name is the source type name.
const Name = "afpacket"

// Config holds afpacket source options.
type Config struct {
	Interface    string `mapstructure:"interface"`
	SnapLen      int    `mapstructure:"snap_len"`
	BufferSizeMB int    `mapstructure:"buffer_size_mb"`
	TimeoutMs    int    `mapstructure:"timeout_ms"`
	FanoutID     uint16 `mapstructure:"fanout_id"`
	BpfFilter    string `mapstructure:"bpf_filter"`
}

// DefaultConfig returns the options used for keys left unset.
func DefaultConfig() Config {
	return Config{
		Interface:    "any",
		SnapLen:      65535,
		BufferSizeMB: 64,
		TimeoutMs:    100,
	}
}
