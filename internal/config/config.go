// Package config handles global configuration loading using viper.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"firestige.xyz/pktgate/internal/core"
)

// Supported component types.
const (
	SourcePcap     = "pcap"
	SourceAFPacket = "afpacket"

	SinkConsole = "console"
	SinkPcap    = "pcap"
	SinkKafka   = "kafka"

	DispatchFlowHash   = "flow-hash"
	DispatchRoundRobin = "round-robin"

	// MaxVLANDepth bounds engine.vlan_max_depth.
	MaxVLANDepth = 8
)

// GlobalConfig represents the top-level configuration.
// Maps to the `pktgate:` root key in YAML.
type GlobalConfig struct {
	Engine   EngineConfig   `mapstructure:"engine" yaml:"engine"`
	Source   SourceConfig   `mapstructure:"source" yaml:"source"`
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline"`
	Sinks    []SinkConfig   `mapstructure:"sinks" yaml:"sinks"`
	Metrics  MetricsConfig  `mapstructure:"metrics" yaml:"metrics"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

// ─── Engine ───

// EngineConfig configures the decision engine.
type EngineConfig struct {
	VLANMaxDepth int `mapstructure:"vlan_max_depth" yaml:"vlan_max_depth"`
}

// ─── Source / Sinks ───

// SourceConfig selects the frame source. Options are decoded by the source
// itself with DecodeOptions.
type SourceConfig struct {
	Type    string         `mapstructure:"type" yaml:"type"` // pcap | afpacket
	Options map[string]any `mapstructure:"options" yaml:"options,omitempty"`
}

// SinkConfig selects one forwarding sink for passed frames.
type SinkConfig struct {
	Type    string         `mapstructure:"type" yaml:"type"` // console | pcap | kafka
	Options map[string]any `mapstructure:"options" yaml:"options,omitempty"`
}

// ─── Pipeline ───

// PipelineConfig configures the per-queue workers.
type PipelineConfig struct {
	Workers       int    `mapstructure:"workers" yaml:"workers"` // 0 = GOMAXPROCS
	QueueCapacity int    `mapstructure:"queue_capacity" yaml:"queue_capacity"`
	Dispatch      string `mapstructure:"dispatch" yaml:"dispatch"` // flow-hash | round-robin
}

// ─── Metrics ───

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Listen  string `mapstructure:"listen" yaml:"listen"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// ─── Log ───

// LogConfig contains logging settings.
type LogConfig struct {
	Level   string           `mapstructure:"level" yaml:"level"`   // debug / info / warn / error
	Format  string           `mapstructure:"format" yaml:"format"` // json / text
	Outputs LogOutputsConfig `mapstructure:"outputs" yaml:"outputs"`
}

// LogOutputsConfig contains structured log output destinations.
type LogOutputsConfig struct {
	File FileOutputConfig `mapstructure:"file" yaml:"file"`
}

// FileOutputConfig configures file log output.
type FileOutputConfig struct {
	Enabled  bool           `mapstructure:"enabled" yaml:"enabled"`
	Path     string         `mapstructure:"path" yaml:"path"`
	Rotation RotationConfig `mapstructure:"rotation" yaml:"rotation"`
}

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxAgeDays int  `mapstructure:"max_age_days" yaml:"max_age_days"`
	MaxBackups int  `mapstructure:"max_backups" yaml:"max_backups"`
	Compress   bool `mapstructure:"compress" yaml:"compress"`
}

// ─── Loading ───

// configRoot is the top-level wrapper matching the YAML structure `pktgate: ...`.
type configRoot struct {
	Pktgate GlobalConfig `mapstructure:"pktgate" yaml:"pktgate"`
}

// Load loads configuration from file. An empty path loads defaults and
// environment overrides only.
// Env vars use the PKTGATE_ prefix (e.g., PKTGATE_LOG_LEVEL).
func Load(path string) (*GlobalConfig, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// The `pktgate.` key prefix maps to `PKTGATE_` in env vars via the key
	// replacer (e.g., key "pktgate.log.level" → env "PKTGATE_LOG_LEVEL").
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.Pktgate

	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values for configuration.
// All keys use "pktgate." prefix to match the YAML root wrapper.
func setDefaults(v *viper.Viper) {
	// Engine defaults
	v.SetDefault("pktgate.engine.vlan_max_depth", 2)

	// Pipeline defaults
	v.SetDefault("pktgate.pipeline.workers", 0)
	v.SetDefault("pktgate.pipeline.queue_capacity", 4096)
	v.SetDefault("pktgate.pipeline.dispatch", DispatchFlowHash)

	// Log defaults
	v.SetDefault("pktgate.log.level", "info")
	v.SetDefault("pktgate.log.format", "json")
	v.SetDefault("pktgate.log.outputs.file.enabled", false)
	v.SetDefault("pktgate.log.outputs.file.path", "/var/log/pktgate/pktgate.log")
	v.SetDefault("pktgate.log.outputs.file.rotation.max_size_mb", 100)
	v.SetDefault("pktgate.log.outputs.file.rotation.max_age_days", 30)
	v.SetDefault("pktgate.log.outputs.file.rotation.max_backups", 5)
	v.SetDefault("pktgate.log.outputs.file.rotation.compress", true)

	// Metrics defaults
	v.SetDefault("pktgate.metrics.enabled", true)
	v.SetDefault("pktgate.metrics.listen", ":9091")
	v.SetDefault("pktgate.metrics.path", "/metrics")
}

// ValidateAndApplyDefaults validates configuration and applies runtime defaults.
// Every returned error wraps core.ErrConfigInvalid.
func (cfg *GlobalConfig) ValidateAndApplyDefaults() error {
	// ── Log ──
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Log.Level] {
		return invalid("invalid log level: %s (must be debug/info/warn/error)", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" && cfg.Log.Format != "text" {
		return invalid("invalid log format: %s (must be json/text)", cfg.Log.Format)
	}
	if cfg.Log.Outputs.File.Enabled && cfg.Log.Outputs.File.Path == "" {
		return invalid("log.outputs.file.path is required when file output is enabled")
	}

	// ── Engine ──
	if cfg.Engine.VLANMaxDepth < 0 || cfg.Engine.VLANMaxDepth > MaxVLANDepth {
		return invalid("engine.vlan_max_depth must be within 0..%d, got %d", MaxVLANDepth, cfg.Engine.VLANMaxDepth)
	}

	// ── Source ──
	switch cfg.Source.Type {
	case SourcePcap, SourceAFPacket:
	case "":
		return invalid("source.type is required (pcap/afpacket)")
	default:
		return invalid("unsupported source.type: %s (must be pcap/afpacket)", cfg.Source.Type)
	}

	// ── Pipeline ──
	if cfg.Pipeline.Workers < 0 {
		return invalid("pipeline.workers must not be negative, got %d", cfg.Pipeline.Workers)
	}
	if cfg.Pipeline.Workers == 0 {
		cfg.Pipeline.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Pipeline.QueueCapacity <= 0 {
		return invalid("pipeline.queue_capacity must be positive, got %d", cfg.Pipeline.QueueCapacity)
	}
	if cfg.Pipeline.Dispatch != DispatchFlowHash && cfg.Pipeline.Dispatch != DispatchRoundRobin {
		return invalid("unsupported pipeline.dispatch: %s (must be flow-hash/round-robin)", cfg.Pipeline.Dispatch)
	}

	// ── Sinks ──
	for i, s := range cfg.Sinks {
		switch s.Type {
		case SinkConsole, SinkPcap, SinkKafka:
		default:
			return invalid("unsupported sinks[%d].type: %q (must be console/pcap/kafka)", i, s.Type)
		}
	}

	// ── Metrics ──
	if cfg.Metrics.Enabled && cfg.Metrics.Listen == "" {
		return invalid("metrics.listen is required when metrics.enabled=true")
	}

	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", core.ErrConfigInvalid, fmt.Sprintf(format, args...))
}

// DecodeOptions decodes a free-form options map into out, a pointer to a
// struct tagged with `mapstructure`. Unknown keys are rejected; durations
// may be given as strings ("100ms").
func DecodeOptions(options map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(options); err != nil {
		return fmt.Errorf("%w: %v", core.ErrConfigInvalid, err)
	}
	return nil
}

// Dump renders the effective configuration as YAML under the `pktgate:` root key.
func Dump(cfg *GlobalConfig) ([]byte, error) {
	out, err := yaml.Marshal(configRoot{Pktgate: *cfg})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return out, nil
}
