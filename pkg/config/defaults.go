package config

import (
	"strings"
	"time"

	"github.com/buckyos/ndnd/internal/bytesize"
	"github.com/buckyos/ndnd/pkg/rtcp"
)

// ApplyDefaults fills in any unspecified configuration fields with
// sensible defaults. Explicit values are preserved; zero values are
// replaced.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyMetricsDefaults(&cfg.Metrics)
	applyChunkStoreDefaults(&cfg.ChunkStore)
	applyCollectionsDefaults(&cfg.Collections)
	applyTunnelDefaults(&cfg.Tunnel)
	applyHTTPDefaults(&cfg.HTTP)

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
	applyProfilingDefaults(&cfg.Profiling)
}

func applyProfilingDefaults(cfg *ProfilingConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}
	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{
			"cpu", "alloc_objects", "alloc_space", "inuse_objects", "inuse_space", "goroutines",
		}
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func applyChunkStoreDefaults(cfg *ChunkStoreConfig) {
	if cfg.Root == "" {
		cfg.Root = "/var/lib/ndnd/chunks"
	}
	if cfg.IndexBackend == "" {
		cfg.IndexBackend = "badger"
	}
	if cfg.Remote.Enabled && cfg.Remote.Threshold == 0 {
		cfg.Remote.Threshold = bytesize.ByteSize(4 << 20) // 4MiB
	}
}

func applyCollectionsDefaults(cfg *CollectionsConfig) {
	if cfg.Backend == "" {
		cfg.Backend = "sqlite"
	}
	if cfg.SimpleModeMaxEntries == 0 {
		cfg.SimpleModeMaxEntries = 256
	}
	if cfg.SQLitePath == "" {
		cfg.SQLitePath = "/var/lib/ndnd/collections"
	}
}

func applyTunnelDefaults(cfg *TunnelConfig) {
	if cfg.StackPort == 0 {
		cfg.StackPort = rtcp.DefaultStackPort
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":2980"
	}
	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
}

func applyHTTPDefaults(cfg *HTTPConfig) {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8765"
	}
}

// GetDefaultConfig returns a Config populated entirely with defaults,
// used when no config file is present.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	// DeviceID and AuthSecret have no safe default and stay empty, so
	// the returned Config does not pass Validate until the caller sets
	// them. Load returns it as is, without reading NDND_* environment
	// variables, when no config file is found.
	return cfg
}
