// Package config loads ndnd's static configuration: logging, telemetry,
// metrics, the chunk store, collection storage-mode thresholds, the RTCP
// tunnel, and zone (name-service) resolution.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (NDND_*)
//  2. Configuration file (YAML)
//  3. Default values (lowest priority)
//
// Environment variables override keys that the config file sets; with
// no config file, Load returns the defaults without reading the
// environment. The only command-line flag involved is --config, which
// picks the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/buckyos/ndnd/internal/bytesize"
)

// Config is ndnd's full static configuration.
type Config struct {
	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing.
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// Metrics contains Prometheus metrics server configuration.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// ShutdownTimeout bounds how long graceful shutdown waits for the
	// HTTP server and tunnel listener to drain.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// ChunkStore configures the local content-addressed chunk store.
	ChunkStore ChunkStoreConfig `mapstructure:"chunk_store" yaml:"chunk_store"`

	// Collections configures the storage-mode thresholds and backend
	// choices for ObjectArray/ObjectMap/TrieObjectMap containers.
	Collections CollectionsConfig `mapstructure:"collections" yaml:"collections"`

	// Tunnel configures the RTCP reverse-connect tunnel listener.
	Tunnel TunnelConfig `mapstructure:"tunnel" yaml:"tunnel"`

	// Zone configures device-id resolution for dialing RTCP peers.
	Zone ZoneConfig `mapstructure:"zone" yaml:"zone"`

	// HTTP configures the NDN HTTP wire-convention server.
	HTTP HTTPConfig `mapstructure:"http" yaml:"http"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive).
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format: text or json.
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written: stdout, stderr, or a file path.
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
type TelemetryConfig struct {
	Enabled    bool    `mapstructure:"enabled" yaml:"enabled"`
	Endpoint   string  `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure   bool    `mapstructure:"insecure" yaml:"insecure"`
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	// Profiling contains Pyroscope continuous profiling configuration.
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	Enabled      bool     `mapstructure:"enabled" yaml:"enabled"`
	Endpoint     string   `mapstructure:"endpoint" yaml:"endpoint"`
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// ChunkStoreConfig configures the local chunk store and its optional
// remote byte tier.
type ChunkStoreConfig struct {
	// Root is the directory holding the badger index and chunk bytes.
	Root string `mapstructure:"root" validate:"required" yaml:"root"`

	// IndexBackend names the chunk-state index backend. Only "badger"
	// is implemented; the field exists so a future backend (e.g. a
	// remote metadata service) has somewhere to land without
	// reshaping the config.
	IndexBackend string `mapstructure:"index_backend" validate:"omitempty,oneof=badger" yaml:"index_backend"`

	// Remote optionally configures an S3 (or S3-compatible) byte tier
	// for large Completed chunks.
	Remote RemoteConfig `mapstructure:"remote" yaml:"remote"`

	// DiscardIncomplete drops Incompleted chunk rows at store open
	// instead of retaining them for resumed pulls.
	DiscardIncomplete bool `mapstructure:"discard_incomplete" yaml:"discard_incomplete"`
}

// RemoteConfig configures chunkstore's optional S3 remote tier.
type RemoteConfig struct {
	Enabled         bool              `mapstructure:"enabled" yaml:"enabled"`
	Bucket          string            `mapstructure:"bucket" yaml:"bucket"`
	KeyPrefix       string            `mapstructure:"key_prefix" yaml:"key_prefix"`
	Region          string            `mapstructure:"region" yaml:"region"`
	Endpoint        string            `mapstructure:"endpoint" yaml:"endpoint"`
	AccessKeyID     string            `mapstructure:"access_key_id" yaml:"access_key_id,omitempty"`
	SecretAccessKey string            `mapstructure:"secret_access_key" yaml:"secret_access_key,omitempty"`
	UsePathStyle    bool              `mapstructure:"use_path_style" yaml:"use_path_style"`
	Threshold       bytesize.ByteSize `mapstructure:"threshold" yaml:"threshold"`
}

// CollectionsConfig configures ObjectArray/ObjectMap/TrieObjectMap
// storage-mode selection (Simple: in-memory/JSON-file backends for
// small collections; Normal: gorm+sqlite-backed for large ones).
type CollectionsConfig struct {
	// Backend names the persistence backend for Normal-mode
	// collections: "sqlite" (gorm+glebarez/sqlite), "jsonfile" or
	// "memory". It is validated at load; cmd/ndnd does not read it.
	Backend string `mapstructure:"backend" validate:"omitempty,oneof=sqlite jsonfile memory" yaml:"backend"`

	// SimpleModeMaxEntries is an entry count at or below which a
	// collection would stay in Simple mode. It is validated and
	// defaulted at load; cmd/ndnd does not read it.
	SimpleModeMaxEntries int `mapstructure:"simple_mode_max_entries" validate:"omitempty,gt=0" yaml:"simple_mode_max_entries"`

	// SQLitePath is the collections directory cmd/ndnd hands to
	// ndnhttp.NewMapResolver: it holds each Object Map's storage file
	// (.json in Simple mode, .sqlite in Normal mode), whatever Backend
	// says.
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
}

// TunnelConfig configures the RTCP reverse-connect tunnel listener.
type TunnelConfig struct {
	// ListenAddr is the address the tunnel control-plane listener
	// binds, e.g. ":2980".
	ListenAddr string `mapstructure:"listen_addr" validate:"required" yaml:"listen_addr"`

	// StackPort is this stack's advertised RTCP control port. It is
	// validated and defaulted to rtcp.DefaultStackPort at load;
	// cmd/ndnd does not read it (the listener binds ListenAddr).
	StackPort uint16 `mapstructure:"stack_port" validate:"omitempty,min=1" yaml:"stack_port"`

	// DeviceID is this stack's own device identifier (hostname or
	// did:{method}:{id} form), used as the FromID/ToID in hello
	// handshakes and as the zone lookup key peers use to find it.
	DeviceID string `mapstructure:"device_id" validate:"required" yaml:"device_id"`

	// AuthSecret is the HMAC key used to sign and verify hello
	// tokens. Must be at least 32 bytes; generate with a CSPRNG and
	// distribute out-of-band or via the zone service in production.
	AuthSecret string `mapstructure:"auth_secret" validate:"required,min=32" yaml:"auth_secret"`

	// HandshakeTimeout bounds how long a dial or accept waits for the
	// hello/Noise handshake to complete.
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout" validate:"omitempty,gt=0" yaml:"handshake_timeout"`

	// PingInterval is a keepalive ping cadence for the tunnel.
	// cmd/ndnd does not pass it to the tunnel, which pings at its
	// package default.
	PingInterval time.Duration `mapstructure:"ping_interval" yaml:"ping_interval"`
}

// ZoneConfig configures device-id resolution.
type ZoneConfig struct {
	// StaticFile is a JSON file of zone.Record entries loaded at
	// startup, the substitute for a DHT/DNS-based name service.
	StaticFile string `mapstructure:"static_file" yaml:"static_file"`
}

// HTTPConfig configures the NDN HTTP wire-convention server.
type HTTPConfig struct {
	ListenAddr string `mapstructure:"listen_addr" validate:"required" yaml:"listen_addr"`

	// UpstreamURL, when set, names the NDN endpoint consulted on a
	// local chunk miss (one-shot pull-through). Empty disables
	// forwarding; every miss is then a 404.
	UpstreamURL string `mapstructure:"upstream_url" validate:"omitempty,url" yaml:"upstream_url"`
}

// Load loads configuration from file, environment, and defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !configFileFound {
		cfg := GetDefaultConfig()
		return cfg, nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages when the
// default config file is missing.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  ndnd init --device-id <device-id>\n\n"+
				"Or specify a custom config file:\n"+
				"  ndnd run --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s\n\n"+
			"Please create the configuration file:\n"+
			"  ndnd init --config %s --device-id <device-id>",
			configPath, configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path in YAML form.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks cfg against its struct validation tags.
func Validate(cfg *Config) error {
	return validator.New().Struct(cfg)
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("NDND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		configDir := getConfigDir()
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

// byteSizeDecodeHook converts strings and numbers to bytesize.ByteSize,
// so config files can use human-readable sizes like "1Gi" or "500Mi".
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// durationDecodeHook converts strings to time.Duration, so config
// files can use human-readable durations like "30s" or "5m".
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "ndnd")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "ndnd")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether a config file exists at the
// default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}
