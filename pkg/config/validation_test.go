package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := GetDefaultConfig()
	cfg.Tunnel.DeviceID = "test-stack"
	cfg.Tunnel.AuthSecret = "0123456789abcdef0123456789abcdef"
	return cfg
}

func TestValidate_ValidConfig(t *testing.T) {
	require.NoError(t, Validate(validConfig()))
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "VERBOSE"
	assert.Error(t, Validate(cfg))
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Format = "xml"
	assert.Error(t, Validate(cfg))
}

func TestValidate_MissingDeviceID(t *testing.T) {
	cfg := validConfig()
	cfg.Tunnel.DeviceID = ""
	assert.Error(t, Validate(cfg))
}

func TestValidate_ShortAuthSecret(t *testing.T) {
	cfg := validConfig()
	cfg.Tunnel.AuthSecret = "too-short"
	assert.Error(t, Validate(cfg))
}

func TestValidate_TelemetrySampleRateOutOfRange(t *testing.T) {
	cfg := validConfig()
	cfg.Telemetry.SampleRate = 1.5
	assert.Error(t, Validate(cfg))
}

func TestValidate_CollectionsBackendInvalid(t *testing.T) {
	cfg := validConfig()
	cfg.Collections.Backend = "postgres"
	assert.Error(t, Validate(cfg))
}
