package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.Equal(t, "orchestrd", cfg.ServiceName)
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := NewDefaultConfig()
		cfg.Enabled = true
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid enabled", func(*Config) {}, ""},
		{"disabled skips validation", func(c *Config) { c.Enabled = false; c.Endpoint = "" }, ""},
		{"missing endpoint", func(c *Config) { c.Endpoint = "" }, "endpoint is required"},
		{"missing service name", func(c *Config) { c.ServiceName = "" }, "service_name is required"},
		{"insecure remote endpoint", func(c *Config) { c.Endpoint = "collector.example.com:4317" }, "insecure connections"},
		{"secure remote endpoint ok", func(c *Config) { c.Endpoint = "collector.example.com:4317"; c.Insecure = false }, ""},
		{"loopback ip ok", func(c *Config) { c.Endpoint = "127.0.0.1:4317" }, ""},
		{"bracketed ipv6 loopback ok", func(c *Config) { c.Endpoint = "[::1]:4317" }, ""},
		{"sample rate too high", func(c *Config) { c.SampleRate = 1.5 }, "sample_rate"},
		{"negative sample rate", func(c *Config) { c.SampleRate = -0.1 }, "sample_rate"},
		{"zero export interval", func(c *Config) { c.ExportInterval = 0 }, "export_interval"},
		{"zero shutdown timeout", func(c *Config) { c.ShutdownTimeout = 0 }, "shutdown_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestNew_DisabledIsNoop(t *testing.T) {
	tel, err := New(context.Background(), NewDefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, tel)

	// Shutdown of a no-op instance returns immediately.
	done := make(chan error, 1)
	go func() { done <- tel.Shutdown(context.Background()) }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("no-op shutdown blocked")
	}
}

func TestNew_InvalidConfigRejected(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Enabled = true
	cfg.Endpoint = ""

	_, err := New(context.Background(), cfg)
	require.Error(t, err)
}
