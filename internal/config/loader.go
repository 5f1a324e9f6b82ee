// Package config provides configuration loading for orchestrd.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (ORCHESTRD_ORCHESTRATOR_MAX_ITERATIONS, ...)
//  2. YAML config file (~/.config/orchestrd/config.yaml)
//  3. Hardcoded defaults
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/fyrsmithlabs/orchestrd/internal/telemetry"
)

const (
	envPrefix         = "ORCHESTRD_"
	maxConfigFileSize = 1024 * 1024 // 1MB
)

// Load reads configuration from the YAML file at configPath (or the default
// path when empty), then overrides with ORCHESTRD_* environment variables.
// A missing file is not an error; defaults apply.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(home, ".config", "orchestrd", "config.yaml")
	}

	if _, err := os.Stat(configPath); err == nil {
		// Open once and validate through the descriptor to avoid a
		// TOCTOU race between stat and read.
		f, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
		if info.Size() > maxConfigFileSize {
			return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
		}

		content, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Environment overrides: ORCHESTRD_RETRY_MAX_ATTEMPTS -> retry.max_attempts
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
	if cfg.Logging.Fields == nil {
		cfg.Logging.Fields = map[string]string{"service": "orchestrd"}
	}

	if cfg.Models.APIKey == "" {
		cfg.Models.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Models.Default == "" {
		cfg.Models.Default = os.Getenv("OPENAI_MODEL")
	}
	applyRoleModelEnv(cfg)

	if cfg.Orchestrator.MaxIterations == 0 {
		cfg.Orchestrator.MaxIterations = 12
	}
	if cfg.Orchestrator.InterruptBefore == nil {
		// Pause for human review of the design before code generation.
		cfg.Orchestrator.InterruptBefore = []string{"coding"}
	}
	if cfg.Orchestrator.MaxToolRounds == 0 {
		cfg.Orchestrator.MaxToolRounds = 25
	}
	if cfg.Orchestrator.ProjectsRoot == "" {
		cfg.Orchestrator.ProjectsRoot = "projects"
	}

	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = 7
	}
	if cfg.Retry.BaseDelay == 0 {
		cfg.Retry.BaseDelay = Duration(2 * time.Second)
	}

	if cfg.Tools.TestCommand == "" {
		cfg.Tools.TestCommand = "python3 -m pytest -v --tb=short"
	}
	if cfg.Tools.CommandTimeout == 0 {
		cfg.Tools.CommandTimeout = Duration(120 * time.Second)
	}

	tel := telemetry.NewDefaultConfig()
	if cfg.Telemetry.Endpoint == "" {
		cfg.Telemetry.Endpoint = tel.Endpoint
		// Local collector default, plaintext is fine.
		cfg.Telemetry.Insecure = tel.Insecure
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = tel.ServiceName
	}
	if cfg.Telemetry.ServiceVersion == "" {
		cfg.Telemetry.ServiceVersion = tel.ServiceVersion
	}
	if cfg.Telemetry.SampleRate == 0 {
		cfg.Telemetry.SampleRate = tel.SampleRate
	}
	if cfg.Telemetry.ExportInterval == 0 {
		cfg.Telemetry.ExportInterval = tel.ExportInterval
	}
	if cfg.Telemetry.ShutdownTimeout == 0 {
		cfg.Telemetry.ShutdownTimeout = tel.ShutdownTimeout
	}
}

// applyRoleModelEnv maps OPENAI_MODEL_<ROLE> environment variables onto
// per-role model overrides, without clobbering config-file entries.
func applyRoleModelEnv(cfg *Config) {
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || value == "" || !strings.HasPrefix(name, "OPENAI_MODEL_") {
			continue
		}
		role := strings.ToLower(strings.TrimPrefix(name, "OPENAI_MODEL_"))
		if role == "" {
			continue
		}
		if cfg.Models.Roles == nil {
			cfg.Models.Roles = make(map[string]string)
		}
		if _, exists := cfg.Models.Roles[role]; !exists {
			cfg.Models.Roles[role] = value
		}
	}
}
