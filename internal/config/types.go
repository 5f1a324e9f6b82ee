package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/orchestrd/internal/logging"
	"github.com/fyrsmithlabs/orchestrd/internal/telemetry"
)

// Duration wraps time.Duration for human-readable config values ("2s", "5m").
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	if parsed < 0 {
		return fmt.Errorf("duration cannot be negative: %s", text)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration().String()), nil
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Duration().String())
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Config is the complete orchestrd configuration, constructed once per
// session and passed explicitly to every component that needs it.
type Config struct {
	Logging      logging.Config     `koanf:"logging"`
	Models       ModelsConfig       `koanf:"models"`
	Orchestrator OrchestratorConfig `koanf:"orchestrator"`
	Retry        RetryConfig        `koanf:"retry"`
	Tools        ToolsConfig        `koanf:"tools"`
	Telemetry    telemetry.Config   `koanf:"telemetry"`
}

// ModelsConfig controls reasoning-backend model selection.
type ModelsConfig struct {
	// APIKey authenticates against the backend provider.
	APIKey string `koanf:"api_key"`

	// Default overrides the built-in model for every role.
	Default string `koanf:"default"`

	// Roles overrides the model per stage role, taking precedence over
	// Default (e.g. roles.coding: o3).
	Roles map[string]string `koanf:"roles"`
}

// OrchestratorConfig controls the supervisor and controller.
type OrchestratorConfig struct {
	// MaxIterations caps supervisor decisions per session.
	MaxIterations int `koanf:"max_iterations"`

	// InterruptBefore lists stage names the controller pauses before.
	InterruptBefore []string `koanf:"interrupt_before"`

	// MaxToolRounds bounds backend/tool round-trips inside one stage call.
	MaxToolRounds int `koanf:"max_tool_rounds"`

	// ProjectsRoot is the directory project workspaces are created under.
	ProjectsRoot string `koanf:"projects_root"`
}

// RetryConfig controls the retry wrapper around backend calls.
type RetryConfig struct {
	// MaxAttempts is the total call ceiling, including the first attempt.
	MaxAttempts int `koanf:"max_attempts"`

	// BaseDelay seeds the exponential backoff (base * 2^attempt).
	BaseDelay Duration `koanf:"base_delay"`
}

// ToolsConfig controls the capability functions handed to stages.
type ToolsConfig struct {
	// TestCommand is what run_tests executes inside the workspace.
	TestCommand string `koanf:"test_command"`

	// CommandTimeout is the wall-clock cap for run_command and run_tests
	// when the backend does not supply one.
	CommandTimeout Duration `koanf:"command_timeout"`
}

// Validate checks the assembled configuration.
func (c *Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if c.Orchestrator.MaxIterations <= 0 {
		return fmt.Errorf("orchestrator.max_iterations must be > 0, got %d", c.Orchestrator.MaxIterations)
	}
	if c.Orchestrator.MaxToolRounds <= 0 {
		return fmt.Errorf("orchestrator.max_tool_rounds must be > 0, got %d", c.Orchestrator.MaxToolRounds)
	}
	if c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("retry.max_attempts must be > 0, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.BaseDelay.Duration() <= 0 {
		return fmt.Errorf("retry.base_delay must be > 0, got %s", c.Retry.BaseDelay.Duration())
	}
	if c.Tools.CommandTimeout.Duration() <= 0 {
		return fmt.Errorf("tools.command_timeout must be > 0, got %s", c.Tools.CommandTimeout.Duration())
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	return nil
}
