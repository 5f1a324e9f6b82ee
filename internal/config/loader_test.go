package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 12, cfg.Orchestrator.MaxIterations)
	assert.Equal(t, []string{"coding"}, cfg.Orchestrator.InterruptBefore)
	assert.Equal(t, 25, cfg.Orchestrator.MaxToolRounds)
	assert.Equal(t, "projects", cfg.Orchestrator.ProjectsRoot)
	assert.Equal(t, 7, cfg.Retry.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Retry.BaseDelay.Duration())
	assert.Equal(t, 120*time.Second, cfg.Tools.CommandTimeout.Duration())
	assert.Contains(t, cfg.Tools.TestCommand, "pytest")
	assert.False(t, cfg.Telemetry.Enabled)
}

func TestLoad_ValidYAML(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
  format: json
orchestrator:
  max_iterations: 5
  interrupt_before: [coding, monitoring]
  projects_root: /tmp/work
retry:
  max_attempts: 3
  base_delay: 500ms
tools:
  test_command: go test ./...
models:
  default: gpt-4o-mini
  roles:
    coding: o3
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 5, cfg.Orchestrator.MaxIterations)
	assert.Equal(t, []string{"coding", "monitoring"}, cfg.Orchestrator.InterruptBefore)
	assert.Equal(t, "/tmp/work", cfg.Orchestrator.ProjectsRoot)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.BaseDelay.Duration())
	assert.Equal(t, "go test ./...", cfg.Tools.TestCommand)
	assert.Equal(t, "gpt-4o-mini", cfg.Models.Default)
	assert.Equal(t, "o3", cfg.Models.Roles["coding"])
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
retry:
  max_attempts: 3
`)
	t.Setenv("ORCHESTRD_RETRY_MAX_ATTEMPTS", "9")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Retry.MaxAttempts)
}

func TestLoad_APIKeyFromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test-123")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "sk-test-123", cfg.Models.APIKey)
}

func TestLoad_ModelEnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_MODEL", "gpt-4o-mini")
	t.Setenv("OPENAI_MODEL_CODING", "o3")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", cfg.Models.Default)
	assert.Equal(t, "o3", cfg.Models.Roles["coding"])
}

func TestLoad_FileRoleOverrideBeatsEnv(t *testing.T) {
	path := writeConfig(t, `
models:
  roles:
    coding: o4-mini
`)
	t.Setenv("OPENAI_MODEL_CODING", "o3")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "o4-mini", cfg.Models.Roles["coding"])
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "logging: [unclosed")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file")
}

func TestLoad_OversizedFileRejected(t *testing.T) {
	content := "# " + strings.Repeat("x", maxConfigFileSize)
	path := writeConfig(t, content)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
retry:
  max_attempts: -1
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retry.max_attempts")
}

func TestDuration_TextRoundTrip(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("90s")))
	assert.Equal(t, 90*time.Second, d.Duration())

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(text))

	require.Error(t, d.UnmarshalText([]byte("-5s")))
	require.Error(t, d.UnmarshalText([]byte("bogus")))
}
