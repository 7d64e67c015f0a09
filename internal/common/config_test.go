package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv(ConfigPathEnv, "")
	t.Setenv("DB_URL", "")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.LLM.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.LLM.BackoffBase)
	assert.Equal(t, 40.0, cfg.Validation.MaxMinutes)
	assert.Equal(t, 0, cfg.Consistency.Tolerance)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "boxscore.toml")
	body := `
log_level = "debug"

[database]
dsn = "file:from-file.db"
dial_timeout = "7s"

[llm]
model = "file-model"
max_attempts = 5
backoff_base = "250ms"

[validation]
max_minutes = 48.0

[consistency]
tolerance = 1

[consistency.category_tolerance]
fouls = 2
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	t.Setenv("OPENAI_MODEL", "env-model")
	t.Setenv("DB_URL", "")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "file:from-file.db", cfg.Database.DSN)
	assert.Equal(t, 7*time.Second, cfg.Database.DialTimeout)
	assert.Equal(t, "env-model", cfg.LLM.Model)
	assert.Equal(t, 5, cfg.LLM.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.LLM.BackoffBase)
	assert.Equal(t, 48.0, cfg.Validation.MaxMinutes)
	assert.Equal(t, 1, cfg.Consistency.Tolerance)
	assert.Equal(t, 2, cfg.Consistency.CategoryTolerance["fouls"])
}

func TestLoadConfigRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[llm]\ntimeout = \"soon\"\n"), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm.timeout")
}

func TestValidateForExtractionRequiresKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.APIKey = ""
	err := cfg.ValidateForExtraction()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)

	cfg.LLM.APIKey = "sk-test"
	assert.NoError(t, cfg.ValidateForExtraction())
}
