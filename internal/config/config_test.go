package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  port: 9090
  host: "0.0.0.0"

reference:
  sheet_id: "sheet-abc"
  timeout_seconds: 15
  duplicate_policy: "first_wins"

template:
  slides_id: "deck-xyz"
  cache_path: "/tmp/template.pptx"
  min_bytes: 500000

screenshot:
  provider: "browser"
  width: 1024
  height: 768
  timeout_seconds: 20

describe:
  provider: "bedrock"
  requests_per_minute: 10
  openai:
    model: "gpt-4o"
  bedrock:
    region: "ap-northeast-1"

report:
  workers: 8
  capture_timeout_seconds: 45
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	assert.Equal(t, "sheet-abc", cfg.Reference.SheetID)
	assert.Equal(t, 15, cfg.Reference.TimeoutSeconds)
	assert.Equal(t, "first_wins", cfg.Reference.DuplicatePolicy)
	assert.Equal(t, "https://docs.google.com/spreadsheets/d/sheet-abc/export?format=csv&gid=0", cfg.Reference.ExportURL())

	assert.Equal(t, "/tmp/template.pptx", cfg.Template.CachePath)
	assert.Equal(t, int64(500000), cfg.Template.MinBytes)
	assert.Equal(t, "https://docs.google.com/presentation/d/deck-xyz/export/pptx", cfg.Template.ExportURL())

	assert.Equal(t, "browser", cfg.Screenshot.Provider)
	assert.Equal(t, 1024, cfg.Screenshot.Width)
	assert.Equal(t, 768, cfg.Screenshot.Height)

	assert.Equal(t, "bedrock", cfg.Describe.Provider)
	assert.Equal(t, 10, cfg.Describe.RequestsPerMinute)
	assert.Equal(t, "gpt-4o", cfg.Describe.OpenAI.Model)
	assert.Equal(t, "ap-northeast-1", cfg.Describe.Bedrock.Region)

	assert.Equal(t, 8, cfg.Report.Workers)
	assert.Equal(t, 45, cfg.Report.CaptureTimeoutSeconds)
}

func TestLoadDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
reference:
  sheet_id: "sheet-abc"
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, "0", cfg.Reference.GID)
	assert.Equal(t, "last_wins", cfg.Reference.DuplicatePolicy)
	assert.Equal(t, "data/template.pptx", cfg.Template.CachePath)
	assert.Equal(t, int64(1_000_000), cfg.Template.MinBytes)
	assert.Equal(t, "api", cfg.Screenshot.Provider)
	assert.Equal(t, "https://shot.screenshotapi.net/screenshot", cfg.Screenshot.APIBaseURL)
	assert.Equal(t, 800, cfg.Screenshot.Width)
	assert.Equal(t, 600, cfg.Screenshot.Height)
	assert.Equal(t, "openai", cfg.Describe.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Describe.OpenAI.Model)
	assert.Equal(t, "https://api.openai.com/v1", cfg.Describe.OpenAI.BaseURL)
	assert.Equal(t, "anthropic.claude-3-sonnet-20240229-v1:0", cfg.Describe.Bedrock.ModelID)
	assert.Equal(t, "ja", cfg.Describe.DefaultLanguage)
	assert.Equal(t, 4, cfg.Report.Workers)
	assert.Equal(t, 5, cfg.Report.DefaultCases)
	assert.Equal(t, 20, cfg.Report.MaxCases)
	assert.Equal(t, 16, cfg.Upload.MaxUploadMB)
	assert.Equal(t, int64(16<<20), cfg.Upload.MaxBytes())
	assert.Equal(t, 30, cfg.Session.TTLMinutes)
	assert.Equal(t, 64, cfg.Session.MaxSessions)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  port: 8080\n"), 0644))

	t.Setenv("PORT", "3000")
	t.Setenv("GOOGLE_SHEET_ID", "env-sheet")
	t.Setenv("GOOGLE_SLIDES_ID", "env-slides")
	t.Setenv("SCREENSHOT_API_TOKEN", "env-token")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("DESCRIBE_PROVIDER", "bedrock")

	cfg, err := LoadFromEnv(configPath)
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "env-sheet", cfg.Reference.SheetID)
	assert.Equal(t, "env-slides", cfg.Template.SlidesID)
	assert.Equal(t, "env-token", cfg.Screenshot.Token)
	assert.Equal(t, "sk-env", cfg.Describe.OpenAI.APIKey)
	assert.Equal(t, "bedrock", cfg.Describe.Provider)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
