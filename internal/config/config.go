package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Reference  ReferenceConfig  `yaml:"reference"`
	Template   TemplateConfig   `yaml:"template"`
	Screenshot ScreenshotConfig `yaml:"screenshot"`
	Describe   DescribeConfig   `yaml:"describe"`
	Report     ReportConfig     `yaml:"report"`
	Upload     UploadConfig     `yaml:"upload"`
	Session    SessionConfig    `yaml:"session"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// Addr returns the host:port listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ReferenceConfig locates the hosted reference sheet (business id ->
// account name / industry / territory).
type ReferenceConfig struct {
	SheetID        string `yaml:"sheet_id"`
	GID            string `yaml:"gid"`
	URL            string `yaml:"url"` // full override; wins over sheet_id when set
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	// last_wins (default) or first_wins on duplicate business ids.
	DuplicatePolicy string `yaml:"duplicate_policy"`
}

// Timeout returns the reference fetch timeout.
func (c ReferenceConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ExportURL resolves the CSV export URL for the configured sheet.
func (c ReferenceConfig) ExportURL() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/export?format=csv&gid=%s", c.SheetID, c.GID)
}

// TemplateConfig locates the slide-deck template and its local cache.
type TemplateConfig struct {
	SlidesID       string `yaml:"slides_id"`
	URL            string `yaml:"url"` // full override; wins over slides_id when set
	CachePath      string `yaml:"cache_path"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	// Downloads smaller than this are almost always an HTML error page
	// from a non-public deck, not a template.
	MinBytes int64 `yaml:"min_bytes"`
}

// Timeout returns the template download timeout.
func (c TemplateConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ExportURL resolves the PPTX export URL for the configured deck.
func (c TemplateConfig) ExportURL() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("https://docs.google.com/presentation/d/%s/export/pptx", c.SlidesID)
}

// ScreenshotConfig selects and tunes the screenshot provider.
type ScreenshotConfig struct {
	Provider       string `yaml:"provider"` // "api" or "browser"
	APIBaseURL     string `yaml:"api_base_url"`
	Token          string `yaml:"token"`
	Width          int    `yaml:"width"`
	Height         int    `yaml:"height"`
	FullPage       bool   `yaml:"full_page"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the per-capture timeout.
func (c ScreenshotConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DescribeConfig selects and tunes the description provider.
type DescribeConfig struct {
	Provider          string        `yaml:"provider"` // "openai" or "bedrock"
	OpenAI            OpenAIConfig  `yaml:"openai"`
	Bedrock           BedrockConfig `yaml:"bedrock"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	DefaultLanguage   string        `yaml:"default_language"` // "ja" or "en"
}

// OpenAIConfig holds OpenAI chat completion settings.
type OpenAIConfig struct {
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	BaseURL        string `yaml:"base_url"`
	MaxTokens      int    `yaml:"max_tokens"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the OpenAI request timeout.
func (c OpenAIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// BedrockConfig holds AWS Bedrock settings.
type BedrockConfig struct {
	ModelID string `yaml:"model_id"`
	Region  string `yaml:"region"`
}

// ReportConfig tunes the report generation pool.
type ReportConfig struct {
	Workers               int `yaml:"workers"`
	CaptureTimeoutSeconds int `yaml:"capture_timeout_seconds"`
	DefaultCases          int `yaml:"default_cases"`
	MaxCases              int `yaml:"max_cases"`
}

// CaptureTimeout bounds each external capture call (screenshot or text).
func (c ReportConfig) CaptureTimeout() time.Duration {
	return time.Duration(c.CaptureTimeoutSeconds) * time.Second
}

// UploadConfig bounds the upload surface.
type UploadConfig struct {
	MaxUploadMB int `yaml:"max_upload_mb"`
}

// MaxBytes returns the multipart body cap in bytes.
func (c UploadConfig) MaxBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// SessionConfig tunes the in-memory session store.
type SessionConfig struct {
	TTLMinutes  int `yaml:"ttl_minutes"`
	MaxSessions int `yaml:"max_sessions"`
}

// TTL returns the session lifetime.
func (c SessionConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Reference.GID == "" {
		cfg.Reference.GID = "0"
	}
	if cfg.Reference.TimeoutSeconds == 0 {
		cfg.Reference.TimeoutSeconds = 30
	}
	if cfg.Reference.DuplicatePolicy == "" {
		cfg.Reference.DuplicatePolicy = "last_wins"
	}
	if cfg.Template.CachePath == "" {
		cfg.Template.CachePath = "data/template.pptx"
	}
	if cfg.Template.TimeoutSeconds == 0 {
		cfg.Template.TimeoutSeconds = 60
	}
	if cfg.Template.MinBytes == 0 {
		cfg.Template.MinBytes = 1_000_000
	}
	if cfg.Screenshot.Provider == "" {
		cfg.Screenshot.Provider = "api"
	}
	if cfg.Screenshot.APIBaseURL == "" {
		cfg.Screenshot.APIBaseURL = "https://shot.screenshotapi.net/screenshot"
	}
	if cfg.Screenshot.Width == 0 {
		cfg.Screenshot.Width = 800
	}
	if cfg.Screenshot.Height == 0 {
		cfg.Screenshot.Height = 600
	}
	if cfg.Screenshot.TimeoutSeconds == 0 {
		cfg.Screenshot.TimeoutSeconds = 30
	}
	if cfg.Describe.Provider == "" {
		cfg.Describe.Provider = "openai"
	}
	if cfg.Describe.OpenAI.Model == "" {
		cfg.Describe.OpenAI.Model = "gpt-4o-mini"
	}
	if cfg.Describe.OpenAI.BaseURL == "" {
		cfg.Describe.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Describe.OpenAI.MaxTokens == 0 {
		cfg.Describe.OpenAI.MaxTokens = 500
	}
	if cfg.Describe.OpenAI.TimeoutSeconds == 0 {
		cfg.Describe.OpenAI.TimeoutSeconds = 60
	}
	if cfg.Describe.Bedrock.ModelID == "" {
		cfg.Describe.Bedrock.ModelID = "anthropic.claude-3-sonnet-20240229-v1:0"
	}
	if cfg.Describe.Bedrock.Region == "" {
		cfg.Describe.Bedrock.Region = "us-east-1"
	}
	if cfg.Describe.RequestsPerMinute == 0 {
		cfg.Describe.RequestsPerMinute = 30
	}
	if cfg.Describe.DefaultLanguage == "" {
		cfg.Describe.DefaultLanguage = "ja"
	}
	if cfg.Report.Workers == 0 {
		cfg.Report.Workers = 4
	}
	if cfg.Report.CaptureTimeoutSeconds == 0 {
		cfg.Report.CaptureTimeoutSeconds = 30
	}
	if cfg.Report.DefaultCases == 0 {
		cfg.Report.DefaultCases = 5
	}
	if cfg.Report.MaxCases == 0 {
		cfg.Report.MaxCases = 20
	}
	if cfg.Upload.MaxUploadMB == 0 {
		cfg.Upload.MaxUploadMB = 16
	}
	if cfg.Session.TTLMinutes == 0 {
		cfg.Session.TTLMinutes = 30
	}
	if cfg.Session.MaxSessions == 0 {
		cfg.Session.MaxSessions = 64
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It loads a .env file first (if present) so secrets can live in .env
// locally and in real env vars on the deployment platform.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if v := os.Getenv("GOOGLE_SHEET_ID"); v != "" {
		cfg.Reference.SheetID = v
	}
	if v := os.Getenv("GOOGLE_SLIDES_ID"); v != "" {
		cfg.Template.SlidesID = v
	}
	if v := os.Getenv("TEMPLATE_PPTX_URL"); v != "" {
		cfg.Template.URL = v
	}
	if v := os.Getenv("TEMPLATE_CACHE_PATH"); v != "" {
		cfg.Template.CachePath = v
	}
	if v := os.Getenv("SCREENSHOT_API_TOKEN"); v != "" {
		cfg.Screenshot.Token = v
	}
	if v := os.Getenv("SCREENSHOT_PROVIDER"); v != "" {
		cfg.Screenshot.Provider = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Describe.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.Describe.OpenAI.Model = v
	}
	if v := os.Getenv("DESCRIBE_PROVIDER"); v != "" {
		cfg.Describe.Provider = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Describe.Bedrock.Region = v
	}

	return cfg, nil
}
