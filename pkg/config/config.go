// Package config loads runtime configuration from ~/.scriptflow/config.yaml
// and the environment. Environment variables take precedence over the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Default attempt budgets per stage.
const (
	DefaultPlanAttempts   = 3
	DefaultReviewAttempts = 2
	DefaultScriptAttempts = 3
	DefaultRepairAttempts = 3
)

// Config holds the application configuration.
type Config struct {
	AnthropicAPIKey string
	OpenAIAPIKey    string
	GoogleAPIKey    string
	// LocalBaseURL points at an OpenAI-compatible local endpoint (Ollama).
	// Empty means no local oracle is available.
	LocalBaseURL string
	LocalModel   string

	ArtifactsRoot string
	HistoryPath   string

	Attempts AttemptBudgets

	RunnerCommand   string
	RunnerTimeout   time.Duration
	RecorderCommand string
	RecorderTimeout time.Duration

	ConfigDir string
}

// AttemptBudgets bounds oracle calls per stage.
type AttemptBudgets struct {
	Plan   int
	Review int
	Script int
	Repair int
}

// FileConfig represents the structure of ~/.scriptflow/config.yaml
type FileConfig struct {
	APIKeys   APIKeysConfig   `yaml:"api_keys"`
	Local     LocalConfig     `yaml:"local"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	History   HistoryConfig   `yaml:"history"`
	Attempts  AttemptsConfig  `yaml:"attempts"`
	Runner    ToolConfig      `yaml:"runner"`
	Recorder  ToolConfig      `yaml:"recorder"`
}

// APIKeysConfig holds API key configuration from file.
type APIKeysConfig struct {
	Anthropic string `yaml:"anthropic"`
	OpenAI    string `yaml:"openai"`
	Google    string `yaml:"google"`
}

// LocalConfig holds the local oracle endpoint configuration.
type LocalConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// ArtifactsConfig holds the artifact layout configuration.
type ArtifactsConfig struct {
	Root string `yaml:"root"`
}

// HistoryConfig holds the run-history store configuration.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// AttemptsConfig holds per-stage attempt budgets from file.
type AttemptsConfig struct {
	Plan   int `yaml:"plan"`
	Review int `yaml:"review"`
	Script int `yaml:"script"`
	Repair int `yaml:"repair"`
}

// ToolConfig holds an external tool command and timeout.
type ToolConfig struct {
	Command        string `yaml:"command"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Load reads configuration from the config file and environment variables.
// Environment variables take precedence over file configuration.
func Load() (*Config, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	fileConfig := loadFileConfig(filepath.Join(configDir, "config.yaml"))

	cfg := &Config{
		AnthropicAPIKey: getEnvOrDefault("ANTHROPIC_API_KEY", fileConfig.APIKeys.Anthropic),
		OpenAIAPIKey:    getEnvOrDefault("OPENAI_API_KEY", fileConfig.APIKeys.OpenAI),
		GoogleAPIKey:    getEnvOrDefault("GOOGLE_API_KEY", fileConfig.APIKeys.Google),
		LocalBaseURL:    getEnvOrDefault("SCRIPTFLOW_LOCAL_URL", fileConfig.Local.BaseURL),
		LocalModel:      fileConfig.Local.Model,
		ArtifactsRoot:   getEnvOrDefault("SCRIPTFLOW_ARTIFACTS", fileConfig.Artifacts.Root),
		HistoryPath:     fileConfig.History.Path,
		Attempts: AttemptBudgets{
			Plan:   orDefault(fileConfig.Attempts.Plan, DefaultPlanAttempts),
			Review: orDefault(fileConfig.Attempts.Review, DefaultReviewAttempts),
			Script: orDefault(fileConfig.Attempts.Script, DefaultScriptAttempts),
			Repair: orDefault(fileConfig.Attempts.Repair, DefaultRepairAttempts),
		},
		RunnerCommand:   fileConfig.Runner.Command,
		RunnerTimeout:   time.Duration(fileConfig.Runner.TimeoutSeconds) * time.Second,
		RecorderCommand: fileConfig.Recorder.Command,
		RecorderTimeout: time.Duration(fileConfig.Recorder.TimeoutSeconds) * time.Second,
		ConfigDir:       configDir,
	}

	if cfg.ArtifactsRoot == "" {
		cfg.ArtifactsRoot = "artifacts"
	}
	if cfg.HistoryPath == "" {
		cfg.HistoryPath = filepath.Join(configDir, "history.db")
	}

	return cfg, nil
}

// HasAdapter returns true if the API key (or endpoint, for local) for the
// given adapter is configured.
func (c *Config) HasAdapter(name string) bool {
	switch name {
	case "anthropic":
		return c.AnthropicAPIKey != ""
	case "openai":
		return c.OpenAIAPIKey != ""
	case "google":
		return c.GoogleAPIKey != ""
	case "local":
		return c.LocalBaseURL != ""
	default:
		return false
	}
}

// loadFileConfig reads the config file, returning empty config if not found.
func loadFileConfig(path string) *FileConfig {
	cfg := &FileConfig{}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg // Return empty config if file doesn't exist
	}

	_ = yaml.Unmarshal(data, cfg) // Ignore parse errors, use defaults
	return cfg
}

// getEnvOrDefault returns the environment variable value if set,
// otherwise returns the default value.
func getEnvOrDefault(envVar, defaultValue string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return defaultValue
}

func orDefault(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}

func getConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(home, ".scriptflow")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}
	return configDir, nil
}
