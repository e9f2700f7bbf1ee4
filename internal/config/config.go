// Package config handles configuration loading for kai.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	apierrors "github.com/dvieira/kai/internal/errors"
	"github.com/dvieira/kai/internal/models"
)

// Config represents the user configuration. Loaded once at dialog
// construction and read-only thereafter.
type Config struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
	// Endpoint overrides the chat-completions URL. Empty means the default
	// OpenAI endpoint.
	Endpoint string `mapstructure:"endpoint"`
	// TimeoutSeconds bounds every assistant request.
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	// MaxTokens caps the length of a generated reply.
	MaxTokens int `mapstructure:"max_tokens"`
	// SystemPrompt, when set, is sent ahead of the transcript.
	SystemPrompt string `mapstructure:"system_prompt"`
	// HistoryEnabled persists completed dialog transcripts to disk.
	HistoryEnabled  bool   `mapstructure:"history_enabled"`
	TUITheme        string `mapstructure:"tui_theme"`
	CopyToClipboard bool   `mapstructure:"copy_to_clipboard"`
	LogLevel        string `mapstructure:"log_level"`
}

// DefaultConfig returns the default configuration. The API key has no
// default; Validate rejects a config without one.
func DefaultConfig() Config {
	return Config{
		Model:          models.DefaultModel,
		TimeoutSeconds: 120,
		MaxTokens:      1024,
		HistoryEnabled: true,
		TUITheme:       "tokyonight",
		LogLevel:       "info",
	}
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".kai"), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	// 0o700: the directory holds the API key
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yml"), nil
}

// Load reads the configuration from the default location.
func Load() (Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return DefaultConfig(), apierrors.NewConfigError("", "", "cannot resolve config path", err)
	}
	return LoadFrom(path)
}

// LoadFrom reads the configuration from path. A missing file, malformed
// content, or a missing api_key all produce a *errors.ConfigError; the
// dialog must not open on any of them.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, apierrors.NewConfigError(path, "",
				"config file not found; run 'kai config init' to create one", err)
		}
		return cfg, apierrors.NewConfigError(path, "", "cannot read config file", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("model", cfg.Model)
	v.SetDefault("timeout_seconds", cfg.TimeoutSeconds)
	v.SetDefault("max_tokens", cfg.MaxTokens)
	v.SetDefault("history_enabled", cfg.HistoryEnabled)
	v.SetDefault("tui_theme", cfg.TUITheme)
	v.SetDefault("log_level", cfg.LogLevel)

	if err := v.ReadInConfig(); err != nil {
		return DefaultConfig(), apierrors.NewConfigError(path, "", "malformed config file", err)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return DefaultConfig(), apierrors.NewConfigError(path, "", "cannot decode config file", err)
	}

	if err := cfg.Validate(path); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks required keys and value ranges. path is only used for
// error reporting.
func (c Config) Validate(path string) error {
	if strings.TrimSpace(c.APIKey) == "" {
		return apierrors.NewConfigError(path, "api_key", "missing required key", nil)
	}
	if strings.TrimSpace(c.Model) == "" {
		return apierrors.NewConfigError(path, "model", "model must not be empty", nil)
	}
	if c.TimeoutSeconds <= 0 {
		return apierrors.NewConfigError(path, "timeout_seconds", "timeout must be positive", nil)
	}
	if c.MaxTokens <= 0 {
		return apierrors.NewConfigError(path, "max_tokens", "max_tokens must be positive", nil)
	}
	return nil
}

// EndpointOrDefault returns the configured endpoint or the default one.
func (c Config) EndpointOrDefault() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return models.DefaultEndpoint
}

// MaskedKey returns the API key with all but the last four characters
// hidden, for display.
func (c Config) MaskedKey() string {
	key := strings.TrimSpace(c.APIKey)
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
