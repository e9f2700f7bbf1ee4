package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// starterTemplate is written by `kai config init`. Kept as a literal so the
// generated file carries the comments.
const starterTemplate = `# kai configuration
# Required: API key for the assistant endpoint.
api_key: ""

# Model identifier sent with every request.
model: "%s"

# Optional: override the chat-completions endpoint.
# endpoint: "https://api.openai.com/v1/chat/completions"

timeout_seconds: %d
max_tokens: %d
history_enabled: %t
tui_theme: "%s"
log_level: "%s"
`

// WriteStarter writes a commented starter config file. It refuses to
// overwrite an existing file.
func WriteStarter() (string, error) {
	dir, err := EnsureConfigDir()
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, "config.yml")
	if _, err := os.Stat(path); err == nil {
		return path, fmt.Errorf("config file already exists: %s", path)
	}

	def := DefaultConfig()
	content := fmt.Sprintf(starterTemplate,
		def.Model, def.TimeoutSeconds, def.MaxTokens, def.HistoryEnabled, def.TUITheme, def.LogLevel)

	// 0o600: the file will hold the API key
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return path, nil
}

// SetKey updates api_key in the config file in place, preserving the other
// keys. The file is created with defaults when missing.
func SetKey(key string) (string, error) {
	dir, err := EnsureConfigDir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "config.yml")

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return "", fmt.Errorf("cannot read existing config: %w", err)
		}
	} else {
		def := DefaultConfig()
		v.Set("model", def.Model)
		v.Set("timeout_seconds", def.TimeoutSeconds)
		v.Set("max_tokens", def.MaxTokens)
		v.Set("history_enabled", def.HistoryEnabled)
		v.Set("tui_theme", def.TUITheme)
		v.Set("log_level", def.LogLevel)
	}

	v.Set("api_key", key)

	if err := v.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	// viper writes 0o644; tighten since the file holds the key
	if err := os.Chmod(path, 0o600); err != nil {
		return "", fmt.Errorf("failed to restrict config permissions: %w", err)
	}

	return path, nil
}
