package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dvieira/kai/internal/config"
	"github.com/dvieira/kai/internal/models"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View and manage the kai configuration at ~/.kai/config.yml.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	RunE:  runConfigInit,
}

var configSetKeyCmd = &cobra.Command{
	Use:   "set-key",
	Short: "Set the API key",
	Long:  `Set the API key in the configuration file. The key is read without echo.`,
	RunE:  runConfigSetKey,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetKeyCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	path, err := config.GetConfigPath()
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("Config file: %s\n\n", path)
	model := cfg.Model
	if !models.IsKnownModel(model) {
		model += " (custom)"
	}

	fmt.Printf("api_key:           %s\n", cfg.MaskedKey())
	fmt.Printf("model:             %s\n", model)
	fmt.Printf("endpoint:          %s\n", cfg.EndpointOrDefault())
	fmt.Printf("timeout_seconds:   %d\n", cfg.TimeoutSeconds)
	fmt.Printf("max_tokens:        %d\n", cfg.MaxTokens)
	fmt.Printf("history_enabled:   %t\n", cfg.HistoryEnabled)
	fmt.Printf("copy_to_clipboard: %t\n", cfg.CopyToClipboard)
	fmt.Printf("tui_theme:         %s\n", cfg.TUITheme)
	fmt.Printf("log_level:         %s\n", cfg.LogLevel)
	if cfg.SystemPrompt != "" {
		fmt.Printf("system_prompt:     %s\n", cfg.SystemPrompt)
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path, err := config.WriteStarter()
	if err != nil {
		return err
	}
	fmt.Printf("Wrote starter config to %s\n", path)
	fmt.Println("Set your API key with 'kai config set-key'.")
	return nil
}

func runConfigSetKey(cmd *cobra.Command, args []string) error {
	fmt.Print("API key: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read key: %w", err)
	}

	key := strings.TrimSpace(string(raw))
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}

	path, err := config.SetKey(key)
	if err != nil {
		return err
	}
	fmt.Printf("API key saved to %s\n", path)
	return nil
}
