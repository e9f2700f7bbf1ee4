// Package commands provides the CLI commands for kai.
package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dvieira/kai/internal/config"
	"github.com/dvieira/kai/internal/logging"
)

var (
	// Global flags
	modelFlag  string
	outputFlag string
	fileFlag   string

	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "kai [prompt]",
	Short: "AI assistant in your terminal",
	Long: `kai is a terminal AI assistant backed by an OpenAI-compatible
chat completions API.

Examples:
  kai chat                        Open the interactive chat dialog
  kai config init                 Write a starter configuration
  kai "What is Go?"               Send a single query
  kai -f prompt.md                Read prompt from file
  cat prompt.md | kai             Read prompt from stdin
  kai "Hello" -o response.md      Save response to file`,
	Args: cobra.MaximumNArgs(1),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogging()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("kai %s (built %s)\n", Version, BuildTime)
			return nil
		}

		stat, _ := os.Stdin.Stat()
		hasStdin := (stat.Mode() & os.ModeCharDevice) == 0

		if fileFlag != "" {
			data, err := os.ReadFile(fileFlag)
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}
			return runQuery(string(data), !isStdoutTTY())
		}

		if hasStdin {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
			return runQuery(string(data), !isStdoutTTY())
		}

		if len(args) > 0 {
			return runQuery(args[0], !isStdoutTTY())
		}

		return cmd.Help()
	},
}

// Execute runs the root command
func Execute() {
	defer logging.Sync()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", "", "Model to use (e.g., gpt-4o-mini)")
	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Save response to file")
	rootCmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read prompt from file")
	rootCmd.Flags().BoolP("version", "v", false, "Show version and exit")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(historyCmd)
	registerChat(rootCmd)
}

// initLogging wires the file logger before any command runs. Failures
// leave the no-op logger in place; the CLI still works without logs.
func initLogging() {
	dir, err := config.EnsureConfigDir()
	if err != nil {
		return
	}
	cfg, err := config.Load()
	level := "info"
	if err == nil {
		level = cfg.LogLevel
	}
	_ = logging.Init(level, logging.DefaultLogPath(dir))
}

// loadConfig resolves the configuration with the --model flag applied
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if modelFlag != "" {
		cfg.Model = modelFlag
	}
	return cfg, nil
}
