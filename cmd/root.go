package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kayz/contentkit/internal/config"
	"github.com/kayz/contentkit/internal/logger"
	"github.com/kayz/contentkit/internal/promptbuild"
	"github.com/kayz/contentkit/internal/security"
)

var (
	logLevel   string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "contentkit",
	Short: "Assemble chat content payloads from prompts, context and images",
	Long: `contentkit builds the JSON content array sent to chat-style LLM APIs.

Commands:
  contentkit assemble   Assemble a payload from a request file
  contentkit schema     Print the JSON Schema of request files
  contentkit records    Inspect recorded assemblies
  contentkit prune      Remove audit files and records past retention`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEnvFiles(); err != nil {
			return err
		}

		level := logLevel
		if !cmd.Flags().Changed("log") {
			if v := os.Getenv("CONTENTKIT_LOG_LEVEL"); v != "" {
				level = v
			}
		}
		// Parse and set log level
		parsed, err := logger.ParseLevel(level)
		if err != nil {
			return err
		}
		logger.SetLevel(parsed)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info",
		"Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file (default: .contentkit.yaml next to the executable)")
}

// loadEnvFiles loads .env.local and .env from the working directory when present.
func loadEnvFiles() error {
	for _, file := range []string{".env.local", ".env"} {
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return nil
}

// loadConfig reads the config file selected by --config and applies
// CONTENTKIT_* environment overrides.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromPath(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.ApplyEnv()
	if err := applyLogging(cfg.Logging); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyLogging applies the config file's logging section. The --log flag
// and CONTENTKIT_LOG_LEVEL take priority over the file level.
func applyLogging(lc config.LoggingConfig) error {
	if !rootCmd.PersistentFlags().Changed("log") && os.Getenv("CONTENTKIT_LOG_LEVEL") == "" && lc.Level != "" {
		level, err := logger.ParseLevel(lc.Level)
		if err != nil {
			return fmt.Errorf("logging.level: %w", err)
		}
		logger.SetLevel(level)
	}
	if lc.File != "" {
		f, err := os.OpenFile(lc.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		logger.SetOutput(f)
	}
	return nil
}

// newBuilder creates a promptbuild.Builder restricted to the configured
// allowed paths.
func newBuilder(cfg *config.Config) *promptbuild.Builder {
	paths := security.NewPathChecker(cfg.Security.AllowedPaths)
	if paths.Restricted() {
		logger.Debug("File access restricted to %v", paths.Roots())
	}
	return promptbuild.NewBuilder(cfg.PromptBuild, paths)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
