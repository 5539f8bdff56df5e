// Command deskai runs the DeskAI routing backend and its CLI.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/deskai/deskai/internal/config"
	apperrors "github.com/deskai/deskai/internal/errors"
)

var (
	cfg        *config.Config
	logger     zerolog.Logger
	configPath string
	logLevel   string
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: ")+apperrors.FormatUserMessage(err))
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "deskai",
		Short: "Local AI desktop assistant backend",
		Long: `DeskAI routes requests either to a local language model served by an
Ollama-compatible inference service or to a built-in tool, and answers with
a uniform JSON envelope.

Examples:
  deskai serve
  deskai ask "summarize this paragraph ..."
  deskai ask --model calculator "12 * (3 + 4)"
  deskai tool file_search query=report
  deskai models --available`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.LoadDotEnv()

			path := configPath
			if path == "" {
				path = config.DefaultConfigPath()
			}
			var err error
			cfg, err = config.Load(path)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger = newLogger(cfg.Log.Level)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: <data dir>/config.toml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(serveCmd())
	root.AddCommand(askCmd())
	root.AddCommand(toolCmd())
	root.AddCommand(modelsCmd())
	root.AddCommand(toolsCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(statsCmd())

	return root
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}
