// Package main is the entry point for the hpn-blueprint server and CLI.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hpn/hpn-blueprint/internal/config"
	"github.com/hpn/hpn-blueprint/internal/security"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "v0.1.0"

var (
	configPath string
	noColor    bool
)

var rootCmd = &cobra.Command{
	Use:   "blueprint",
	Short: "Turn a list of requirements into a project blueprint",
	Long: "Blueprint sends a requirements list to an LLM provider and returns an SRS, a flow diagram,\n" +
		"a SQL schema, a design brief, a tech stack, a project structure and references.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: ./config.yaml, ./configs, /etc/hpn-blueprint)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable coloured console output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads configuration through the singleton so every subcommand sees the same values.
func loadConfig() (*config.Configuration, error) {
	if configPath != "" {
		return config.GetConfigWithPath(configPath)
	}
	return config.GetConfig()
}

// setupLogger creates the structured logger described by cfg.
// Every handler is wrapped so API keys never reach the output.
func setupLogger(cfg config.LoggingConfig) (*slog.Logger, func() error, error) {
	var out io.Writer = os.Stdout
	closeFn := func() error { return nil }

	if cfg.OutputPath != "" {
		f, err := os.OpenFile(cfg.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = f
		closeFn = f.Close
	}

	logger := newLogger(out, cfg.Level, cfg.Format)
	slog.SetDefault(logger)
	return logger, closeFn, nil
}

func newLogger(out io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var inner slog.Handler
	if strings.EqualFold(format, "text") {
		inner = slog.NewTextHandler(out, opts)
	} else {
		inner = slog.NewJSONHandler(out, opts)
	}

	return slog.New(security.NewRedactedHandler(inner))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
