// Package main provides the CLI entry point for the Conversa character
// simulation server.
//
// Conversa runs virtual characters that chat, schedule, and remember
// against a session's own virtual clock (C1), backed by SQLite (C2) and
// mirrored into Meilisearch for search (C3).
//
// # Basic Usage
//
// Start the server:
//
//	conversa serve --config conversa.toml
//
// # Environment Variables
//
// Configuration can be provided via environment variables:
//
//   - CONVERSA_CONFIG: Path to configuration file (default: conversa.toml)
//   - ANTHROPIC_API_KEY: Anthropic API key for Claude models
//   - OPENAI_API_KEY: OpenAI API key for GPT models
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

// buildRootCmd creates the root command with all subcommands attached.
// Separated from main() to facilitate testing.
func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "conversa",
		Short: "Conversa - virtual character simulation server",
		Long: `Conversa runs virtual characters against a per-session virtual
clock, backed by SQLite and mirrored into Meilisearch for search.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		buildServeCmd(),
	)

	return rootCmd
}

func defaultConfigPath() string {
	if p := os.Getenv("CONVERSA_CONFIG"); p != "" {
		return p
	}
	return "conversa.toml"
}
