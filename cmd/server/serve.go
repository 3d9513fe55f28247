package main

import (
	"github.com/spf13/cobra"
)

// buildServeCmd creates the "serve" command that starts the HTTP server.
func buildServeCmd() *cobra.Command {
	var (
		configPath   string
		debug        bool
		archivesDir  string
		searchAddr   string
		searchAPIKey string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Conversa HTTP server",
		Long: `Start the Conversa HTTP server with the configured LLM providers,
search mirror, and archive store.

The server will:
1. Load configuration from the specified file (or conversa.toml)
2. Open the SQLite working database and apply its schema
3. Construct the configured LLM providers
4. Start the HTTP server for chat/flow completions, search, and session time

Graceful shutdown is handled on SIGINT/SIGTERM signals.`,
		Example: `  # Start with default config
  conversa serve

  # Start with custom config
  conversa serve --config /etc/conversa/production.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				configPath = defaultConfigPath()
			}
			return runServe(cmd.Context(), serveOptions{
				configPath:   configPath,
				debug:        debug,
				archivesDir:  archivesDir,
				searchAddr:   searchAddr,
				searchAPIKey: searchAPIKey,
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to TOML configuration file")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	cmd.Flags().StringVar(&archivesDir, "archives-dir", "archives", "Directory holding archived session databases (C10)")
	cmd.Flags().StringVar(&searchAddr, "search-addr", "", "Meilisearch base URL (e.g. http://127.0.0.1:7700); empty disables the search mirror")
	cmd.Flags().StringVar(&searchAPIKey, "search-api-key", "", "Meilisearch API key")

	return cmd
}
