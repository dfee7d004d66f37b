/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/rawbin/pkg/config"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the rawbin REST API server. Conversion, inspection and the
conversion catalog are served under /api/v1 and require the X-API-Key
header; Prometheus metrics are served at /metrics.

When server.api_key is "auto" or empty a key is generated for this run
and printed.

Examples:
  rawbin serve
  rawbin serve --port 9000 --bind 0.0.0.0
  rawbin serve --api-key mysecretkey --catalog`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := container.Config()
		if err := applyServeFlags(cmd, cfg); err != nil {
			return err
		}

		if cfg.Server.APIKey == "" || cfg.Server.APIKey == "auto" {
			key, err := config.GenerateSecureKey(32)
			if err != nil {
				return err
			}
			cfg.Server.APIKey = key
			cmd.Printf("🔑 Generated API key for this run: %s\n", key)
		}

		conv, err := container.Converter()
		if err != nil {
			return err
		}
		cat, err := container.CatalogReader()
		if err != nil {
			return err
		}

		cmd.Printf("🚀 Starting rawbin server on %s:%d\n", cfg.Server.Bind, cfg.Server.Port)
		if cat != nil {
			cmd.Printf("📁 Catalog: %s\n", cfg.Catalog.Dir)
		}

		starter := container.GetServerFactory().CreateServerStarter()
		return starter.StartServer(cmd.Context(), conv, cat, container.Metrics(), container.ServerConfig())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().String("bind", "127.0.0.1", "Address to bind server to")
	serveCmd.Flags().String("api-key", "", "API key required in the X-API-Key header")
	addCatalogFlags(serveCmd)
}

// applyServeFlags copies explicitly set flags over the configuration
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Server.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("bind") {
		cfg.Server.Bind, _ = flags.GetString("bind")
	}
	if flags.Changed("api-key") {
		cfg.Server.APIKey, _ = flags.GetString("api-key")
	}
	applyCatalogFlags(cmd, cfg)
	return cfg.Validate()
}
