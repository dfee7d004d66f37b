/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ssargent/rawbin/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the rawbin configuration file",
	// The file may not exist yet, so skip loading it
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file with a generated API key",
	Long: `Create a configuration file with default settings and a freshly
generated server API key.

Examples:
  rawbin config init
  rawbin config init --config ./rawbin.yaml --output-dir ./bin --print-keys`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		outputDir, _ := cmd.Flags().GetString("output-dir")
		force, _ := cmd.Flags().GetBool("force")
		printKeys, _ := cmd.Flags().GetBool("print-keys")

		cfg, path, err := initConfig(configPath, outputDir, force)
		if err != nil {
			return err
		}

		cmd.Printf("✅ Configuration created at %s\n", path)
		if printKeys {
			cmd.Printf("\n🔑 API Key: %s\n", cfg.Server.APIKey)
			cmd.Printf("\n⚠️  Store this key securely! It is also saved in %s\n", path)
		}
		return nil
	},
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		cmd.Print(string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	configInitCmd.Flags().String("output-dir", "", "Directory for binary files (default: next to each input)")
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing configuration file")
	configInitCmd.Flags().Bool("print-keys", false, "Print the generated API key to console")
}

// initConfig bootstraps a configuration at configPath, or at the default
// location when empty, and returns it together with the path used.
func initConfig(configPath, outputDir string, force bool) (*config.Config, string, error) {
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}
	if config.ConfigExists(configPath) && !force {
		return nil, configPath, fmt.Errorf("config already exists at %s, use --force to overwrite", configPath)
	}

	cfg, err := config.BootstrapConfig(configPath, outputDir)
	if err != nil {
		return nil, configPath, fmt.Errorf("error bootstrapping config: %w", err)
	}
	return cfg, configPath, nil
}
