package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/rawbin/pkg/config"
)

// addConversionFlags registers the flags shared by convert and batch
func addConversionFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("timestamps", false, "Parse the timestamp column instead of skipping it")
	cmd.Flags().String("timezone", "", "Time zone of the header dates: IANA name, Local or UTC")
	cmd.Flags().Uint16("default-rate", 0, "Sample rate to assume when the banner has none")
	cmd.Flags().String("out-ext", "", "Output file extension")
	cmd.Flags().Bool("verify", false, "Read every artifact back after writing it")
}

// applyConversionFlags copies explicitly set flags over the configuration
func applyConversionFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("timestamps") {
		cfg.Input.Timestamps, _ = flags.GetBool("timestamps")
	}
	if flags.Changed("timezone") {
		cfg.Input.Timezone, _ = flags.GetString("timezone")
	}
	if flags.Changed("default-rate") {
		cfg.Input.DefaultSampleRate, _ = flags.GetUint16("default-rate")
	}
	if flags.Changed("out-ext") {
		cfg.Output.Extension, _ = flags.GetString("out-ext")
	}
	if flags.Changed("verify") {
		cfg.Output.Verify, _ = flags.GetBool("verify")
	}
	if flags.Changed("ext") {
		cfg.Input.Extension, _ = flags.GetString("ext")
	}
	if flags.Changed("workers") {
		cfg.Batch.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("recursive") {
		cfg.Input.Recursive, _ = flags.GetBool("recursive")
	}
	if flags.Changed("out-dir") {
		cfg.Output.Dir, _ = flags.GetString("out-dir")
	}
	applyCatalogFlags(cmd, cfg)
	return cfg.Validate()
}

// addCatalogFlags registers the catalog flags shared by batch and serve
func addCatalogFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("catalog", false, "Record conversions in the catalog")
	cmd.Flags().String("catalog-dir", "", "Catalog directory")
}

func applyCatalogFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("catalog") {
		cfg.Catalog.Enabled, _ = flags.GetBool("catalog")
	}
	if flags.Changed("catalog-dir") {
		cfg.Catalog.Dir, _ = flags.GetString("catalog-dir")
	}
}
