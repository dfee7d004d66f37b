/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/ssargent/rawbin/pkg/convert"
	"github.com/ssargent/rawbin/pkg/store"
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <file.bin>",
	Short: "Print the header of a binary file",
	Long: `Read a binary file back, verify that its size matches the header and
print the header fields. Use --samples to also print the first samples.

Examples:
  rawbin inspect subject01.bin
  rawbin inspect subject01.bin --samples 10`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		samples, _ := cmd.Flags().GetInt("samples")

		// Inspection records nothing, so no observers
		opts, err := container.ConverterOptions()
		if err != nil {
			return err
		}

		artifact, err := convert.NewConverter(opts).Inspect(args[0])
		if err != nil {
			return err
		}
		printArtifact(cmd, args[0], artifact, samples)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().IntP("samples", "n", 0, "Number of samples to print")
}

// printArtifact prints the header and up to n samples
func printArtifact(cmd *cobra.Command, path string, a *store.Artifact, n int) {
	h := a.Header
	cmd.Printf("%s\n", path)
	cmd.Printf("  sample rate:      %d Hz\n", h.SampleRate)
	cmd.Printf("  start:            %s\n", h.Start.UTC().Format(time.RFC3339))
	cmd.Printf("  stop:             %s\n", h.Stop.UTC().Format(time.RFC3339))
	cmd.Printf("  firmware:         %s\n", h.Firmware)
	cmd.Printf("  serial:           %s\n", h.SerialID)
	cmd.Printf("  duration:         %d s\n", h.DurationSeconds)
	cmd.Printf("  channels:         %d\n", h.Channels)
	cmd.Printf("  bytes per sample: %d\n", h.BytesPerSample)
	cmd.Printf("  payload:          %d bytes (%d records)\n", h.PayloadSize, len(a.Samples))

	if n > len(a.Samples) {
		n = len(a.Samples)
	}
	for i, s := range a.Samples[:max(n, 0)] {
		cmd.Printf("  %6d  % .3f  % .3f  % .3f\n", i, s.X, s.Y, s.Z)
	}
}
