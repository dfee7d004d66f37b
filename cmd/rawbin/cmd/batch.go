/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/rawbin/pkg/convert"
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Convert every CSV export in a directory",
	Long: `Convert every export with the input extension in a directory using a
bounded pool of workers. Hidden files, files without a base name and
files whose output would collide with another are skipped. A failure on
one file never stops the others.

Examples:
  rawbin batch ./exports
  rawbin batch ./exports --out-dir ./bin --workers 8 --recursive`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := container.Config()
		if err := applyConversionFlags(cmd, cfg); err != nil {
			return err
		}

		conv, err := container.Converter()
		if err != nil {
			return err
		}

		report, err := conv.Batch(cmd.Context(), args[0], cfg.Output.Dir)
		if report != nil {
			printReport(cmd, report)
		}
		if err != nil {
			return err
		}
		if report.Failed > 0 {
			return fmt.Errorf("%d of %d files failed", report.Failed, report.Total())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)
	addConversionFlags(batchCmd)

	batchCmd.Flags().String("out-dir", "", "Directory for the binary files (default: next to each input)")
	batchCmd.Flags().String("ext", "", "Input file extension")
	batchCmd.Flags().IntP("workers", "w", 0, "Number of files converted in parallel")
	batchCmd.Flags().BoolP("recursive", "r", false, "Descend into subdirectories")
	addCatalogFlags(batchCmd)
}

// printReport prints one line per file followed by the totals
func printReport(cmd *cobra.Command, report *convert.Report) {
	for _, o := range report.Outcomes {
		switch o.Status {
		case convert.StatusConverted:
			line := fmt.Sprintf("ok      %s -> %s (%d records)", o.Input, o.Output, o.Result.Reconcile.Final)
			if o.Result.Warning != nil {
				line += fmt.Sprintf(" [truncated from %d]", o.Result.Reconcile.Expected)
			}
			cmd.Println(line)
		case convert.StatusSkipped:
			cmd.Printf("skipped %s: %s\n", o.Input, o.Reason)
		case convert.StatusFailed:
			cmd.Printf("failed  %s: %v\n", o.Input, o.Err)
		}
	}

	cmd.Printf("\n%d converted (%d truncated), %d skipped, %d failed\n",
		report.Succeeded, report.Truncated, report.Skipped, report.Failed)
	cmd.Printf("Elapsed time is %.3f seconds.\n", report.Elapsed.Seconds())
}
