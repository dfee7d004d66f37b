/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/rawbin/pkg/convert"
	"github.com/ssargent/rawbin/pkg/fileparts"
)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert <input.csv> [output.bin]",
	Short: "Convert one CSV export to a binary file",
	Long: `Convert a single raw accelerometer CSV export. Without an output path the
binary file is written next to the input (or into output.dir from the config)
with the output extension.

Examples:
  rawbin convert subject01.csv
  rawbin convert subject01.csv /data/bin/subject01.bin
  rawbin convert --timezone UTC --verify subject01.csv`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := container.Config()
		if err := applyConversionFlags(cmd, cfg); err != nil {
			return err
		}

		conv, err := container.Converter()
		if err != nil {
			return err
		}

		in := args[0]
		out := ""
		switch {
		case len(args) == 2:
			out = args[1]
		case cfg.Output.Dir != "":
			out = fileparts.OutputPath(in, cfg.Output.Dir, cfg.Output.Extension)
		}

		res, err := conv.ConvertFile(cmd.Context(), in, out)
		if err != nil {
			return err
		}
		printResult(cmd, res)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
	addConversionFlags(convertCmd)
}

// printResult prints a one-file conversion summary
func printResult(cmd *cobra.Command, res *convert.Result) {
	h := res.Header
	cmd.Printf("%s -> %s\n", res.Input, res.Output)
	cmd.Printf("  device:   %s (firmware %s)\n", h.SerialID, h.Firmware)
	cmd.Printf("  rate:     %d Hz\n", h.SampleRate)
	cmd.Printf("  duration: %d s\n", h.DurationSeconds)
	cmd.Printf("  records:  %d written, %d parsed, %d expected\n",
		res.Reconcile.Final, res.Reconcile.Actual, res.Reconcile.Expected)
	cmd.Printf("  bytes:    %d\n", res.Bytes)
	if res.Warning != nil {
		cmd.Printf("  warning:  %v\n", res.Warning)
	}
	cmd.Printf("Elapsed time is %.3f seconds.\n", res.Elapsed.Seconds())
}
