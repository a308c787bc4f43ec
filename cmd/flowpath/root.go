package main

import (
	"fmt"
	"os"

	"github.com/aretw0/flowpath/internal/cli"
	"github.com/aretw0/flowpath/internal/presentation/tui"
	"github.com/spf13/cobra"
)

// Execute builds the command tree and runs it.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &cli.Options{}
	rootCmd := &cobra.Command{
		Use:   "flowpath",
		Short: "Flowpath answers volume, timing and stability questions about fluidic networks",
		Long: `Flowpath reads a network of segments (syringes, tubing, junctions, detectors) from a
text description or an HCL file and answers questions about it: volumes between
segments, the paths connecting them, when new flow rates reach a detector and which
junctions mix streams at unstable ratios.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			tui.PrintBanner(cmd.OutOrStdout())
			_ = cmd.Help()
		},
	}

	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.File, "file", "f", "", "Network description (.flow text or .hcl)")
	flags.StringArrayVarP(&opts.States, "state", "s", nil, "Active state as group:state (repeatable)")
	flags.StringArrayVar(&opts.Vars, "var", nil, "HCL variable override as name=value (repeatable)")
	flags.StringVar(&opts.LogLevel, "log-level", "", "Log to stderr at debug, info, warn or error")
	flags.StringVar(&opts.LogFormat, "log-format", "text", "Log format: text or json")
	flags.BoolVar(&opts.ScopedBuckets, "scoped-buckets", false, "Key connection buckets by group:state instead of state")
	flags.BoolVar(&opts.Strict, "strict", false, "Fail when the description has errors")

	rootCmd.AddCommand(
		newDescribeCmd(opts),
		newRoutesCmd(opts),
		newVolumeCmd(opts),
		newTimeCmd(opts),
		newStabilityCmd(opts),
		newRatesCmd(opts),
		newGraphCmd(opts),
		newHeaderCmd(opts),
		newSelectorCmd(),
		newValidateCmd(opts),
		newScenarioCmd(opts),
		newServeCmd(opts),
		newMCPCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}
