package main

import (
	"fmt"

	"github.com/aretw0/flowpath/internal/cli"
	"github.com/aretw0/flowpath/internal/presentation/tui"
	"github.com/aretw0/flowpath/internal/validator"
	"github.com/aretw0/flowpath/pkg/dsl"
	"github.com/spf13/cobra"
)

func newValidateCmd(opts *cli.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the network for consistency",
		Long: `Reports description diagnostics, then checks the network under the current states:
several paths between a source and a sink are errors; unconnected segments,
segments no source reaches and state groups never set are warnings.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, _, err := cli.Load(*opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			cli.PrintDiagnostics(out, g.Diagnostics)
			issues := validator.ValidateNetwork(g.Network)
			for _, i := range issues {
				fmt.Fprintln(out, i)
			}

			if dsl.HasErrors(g.Diagnostics) {
				fmt.Fprintln(out, tui.Status("INVALID", false))
				return fmt.Errorf("description has errors")
			}
			if err := validator.Err(issues); err != nil {
				fmt.Fprintln(out, tui.Status("INVALID", false))
				return err
			}
			fmt.Fprintf(out, "%s %d segments, %d warnings\n", tui.Status("VALID", true), g.Len(), len(issues)+len(g.Diagnostics))
			return nil
		},
	}
}
