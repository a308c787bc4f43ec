package main

import (
	"fmt"

	"github.com/aretw0/flowpath"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of flowpath",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "flowpath version %s\n", flowpath.Version)
		},
	}
}
