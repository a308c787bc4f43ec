package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/flowpath/internal/cli"
	"github.com/aretw0/flowpath/internal/presentation/tui"
	"github.com/aretw0/flowpath/pkg/flow"
	"github.com/spf13/cobra"
)

func newDescribeCmd(opts *cli.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "describe [segment...]",
		Short: "Describe segments and their connections per state",
		Long:  `Prints the volume of each segment and its children and parents in every state bucket. Without arguments every segment is described.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, _, err := cli.Load(*opts)
			if err != nil {
				return err
			}

			segs := g.Segments()
			if len(args) > 0 {
				segs = nil
				for _, name := range args {
					s, ok := g.Lookup(name)
					if !ok {
						return fmt.Errorf("%w: %q", flow.ErrSegmentNotFound, name)
					}
					segs = append(segs, s)
				}
			}

			var sb strings.Builder
			for _, s := range segs {
				sb.WriteString(tui.SegmentMarkdown(s))
				sb.WriteString("\n")
			}
			return cli.RenderMarkdown(cmd.OutOrStdout(), sb.String())
		},
	}
}
