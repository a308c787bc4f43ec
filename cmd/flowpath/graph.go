package main

import (
	"fmt"

	"github.com/aretw0/flowpath/internal/cli"
	"github.com/aretw0/flowpath/internal/presentation/graph"
	"github.com/aretw0/flowpath/pkg/flow"
	core "github.com/aretw0/flowpath/pkg/graph"
	"github.com/spf13/cobra"
)

func newGraphCmd(opts *cli.Options) *cobra.Command {
	var (
		from, to string
		at       string
		rates    []string
		critical float64
	)
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Export the network as a Mermaid diagram",
		Long: `Outputs a Mermaid flowchart (graph LR) of the network under the current states.
--from/--to highlights the path between two segments; --at with --rate highlights
the junctions that are unstable for those rates.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, _, err := cli.Load(*opts)
			if err != nil {
				return err
			}

			overlay := &graph.GraphOverlay{}
			if from != "" && to != "" {
				routes := g.Routes(from, flow.NameIs(to), core.Down, false)
				if len(routes) != 1 {
					return fmt.Errorf("expected one path from %s to %s, found %d", from, to, len(routes))
				}
				overlay.Route = routes[0].Names()
			}
			if at != "" {
				r, err := cli.ParseAssignments(rates)
				if err != nil {
					return fmt.Errorf("invalid --rate: %w", err)
				}
				report, _, err := g.CheckFlowStabilityFrom(at, critical, r)
				if err != nil {
					return explain(err)
				}
				overlay.Unstable = report.Unstable
			}

			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(g.Network, overlay))
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Start of the path to highlight")
	cmd.Flags().StringVar(&to, "to", "", "End of the path to highlight")
	cmd.Flags().StringVar(&at, "at", "", "Highlight junctions unstable on the way to this segment")
	flowFlags(cmd, &rates)
	cmd.Flags().Float64Var(&critical, "critical", flow.DefaultCriticalRatio, "Critical inlet flow-rate ratio")
	return cmd
}
