package main

import (
	"errors"
	"fmt"
	"sort"

	"github.com/aretw0/flowpath/internal/cli"
	"github.com/aretw0/flowpath/internal/presentation/tui"
	"github.com/aretw0/flowpath/pkg/flow"
	"github.com/aretw0/flowpath/pkg/graph"
	"github.com/spf13/cobra"
)

func newVolumeCmd(opts *cli.Options) *cobra.Command {
	var direction string
	cmd := &cobra.Command{
		Use:   "volume FROM TO",
		Short: "Volume between two segments",
		Long:  `Sums the volumes along the single active path from FROM to TO, FROM included and TO excluded. Fails when several paths connect them.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := graph.ParseDirection(direction)
			if err != nil {
				return err
			}
			g, _, err := cli.Load(*opts)
			if err != nil {
				return err
			}
			v, found, err := g.VolumeTo(args[0], args[1], dir)
			if err != nil {
				return explain(err)
			}
			if !found {
				return fmt.Errorf("%s does not reach %s under the current states", args[0], args[1])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%g uL\n", v)
			return nil
		},
	}
	cmd.Flags().StringVarP(&direction, "direction", "d", "down", "Traversal direction: down, up or both")
	return cmd
}

func newRoutesCmd(opts *cli.Options) *cobra.Command {
	var (
		direction   string
		to          string
		contains    string
		sources     bool
		ignoreState bool
	)
	cmd := &cobra.Command{
		Use:   "routes FROM",
		Short: "List the paths leaving a segment",
		Long: `Traverses from FROM and prints every path to a matching segment with its volume.
Without a matcher the paths end at the segments with nowhere further to go.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := graph.ParseDirection(direction)
			if err != nil {
				return err
			}
			g, _, err := cli.Load(*opts)
			if err != nil {
				return err
			}
			if _, ok := g.Lookup(args[0]); !ok {
				return fmt.Errorf("%w: %q", flow.ErrSegmentNotFound, args[0])
			}

			var cond func(*flow.Segment) bool
			switch {
			case to != "":
				cond = flow.NameIs(to)
			case contains != "":
				cond = flow.NameContains(contains)
			case sources:
				cond = flow.IsSource(ignoreState)
			}

			out := cmd.OutOrStdout()
			routes := g.Routes(args[0], cond, dir, ignoreState)
			for _, r := range routes {
				if dir == graph.Up {
					r = r.Reversed()
				}
				fmt.Fprintf(out, "%s  %g uL\n", r, r.Volume())
			}
			fmt.Fprintf(out, "%d route(s)\n", len(routes))
			return nil
		},
	}
	cmd.Flags().StringVarP(&direction, "direction", "d", "down", "Traversal direction: down, up or both")
	cmd.Flags().StringVar(&to, "to", "", "Match the segment with this name")
	cmd.Flags().StringVar(&contains, "contains", "", "Match segments whose name contains this text")
	cmd.Flags().BoolVar(&sources, "sources", false, "Match segments without parents")
	cmd.Flags().BoolVar(&ignoreState, "ignore-state", false, "Follow connections of every state")
	return cmd
}

func flowFlags(cmd *cobra.Command, rates *[]string) {
	cmd.Flags().StringArrayVarP(rates, "rate", "r", nil, "Source flow rate as name=rate (repeatable)")
}

func newTimeCmd(opts *cli.Options) *cobra.Command {
	var rates []string
	cmd := &cobra.Command{
		Use:   "time AT",
		Short: "Time for new flow rates to reach a segment",
		Long:  `Propagates the source rates through the network and prints how long the slowest source takes to reach AT, in minutes and seconds.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := cli.ParseAssignments(rates)
			if err != nil {
				return fmt.Errorf("invalid --rate: %w", err)
			}
			g, _, err := cli.Load(*opts)
			if err != nil {
				return err
			}
			d, found, err := g.TimeFrom(args[0], r)
			if err != nil {
				return explain(err)
			}
			if !found {
				return fmt.Errorf("%w: %q", flow.ErrSegmentNotFound, args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.4f min (%.1f s)\n", float64(d), d.Seconds())
			return nil
		},
	}
	flowFlags(cmd, &rates)
	return cmd
}

func newStabilityCmd(opts *cli.Options) *cobra.Command {
	var (
		rates        []string
		critical     float64
		failUnstable bool
	)
	cmd := &cobra.Command{
		Use:   "stability AT",
		Short: "Find junctions mixing streams at unstable ratios",
		Long:  `Propagates the source rates up to AT and reports every junction whose largest to smallest inlet rate ratio exceeds the critical ratio.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := cli.ParseAssignments(rates)
			if err != nil {
				return fmt.Errorf("invalid --rate: %w", err)
			}
			g, _, err := cli.Load(*opts)
			if err != nil {
				return err
			}
			report, found, err := g.CheckFlowStabilityFrom(args[0], critical, r)
			if err != nil {
				return explain(err)
			}
			if !found {
				return fmt.Errorf("%w: %q", flow.ErrSegmentNotFound, args[0])
			}
			if err := cli.RenderMarkdown(cmd.OutOrStdout(), tui.StabilityMarkdown(args[0], critical, report)); err != nil {
				return err
			}
			if failUnstable && len(report.Unstable) > 0 {
				return fmt.Errorf("%d unstable junction(s)", len(report.Unstable))
			}
			return nil
		},
	}
	flowFlags(cmd, &rates)
	cmd.Flags().Float64Var(&critical, "critical", flow.DefaultCriticalRatio, "Critical inlet flow-rate ratio")
	cmd.Flags().BoolVar(&failUnstable, "fail-unstable", false, "Exit with an error when a junction is unstable")
	return cmd
}

func newRatesCmd(opts *cli.Options) *cobra.Command {
	var rates []string
	cmd := &cobra.Command{
		Use:   "rates AT",
		Short: "Flow rate of every segment on the way to a segment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := cli.ParseAssignments(rates)
			if err != nil {
				return fmt.Errorf("invalid --rate: %w", err)
			}
			g, _, err := cli.Load(*opts)
			if err != nil {
				return err
			}
			snapshot, err := g.FlowRates(args[0], r)
			if err != nil {
				return explain(err)
			}
			names := make([]string, 0, len(snapshot))
			for name := range snapshot {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%g\n", name, snapshot[name])
			}
			return nil
		},
	}
	flowFlags(cmd, &rates)
	return cmd
}

// explain adds a hint to errors the user can resolve with flags.
func explain(err error) error {
	if errors.Is(err, flow.ErrAmbiguousPath) {
		return fmt.Errorf("%w\nset a state with --state to pick one path", err)
	}
	return err
}
