package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/aretw0/flowpath"
	"github.com/aretw0/flowpath/internal/cli"
	"github.com/aretw0/flowpath/internal/presentation/tui"
	"github.com/aretw0/flowpath/pkg/scenario"
	"github.com/spf13/cobra"
)

func newScenarioCmd(opts *cli.Options) *cobra.Command {
	var (
		watch      bool
		failOnErrs bool
	)
	cmd := &cobra.Command{
		Use:   "scenario FILE",
		Short: "Run a batch of queries from a YAML or JSON scenario",
		Long: `Loads a scenario (states, source rates and queries), runs every query against the
network named by its "graph" key (or --file) and prints a results table.
With --watch the scenario re-runs whenever it or the network file changes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			path := args[0]

			run := func() error {
				sc, err := scenario.Load(path)
				if err != nil {
					return err
				}
				return runScenario(cmd, *opts, sc, failOnErrs)
			}
			if !watch {
				return run()
			}

			sc, err := scenario.Load(path)
			if err != nil {
				return err
			}
			graphPath := opts.File
			if graphPath == "" {
				graphPath = sc.GraphPath()
			}
			logger, err := opts.Logger()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return cli.Watch(ctx, out, logger, []string{path, graphPath}, run)
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Re-run when the scenario or network file changes")
	cmd.Flags().BoolVar(&failOnErrs, "fail-on-error", false, "Exit with an error when a query fails")
	return cmd
}

func runScenario(cmd *cobra.Command, opts cli.Options, sc *scenario.Scenario, failOnErrs bool) error {
	if opts.File == "" {
		opts.File = sc.GraphPath()
	}
	g, logger, err := cli.Load(opts, flowpath.WithVariables(sc.Variables))
	if err != nil {
		return err
	}

	results := sc.Run(g.Network)
	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			logger.Debug("Query failed", "kind", r.Query.Kind, "err", r.Err)
		}
	}
	if err := cli.RenderMarkdown(cmd.OutOrStdout(), tui.ResultsMarkdown(results)); err != nil {
		return err
	}
	if failOnErrs && failed > 0 {
		return fmt.Errorf("%d of %d queries failed", failed, len(results))
	}
	return nil
}
