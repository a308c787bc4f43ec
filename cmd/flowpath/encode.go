package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/flowpath/internal/cli"
	"github.com/aretw0/flowpath/pkg/dsl"
	"github.com/spf13/cobra"
)

func newHeaderCmd(opts *cli.Options) *cobra.Command {
	var (
		width  int
		prefix string
	)
	cmd := &cobra.Command{
		Use:   "header",
		Short: "Generate the declaration header of a description",
		Long:  `Prints every segment with its volume, inputs first and outputs last, as a comment-delimited block that can be pasted at the top of a description.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, _, err := cli.Load(*opts)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), dsl.GenerateHeader(g.Network, width, prefix))
			return nil
		},
	}
	cmd.Flags().IntVar(&width, "width", 100, "Wrap declaration lines at this width")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Prefix for every generated line")
	return cmd
}

func newSelectorCmd() *cobra.Command {
	var (
		ports                     []string
		selector, syringe, outlet string
		prefix                    string
	)
	cmd := &cobra.Command{
		Use:   "selector",
		Short: "Generate the description of a selector valve feeding a syringe",
		Long: `Writes the connections of sources reaching a syringe through a selector valve,
one refill_<port> state per source, and the drive state pushing the syringe into the outlet.

  flowpath selector --selector Sel --syringe Syr --outlet system --port Bottle_1=2 --port Bottle_2=3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sources, err := parsePorts(ports)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), dsl.EncodeSelectorValve(sources, selector, syringe, outlet, prefix))
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&ports, "port", nil, "Source and port as name=port (repeatable)")
	cmd.Flags().StringVar(&selector, "selector", "", "Selector valve name")
	cmd.Flags().StringVar(&syringe, "syringe", "", "Syringe name")
	cmd.Flags().StringVar(&outlet, "outlet", "", "Segment the syringe drives into")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Prefix for every generated line")
	for _, name := range []string{"port", "selector", "syringe", "outlet"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func parsePorts(values []string) ([]dsl.Port, error) {
	out := make([]dsl.Port, 0, len(values))
	for _, v := range values {
		name, raw, ok := strings.Cut(v, "=")
		port, err := strconv.Atoi(raw)
		if !ok || name == "" || err != nil {
			return nil, fmt.Errorf("invalid --port %q, expected name=port", v)
		}
		out = append(out, dsl.Port{Source: name, Port: port})
	}
	return out, nil
}
