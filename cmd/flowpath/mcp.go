package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/aretw0/flowpath"
	"github.com/aretw0/flowpath/internal/cli"
	"github.com/aretw0/flowpath/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

func newMCPCmd(opts *cli.Options) *cobra.Command {
	var (
		transport string
		port      int
	)
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run the Model Context Protocol (MCP) server",
		Long: `Exposes the network to AI agents as MCP tools (set_state, volume_to, time_from,
check_flow_stability, describe_segment) and a Mermaid resource.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, logger, err := cli.Load(*opts)
			if err != nil {
				return err
			}
			srv := mcp.NewServer(g.Network, flowpath.Version, logger)

			switch transport {
			case "stdio":
				// Logs go to stderr so they never corrupt JSON-RPC on stdout.
				logger.Info("Starting MCP Server (Stdio)")
				return srv.ServeStdio()
			case "sse":
				ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()
				if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				logger.Info("MCP Server stopped gracefully")
				return nil
			default:
				return fmt.Errorf("unknown transport %q, supported: stdio, sse", transport)
			}
		},
	}
	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	cmd.Flags().IntVar(&port, "port", 8080, "Port to listen on (only for SSE)")
	return cmd
}
