package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/flowpath"
	httpAdapter "github.com/aretw0/flowpath/internal/adapters/http"
	"github.com/aretw0/flowpath/internal/cli"
	"github.com/aretw0/flowpath/pkg/adapters/mcp"
	"github.com/aretw0/flowpath/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(opts *cli.Options) *cobra.Command {
	var (
		port    string
		mcpPort int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP query server",
		Long:  `Loads the network and exposes its segments, states and queries as a JSON API over HTTP, with Prometheus metrics on /metrics. With --mcp-port the same network is also served to MCP clients over SSE.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			metrics := observability.NewMetrics(reg)

			g, logger, err := cli.Load(*opts, flowpath.WithHooks(metrics.Hooks()))
			if err != nil {
				return err
			}

			handler := httpAdapter.NewHandler(g.Network,
				httpAdapter.WithLogger(logger),
				httpAdapter.WithVersion(flowpath.Version),
				httpAdapter.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
			)
			srv := &http.Server{
				Addr:              ":" + port,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			eg, ctx := errgroup.WithContext(ctx)

			eg.Go(func() error {
				fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on %s\n", opts.File, srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server error: %w", err)
				}
				return nil
			})
			eg.Go(func() error {
				<-ctx.Done()
				// Give outstanding requests a deadline for completion.
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					_ = srv.Close()
					return fmt.Errorf("graceful shutdown did not complete: %w", err)
				}
				logger.Info("Server stopped gracefully")
				return nil
			})
			if mcpPort > 0 {
				eg.Go(func() error {
					return mcp.NewServer(g.Network, flowpath.Version, logger).ServeSSE(ctx, mcpPort)
				})
			}
			return eg.Wait()
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "8080", "Port to listen on")
	cmd.Flags().IntVar(&mcpPort, "mcp-port", 0, "Also serve MCP over SSE on this port")
	return cmd
}
