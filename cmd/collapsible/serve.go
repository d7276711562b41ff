package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"collapsible/internal/config"
	"collapsible/internal/webui"

	"github.com/spf13/cobra"
)

func newServeCommand(cli *CLI) *cobra.Command {
	var (
		host    string
		port    int
		metrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the panel preview server",
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := cli.initialize(cmd, func(overrides *config.Overrides) {
				if cmd.Flags().Changed("host") {
					overrides.ServerHost = &host
				}
				if cmd.Flags().Changed("port") {
					overrides.ServerPort = &port
				}
				if cmd.Flags().Changed("metrics") {
					overrides.Metrics = &metrics
				}
			})
			if err != nil {
				return err
			}
			defer cli.cleanup()

			server, err := webui.NewServer(container.Runtime.Server, webui.Deps{
				Factory:        container.NewPanel,
				Cache:          container.Prober,
				MetricsHandler: container.Metrics.Handler(),
				Tracer:         container.Tracing.Tracer(),
				Logger:         container.Logger,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start()
			}()

			srv := container.Runtime.Server
			fmt.Fprintf(cmd.OutOrStdout(), "%s listening on %s\n", green("✓"), cyan(fmt.Sprintf("http://%s:%d", srv.Host, srv.Port)))

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Stop(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return <-errCh
		},
	}

	cmd.Flags().StringVar(&host, "host", config.DefaultServerHost, "Listen host")
	cmd.Flags().IntVar(&port, "port", config.DefaultServerPort, "Listen port")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "Expose Prometheus metrics on /metrics")
	return cmd
}
