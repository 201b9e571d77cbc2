package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vango-dev/wayfinder/internal/devserver"
)

func serveCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the route table over HTTP",
		Long: `Start the dev server:

  GET  /api/match?path=/users/7     which route wins, with params
  GET  /api/resolve?to=..&base=/a   link resolution
  GET  /api/routes                  the ranked route table
  GET  /api/location                the served history's location
  POST /api/navigate?to=/a          navigate the served history
  GET  /ws                          the history as a remote store
  GET  /metrics                     Prometheus metrics

Examples:
  wayfinder serve
  wayfinder serve --addr 127.0.0.1:9000 --config s3://bucket/wayfinder.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := opts.loadConfig(ctx)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			srv, err := devserver.New(cfg, devserver.WithLogger(opts.logger))
			if err != nil {
				return err
			}
			defer srv.Close()

			success(cmd, "serving %d routes on %s", len(cfg.Routes), cfg.Server.Addr)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from wayfinder.json)")
	return cmd
}
