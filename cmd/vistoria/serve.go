package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/vistoria/vistoria-core/internal/infrastructure/httpapi"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve public verification and signed downloads",
		Long:  "Starts the HTTP server with GET /verify, signed /files downloads, /healthz and /metrics.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInternalDeps(cmd.Context(), g, func(ctx context.Context, d *internalDeps) error {
				cfg := d.Config.Server
				if addr != "" {
					cfg.Addr = addr
				}

				router := httpapi.NewRouter(httpapi.Deps{
					Verifier: d.verification,
					Files:    d.files,
					Metrics:  d.metrics.Handler(),
					Health: func(ctx context.Context) error {
						_, err := d.relationalDB.ListInspections(ctx, 1, 0)
						return err
					},
					Logger: d.Log,
				})

				return httpapi.NewServer(cfg, router, d.Log).Run(ctx)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}
