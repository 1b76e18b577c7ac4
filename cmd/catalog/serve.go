package main

import (
	"github.com/spf13/cobra"

	"github.com/novel-catalog/catalog/internal/httpapi"
	"github.com/novel-catalog/catalog/internal/ingest"
)

func newServeCmd(a *app) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if bind == "" {
				bind = a.cfg.Server.Bind
			}

			hasher, err := a.hasher()
			if err != nil {
				return err
			}
			dbCtx, err := a.openDB()
			if err != nil {
				return err
			}
			defer closeDB(dbCtx)

			pipeline, err := ingest.New(dbCtx, ingest.Options{
				Hasher:    hasher,
				Settings:  a.dedupSettings(),
				Workers:   a.cfg.Ingest.Workers,
				QueueSize: a.cfg.Ingest.QueueSize,
				Logger:    a.logger,
			})
			if err != nil {
				return err
			}

			srv, err := httpapi.New(dbCtx, httpapi.Options{
				Hasher:    hasher,
				Settings:  a.dedupSettings(),
				Pipeline:  pipeline,
				Threshold: a.cfg.Deduplicator.SimilarityThreshold,
				Logger:    a.logger,
			})
			if err != nil {
				return err
			}
			return srv.ListenAndServe(cmd.Context(), bind)
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (default: from config)")
	return cmd
}
