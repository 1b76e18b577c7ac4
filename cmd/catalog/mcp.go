package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/novel-catalog/catalog/internal/mcp"
)

func newMCPCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server",
		Long:  "Start the Model Context Protocol server on stdio. Logs go to stderr.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			hasher, err := a.hasher()
			if err != nil {
				return err
			}
			dbCtx, err := a.openDB()
			if err != nil {
				return err
			}
			defer closeDB(dbCtx)

			server, err := mcp.NewServer(dbCtx, mcp.Options{
				Hasher:    hasher,
				Settings:  a.dedupSettings(),
				Threshold: a.cfg.Deduplicator.SimilarityThreshold,
				Logger:    a.logger,
			})
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}
			return server.Run(cmd.Context())
		},
	}

	return cmd
}
