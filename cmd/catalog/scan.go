package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/novel-catalog/catalog/internal/services"
)

func newScanCmd(a *app) *cobra.Command {
	var (
		threshold float64
		format    string
	)

	cmd := &cobra.Command{
		Use:   "scan <library-id>",
		Short: "Propose groups of works that look like the same book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			libraryID, err := parseID("library id", args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("threshold") {
				threshold = a.cfg.Deduplicator.SimilarityThreshold
			}

			dbCtx, err := a.openDB()
			if err != nil {
				return err
			}
			defer closeDB(dbCtx)

			clusters, err := services.NewScanService(dbCtx, a.logger).Scan(cmd.Context(), libraryID, threshold)
			if err != nil {
				return err
			}

			if format == formatJSON {
				if clusters == nil {
					clusters = []services.Cluster{}
				}
				return outputJSON(cmd, clusters)
			}
			outputClusters(cmd, clusters)
			return nil
		},
	}

	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Similarity threshold (default: from config)")
	addFormatFlag(cmd, &format)
	return cmd
}

func outputClusters(cmd *cobra.Command, clusters []services.Cluster) {
	t := newTable(cmd, table.Row{"Cluster", "Work", "Title", "Author", "Versions", "Size", "Group", "Suggested"})
	width := titleWidth(8, 16+8+12+8+10+6+9)
	for _, cluster := range clusters {
		for _, m := range cluster.Members {
			group := ""
			if m.GroupID != nil {
				group = formatID(*m.GroupID)
				if m.IsGroupPrimary {
					group += "*"
				}
			}
			t.AppendRow(table.Row{
				wrapString(cluster.ClusterKey, 16),
				m.WorkID,
				wrapString(m.Title, width),
				wrapString(m.AuthorName, 12),
				m.VersionCount,
				m.TotalSize,
				group,
				yesNo(m.WorkID == cluster.SuggestedPrimaryID),
			})
		}
		t.AppendSeparator()
	}
	t.Render()
}
