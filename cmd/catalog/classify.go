package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/novel-catalog/catalog/internal/services"
)

func newClassifyCmd(a *app) *cobra.Command {
	var (
		title  string
		author string
		format string
	)

	cmd := &cobra.Command{
		Use:   "classify <file>",
		Short: "Decide whether a file is a duplicate, a new edition or a new work",
		Long:  "Classify hashes the file and compares it with the catalog without writing anything.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			path := args[0]
			if title == "" {
				title = titleFromPath(path)
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

			svc := services.NewDedupService(dbCtx, hasher, a.dedupSettings(), a.logger)
			decision, err := svc.Classify(cmd.Context(), path, title, author)
			if err != nil {
				return err
			}

			if format == formatJSON {
				return outputJSON(cmd, decision)
			}
			workID := ""
			if decision.WorkID != nil {
				workID = formatID(*decision.WorkID)
			}
			t := newTable(cmd, table.Row{"Action", "Work", "Reason", "Digest"})
			t.AppendRow(table.Row{decision.Action, workID, decision.Reason, decision.Digest})
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Parsed title (default: file name)")
	cmd.Flags().StringVarP(&author, "author", "a", "", "Parsed author")
	addFormatFlag(cmd, &format)
	return cmd
}
