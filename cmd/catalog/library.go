package main

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/novel-catalog/catalog/internal/database"
)

type libraryOutput struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

func newLibraryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Manage libraries",
	}
	cmd.AddCommand(newLibraryAddCmd(a))
	cmd.AddCommand(newLibraryListCmd(a))
	return cmd
}

func newLibraryAddCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a library, or return the existing one with that name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			dbCtx, err := a.openDB()
			if err != nil {
				return err
			}
			defer closeDB(dbCtx)

			repo := database.NewLibraryRepository(dbCtx)
			id, err := repo.GetOrCreate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			record, err := repo.FindByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			if record == nil {
				return fmt.Errorf("library %d not found after create", id)
			}
			return outputLibraries(cmd, format, []database.LibraryRecord{*record})
		},
	}
	addFormatFlag(cmd, &format)
	return cmd
}

func newLibraryListCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List libraries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			dbCtx, err := a.openDB()
			if err != nil {
				return err
			}
			defer closeDB(dbCtx)

			libraries, err := database.NewLibraryRepository(dbCtx).List(cmd.Context())
			if err != nil {
				return err
			}
			return outputLibraries(cmd, format, libraries)
		},
	}
	addFormatFlag(cmd, &format)
	return cmd
}

func outputLibraries(cmd *cobra.Command, format string, libraries []database.LibraryRecord) error {
	if format == formatJSON {
		output := make([]libraryOutput, 0, len(libraries))
		for _, l := range libraries {
			output = append(output, libraryOutput{ID: l.ID, Name: l.Name, CreatedAt: l.CreatedAt.Format(time.RFC3339)})
		}
		return outputJSON(cmd, output)
	}

	t := newTable(cmd, table.Row{"ID", "Name", "Created"})
	width := titleWidth(3, 6+19)
	for _, l := range libraries {
		t.AppendRow(table.Row{l.ID, wrapString(l.Name, width), l.CreatedAt.Format("2006-01-02 15:04:05")})
	}
	t.Render()
	return nil
}
