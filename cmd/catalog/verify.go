package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/novel-catalog/catalog/internal/database"
	"github.com/novel-catalog/catalog/internal/filesystem"
)

type verifyOutput struct {
	VersionID int64  `json:"version_id"`
	FilePath  string `json:"file_path"`
	FileHash  string `json:"file_hash"`
	Algorithm string `json:"algorithm"`
	Intact    bool   `json:"intact"`
}

func newVerifyCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "verify <version-id>",
		Short: "Check that a version's file still matches its recorded digest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			versionID, err := parseID("version id", args[0])
			if err != nil {
				return err
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

			version, err := database.NewVersionRepository(dbCtx).FindByID(cmd.Context(), versionID)
			if err != nil {
				return err
			}
			if version == nil {
				return fmt.Errorf("version %d not found", versionID)
			}

			intact, err := hasher.Verify(cmd.Context(), version.FilePath, version.FileHash)
			if err != nil {
				return err
			}

			result := verifyOutput{
				VersionID: version.ID,
				FilePath:  version.FilePath,
				FileHash:  version.FileHash,
				Algorithm: hasher.Algorithm(),
				Intact:    intact,
			}
			if format == formatJSON {
				if err := outputJSON(cmd, result); err != nil {
					return err
				}
			} else {
				status := "ok"
				if !intact {
					status = "MISMATCH"
				}
				t := newTable(cmd, table.Row{"Version", "File", "Digest", "Status"})
				t.AppendRow(table.Row{result.VersionID, wrapString(result.FilePath, titleWidth(4, 8+20+8)), result.FileHash, status})
				t.Render()
			}
			if !intact {
				if !filesystem.FileExists(version.FilePath) {
					return fmt.Errorf("version %d: file %s is missing", versionID, version.FilePath)
				}
				return fmt.Errorf("version %d: file content changed", versionID)
			}
			return nil
		},
	}
	addFormatFlag(cmd, &format)
	return cmd
}
