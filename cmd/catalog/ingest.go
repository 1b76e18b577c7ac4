package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/novel-catalog/catalog/internal/filesystem"
	"github.com/novel-catalog/catalog/internal/ingest"
)

func newIngestCmd(a *app) *cobra.Command {
	var (
		title      string
		author     string
		fileFormat string
		format     string
	)

	cmd := &cobra.Command{
		Use:   "ingest <library-id> <file-or-dir>...",
		Short: "Classify files and store them as works and versions",
		Long: `Ingest hashes each file, decides whether it is a duplicate, a new edition
or a new work, and records the result. Files are processed concurrently;
a file that fails does not stop the others. Directories are searched for
book files. Without --title each file is titled after its name.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			libraryID, err := parseID("library id", args[0])
			if err != nil {
				return err
			}
			files, err := filesystem.Collect(args[1:], filesystem.BookExtensions)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no book files found")
			}
			if title != "" && len(files) > 1 {
				return fmt.Errorf("--title applies to a single file, got %d files", len(files))
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

			candidates := make([]ingest.Candidate, 0, len(files))
			for _, path := range files {
				c := ingest.Candidate{
					LibraryID: libraryID,
					Path:      path,
					Title:     title,
					Author:    author,
					Format:    fileFormat,
				}
				if c.Title == "" {
					c.Title = titleFromPath(path)
				}
				candidates = append(candidates, c)
			}

			outcomes := pipeline.IngestBatch(cmd.Context(), candidates)
			if err := outputOutcomes(cmd, format, outcomes); err != nil {
				return err
			}

			failed := 0
			for _, o := range outcomes {
				if o.IsFailure() {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(outcomes))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Parsed title (default: file name)")
	cmd.Flags().StringVarP(&author, "author", "a", "", "Parsed author")
	cmd.Flags().StringVar(&fileFormat, "file-format", "", "File format (default: file extension)")
	addFormatFlag(cmd, &format)
	return cmd
}

type outcomeOutput struct {
	ingest.Outcome
	Error string `json:"error,omitempty"`
}

func outputOutcomes(cmd *cobra.Command, format string, outcomes []ingest.Outcome) error {
	if format == formatJSON {
		output := make([]outcomeOutput, 0, len(outcomes))
		for _, o := range outcomes {
			output = append(output, outcomeOutput{Outcome: o, Error: o.ErrorString()})
		}
		return outputJSON(cmd, output)
	}

	t := newTable(cmd, table.Row{"File", "Action", "Work", "Version", "Reason"})
	width := titleWidth(5, 11+8+8+36)
	for _, o := range outcomes {
		reason := o.Reason
		if o.IsFailure() {
			reason = o.ErrorString()
		}
		workID, versionID := "", ""
		if o.WorkID != 0 {
			workID = formatID(o.WorkID)
		}
		if o.VersionID != 0 {
			versionID = formatID(o.VersionID)
		}
		t.AppendRow(table.Row{wrapString(o.Path, width), o.Action, workID, versionID, reason})
	}
	t.Render()
	return nil
}
