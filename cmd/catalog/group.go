package main

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/novel-catalog/catalog/internal/services"
)

func newGroupCmd(a *app) *cobra.Command {
	var (
		name   string
		format string
	)

	cmd := &cobra.Command{
		Use:   "group <primary-work-id> <work-id>...",
		Short: "Group works under a primary work",
		Long: `Group puts the listed works into one group with the first argument as
primary. If one of them already belongs to a group, the others join it.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			ids, err := parseIDs("work id", args)
			if err != nil {
				return err
			}
			var groupName *string
			if cmd.Flags().Changed("name") {
				groupName = &name
			}

			dbCtx, err := a.openDB()
			if err != nil {
				return err
			}
			defer closeDB(dbCtx)

			result, err := services.NewGroupService(dbCtx, a.logger).Group(cmd.Context(), ids[0], ids, groupName)
			if err != nil {
				return err
			}
			return outputGroupResult(cmd, format, result)
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Group name (default: primary title, or the existing name)")
	addFormatFlag(cmd, &format)
	return cmd
}

func newMergeCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "merge <keep-work-id> <other-work-id>...",
		Short: "Merge works into the group of the work to keep",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			ids, err := parseIDs("work id", args)
			if err != nil {
				return err
			}

			dbCtx, err := a.openDB()
			if err != nil {
				return err
			}
			defer closeDB(dbCtx)

			result, err := services.NewGroupService(dbCtx, a.logger).Merge(cmd.Context(), ids[0], ids[1:])
			if err != nil {
				return err
			}
			return outputGroupResult(cmd, format, result)
		},
	}
	addFormatFlag(cmd, &format)
	return cmd
}

func newUngroupCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "ungroup <work-id>",
		Short: "Remove a work from its group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			workID, err := parseID("work id", args[0])
			if err != nil {
				return err
			}

			dbCtx, err := a.openDB()
			if err != nil {
				return err
			}
			defer closeDB(dbCtx)

			result, err := services.NewGroupService(dbCtx, a.logger).Ungroup(cmd.Context(), workID)
			if err != nil {
				return err
			}
			if format == formatJSON {
				return outputJSON(cmd, result)
			}
			t := newTable(cmd, table.Row{"Work", "Was Primary", "Group Dissolved"})
			t.AppendRow(table.Row{result.WorkID, yesNo(result.WasPrimary), yesNo(result.GroupDissolved)})
			t.Render()
			return nil
		},
	}
	addFormatFlag(cmd, &format)
	return cmd
}

func newSetPrimaryCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "set-primary <group-id> <work-id>",
		Short: "Make a member the primary work of its group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			groupID, err := parseID("group id", args[0])
			if err != nil {
				return err
			}
			workID, err := parseID("work id", args[1])
			if err != nil {
				return err
			}

			dbCtx, err := a.openDB()
			if err != nil {
				return err
			}
			defer closeDB(dbCtx)

			result, err := services.NewGroupService(dbCtx, a.logger).SetPrimary(cmd.Context(), groupID, workID)
			if err != nil {
				return err
			}
			if format == formatJSON {
				return outputJSON(cmd, result)
			}
			t := newTable(cmd, table.Row{"Group", "Primary Work"})
			t.AppendRow(table.Row{result.GroupID, result.PrimaryWorkID})
			t.Render()
			return nil
		},
	}
	addFormatFlag(cmd, &format)
	return cmd
}

func newMembersCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "members <work-id>",
		Short: "List the works grouped with a work",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			workID, err := parseID("work id", args[0])
			if err != nil {
				return err
			}

			dbCtx, err := a.openDB()
			if err != nil {
				return err
			}
			defer closeDB(dbCtx)

			members, err := services.NewGroupService(dbCtx, a.logger).MembersOf(cmd.Context(), workID)
			if err != nil {
				return err
			}
			if format == formatJSON {
				return outputJSON(cmd, members)
			}

			t := newTable(cmd, table.Row{"Work", "Title", "Author", "Versions", "Formats", "Size", "Primary", ""})
			width := titleWidth(8, 8+12+8+12+10+7+2)
			for _, m := range members {
				queried := ""
				if m.IsQueried {
					queried = "<"
				}
				t.AppendRow(table.Row{
					m.WorkID,
					wrapString(m.Title, width),
					wrapString(m.AuthorName, 12),
					m.VersionCount,
					strings.Join(m.Formats, ","),
					m.TotalSize,
					yesNo(m.IsPrimary),
					queried,
				})
			}
			t.Render()
			return nil
		},
	}
	addFormatFlag(cmd, &format)
	return cmd
}

func outputGroupResult(cmd *cobra.Command, format string, result services.GroupResult) error {
	if format == formatJSON {
		return outputJSON(cmd, result)
	}
	t := newTable(cmd, table.Row{"Group", "Name", "Primary Work", "Members", "Added"})
	t.AppendRow(table.Row{
		result.GroupID,
		wrapString(result.GroupName, titleWidth(5, 8+14+9+7)),
		result.PrimaryWorkID,
		result.MemberCount,
		result.AddedCount,
	})
	t.Render()
	return nil
}
