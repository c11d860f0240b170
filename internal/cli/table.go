package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"clipkeep/internal/model"
	"clipkeep/internal/store"
)

// NewTableCommand creates the table command group.
func NewTableCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Manage reference tables and their cells",
		Long: `Manage reference tables and their cells.

Tables are sparse grids of cells addressed by (row, col). Column 0 is the
row key: writing it fans the new value out to every cell's row label in
the same row. Export reconstructs the dense matrix with row 0 as headers.`,
	}

	cmd.AddCommand(newTableCreateCommand(rootOpts))
	cmd.AddCommand(newTableRemoveCommand(rootOpts))
	cmd.AddCommand(newTablesCommand(rootOpts))
	cmd.AddCommand(newCellSetCommand(rootOpts))
	cmd.AddCommand(newCellGetCommand(rootOpts))
	cmd.AddCommand(newCellRemoveCommand(rootOpts))
	cmd.AddCommand(newTableExportCommand(rootOpts))

	return cmd
}

func newTableCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:           "create <name>",
		Short:         "Create a table",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer closeStore(st)

			id, err := st.CreateTable(cmd.Context(), args[0], description)
			if err != nil {
				return storeFail("failed to create table", err)
			}

			f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return f.Successf(map[string]int64{"id": id}, "created table %q (%d)", args[0], id)
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "free-form description")
	return cmd
}

func newTableRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rm <name>",
		Short:         "Delete a table and all of its cells",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer closeStore(st)

			ctx := cmd.Context()
			tbl, err := resolveTable(ctx, st, args[0])
			if err != nil {
				return err
			}
			if err := st.DeleteTable(ctx, tbl.ID); err != nil {
				return storeFail("failed to delete table", err)
			}

			f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return f.Successf(map[string]int64{"id": tbl.ID}, "deleted table %q", tbl.Name)
		},
	}
	return cmd
}

func newTablesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ls",
		Short:         "List tables",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer closeStore(st)

			tbls, err := st.Tables(cmd.Context())
			if err != nil {
				return storeFail("failed to list tables", err)
			}

			f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if f.Format == "json" {
				return f.Success(tbls)
			}
			for _, t := range tbls {
				fmt.Fprintf(f.Writer, "%d\t%s\t%s\n", t.ID, t.Name, t.Description)
			}
			return nil
		},
	}
	return cmd
}

func newCellSetCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "set <table> <row> <col> <content>",
		Short:         "Write a cell, creating or overwriting in place",
		Args:          cobra.ExactArgs(4),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			row, col, err := parseCoord(args[1], args[2])
			if err != nil {
				return err
			}

			st, _, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer closeStore(st)

			ctx := cmd.Context()
			tbl, err := resolveTable(ctx, st, args[0])
			if err != nil {
				return err
			}
			id, err := st.SetCell(ctx, tbl.ID, row, col, args[3])
			if err != nil {
				return storeFail("failed to set cell", err)
			}

			f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return f.Successf(map[string]int64{"id": id}, "set %s(%d,%d)", tbl.Name, row, col)
		},
	}
	return cmd
}

func newCellGetCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "cell <table> <row> <col>",
		Short:         "Read one cell",
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			row, col, err := parseCoord(args[1], args[2])
			if err != nil {
				return err
			}

			st, _, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer closeStore(st)

			ctx := cmd.Context()
			tbl, err := resolveTable(ctx, st, args[0])
			if err != nil {
				return err
			}
			it, err := st.GetCell(ctx, tbl.ID, row, col)
			if err != nil {
				return storeFail("failed to read cell", err)
			}

			f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if f.Format == "json" {
				return f.Success(it)
			}
			fmt.Fprintln(f.Writer, it.Content)
			return nil
		},
	}
	return cmd
}

func newCellRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "cell-rm <table> <row> <col>",
		Short:         "Delete one cell",
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			row, col, err := parseCoord(args[1], args[2])
			if err != nil {
				return err
			}

			st, _, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer closeStore(st)

			ctx := cmd.Context()
			tbl, err := resolveTable(ctx, st, args[0])
			if err != nil {
				return err
			}
			if err := st.DeleteCell(ctx, tbl.ID, row, col); err != nil {
				return storeFail("failed to delete cell", err)
			}

			f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return f.Successf(nil, "deleted %s(%d,%d)", tbl.Name, row, col)
		},
	}
	return cmd
}

func newTableExportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "export <name>",
		Short:         "Export a table as a dense matrix",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer closeStore(st)

			ctx := cmd.Context()
			tbl, err := resolveTable(ctx, st, args[0])
			if err != nil {
				return err
			}
			m, err := st.ExportToMatrix(ctx, tbl.ID)
			if err != nil {
				return storeFail("failed to export table", err)
			}

			f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if f.Format == "json" {
				return f.Success(m)
			}
			if len(m.Columns) > 0 {
				fmt.Fprintln(f.Writer, strings.Join(m.Columns, "\t"))
			}
			for _, r := range m.Rows {
				fmt.Fprintln(f.Writer, strings.Join(r, "\t"))
			}
			return nil
		},
	}
	return cmd
}

// resolveTable finds a table by its globally unique name.
func resolveTable(ctx context.Context, st *store.Store, name string) (model.Table, error) {
	tbl, err := st.GetTableByName(ctx, name)
	if err != nil {
		return model.Table{}, storeFail("failed to resolve table", err)
	}
	return tbl, nil
}

// parseCoord converts row and col arguments into zero-based coordinates.
func parseCoord(rawRow, rawCol string) (int, int, error) {
	row, err := strconv.Atoi(rawRow)
	if err != nil || row < 0 {
		return 0, 0, WrapExitError(ExitCommandError, fmt.Sprintf("invalid row %q", rawRow), nil)
	}
	col, err := strconv.Atoi(rawCol)
	if err != nil || col < 0 {
		return 0, 0, WrapExitError(ExitCommandError, fmt.Sprintf("invalid col %q", rawCol), nil)
	}
	return row, col, nil
}
