package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"clipkeep/internal/model"
	"clipkeep/internal/store"
)

// NewListCommand creates the list command group.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Manage checklists and their steps",
		Long: `Manage checklists and their steps.

Steps occupy contiguous positions 1..N within a list; inserting, moving
or removing a step reflows the neighbors so the sequence never has gaps.`,
	}

	cmd.AddCommand(newListCreateCommand(rootOpts))
	cmd.AddCommand(newListRemoveCommand(rootOpts))
	cmd.AddCommand(newListShowCommand(rootOpts))
	cmd.AddCommand(newListsCommand(rootOpts))
	cmd.AddCommand(newStepAddCommand(rootOpts))
	cmd.AddCommand(newStepMoveCommand(rootOpts))
	cmd.AddCommand(newStepRemoveCommand(rootOpts))

	return cmd
}

func newListCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:           "create <name>",
		Short:         "Create a checklist in the working collection",
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
			collectionID, err := workingCollection(ctx, st, rootOpts)
			if err != nil {
				return err
			}
			id, err := st.CreateList(ctx, collectionID, args[0], description)
			if err != nil {
				return storeFail("failed to create list", err)
			}

			f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return f.Successf(map[string]int64{"id": id}, "created list %q (%d)", args[0], id)
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "free-form description")
	return cmd
}

func newListRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rm <name>",
		Short:         "Delete a checklist and all of its steps",
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
			l, err := resolveList(ctx, st, rootOpts, args[0])
			if err != nil {
				return err
			}
			if err := st.DeleteList(ctx, l.ID); err != nil {
				return storeFail("failed to delete list", err)
			}

			f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return f.Successf(map[string]int64{"id": l.ID}, "deleted list %q", l.Name)
		},
	}
	return cmd
}

func newListShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "steps <name>",
		Short:         "Show the steps of a checklist in order",
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
			l, err := resolveList(ctx, st, rootOpts, args[0])
			if err != nil {
				return err
			}
			steps, err := st.ListSteps(ctx, l.ID)
			if err != nil {
				return storeFail("failed to list steps", err)
			}

			f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if f.Format == "json" {
				return f.Success(steps)
			}
			for _, it := range steps {
				slot, _ := it.Slot()
				fmt.Fprintf(f.Writer, "%d. %s\t%s\t(id %d)\n", slot.Position, it.Label, it.Content, it.ID)
			}
			return nil
		},
	}
	return cmd
}

func newListsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ls",
		Short:         "List checklists in the working collection",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer closeStore(st)

			ctx := cmd.Context()
			collectionID, err := workingCollection(ctx, st, rootOpts)
			if err != nil {
				return err
			}
			lists, err := st.Lists(ctx, collectionID)
			if err != nil {
				return storeFail("failed to list checklists", err)
			}

			f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if f.Format == "json" {
				return f.Success(lists)
			}
			for _, l := range lists {
				fmt.Fprintf(f.Writer, "%d\t%s\t(%d uses)\n", l.ID, l.Name, l.UsedCount)
			}
			return nil
		},
	}
	return cmd
}

func newStepAddCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		kind     string
		position int
	)

	cmd := &cobra.Command{
		Use:           "step-add <list> <label> <content>",
		Short:         "Append or insert a step",
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer closeStore(st)

			ctx := cmd.Context()
			l, err := resolveList(ctx, st, rootOpts, args[0])
			if err != nil {
				return err
			}
			id, err := st.CreateListStep(ctx, l.ID, store.NewStep{
				Label:    args[1],
				Content:  args[2],
				Kind:     model.ContentKind(kind),
				Position: position,
			})
			if err != nil {
				return storeFail("failed to add step", err)
			}

			f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return f.Successf(map[string]int64{"id": id}, "added step %d to %q", id, l.Name)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "text", "content kind (text|url|command|path)")
	cmd.Flags().IntVar(&position, "at", 0, "insert position (default appends)")
	return cmd
}

func newStepMoveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "step-move <id> <position>",
		Short:         "Move a step to a new position",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			pos, err := strconv.Atoi(args[1])
			if err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("invalid position %q", args[1]), nil)
			}

			st, _, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer closeStore(st)

			if err := st.MoveStep(cmd.Context(), id, pos); err != nil {
				return storeFail("failed to move step", err)
			}

			f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return f.Successf(map[string]int64{"id": id}, "moved step %d to position %d", id, pos)
		},
	}
	return cmd
}

func newStepRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "step-rm <id>",
		Short:         "Delete a step and close its gap",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			st, _, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer closeStore(st)

			if err := st.DeleteItem(cmd.Context(), id); err != nil {
				return storeFail("failed to delete step", err)
			}

			f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return f.Successf(map[string]int64{"id": id}, "deleted step %d", id)
		},
	}
	return cmd
}

// resolveList finds a list by name within the working collection.
func resolveList(ctx context.Context, st *store.Store, rootOpts *RootOptions, name string) (model.List, error) {
	collectionID, err := workingCollection(ctx, st, rootOpts)
	if err != nil {
		return model.List{}, err
	}
	l, err := st.GetListByName(ctx, collectionID, name)
	if err != nil {
		return model.List{}, storeFail("failed to resolve list", err)
	}
	return l, nil
}
