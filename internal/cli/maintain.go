package cli

import (
	"github.com/spf13/cobra"
)

// NewMaintainCommand creates the maintain command group with repair
// operations for invariants that only drift after external faults.
func NewMaintainCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maintain",
		Short: "Repair and housekeeping operations",
	}

	cmd.AddCommand(newPruneTagsCommand(rootOpts))
	cmd.AddCommand(newRecountTagCommand(rootOpts))
	cmd.AddCommand(newRenumberCommand(rootOpts))

	return cmd
}

func newPruneTagsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "prune-tags",
		Short:         "Delete tags with zero live associations",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer closeStore(st)

			n, err := st.PruneUnusedTags(cmd.Context())
			if err != nil {
				return storeFail("failed to prune tags", err)
			}

			f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return f.Successf(map[string]int64{"pruned": n}, "pruned %d unused tags", n)
		},
	}
	return cmd
}

func newRecountTagCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "recount-tag <name>",
		Short:         "Re-derive one tag's usage counter from its associations",
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
			t, err := st.GetTagByName(ctx, args[0])
			if err != nil {
				return storeFail("failed to resolve tag", err)
			}
			if err := st.RecountTag(ctx, t.ID); err != nil {
				return storeFail("failed to recount tag", err)
			}

			f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return f.Successf(map[string]int64{"id": t.ID}, "recounted tag %q", t.Name)
		},
	}
	return cmd
}

func newRenumberCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "renumber <list>",
		Short:         "Restore contiguous step positions in a list",
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
			if err := st.RenumberList(ctx, l.ID); err != nil {
				return storeFail("failed to renumber list", err)
			}

			f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return f.Successf(map[string]int64{"id": l.ID}, "renumbered list %q", l.Name)
		},
	}
	return cmd
}
