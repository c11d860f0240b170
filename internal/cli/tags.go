package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewTagsCommand creates the tags listing command.
func NewTagsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tags",
		Short:         "List the tag vocabulary with usage counts",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer closeStore(st)

			tags, err := st.TagsWithUsage(cmd.Context())
			if err != nil {
				return storeFail("failed to list tags", err)
			}

			f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if f.Format == "json" {
				return f.Success(tags)
			}
			for _, t := range tags {
				fmt.Fprintf(f.Writer, "%s\t%d\n", t.Name, t.UsedCount)
			}
			return nil
		},
	}
	return cmd
}

// NewTagCommand creates the tag command, attaching a tag to an item.
func NewTagCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tag <id> <name>",
		Short:         "Attach a tag to an item",
		Args:          cobra.ExactArgs(2),
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

			if err := st.Associate(cmd.Context(), id, args[1]); err != nil {
				return storeFail("failed to tag item", err)
			}

			f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return f.Successf(map[string]int64{"id": id}, "tagged item %d with %q", id, args[1])
		},
	}
	return cmd
}

// NewUntagCommand creates the untag command.
func NewUntagCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "untag <id> <name>",
		Short:         "Detach a tag from an item",
		Args:          cobra.ExactArgs(2),
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

			if err := st.Dissociate(cmd.Context(), id, args[1]); err != nil {
				return storeFail("failed to untag item", err)
			}

			f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return f.Successf(map[string]int64{"id": id}, "untagged item %d from %q", id, args[1])
		},
	}
	return cmd
}

// NewRetagCommand creates the retag command, replacing an item's full tag
// set. Tags present before and after keep their counters untouched.
func NewRetagCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "retag <id> [name...]",
		Short:         "Replace an item's tag set",
		Args:          cobra.MinimumNArgs(1),
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

			if err := st.ReplaceItemTags(cmd.Context(), id, args[1:]); err != nil {
				return storeFail("failed to retag item", err)
			}

			f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return f.Successf(map[string]int64{"id": id}, "retagged item %d (%d tags)", id, len(args)-1)
		},
	}
	return cmd
}
