package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"clipkeep/internal/model"
	"clipkeep/internal/store"
)

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	Kind        string
	Sensitive   bool
	Favorite    bool
	Color       string
	Description string
	Tags        []string
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <label> <content>",
		Short: "Add a standalone snippet",
		Long: `Add a standalone snippet to the working collection.

Sensitive snippets are encrypted before storage and require a configured
key file.

Examples:
  clipkeep add "deploy" "kubectl rollout restart deploy/api" --kind command
  clipkeep add "db password" "hunter2" --sensitive --tag secrets`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(opts, cmd, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "text", "content kind (text|url|command|path)")
	cmd.Flags().BoolVar(&opts.Sensitive, "sensitive", false, "encrypt the content at rest")
	cmd.Flags().BoolVar(&opts.Favorite, "favorite", false, "mark as favorite")
	cmd.Flags().StringVar(&opts.Color, "color", "", "display color")
	cmd.Flags().StringVar(&opts.Description, "description", "", "free-form description")
	cmd.Flags().StringArrayVar(&opts.Tags, "tag", nil, "tag to attach (repeatable)")

	return cmd
}

func runAdd(opts *AddOptions, cmd *cobra.Command, label, content string) error {
	st, _, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := cmd.Context()
	collectionID, err := workingCollection(ctx, st, opts.RootOptions)
	if err != nil {
		return err
	}

	id, err := st.CreateItem(ctx, store.NewItem{
		CollectionID: collectionID,
		Label:        label,
		Content:      content,
		Kind:         model.ContentKind(opts.Kind),
		Sensitive:    opts.Sensitive,
		Favorite:     opts.Favorite,
		Color:        opts.Color,
		Description:  opts.Description,
		Tags:         opts.Tags,
	})
	if err != nil {
		return storeFail("failed to add snippet", err)
	}

	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	return f.Successf(map[string]int64{"id": id}, "added snippet %d", id)
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "show <id>",
		Short:         "Show one item with its tags",
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

			it, err := st.ReadItem(cmd.Context(), id)
			if err != nil {
				return storeFail("failed to read item", err)
			}

			f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if f.Format == "json" {
				return f.Success(it)
			}
			fmt.Fprintf(f.Writer, "%d\t%s\t[%s]\n", it.ID, it.Label, it.Kind)
			fmt.Fprintln(f.Writer, it.Content)
			if len(it.Tags) > 0 {
				fmt.Fprintf(f.Writer, "tags: %s\n", strings.Join(it.Tags, ", "))
			}
			return nil
		},
	}
	return cmd
}

// EditOptions holds flags for the edit command.
type EditOptions struct {
	*RootOptions
	Label       string
	Content     string
	Kind        string
	Sensitive   string // tri-state: "", "true", "false"
	Favorite    string
	Color       string
	Description string
	Tags        []string
	TagsSet     bool
}

// NewEditCommand creates the edit command.
func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EditOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Update fields of an item",
		Long: `Update fields of an item; only flags that were set are applied.

--tags replaces the full tag set using diff reconciliation, so tags present
before and after keep their usage counters untouched.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.TagsSet = cmd.Flags().Changed("tags")
			return runEdit(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Label, "label", "", "new label")
	cmd.Flags().StringVar(&opts.Content, "content", "", "new content")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "new content kind")
	cmd.Flags().StringVar(&opts.Sensitive, "sensitive", "", "set sensitivity (true|false)")
	cmd.Flags().StringVar(&opts.Favorite, "favorite", "", "set favorite (true|false)")
	cmd.Flags().StringVar(&opts.Color, "color", "", "new display color")
	cmd.Flags().StringVar(&opts.Description, "description", "", "new description")
	cmd.Flags().StringSliceVar(&opts.Tags, "tags", nil, "replacement tag set (comma separated)")

	return cmd
}

func runEdit(opts *EditOptions, cmd *cobra.Command, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}

	var patch store.ItemPatch
	flags := cmd.Flags()
	if flags.Changed("label") {
		patch.Label = &opts.Label
	}
	if flags.Changed("content") {
		patch.Content = &opts.Content
	}
	if flags.Changed("kind") {
		k := model.ContentKind(opts.Kind)
		patch.Kind = &k
	}
	if flags.Changed("sensitive") {
		b, err := strconv.ParseBool(opts.Sensitive)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --sensitive value", err)
		}
		patch.Sensitive = &b
	}
	if flags.Changed("favorite") {
		b, err := strconv.ParseBool(opts.Favorite)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --favorite value", err)
		}
		patch.Favorite = &b
	}
	if flags.Changed("color") {
		patch.Color = &opts.Color
	}
	if flags.Changed("description") {
		patch.Description = &opts.Description
	}
	if opts.TagsSet {
		patch.Tags = &opts.Tags
	}

	st, _, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer closeStore(st)

	if err := st.UpdateItem(cmd.Context(), id, patch); err != nil {
		return storeFail("failed to update item", err)
	}

	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	return f.Successf(map[string]int64{"id": id}, "updated item %d", id)
}

// NewRemoveCommand creates the rm command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rm <id>",
		Short:         "Delete an item",
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
				return storeFail("failed to delete item", err)
			}

			f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return f.Successf(map[string]int64{"id": id}, "deleted item %d", id)
		},
	}
	return cmd
}

// NewSnippetsCommand creates the snippets listing command.
func NewSnippetsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "snippets",
		Short:         "List standalone snippets in the working collection",
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
			items, err := st.Items(ctx, collectionID)
			if err != nil {
				return storeFail("failed to list snippets", err)
			}

			f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if f.Format == "json" {
				return f.Success(items)
			}
			for _, it := range items {
				marker := " "
				if it.Favorite {
					marker = "*"
				}
				fmt.Fprintf(f.Writer, "%s %d\t%s\t[%s]\n", marker, it.ID, it.Label, it.Kind)
			}
			return nil
		},
	}
	return cmd
}

// parseID converts a command argument into an item id.
func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, WrapExitError(ExitCommandError, fmt.Sprintf("invalid id %q", raw), nil)
	}
	return id, nil
}
