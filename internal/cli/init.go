package cli

import (
	"github.com/spf13/cobra"

	"clipkeep/internal/config"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Database string
	KeyFile  string
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the config file and database",
		Long: `Write a config file and initialize the database.

Existing config values are overwritten only by flags that were set.

Examples:
  clipkeep init
  clipkeep init --db ~/clips.db --key-file ~/.config/clipkeep/key`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.Flags().StringVar(&opts.KeyFile, "key-file", "", "path to key material for sensitive content")

	return cmd
}

func runInit(opts *InitOptions, cmd *cobra.Command) error {
	cfgPath := opts.ConfigPath
	if cfgPath == "" {
		var err error
		cfgPath, err = config.DefaultPath()
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to resolve config path", err)
		}
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Database != "" {
		cfg.DBPath = opts.Database
	}
	if opts.KeyFile != "" {
		cfg.KeyFile = opts.KeyFile
	}
	if err := config.Save(cfgPath, cfg); err != nil {
		return WrapExitError(ExitCommandError, "failed to save config", err)
	}

	st, _, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := cmd.Context()
	if _, err := workingCollection(ctx, st, opts.RootOptions); err != nil {
		return err
	}
	id, err := st.StoreID(ctx)
	if err != nil {
		return storeFail("failed to read store identity", err)
	}

	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	return f.Successf(map[string]string{"config": cfgPath, "db": cfg.DBPath, "store_id": id},
		"initialized %s (store %s)", cfg.DBPath, id)
}
