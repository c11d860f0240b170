package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewInfoCommand creates the info command, reporting store identity and
// configuration.
func NewInfoCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "info",
		Short:         "Show store identity and configuration",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, cfg, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer closeStore(st)

			ctx := cmd.Context()
			storeID, err := st.StoreID(ctx)
			if err != nil {
				return storeFail("failed to read store id", err)
			}
			collections, err := st.Collections(ctx)
			if err != nil {
				return storeFail("failed to list collections", err)
			}
			tables, err := st.Tables(ctx)
			if err != nil {
				return storeFail("failed to list tables", err)
			}

			info := map[string]interface{}{
				"store_id":    storeID,
				"db_path":     cfg.DBPath,
				"collections": len(collections),
				"tables":      len(tables),
				"encryption":  cfg.KeyFile != "",
			}

			f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if f.Format == "json" {
				return f.Success(info)
			}
			fmt.Fprintf(f.Writer, "store id:    %s\n", storeID)
			fmt.Fprintf(f.Writer, "database:    %s\n", cfg.DBPath)
			fmt.Fprintf(f.Writer, "collections: %d\n", len(collections))
			fmt.Fprintf(f.Writer, "tables:      %d\n", len(tables))
			fmt.Fprintf(f.Writer, "encryption:  %v\n", cfg.KeyFile != "")
			return nil
		},
	}
	return cmd
}
