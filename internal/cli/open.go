package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"clipkeep/internal/config"
	"clipkeep/internal/store"
	"clipkeep/internal/vault"
)

// openStore loads the configuration, builds the vault from the configured
// key file (if any) and opens the database. Every command goes through this
// so the key and path resolution stay in one place.
func openStore(opts *RootOptions) (*store.Store, config.Config, error) {
	cfgPath := opts.ConfigPath
	if cfgPath == "" {
		var err error
		cfgPath, err = config.DefaultPath()
		if err != nil {
			return nil, config.Config{}, WrapExitError(ExitCommandError, "failed to resolve config path", err)
		}
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, config.Config{}, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	var v *vault.Vault
	if cfg.KeyFile != "" {
		secret, err := os.ReadFile(cfg.KeyFile)
		if err != nil {
			return nil, config.Config{}, WrapExitError(ExitCommandError, "failed to read key file", err)
		}
		v, err = vault.New(secret)
		if err != nil {
			return nil, config.Config{}, WrapExitError(ExitCommandError, "failed to initialize vault", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, config.Config{}, WrapExitError(ExitCommandError, "failed to create data dir", err)
	}

	slog.Debug("opening database", "path", cfg.DBPath)
	st, err := store.Open(cfg.DBPath, v)
	if err != nil {
		return nil, config.Config{}, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, cfg, nil
}

// workingCollection resolves the --collection flag to an id, creating the
// collection on first use.
func workingCollection(ctx context.Context, st *store.Store, opts *RootOptions) (int64, error) {
	id, err := st.EnsureCollection(ctx, opts.Collection)
	if err != nil {
		return 0, storeFail(fmt.Sprintf("failed to resolve collection %q", opts.Collection), err)
	}
	return id, nil
}

// closeStore closes st, logging rather than masking a close failure.
func closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}
