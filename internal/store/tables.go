package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"clipkeep/internal/model"
)

// CreateTable creates a named table. Table names are globally unique.
func (s *Store) CreateTable(ctx context.Context, name, description string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, validationErr("table name must not be empty")
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO tables (name, description, created_at_unixms)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO NOTHING
	`, name, description, nowMs())
	if err != nil {
		return 0, storageErr("create table", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("create table", err)
	}
	if n == 0 {
		return 0, conflictErr("table", "name %q already exists", name)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("create table", err)
	}
	return id, nil
}

// GetTable returns one table by id.
func (s *Store) GetTable(ctx context.Context, id int64) (model.Table, error) {
	return scanTable(s.db.QueryRowContext(ctx, `
		SELECT id, name, description, created_at_unixms FROM tables WHERE id = ?
	`, id), id)
}

// GetTableByName returns one table by name.
func (s *Store) GetTableByName(ctx context.Context, name string) (model.Table, error) {
	return scanTable(s.db.QueryRowContext(ctx, `
		SELECT id, name, description, created_at_unixms FROM tables WHERE name = ?
	`, strings.TrimSpace(name)), name)
}

// Tables returns all tables ordered by name.
func (s *Store) Tables(ctx context.Context) ([]model.Table, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, created_at_unixms FROM tables ORDER BY name ASC
	`)
	if err != nil {
		return nil, storageErr("query tables", err)
	}
	defer rows.Close()

	var out []model.Table
	for rows.Next() {
		t, err := scanTable(rows, nil)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate tables", err)
	}
	if out == nil {
		out = []model.Table{}
	}
	return out, nil
}

// DeleteTable deletes a table and every cell item it owns, including the
// row-label caches living on those rows. Tag counters of tagged cells move
// down before the rows go.
func (s *Store) DeleteTable(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRow(`SELECT COUNT(*) FROM tables WHERE id = ?`, id).Scan(&n); err != nil {
			return storageErr("check table", err)
		}
		if n == 0 {
			return notFoundErr("table", id)
		}

		if err := releaseTagsByOwnerTx(tx, "table_id", id); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM items WHERE table_id = ?`, id); err != nil {
			return storageErr("delete cells", err)
		}
		if _, err := tx.Exec(`DELETE FROM tables WHERE id = ?`, id); err != nil {
			return storageErr("delete table", err)
		}
		return nil
	})
}

// CellCount returns the number of live cells in a table.
func (s *Store) CellCount(ctx context.Context, tableID int64) (int, error) {
	if _, err := s.GetTable(ctx, tableID); err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items WHERE table_id = ?`, tableID).Scan(&n); err != nil {
		return 0, storageErr("count cells", err)
	}
	return n, nil
}

func scanTable(row rowScanner, ref any) (model.Table, error) {
	var t model.Table
	var createdMs int64
	err := row.Scan(&t.ID, &t.Name, &t.Description, &createdMs)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Table{}, notFoundErr("table", ref)
	}
	if err != nil {
		return model.Table{}, storageErr("scan table", err)
	}
	t.CreatedAt = time.UnixMilli(createdMs).UTC()
	return t, nil
}

func tableExistsTx(tx *sql.Tx, id int64) (bool, error) {
	var n int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM tables WHERE id = ?`, id).Scan(&n); err != nil {
		return false, storageErr("check table", err)
	}
	return n > 0, nil
}
