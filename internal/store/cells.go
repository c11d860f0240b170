package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"clipkeep/internal/model"
)

// The coordinate engine maps a table's sparse cell set onto dense matrices
// and keeps the denormalized row-label cache coherent. Column 0 is the
// row's key column: its content is mirrored into row_label on every sibling
// cell of the same row, always inside the writing transaction, so display
// grouping never observes a half-renamed row.

// cellLabel derives a display label for a cell created without one.
func cellLabel(label, content string) string {
	label = strings.TrimSpace(label)
	if label != "" {
		return label
	}
	if len(content) > 40 {
		return content[:40]
	}
	return content
}

// CreateTableCell creates a cell item at (row, col). Fails with Conflict if
// a live cell already occupies the coordinate.
func (s *Store) CreateTableCell(ctx context.Context, tableID int64, row, col int, label, content string) (int64, error) {
	if row < 0 || col < 0 {
		return 0, validationErr("cell coordinate (%d, %d) must be non-negative", row, col)
	}
	if strings.TrimSpace(content) == "" {
		return 0, validationErr("cell content must not be empty")
	}

	var id int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		ok, err := tableExistsTx(tx, tableID)
		if err != nil {
			return err
		}
		if !ok {
			return notFoundErr("table", tableID)
		}

		occupied, err := cellExistsTx(tx, tableID, row, col)
		if err != nil {
			return err
		}
		if occupied {
			return conflictErr("cell", "coordinate (%d, %d) already occupied", row, col)
		}

		id, err = insertCellTx(tx, tableID, row, col, cellLabel(label, content), content)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetCell returns the cell item at (row, col).
func (s *Store) GetCell(ctx context.Context, tableID int64, row, col int) (model.Item, error) {
	r := s.db.QueryRowContext(ctx, `
		SELECT `+itemColumns+` FROM items
		WHERE table_id = ? AND row_idx = ? AND col_idx = ?
	`, tableID, row, col)
	it, err := scanItem(r)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Item{}, &StoreError{
			Code:    CodeNotFound,
			Entity:  "cell",
			Message: "no cell at coordinate",
		}
	}
	if err != nil {
		return model.Item{}, err
	}
	s.revealContent(&it)
	return it, nil
}

// SetCell writes content at (row, col): updates the cell in place when one
// exists, creates it otherwise. A write to the key column additionally
// refreshes the row-label cache on every other cell of the row, inside the
// same transaction.
func (s *Store) SetCell(ctx context.Context, tableID int64, row, col int, content string) (int64, error) {
	if row < 0 || col < 0 {
		return 0, validationErr("cell coordinate (%d, %d) must be non-negative", row, col)
	}
	if strings.TrimSpace(content) == "" {
		return 0, validationErr("cell content must not be empty")
	}

	var id int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		ok, err := tableExistsTx(tx, tableID)
		if err != nil {
			return err
		}
		if !ok {
			return notFoundErr("table", tableID)
		}

		var existing sql.NullInt64
		err = tx.QueryRow(`
			SELECT id FROM items WHERE table_id = ? AND row_idx = ? AND col_idx = ?
		`, tableID, row, col).Scan(&existing)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return storageErr("find cell", err)
		}

		if existing.Valid {
			id = existing.Int64
			if _, err := tx.Exec(`
				UPDATE items SET content = ?, content_size = ?, updated_at_unixms = ?
				WHERE id = ?
			`, content, len(content), nowMs(), id); err != nil {
				return storageErr("update cell", err)
			}
		} else {
			id, err = insertCellTx(tx, tableID, row, col, cellLabel("", content), content)
			if err != nil {
				return err
			}
		}

		if col == 0 {
			return refreshRowLabelsTx(tx, tableID, row, content)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// DeleteCell removes one cell, leaving the coordinate blank.
func (s *Store) DeleteCell(ctx context.Context, tableID int64, row, col int) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var id int64
		err := tx.QueryRow(`
			SELECT id FROM items WHERE table_id = ? AND row_idx = ? AND col_idx = ?
		`, tableID, row, col).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return &StoreError{Code: CodeNotFound, Entity: "cell", Message: "no cell at coordinate"}
		}
		if err != nil {
			return storageErr("find cell", err)
		}

		if err := releaseTagsTx(tx, id); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM items WHERE id = ?`, id); err != nil {
			return storageErr("delete cell", err)
		}
		return nil
	})
}

// insertCellTx creates the cell row, seeding its row-label cache from the
// row's key cell. Key-column inserts fan the label out to siblings instead.
func insertCellTx(tx *sql.Tx, tableID int64, row, col int, label, content string) (int64, error) {
	rowLabel := ""
	if col == 0 {
		rowLabel = content
	} else {
		var key sql.NullString
		err := tx.QueryRow(`
			SELECT content FROM items WHERE table_id = ? AND row_idx = ? AND col_idx = 0
		`, tableID, row).Scan(&key)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return 0, storageErr("read key cell", err)
		}
		rowLabel = key.String
	}

	id, err := insertItemTx(tx, itemRow{
		label:       label,
		content:     content,
		kind:        model.KindText,
		contentSize: len(content),
		tableID:     sql.NullInt64{Int64: tableID, Valid: true},
		rowIdx:      sql.NullInt64{Int64: int64(row), Valid: true},
		colIdx:      sql.NullInt64{Int64: int64(col), Valid: true},
		rowLabel:    rowLabel,
	})
	if err != nil {
		return 0, err
	}

	if col == 0 {
		if err := refreshRowLabelsTx(tx, tableID, row, content); err != nil {
			return 0, err
		}
	}
	return id, nil
}

// refreshRowLabelsTx mirrors the key column's content into the row-label
// cache of every cell in the row.
func refreshRowLabelsTx(tx *sql.Tx, tableID int64, row int, key string) error {
	if _, err := tx.Exec(`
		UPDATE items SET row_label = ?
		WHERE table_id = ? AND row_idx = ?
	`, key, tableID, row); err != nil {
		return storageErr("refresh row labels", err)
	}
	return nil
}

func cellExistsTx(tx *sql.Tx, tableID int64, row, col int) (bool, error) {
	var n int
	if err := tx.QueryRow(`
		SELECT COUNT(*) FROM items WHERE table_id = ? AND row_idx = ? AND col_idx = ?
	`, tableID, row, col).Scan(&n); err != nil {
		return false, storageErr("check cell", err)
	}
	return n > 0, nil
}
