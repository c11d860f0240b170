package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"clipkeep/internal/model"
)

// CreateList creates a named list in a collection. Names are unique per
// collection.
func (s *Store) CreateList(ctx context.Context, collectionID int64, name, description string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, validationErr("list name must not be empty")
	}

	var id int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		ok, err := collectionExistsTx(tx, collectionID)
		if err != nil {
			return err
		}
		if !ok {
			return notFoundErr("collection", collectionID)
		}

		res, err := tx.Exec(`
			INSERT INTO lists (collection_id, name, description, created_at_unixms)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(collection_id, name) DO NOTHING
		`, collectionID, name, description, nowMs())
		if err != nil {
			return storageErr("create list", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return storageErr("create list", err)
		}
		if n == 0 {
			return conflictErr("list", "name %q already exists in collection", name)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return storageErr("create list", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetList returns one list by id.
func (s *Store) GetList(ctx context.Context, id int64) (model.List, error) {
	return scanList(s.db.QueryRowContext(ctx, `
		SELECT id, collection_id, name, description, used_count, created_at_unixms
		FROM lists WHERE id = ?
	`, id), id)
}

// GetListByName returns one list by collection and name.
func (s *Store) GetListByName(ctx context.Context, collectionID int64, name string) (model.List, error) {
	return scanList(s.db.QueryRowContext(ctx, `
		SELECT id, collection_id, name, description, used_count, created_at_unixms
		FROM lists WHERE collection_id = ? AND name = ?
	`, collectionID, strings.TrimSpace(name)), name)
}

// Lists returns all lists of a collection ordered by name.
func (s *Store) Lists(ctx context.Context, collectionID int64) ([]model.List, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, collection_id, name, description, used_count, created_at_unixms
		FROM lists WHERE collection_id = ? ORDER BY name ASC
	`, collectionID)
	if err != nil {
		return nil, storageErr("query lists", err)
	}
	defer rows.Close()

	var out []model.List
	for rows.Next() {
		l, err := scanList(rows, nil)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate lists", err)
	}
	if out == nil {
		out = []model.List{}
	}
	return out, nil
}

// NewStep describes a step to append or insert into a list.
// Position 0 appends; an explicit position inserts there and shifts the
// band below it down by one.
type NewStep struct {
	Label    string
	Content  string
	Kind     model.ContentKind
	Position int
}

// CreateListStep creates a step item owned by a list, keeping positions
// contiguous 1..N.
func (s *Store) CreateListStep(ctx context.Context, listID int64, st NewStep) (int64, error) {
	label := strings.TrimSpace(st.Label)
	if label == "" {
		return 0, validationErr("step label must not be empty")
	}
	if strings.TrimSpace(st.Content) == "" {
		return 0, validationErr("step content must not be empty")
	}
	kind, err := model.ParseKind(string(st.Kind))
	if err != nil {
		return 0, validationErr("%v", err)
	}
	if st.Position < 0 {
		return 0, validationErr("step position must be positive, got %d", st.Position)
	}

	var id int64
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		var collectionID int64
		err := tx.QueryRow(`SELECT collection_id FROM lists WHERE id = ?`, listID).Scan(&collectionID)
		if errors.Is(err, sql.ErrNoRows) {
			return notFoundErr("list", listID)
		}
		if err != nil {
			return storageErr("get list", err)
		}

		count, err := stepCountTx(tx, listID)
		if err != nil {
			return err
		}

		pos := st.Position
		if pos == 0 {
			pos = count + 1
		}
		if pos > count+1 {
			return validationErr("step position %d out of range 1..%d", pos, count+1)
		}
		if pos <= count {
			// Shift the tail down to open the slot.
			if _, err := tx.Exec(`
				UPDATE items SET position = position + 1
				WHERE list_id = ? AND position >= ?
			`, listID, pos); err != nil {
				return storageErr("shift steps", err)
			}
		}

		id, err = insertItemTx(tx, itemRow{
			collectionID: sql.NullInt64{Int64: collectionID, Valid: true},
			label:        label,
			content:      st.Content,
			kind:         kind,
			contentSize:  len(st.Content),
			listID:       sql.NullInt64{Int64: listID, Valid: true},
			position:     sql.NullInt64{Int64: int64(pos), Valid: true},
		})
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ListSteps returns all steps of a list in position order.
func (s *Store) ListSteps(ctx context.Context, listID int64) ([]model.Item, error) {
	if _, err := s.GetList(ctx, listID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+itemColumns+` FROM items
		WHERE list_id = ?
		ORDER BY position ASC, id ASC
	`, listID)
	if err != nil {
		return nil, storageErr("query steps", err)
	}
	defer rows.Close()
	return s.collectItems(rows)
}

// DeleteList deletes a list and every step item it owns. Tag counters of
// tagged steps move down with them; the steps go before the list row so no
// orphaned positions survive a partial constraint failure.
func (s *Store) DeleteList(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRow(`SELECT COUNT(*) FROM lists WHERE id = ?`, id).Scan(&n); err != nil {
			return storageErr("check list", err)
		}
		if n == 0 {
			return notFoundErr("list", id)
		}

		if err := releaseTagsByOwnerTx(tx, "list_id", id); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM items WHERE list_id = ?`, id); err != nil {
			return storageErr("delete steps", err)
		}
		if _, err := tx.Exec(`DELETE FROM lists WHERE id = ?`, id); err != nil {
			return storageErr("delete list", err)
		}
		return nil
	})
}

// TouchList bumps a list's usage counter.
func (s *Store) TouchList(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE lists SET used_count = used_count + 1 WHERE id = ?
	`, id)
	if err != nil {
		return storageErr("touch list", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("touch list", err)
	}
	if n == 0 {
		return notFoundErr("list", id)
	}
	return nil
}

// StepCount returns the number of steps in a list.
func (s *Store) StepCount(ctx context.Context, listID int64) (int, error) {
	if _, err := s.GetList(ctx, listID); err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items WHERE list_id = ?`, listID).Scan(&n); err != nil {
		return 0, storageErr("count steps", err)
	}
	return n, nil
}

func stepCountTx(tx *sql.Tx, listID int64) (int, error) {
	var n int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM items WHERE list_id = ?`, listID).Scan(&n); err != nil {
		return 0, storageErr("count steps", err)
	}
	return n, nil
}

func scanList(row rowScanner, ref any) (model.List, error) {
	var l model.List
	var createdMs int64
	err := row.Scan(&l.ID, &l.CollectionID, &l.Name, &l.Description, &l.UsedCount, &createdMs)
	if errors.Is(err, sql.ErrNoRows) {
		return model.List{}, notFoundErr("list", ref)
	}
	if err != nil {
		return model.List{}, storageErr("scan list", err)
	}
	l.CreatedAt = time.UnixMilli(createdMs).UTC()
	return l, nil
}
