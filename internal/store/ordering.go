package store

import (
	"context"
	"database/sql"
	"errors"
)

// The ordering engine keeps the positions of all steps of one list forming
// the contiguous sequence 1..N with no gaps, whatever order inserts, moves
// and deletes arrive in. It never creates or deletes items; it only
// reassigns position values of rows the repository owns.

// NextPosition returns the position an appended step would take.
func (s *Store) NextPosition(ctx context.Context, listID int64) (int, error) {
	n, err := s.StepCount(ctx, listID)
	if err != nil {
		return 0, err
	}
	return n + 1, nil
}

// MoveStep moves a step to newPos, shifting only the band of steps between
// the old and new positions. Untouched steps keep their positions, so the
// identity-to-position mapping stays stable outside the shifted band.
// Moving a step onto its current position is a no-op.
func (s *Store) MoveStep(ctx context.Context, itemID int64, newPos int) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRow(`SELECT `+itemColumns+` FROM items WHERE id = ?`, itemID)
		it, err := scanItem(row)
		if errors.Is(err, sql.ErrNoRows) {
			return notFoundErr("item", itemID)
		}
		if err != nil {
			return err
		}
		slot, ok := it.Slot()
		if !ok {
			return validationErr("item %d is not a list step", itemID)
		}

		count, err := stepCountTx(tx, slot.ListID)
		if err != nil {
			return err
		}
		if newPos < 1 || newPos > count {
			return validationErr("position %d out of range 1..%d", newPos, count)
		}

		old := slot.Position
		if newPos == old {
			return nil
		}

		// Three-phase shift: open a slot, slide the band, land the step.
		if newPos < old {
			_, err = tx.Exec(`
				UPDATE items SET position = position + 1
				WHERE list_id = ? AND position >= ? AND position < ?
			`, slot.ListID, newPos, old)
		} else {
			_, err = tx.Exec(`
				UPDATE items SET position = position - 1
				WHERE list_id = ? AND position > ? AND position <= ?
			`, slot.ListID, old, newPos)
		}
		if err != nil {
			return storageErr("shift band", err)
		}

		if _, err := tx.Exec(`
			UPDATE items SET position = ? WHERE id = ?
		`, newPos, itemID); err != nil {
			return storageErr("move step", err)
		}
		return nil
	})
}

// closeGapTx decrements the position of every step after a deleted one,
// preserving contiguity. Runs inside the same transaction as the physical
// item delete.
func closeGapTx(tx *sql.Tx, listID int64, deletedPos int) error {
	if _, err := tx.Exec(`
		UPDATE items SET position = position - 1
		WHERE list_id = ? AND position > ?
	`, listID, deletedPos); err != nil {
		return storageErr("close gap", err)
	}
	return nil
}

// RenumberList re-derives positions 1..N by stable-sorting the list's steps
// on their current position with creation order breaking ties. Recovery
// operation for a list whose contiguity was violated by an external fault.
func (s *Store) RenumberList(ctx context.Context, listID int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRow(`SELECT COUNT(*) FROM lists WHERE id = ?`, listID).Scan(&n); err != nil {
			return storageErr("check list", err)
		}
		if n == 0 {
			return notFoundErr("list", listID)
		}

		rows, err := tx.Query(`
			SELECT id FROM items
			WHERE list_id = ?
			ORDER BY position ASC, id ASC
		`, listID)
		if err != nil {
			return storageErr("query steps", err)
		}
		var ids []int64
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return storageErr("scan step", err)
			}
			ids = append(ids, id)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return storageErr("iterate steps", err)
		}
		rows.Close()

		for i, id := range ids {
			if _, err := tx.Exec(`
				UPDATE items SET position = ? WHERE id = ?
			`, i+1, id); err != nil {
				return storageErr("renumber step", err)
			}
		}
		return nil
	})
}

// StepPositions returns the current position multiset of a list, mainly for
// invariant checks and diagnostics.
func (s *Store) StepPositions(ctx context.Context, listID int64) ([]int, error) {
	steps, err := s.ListSteps(ctx, listID)
	if err != nil {
		return nil, err
	}
	out := make([]int, 0, len(steps))
	for _, st := range steps {
		if slot, ok := st.Slot(); ok {
			out = append(out, slot.Position)
		}
	}
	return out, nil
}
