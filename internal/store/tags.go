package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"clipkeep/internal/model"
)

// The tag manager maintains a deduplicated vocabulary of normalized labels
// with live reference counts. It is the only writer of item_tags rows.
// Counters move by deltas paired with the association change in the same
// transaction; the explicit RecountTag repair is the only path that rescans.

var tagFolder = cases.Fold()

// NormalizeTag canonicalizes a tag name: trimmed, NFC-normalized and
// case-folded, so "Ops", "ops " and "OPS" share one vocabulary entry.
func NormalizeTag(name string) string {
	return tagFolder.String(norm.NFC.String(strings.TrimSpace(name)))
}

// GetOrCreateTag resolves a normalized tag name to its id, creating the tag
// with a zero usage counter if absent.
func (s *Store) GetOrCreateTag(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = getOrCreateTagTx(tx, name)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Associate links an item with a tag, creating the tag if needed.
// Re-associating is a no-op: the usage counter and last-used timestamp move
// only on actual insertion.
func (s *Store) Associate(ctx context.Context, itemID int64, name string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := itemExistsTx(tx, itemID); err != nil {
			return err
		}
		_, err := associateTx(tx, itemID, name, nowMs())
		return err
	})
}

// Dissociate removes an item-tag link if present and decrements the usage
// counter, floored at zero. Absent tag or absent link is a no-op.
func (s *Store) Dissociate(ctx context.Context, itemID int64, name string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return dissociateTx(tx, itemID, name)
	})
}

// ReplaceItemTags swaps an item's full tag set for newNames using diff
// reconciliation: only true additions and removals touch counters, so tags
// present in both sets keep their counter and last-used timestamp.
func (s *Store) ReplaceItemTags(ctx context.Context, itemID int64, newNames []string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := itemExistsTx(tx, itemID); err != nil {
			return err
		}
		return replaceItemTagsTx(tx, itemID, newNames, nowMs())
	})
}

// ItemTags returns the item's tag names sorted alphabetically.
func (s *Store) ItemTags(ctx context.Context, itemID int64) ([]string, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE id = ?`, itemID).Scan(&n); err != nil {
		return nil, storageErr("check item", err)
	}
	if n == 0 {
		return nil, notFoundErr("item", itemID)
	}
	return s.itemTags(ctx, itemID)
}

// PruneUnusedTags deletes every tag whose usage counter is zero and returns
// how many went. Counters are the source of truth for liveness, so this is
// safe to run at any time.
func (s *Store) PruneUnusedTags(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tags WHERE used_count = 0`)
	if err != nil {
		return 0, storageErr("prune tags", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("prune tags", err)
	}
	return n, nil
}

// RecountTag re-derives one tag's usage counter from its live associations.
// Administrative repair for drift after an external fault; normal operation
// never needs it.
func (s *Store) RecountTag(ctx context.Context, tagID int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tags
		SET used_count = (SELECT COUNT(*) FROM item_tags WHERE tag_id = tags.id)
		WHERE id = ?
	`, tagID)
	if err != nil {
		return storageErr("recount tag", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("recount tag", err)
	}
	if n == 0 {
		return notFoundErr("tag", tagID)
	}
	return nil
}

// GetTagByName looks up a tag by its normalized name.
func (s *Store) GetTagByName(ctx context.Context, name string) (model.Tag, error) {
	normalized := NormalizeTag(name)
	var t model.Tag
	var lastMs int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, used_count, last_used_at_unixms
		FROM tags WHERE name = ?
	`, normalized).Scan(&t.ID, &t.Name, &t.UsedCount, &lastMs)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Tag{}, &StoreError{Code: CodeNotFound, Entity: "tag", Message: fmt.Sprintf("tag %q not found", normalized)}
	}
	if err != nil {
		return model.Tag{}, storageErr("query tag", err)
	}
	t.LastUsedAt = time.UnixMilli(lastMs).UTC()
	return t, nil
}

// TagsWithUsage returns the full vocabulary with counters, ordered by name.
func (s *Store) TagsWithUsage(ctx context.Context) ([]model.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, used_count, last_used_at_unixms
		FROM tags ORDER BY name ASC
	`)
	if err != nil {
		return nil, storageErr("query tags", err)
	}
	defer rows.Close()

	var out []model.Tag
	for rows.Next() {
		var t model.Tag
		var lastMs int64
		if err := rows.Scan(&t.ID, &t.Name, &t.UsedCount, &lastMs); err != nil {
			return nil, storageErr("scan tag", err)
		}
		t.LastUsedAt = time.UnixMilli(lastMs).UTC()
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate tags", err)
	}
	if out == nil {
		out = []model.Tag{}
	}
	return out, nil
}

func getOrCreateTagTx(tx *sql.Tx, name string) (int64, error) {
	normalized := NormalizeTag(name)
	if normalized == "" {
		return 0, validationErr("tag name must not be empty")
	}

	res, err := tx.Exec(`
		INSERT INTO tags (name, used_count, last_used_at_unixms)
		VALUES (?, 0, 0)
		ON CONFLICT(name) DO NOTHING
	`, normalized)
	if err != nil {
		return 0, storageErr("create tag", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("create tag", err)
	}
	if n > 0 {
		id, err := res.LastInsertId()
		if err != nil {
			return 0, storageErr("create tag", err)
		}
		return id, nil
	}

	var id int64
	if err := tx.QueryRow(`SELECT id FROM tags WHERE name = ?`, normalized).Scan(&id); err != nil {
		return 0, storageErr("find tag", err)
	}
	return id, nil
}

// associateTx inserts the association if new and moves the counter with it.
// Returns whether a new association was inserted.
func associateTx(tx *sql.Tx, itemID int64, name string, now int64) (bool, error) {
	tagID, err := getOrCreateTagTx(tx, name)
	if err != nil {
		return false, err
	}

	res, err := tx.Exec(`
		INSERT INTO item_tags (item_id, tag_id) VALUES (?, ?)
		ON CONFLICT(item_id, tag_id) DO NOTHING
	`, itemID, tagID)
	if err != nil {
		return false, storageErr("associate tag", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("associate tag", err)
	}
	if n == 0 {
		return false, nil
	}

	if _, err := tx.Exec(`
		UPDATE tags SET used_count = used_count + 1, last_used_at_unixms = ?
		WHERE id = ?
	`, now, tagID); err != nil {
		return false, storageErr("bump tag counter", err)
	}
	return true, nil
}

func dissociateTx(tx *sql.Tx, itemID int64, name string) error {
	normalized := NormalizeTag(name)
	if normalized == "" {
		return validationErr("tag name must not be empty")
	}

	var tagID int64
	err := tx.QueryRow(`SELECT id FROM tags WHERE name = ?`, normalized).Scan(&tagID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return storageErr("find tag", err)
	}

	res, err := tx.Exec(`
		DELETE FROM item_tags WHERE item_id = ? AND tag_id = ?
	`, itemID, tagID)
	if err != nil {
		return storageErr("dissociate tag", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("dissociate tag", err)
	}
	if n == 0 {
		return nil
	}

	if _, err := tx.Exec(`
		UPDATE tags SET used_count = MAX(0, used_count - 1) WHERE id = ?
	`, tagID); err != nil {
		return storageErr("drop tag counter", err)
	}
	return nil
}

// replaceItemTagsTx applies the mandated diff-based replacement: compute
// additions and removals against the current set, never clear-and-reinsert.
func replaceItemTagsTx(tx *sql.Tx, itemID int64, newNames []string, now int64) error {
	current, err := itemTagSetTx(tx, itemID)
	if err != nil {
		return err
	}

	next := make(map[string]bool, len(newNames))
	for _, n := range newNames {
		normalized := NormalizeTag(n)
		if normalized == "" {
			return validationErr("tag name must not be empty")
		}
		next[normalized] = true
	}

	var toRemove, toAdd []string
	for name := range current {
		if !next[name] {
			toRemove = append(toRemove, name)
		}
	}
	for name := range next {
		if !current[name] {
			toAdd = append(toAdd, name)
		}
	}
	sort.Strings(toRemove)
	sort.Strings(toAdd)

	for _, name := range toRemove {
		if err := dissociateTx(tx, itemID, name); err != nil {
			return err
		}
	}
	for _, name := range toAdd {
		if _, err := associateTx(tx, itemID, name, now); err != nil {
			return err
		}
	}
	return nil
}

func itemTagSetTx(tx *sql.Tx, itemID int64) (map[string]bool, error) {
	rows, err := tx.Query(`
		SELECT t.name FROM tags t
		JOIN item_tags it ON it.tag_id = t.id
		WHERE it.item_id = ?
	`, itemID)
	if err != nil {
		return nil, storageErr("query item tags", err)
	}
	defer rows.Close()

	set := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, storageErr("scan item tag", err)
		}
		set[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate item tags", err)
	}
	return set, nil
}

func (s *Store) itemTags(ctx context.Context, itemID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.name FROM tags t
		JOIN item_tags it ON it.tag_id = t.id
		WHERE it.item_id = ?
		ORDER BY t.name ASC
	`, itemID)
	if err != nil {
		return nil, storageErr("query item tags", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, storageErr("scan item tag", err)
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate item tags", err)
	}
	return out, nil
}

// releaseTagsTx drops the counter of every tag the item carries; callers
// remove the association rows (directly or via cascade) in the same
// transaction.
func releaseTagsTx(tx *sql.Tx, itemID int64) error {
	if _, err := tx.Exec(`
		UPDATE tags SET used_count = MAX(0, used_count - 1)
		WHERE id IN (SELECT tag_id FROM item_tags WHERE item_id = ?)
	`, itemID); err != nil {
		return storageErr("release tags", err)
	}
	return nil
}

// releaseTagsByOwnerTx is the cascade-delete variant: counters of tags on
// every item owned by the list or table drop by the item count carrying
// them. ownerCol is one of the internal owner columns, never user input.
func releaseTagsByOwnerTx(tx *sql.Tx, ownerCol string, ownerID int64) error {
	if ownerCol != "list_id" && ownerCol != "table_id" {
		return storageErr("release tags", fmt.Errorf("bad owner column %q", ownerCol))
	}
	q := fmt.Sprintf(`
		UPDATE tags SET used_count = MAX(0, used_count - (
			SELECT COUNT(*) FROM item_tags it
			JOIN items i ON i.id = it.item_id
			WHERE it.tag_id = tags.id AND i.%[1]s = ?
		))
		WHERE id IN (
			SELECT DISTINCT it.tag_id FROM item_tags it
			JOIN items i ON i.id = it.item_id
			WHERE i.%[1]s = ?
		)
	`, ownerCol)
	if _, err := tx.Exec(q, ownerID, ownerID); err != nil {
		return storageErr("release tags", err)
	}
	return nil
}

func itemExistsTx(tx *sql.Tx, itemID int64) error {
	var n int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM items WHERE id = ?`, itemID).Scan(&n); err != nil {
		return storageErr("check item", err)
	}
	if n == 0 {
		return notFoundErr("item", itemID)
	}
	return nil
}
