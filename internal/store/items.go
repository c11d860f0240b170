package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"clipkeep/internal/model"
	"clipkeep/internal/vault"
)

// itemColumns is the canonical select list for item rows. Every item query
// uses it so scanItem stays the single decode path.
const itemColumns = `id, collection_id, label, content, kind, sensitive, favorite,
	color, description, content_size, list_id, position, table_id, row_idx, col_idx,
	row_label, created_at_unixms, updated_at_unixms`

// NewItem describes a standalone snippet to create.
type NewItem struct {
	CollectionID int64
	Label        string
	Content      string
	Kind         model.ContentKind
	Sensitive    bool
	Favorite     bool
	Color        string
	Description  string
	Tags         []string
}

// CreateItem creates a standalone snippet. Sensitive content passes through
// the vault before storage; tags are associated inside the same transaction.
func (s *Store) CreateItem(ctx context.Context, n NewItem) (int64, error) {
	label := strings.TrimSpace(n.Label)
	if label == "" {
		return 0, validationErr("item label must not be empty")
	}
	if strings.TrimSpace(n.Content) == "" {
		return 0, validationErr("item content must not be empty")
	}
	kind, err := model.ParseKind(string(n.Kind))
	if err != nil {
		return 0, validationErr("%v", err)
	}

	content, size, err := s.sealContent(n.Content, n.Sensitive)
	if err != nil {
		return 0, err
	}

	var id int64
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		ok, err := collectionExistsTx(tx, n.CollectionID)
		if err != nil {
			return err
		}
		if !ok {
			return notFoundErr("collection", n.CollectionID)
		}

		id, err = insertItemTx(tx, itemRow{
			collectionID: sql.NullInt64{Int64: n.CollectionID, Valid: true},
			label:        label,
			content:      content,
			kind:         kind,
			sensitive:    n.Sensitive,
			favorite:     n.Favorite,
			color:        n.Color,
			description:  n.Description,
			contentSize:  size,
		})
		if err != nil {
			return err
		}

		now := nowMs()
		for _, tag := range n.Tags {
			if _, err := associateTx(tx, id, tag, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ReadItem returns one item with its tags. Sensitive content is decrypted
// transparently; if decryption fails the item is still returned with the
// corrupt-content sentinel so read paths never hard-fail on one bad record.
func (s *Store) ReadItem(ctx context.Context, id int64) (model.Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Item{}, notFoundErr("item", id)
	}
	if err != nil {
		return model.Item{}, err
	}

	tags, err := s.itemTags(ctx, id)
	if err != nil {
		return model.Item{}, err
	}
	it.Tags = tags

	s.revealContent(&it)
	return it, nil
}

// ItemPatch is a partial update; nil fields are left untouched.
// A non-nil Tags replaces the item's full tag set via the diff-based
// reconciliation, so counters of unchanged tags do not move.
type ItemPatch struct {
	Label       *string
	Content     *string
	Kind        *model.ContentKind
	Sensitive   *bool
	Favorite    *bool
	Color       *string
	Description *string
	Tags        *[]string
}

// UpdateItem applies a partial update inside one transaction.
//
// Content and the sensitivity flag interact: content stored for a sensitive
// item is always in envelope form, and content stored for a plain item never
// is. Encrypting already-encrypted content is avoided by the vault's format
// sniff. Turning sensitivity off requires the stored ciphertext to decrypt;
// a corrupt payload fails that path loudly with CorruptContent.
//
// Content writes to a key-column cell fan out to the row-label cache of
// the whole row, exactly as SetCell does.
func (s *Store) UpdateItem(ctx context.Context, id int64, p ItemPatch) error {
	if p.Label != nil && strings.TrimSpace(*p.Label) == "" {
		return validationErr("item label must not be empty")
	}
	if p.Content != nil && strings.TrimSpace(*p.Content) == "" {
		return validationErr("item content must not be empty")
	}
	if p.Kind != nil {
		if _, err := model.ParseKind(string(*p.Kind)); err != nil {
			return validationErr("%v", err)
		}
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRow(`SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
		cur, err := scanItem(row)
		if errors.Is(err, sql.ErrNoRows) {
			return notFoundErr("item", id)
		}
		if err != nil {
			return err
		}

		next := cur
		if p.Label != nil {
			next.Label = strings.TrimSpace(*p.Label)
		}
		if p.Kind != nil {
			next.Kind = *p.Kind
		}
		if p.Sensitive != nil {
			next.Sensitive = *p.Sensitive
		}
		if p.Favorite != nil {
			next.Favorite = *p.Favorite
		}
		if p.Color != nil {
			next.Color = *p.Color
		}
		if p.Description != nil {
			next.Description = *p.Description
		}

		content, size, err := s.resealContent(cur, next.Sensitive, p.Content)
		if err != nil {
			return err
		}

		_, err = tx.Exec(`
			UPDATE items SET label = ?, content = ?, kind = ?, sensitive = ?,
				favorite = ?, color = ?, description = ?, content_size = ?,
				updated_at_unixms = ?
			WHERE id = ?
		`, next.Label, content, string(next.Kind), boolToInt(next.Sensitive),
			boolToInt(next.Favorite), next.Color, next.Description, size,
			nowMs(), id)
		if err != nil {
			return storageErr("update item", err)
		}

		// A stored-content change on a key-column cell reaches the row-label
		// cache the same way SetCell does.
		if addr, ok := cur.Cell(); ok && addr.Col == 0 && content != cur.Content {
			if err := refreshRowLabelsTx(tx, addr.TableID, addr.Row, content); err != nil {
				return err
			}
		}

		if p.Tags != nil {
			if err := replaceItemTagsTx(tx, id, *p.Tags, nowMs()); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteItem removes one item. Tag usage counters move down by one per
// association before the rows go; deleting a list step closes the position
// gap in the same transaction.
func (s *Store) DeleteItem(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRow(`SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
		it, err := scanItem(row)
		if errors.Is(err, sql.ErrNoRows) {
			return notFoundErr("item", id)
		}
		if err != nil {
			return err
		}

		if err := releaseTagsTx(tx, id); err != nil {
			return err
		}

		if _, err := tx.Exec(`DELETE FROM items WHERE id = ?`, id); err != nil {
			return storageErr("delete item", err)
		}

		if slot, ok := it.Slot(); ok {
			if err := closeGapTx(tx, slot.ListID, slot.Position); err != nil {
				return err
			}
		}
		return nil
	})
}

// Items returns all standalone snippets of a collection ordered by label.
func (s *Store) Items(ctx context.Context, collectionID int64) ([]model.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+itemColumns+` FROM items
		WHERE collection_id = ? AND list_id IS NULL AND table_id IS NULL
		ORDER BY label ASC, id ASC
	`, collectionID)
	if err != nil {
		return nil, storageErr("query items", err)
	}
	defer rows.Close()
	return s.collectItems(rows)
}

// sealContent prepares content for storage under the given sensitivity.
// Returns the stored form plus the plaintext size.
func (s *Store) sealContent(content string, sensitive bool) (string, int, error) {
	if !sensitive {
		return content, len(content), nil
	}
	if s.vault == nil {
		return "", 0, validationErr("sensitive content requires key material")
	}
	if vault.IsEncrypted(content) {
		// Already in envelope form; plaintext size is unknowable here.
		return content, 0, nil
	}
	sealed, err := s.vault.Encrypt(content)
	if err != nil {
		return "", 0, storageErr("encrypt content", err)
	}
	return sealed, len(content), nil
}

// resealContent computes the stored content for an update, honoring
// sensitivity transitions. newContent nil means "keep stored content".
func (s *Store) resealContent(cur model.Item, sensitive bool, newContent *string) (string, int, error) {
	if newContent != nil {
		stored, size, err := s.sealContent(*newContent, sensitive)
		if err != nil {
			return "", 0, err
		}
		return stored, size, nil
	}

	stored := cur.Content
	switch {
	case sensitive && !vault.IsEncrypted(stored):
		// Plain → sensitive: seal the stored plaintext.
		return s.sealContent(stored, true)
	case !sensitive && vault.IsEncrypted(stored):
		// Sensitive → plain: the stored ciphertext must open.
		if s.vault == nil {
			return "", 0, validationErr("decrypting content requires key material")
		}
		plain, err := s.vault.Decrypt(stored)
		if err != nil {
			return "", 0, corruptErr("item", cur.ID, err)
		}
		return plain, len(plain), nil
	default:
		return stored, cur.ContentSize, nil
	}
}

// revealContent decrypts a sensitive item in place, substituting the
// sentinel when the payload cannot be opened.
func (s *Store) revealContent(it *model.Item) {
	if !it.Sensitive {
		return
	}
	if s.vault == nil || !vault.IsEncrypted(it.Content) {
		it.Content = model.CorruptContentSentinel
		return
	}
	plain, err := s.vault.Decrypt(it.Content)
	if err != nil {
		it.Content = model.CorruptContentSentinel
		return
	}
	it.Content = plain
}

// itemRow carries the insert arguments shared by the three item creators.
// collectionID stays invalid for table cells; tables are global.
type itemRow struct {
	collectionID sql.NullInt64
	label        string
	content      string
	kind         model.ContentKind
	sensitive    bool
	favorite     bool
	color        string
	description  string
	contentSize  int

	listID   sql.NullInt64
	position sql.NullInt64

	tableID  sql.NullInt64
	rowIdx   sql.NullInt64
	colIdx   sql.NullInt64
	rowLabel string
}

func insertItemTx(tx *sql.Tx, r itemRow) (int64, error) {
	now := nowMs()
	res, err := tx.Exec(`
		INSERT INTO items (
			collection_id, label, content, kind, sensitive, favorite,
			color, description, content_size,
			list_id, position, table_id, row_idx, col_idx, row_label,
			created_at_unixms, updated_at_unixms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.collectionID, r.label, r.content, string(r.kind),
		boolToInt(r.sensitive), boolToInt(r.favorite),
		r.color, r.description, r.contentSize,
		r.listID, r.position, r.tableID, r.rowIdx, r.colIdx, r.rowLabel,
		now, now)
	if err != nil {
		return 0, storageErr("insert item", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("insert item", err)
	}
	return id, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanItem decodes one item row, reconstructing the sealed placement union
// from the nullable ownership columns.
func scanItem(row rowScanner) (model.Item, error) {
	var it model.Item
	var kind string
	var sensitive, favorite int
	var collectionID, listID, position, tableID, rowIdx, colIdx sql.NullInt64
	var rowLabel string
	var createdMs, updatedMs int64

	err := row.Scan(
		&it.ID, &collectionID, &it.Label, &it.Content, &kind,
		&sensitive, &favorite, &it.Color, &it.Description, &it.ContentSize,
		&listID, &position, &tableID, &rowIdx, &colIdx, &rowLabel,
		&createdMs, &updatedMs,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Item{}, err
	}
	if err != nil {
		return model.Item{}, storageErr("scan item", err)
	}

	it.CollectionID = collectionID.Int64
	it.Kind = model.ContentKind(kind)
	it.Sensitive = sensitive != 0
	it.Favorite = favorite != 0
	it.CreatedAt = time.UnixMilli(createdMs).UTC()
	it.UpdatedAt = time.UnixMilli(updatedMs).UTC()

	switch {
	case listID.Valid:
		it.Placement = model.ListSlot{ListID: listID.Int64, Position: int(position.Int64)}
	case tableID.Valid:
		it.Placement = model.CellAddr{
			TableID:  tableID.Int64,
			Row:      int(rowIdx.Int64),
			Col:      int(colIdx.Int64),
			RowLabel: rowLabel,
		}
	default:
		it.Placement = model.Standalone{}
	}
	return it, nil
}

// collectItems drains an item query, revealing sensitive content per row.
func (s *Store) collectItems(rows *sql.Rows) ([]model.Item, error) {
	var out []model.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		s.revealContent(&it)
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate items", err)
	}
	if out == nil {
		out = []model.Item{}
	}
	return out, nil
}
