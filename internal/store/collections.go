package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"clipkeep/internal/model"
)

// CreateCollection creates a new named collection.
// Fails with Conflict if the name is already taken.
func (s *Store) CreateCollection(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, validationErr("collection name must not be empty")
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO collections (name, created_at_unixms) VALUES (?, ?)
		ON CONFLICT(name) DO NOTHING
	`, name, nowMs())
	if err != nil {
		return 0, storageErr("create collection", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("create collection", err)
	}
	if n == 0 {
		return 0, conflictErr("collection", "name %q already exists", name)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("create collection", err)
	}
	return id, nil
}

// GetCollectionByName looks up a collection by exact name.
func (s *Store) GetCollectionByName(ctx context.Context, name string) (model.Collection, error) {
	var c model.Collection
	var createdMs int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at_unixms FROM collections WHERE name = ?
	`, strings.TrimSpace(name)).Scan(&c.ID, &c.Name, &createdMs)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Collection{}, notFoundErr("collection", name)
	}
	if err != nil {
		return model.Collection{}, storageErr("get collection", err)
	}
	c.CreatedAt = time.UnixMilli(createdMs).UTC()
	return c, nil
}

// EnsureCollection returns the id of the named collection, creating it if
// absent.
func (s *Store) EnsureCollection(ctx context.Context, name string) (int64, error) {
	id, err := s.CreateCollection(ctx, name)
	if err == nil {
		return id, nil
	}
	if !IsConflict(err) {
		return 0, err
	}
	c, err := s.GetCollectionByName(ctx, name)
	if err != nil {
		return 0, err
	}
	return c.ID, nil
}

// Collections returns all collections ordered by name.
func (s *Store) Collections(ctx context.Context) ([]model.Collection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at_unixms FROM collections ORDER BY name ASC
	`)
	if err != nil {
		return nil, storageErr("query collections", err)
	}
	defer rows.Close()

	var out []model.Collection
	for rows.Next() {
		var c model.Collection
		var createdMs int64
		if err := rows.Scan(&c.ID, &c.Name, &createdMs); err != nil {
			return nil, storageErr("scan collection", err)
		}
		c.CreatedAt = time.UnixMilli(createdMs).UTC()
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate collections", err)
	}

	if out == nil {
		out = []model.Collection{}
	}
	return out, nil
}

func collectionExistsTx(tx *sql.Tx, id int64) (bool, error) {
	var n int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM collections WHERE id = ?`, id).Scan(&n); err != nil {
		return false, storageErr("check collection", err)
	}
	return n > 0, nil
}
