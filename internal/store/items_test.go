package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipkeep/internal/model"
	"clipkeep/internal/vault"
)

func TestCreateItem_ReadBack(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	colID := createTestCollection(t, s, "work")

	id, err := s.CreateItem(ctx, NewItem{
		CollectionID: colID,
		Label:        "deploy",
		Content:      "kubectl rollout restart deploy/api",
		Kind:         model.KindCommand,
		Favorite:     true,
		Color:        "red",
		Description:  "restart the api",
		Tags:         []string{"k8s", "ops"},
	})
	require.NoError(t, err)

	it, err := s.ReadItem(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "deploy", it.Label)
	assert.Equal(t, "kubectl rollout restart deploy/api", it.Content)
	assert.Equal(t, model.KindCommand, it.Kind)
	assert.True(t, it.Favorite)
	assert.Equal(t, "red", it.Color)
	assert.Equal(t, "restart the api", it.Description)
	assert.Equal(t, []string{"k8s", "ops"}, it.Tags)
	assert.Equal(t, model.Standalone{}, it.Placement)
	assert.Equal(t, len(it.Content), it.ContentSize)
}

func TestCreateItem_Validation(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	colID := createTestCollection(t, s, "work")

	_, err := s.CreateItem(ctx, NewItem{CollectionID: colID, Label: "  ", Content: "x"})
	assert.True(t, IsValidation(err), "blank label should fail validation, got %v", err)

	_, err = s.CreateItem(ctx, NewItem{CollectionID: colID, Label: "x", Content: ""})
	assert.True(t, IsValidation(err), "empty content should fail validation, got %v", err)

	_, err = s.CreateItem(ctx, NewItem{CollectionID: colID, Label: "x", Content: "y", Kind: "blob"})
	assert.True(t, IsValidation(err), "unknown kind should fail validation, got %v", err)

	_, err = s.CreateItem(ctx, NewItem{CollectionID: 9999, Label: "x", Content: "y"})
	assert.True(t, IsNotFound(err), "missing collection should be NotFound, got %v", err)
}

func TestCreateItem_KindDefaultsToText(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	colID := createTestCollection(t, s, "work")

	id, err := s.CreateItem(ctx, NewItem{CollectionID: colID, Label: "note", Content: "hello"})
	require.NoError(t, err)

	it, err := s.ReadItem(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.KindText, it.Kind)
}

func TestCreateItem_SensitiveEncryptedAtRest(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	colID := createTestCollection(t, s, "work")

	id, err := s.CreateItem(ctx, NewItem{
		CollectionID: colID,
		Label:        "db password",
		Content:      "hunter2",
		Sensitive:    true,
	})
	require.NoError(t, err)

	// Raw storage must hold the envelope, not the plaintext
	var stored string
	require.NoError(t, s.db.QueryRow(`SELECT content FROM items WHERE id = ?`, id).Scan(&stored))
	assert.NotEqual(t, "hunter2", stored)
	assert.True(t, vault.IsEncrypted(stored))

	// Reads decrypt transparently
	it, err := s.ReadItem(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", it.Content)
}

func TestCreateItem_SensitiveWithoutVault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, nil)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	colID := createTestCollection(t, s, "work")

	_, err = s.CreateItem(ctx, NewItem{
		CollectionID: colID,
		Label:        "secret",
		Content:      "hunter2",
		Sensitive:    true,
	})
	assert.True(t, IsValidation(err), "sensitive write without key material should fail, got %v", err)
}

func TestReadItem_CorruptContentSentinel(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	colID := createTestCollection(t, s, "work")

	id, err := s.CreateItem(ctx, NewItem{
		CollectionID: colID,
		Label:        "secret",
		Content:      "hunter2",
		Sensitive:    true,
	})
	require.NoError(t, err)

	// Corrupt the stored envelope behind the store's back
	_, err = s.db.Exec(`UPDATE items SET content = 'ckv1:not-base64!' WHERE id = ?`, id)
	require.NoError(t, err)

	it, err := s.ReadItem(ctx, id)
	require.NoError(t, err, "reads recover with the sentinel instead of failing")
	assert.Equal(t, model.CorruptContentSentinel, it.Content)
}

func TestUpdateItem_PartialPatch(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	colID := createTestCollection(t, s, "work")

	id, err := s.CreateItem(ctx, NewItem{
		CollectionID: colID,
		Label:        "note",
		Content:      "original",
		Color:        "blue",
	})
	require.NoError(t, err)

	label := "renamed"
	fav := true
	require.NoError(t, s.UpdateItem(ctx, id, ItemPatch{Label: &label, Favorite: &fav}))

	it, err := s.ReadItem(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "renamed", it.Label)
	assert.True(t, it.Favorite)
	// Untouched fields survive
	assert.Equal(t, "original", it.Content)
	assert.Equal(t, "blue", it.Color)
}

func TestUpdateItem_SensitivityTransitions(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	colID := createTestCollection(t, s, "work")

	id, err := s.CreateItem(ctx, NewItem{CollectionID: colID, Label: "token", Content: "tok-123"})
	require.NoError(t, err)

	// Plain -> sensitive seals the stored plaintext
	on := true
	require.NoError(t, s.UpdateItem(ctx, id, ItemPatch{Sensitive: &on}))
	var stored string
	require.NoError(t, s.db.QueryRow(`SELECT content FROM items WHERE id = ?`, id).Scan(&stored))
	assert.True(t, vault.IsEncrypted(stored))

	it, err := s.ReadItem(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", it.Content)

	// Sensitive -> plain stores the plaintext again
	off := false
	require.NoError(t, s.UpdateItem(ctx, id, ItemPatch{Sensitive: &off}))
	require.NoError(t, s.db.QueryRow(`SELECT content FROM items WHERE id = ?`, id).Scan(&stored))
	assert.Equal(t, "tok-123", stored)
}

func TestUpdateItem_SensitiveOffWithCorruptContent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	colID := createTestCollection(t, s, "work")

	id, err := s.CreateItem(ctx, NewItem{
		CollectionID: colID,
		Label:        "secret",
		Content:      "hunter2",
		Sensitive:    true,
	})
	require.NoError(t, err)

	_, err = s.db.Exec(`UPDATE items SET content = 'ckv1:garbage' WHERE id = ?`, id)
	require.NoError(t, err)

	// Turning sensitivity off depends on the plaintext, so this must fail
	// loudly rather than persist the sentinel
	off := false
	err = s.UpdateItem(ctx, id, ItemPatch{Sensitive: &off})
	assert.True(t, IsCorruptContent(err), "expected CorruptContent, got %v", err)
}

func TestUpdateItem_NotFound(t *testing.T) {
	s := createTestStore(t)
	label := "x"
	err := s.UpdateItem(context.Background(), 42, ItemPatch{Label: &label})
	assert.True(t, IsNotFound(err))
}

func TestDeleteItem(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	colID := createTestCollection(t, s, "work")

	id, err := s.CreateItem(ctx, NewItem{CollectionID: colID, Label: "note", Content: "x"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteItem(ctx, id))

	_, err = s.ReadItem(ctx, id)
	assert.True(t, IsNotFound(err))

	// Deleting again is NotFound, not a silent no-op
	err = s.DeleteItem(ctx, id)
	assert.True(t, IsNotFound(err))
}

func TestItems_OnlyStandaloneInCollection(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	colID := createTestCollection(t, s, "work")
	otherID := createTestCollection(t, s, "home")

	_, err := s.CreateItem(ctx, NewItem{CollectionID: colID, Label: "b-note", Content: "x"})
	require.NoError(t, err)
	_, err = s.CreateItem(ctx, NewItem{CollectionID: colID, Label: "a-note", Content: "y"})
	require.NoError(t, err)
	_, err = s.CreateItem(ctx, NewItem{CollectionID: otherID, Label: "elsewhere", Content: "z"})
	require.NoError(t, err)

	// List steps must not leak into the snippet listing
	listID := createTestList(t, s, colID, "checklist")
	createTestSteps(t, s, listID, "step one")

	items, err := s.Items(ctx, colID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a-note", items[0].Label)
	assert.Equal(t, "b-note", items[1].Label)
}

func TestCreateItem_AlreadySealedContentStoredAsIs(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	colID := createTestCollection(t, s, "work")

	sealed, err := s.vault.Encrypt("hunter2")
	require.NoError(t, err)

	id, err := s.CreateItem(ctx, NewItem{
		CollectionID: colID,
		Label:        "token",
		Content:      sealed,
		Sensitive:    true,
	})
	require.NoError(t, err)

	// The envelope is stored verbatim, not double-encrypted, and the
	// plaintext size is recorded as unknown.
	var stored string
	require.NoError(t, s.db.QueryRow(`SELECT content FROM items WHERE id = ?`, id).Scan(&stored))
	assert.Equal(t, sealed, stored)

	it, err := s.ReadItem(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", it.Content)
	assert.Equal(t, 0, it.ContentSize)
}

func TestCreateItem_FailedTagRollsBackEverything(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	colID := createTestCollection(t, s, "work")

	// The first tag lands before the blank one fails; the rollback must
	// take the item row and the tag with it.
	_, err := s.CreateItem(ctx, NewItem{
		CollectionID: colID,
		Label:        "deploy",
		Content:      "kubectl rollout restart deploy/api",
		Tags:         []string{"ok", "   "},
	})
	assert.True(t, IsValidation(err), "blank tag should fail validation, got %v", err)

	var items, tags int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM items`).Scan(&items))
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM tags`).Scan(&tags))
	assert.Equal(t, 0, items)
	assert.Equal(t, 0, tags)
}
