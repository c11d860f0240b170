package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTag(t *testing.T) {
	assert.Equal(t, "ops", NormalizeTag("  OPS "))
	assert.Equal(t, "ops", NormalizeTag("Ops"))
	// Case folding, not lowercasing: both spellings land on one entry
	assert.Equal(t, NormalizeTag("straße"), NormalizeTag("STRASSE"))
}

func TestAssociate_CountsAndDeduplicates(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	colID := createTestCollection(t, s, "work")

	id, err := s.CreateItem(ctx, NewItem{CollectionID: colID, Label: "note", Content: "x"})
	require.NoError(t, err)

	require.NoError(t, s.Associate(ctx, id, "Ops"))
	// Same tag under a different spelling resolves to one vocabulary entry
	require.NoError(t, s.Associate(ctx, id, "  ops "))

	tag, err := s.GetTagByName(ctx, "ops")
	require.NoError(t, err)
	assert.Equal(t, 1, tag.UsedCount, "re-associating must not double count")

	tags, err := s.ItemTags(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"ops"}, tags)
}

func TestAssociate_MissingItem(t *testing.T) {
	s := createTestStore(t)
	err := s.Associate(context.Background(), 9999, "ops")
	assert.True(t, IsNotFound(err))
}

func TestDissociate_FloorsAtZero(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	colID := createTestCollection(t, s, "work")

	id, err := s.CreateItem(ctx, NewItem{CollectionID: colID, Label: "note", Content: "x"})
	require.NoError(t, err)
	require.NoError(t, s.Associate(ctx, id, "ops"))

	require.NoError(t, s.Dissociate(ctx, id, "ops"))
	tag, err := s.GetTagByName(ctx, "ops")
	require.NoError(t, err)
	assert.Equal(t, 0, tag.UsedCount)

	// Dissociating an absent link is a no-op, not an error, and the counter
	// never goes negative
	require.NoError(t, s.Dissociate(ctx, id, "ops"))
	require.NoError(t, s.Dissociate(ctx, id, "never-existed"))

	tag, err = s.GetTagByName(ctx, "ops")
	require.NoError(t, err)
	assert.Equal(t, 0, tag.UsedCount)
}

func TestReplaceItemTags_DiffReconciliation(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	colID := createTestCollection(t, s, "work")

	id, err := s.CreateItem(ctx, NewItem{
		CollectionID: colID, Label: "note", Content: "x",
		Tags: []string{"a", "b"},
	})
	require.NoError(t, err)

	_, err = s.CreateItem(ctx, NewItem{
		CollectionID: colID, Label: "other", Content: "y",
		Tags: []string{"b"},
	})
	require.NoError(t, err)

	// ["a","b"] -> ["b","c"]: a drops, c appears, b is untouched
	require.NoError(t, s.ReplaceItemTags(ctx, id, []string{"b", "c"}))

	tags, err := s.ItemTags(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, tags)

	a, err := s.GetTagByName(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 0, a.UsedCount)

	b, err := s.GetTagByName(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, 2, b.UsedCount, "the kept tag keeps both associations")

	c, err := s.GetTagByName(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, 1, c.UsedCount)
}

func TestReplaceItemTags_SameSetTwiceIsInert(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	colID := createTestCollection(t, s, "work")

	id, err := s.CreateItem(ctx, NewItem{
		CollectionID: colID, Label: "note", Content: "x",
		Tags: []string{"a", "b"},
	})
	require.NoError(t, err)

	require.NoError(t, s.ReplaceItemTags(ctx, id, []string{"a", "b"}))
	before, err := s.TagsWithUsage(ctx)
	require.NoError(t, err)

	require.NoError(t, s.ReplaceItemTags(ctx, id, []string{"a", "b"}))
	after, err := s.TagsWithUsage(ctx)
	require.NoError(t, err)

	// Counters and last-used timestamps of unchanged tags do not move
	assert.Equal(t, before, after)
}

func TestReplaceItemTags_Empty(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	colID := createTestCollection(t, s, "work")

	id, err := s.CreateItem(ctx, NewItem{
		CollectionID: colID, Label: "note", Content: "x",
		Tags: []string{"a", "b"},
	})
	require.NoError(t, err)

	require.NoError(t, s.ReplaceItemTags(ctx, id, nil))

	tags, err := s.ItemTags(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestDeleteItem_ReleasesTagCounters(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	colID := createTestCollection(t, s, "work")

	id, err := s.CreateItem(ctx, NewItem{
		CollectionID: colID, Label: "note", Content: "x",
		Tags: []string{"ops"},
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteItem(ctx, id))

	tag, err := s.GetTagByName(ctx, "ops")
	require.NoError(t, err)
	assert.Equal(t, 0, tag.UsedCount)
}

func TestPruneUnusedTags(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	colID := createTestCollection(t, s, "work")

	id, err := s.CreateItem(ctx, NewItem{
		CollectionID: colID, Label: "note", Content: "x",
		Tags: []string{"keep", "drop"},
	})
	require.NoError(t, err)
	require.NoError(t, s.Dissociate(ctx, id, "drop"))

	n, err := s.PruneUnusedTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.GetTagByName(ctx, "drop")
	assert.True(t, IsNotFound(err))
	_, err = s.GetTagByName(ctx, "keep")
	assert.NoError(t, err)
}

func TestRecountTag_RepairsDriftedCounter(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	colID := createTestCollection(t, s, "work")

	_, err := s.CreateItem(ctx, NewItem{
		CollectionID: colID, Label: "note", Content: "x",
		Tags: []string{"ops"},
	})
	require.NoError(t, err)

	tag, err := s.GetTagByName(ctx, "ops")
	require.NoError(t, err)

	// Drift the counter behind the store's back
	_, err = s.db.Exec(`UPDATE tags SET used_count = 41 WHERE id = ?`, tag.ID)
	require.NoError(t, err)

	require.NoError(t, s.RecountTag(ctx, tag.ID))

	tag, err = s.GetTagByName(ctx, "ops")
	require.NoError(t, err)
	assert.Equal(t, 1, tag.UsedCount)

	assert.True(t, IsNotFound(s.RecountTag(ctx, 9999)))
}

func TestTagsWithUsage(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	colID := createTestCollection(t, s, "work")

	_, err := s.CreateItem(ctx, NewItem{
		CollectionID: colID, Label: "note", Content: "x",
		Tags: []string{"zeta", "alpha"},
	})
	require.NoError(t, err)

	tags, err := s.TagsWithUsage(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "alpha", tags[0].Name)
	assert.Equal(t, "zeta", tags[1].Name)
	assert.Equal(t, 1, tags[0].UsedCount)
	assert.False(t, tags[0].LastUsedAt.IsZero())
}

func TestReplaceItemTags_FailureLeavesCountersUntouched(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	colID := createTestCollection(t, s, "work")

	id, err := s.CreateItem(ctx, NewItem{
		CollectionID: colID, Label: "x", Content: "y",
		Tags: []string{"a", "b"},
	})
	require.NoError(t, err)

	before, err := s.TagsWithUsage(ctx)
	require.NoError(t, err)

	err = s.ReplaceItemTags(ctx, id, []string{"b", "c", "   "})
	assert.True(t, IsValidation(err), "blank tag should fail validation, got %v", err)

	after, err := s.TagsWithUsage(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	tags, err := s.ItemTags(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tags)
}
