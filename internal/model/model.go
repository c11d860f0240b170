package model

import (
	"fmt"
	"time"
)

// ContentKind classifies what an item's content holds.
type ContentKind string

const (
	KindText    ContentKind = "text"
	KindURL     ContentKind = "url"
	KindCommand ContentKind = "command"
	KindPath    ContentKind = "path"
)

// ValidKinds defines the closed set of content kinds.
var ValidKinds = map[ContentKind]bool{
	KindText:    true,
	KindURL:     true,
	KindCommand: true,
	KindPath:    true,
}

// ParseKind validates a kind string. An empty string defaults to KindText.
func ParseKind(s string) (ContentKind, error) {
	if s == "" {
		return KindText, nil
	}
	k := ContentKind(s)
	if !ValidKinds[k] {
		return "", fmt.Errorf("invalid content kind %q", s)
	}
	return k, nil
}

// CorruptContentSentinel replaces the content of a sensitive item whose
// ciphertext can no longer be decrypted. Read paths return the item with
// this marker instead of failing the whole read.
const CorruptContentSentinel = "<corrupt content>"

// Placement is the sealed ownership marker for an item: an item is
// standalone, a step of exactly one list, or a cell of exactly one table.
// At most one owner exists at a time.
type Placement interface {
	isPlacement()
}

// Standalone marks an item owned by no list or table.
type Standalone struct{}

// ListSlot marks an item as step Position (1-based, contiguous) of list ListID.
type ListSlot struct {
	ListID   int64
	Position int
}

// CellAddr marks an item as the cell at (Row, Col) of table TableID.
// RowLabel caches the column-0 value of the same row for display grouping;
// it is maintained by the store on every key-column write.
type CellAddr struct {
	TableID  int64
	Row      int
	Col      int
	RowLabel string
}

func (Standalone) isPlacement() {}
func (ListSlot) isPlacement()   {}
func (CellAddr) isPlacement()   {}

// Item is the single polymorphic stored unit of content.
type Item struct {
	ID           int64       `json:"id"`
	CollectionID int64       `json:"collection_id"`
	Label        string      `json:"label"`
	Content      string      `json:"content"`
	Kind         ContentKind `json:"kind"`
	Sensitive    bool        `json:"sensitive"`
	Favorite     bool        `json:"favorite"`
	Color        string      `json:"color,omitempty"`
	Description  string      `json:"description,omitempty"`
	// ContentSize is the plaintext length in bytes. Zero means unknown:
	// content that arrived already in envelope form cannot be measured.
	ContentSize int       `json:"content_size"`
	Placement   Placement `json:"-"`
	Tags        []string  `json:"tags,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Slot returns the item's list placement, if any.
func (it Item) Slot() (ListSlot, bool) {
	s, ok := it.Placement.(ListSlot)
	return s, ok
}

// Cell returns the item's table placement, if any.
func (it Item) Cell() (CellAddr, bool) {
	c, ok := it.Placement.(CellAddr)
	return c, ok
}

// Collection groups standalone items and lists under one namespace.
type Collection struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// List is a named, ordered sequence of step items within a collection.
// Name is unique per collection.
type List struct {
	ID           int64     `json:"id"`
	CollectionID int64     `json:"collection_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	UsedCount    int       `json:"used_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// Table is a named grid of cell items addressed by (row, col).
// Name is globally unique.
type Table struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Tag is a normalized label with a live reference count.
// UsedCount always equals the number of item associations; the store moves
// it by deltas and never rescans outside the explicit recount repair.
type Tag struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	UsedCount  int       `json:"used_count"`
	LastUsedAt time.Time `json:"last_used_at"`
}

// Matrix is the dense reconstruction of a table's sparse cell set.
// Columns holds one header per column 0..maxCol; Rows holds maxRow+1 slices
// of exactly len(Columns) values with "" filling absent cells.
type Matrix struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}
