package store

import (
	"context"
	"fmt"

	"clipkeep/internal/model"
)

// ExportToMatrix reconstructs a table's sparse cell set into a dense
// rectangular grid. Column headers come from the labels of row-0 cells,
// with a synthesized placeholder for any column missing a row-0 entry;
// every (r, c) in 0..maxRow × 0..maxCol is filled with the cell's content
// or "" if absent.
//
// The reconstruction is stable: the same sparse input always yields the
// same dense output, including placeholder ordering, so exports can be
// diffed byte for byte.
func (s *Store) ExportToMatrix(ctx context.Context, tableID int64) (model.Matrix, error) {
	if _, err := s.GetTable(ctx, tableID); err != nil {
		return model.Matrix{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT row_idx, col_idx, label, content, sensitive
		FROM items
		WHERE table_id = ?
		ORDER BY row_idx ASC, col_idx ASC
	`, tableID)
	if err != nil {
		return model.Matrix{}, storageErr("query cells", err)
	}
	defer rows.Close()

	type cell struct {
		label   string
		content string
	}
	cells := map[[2]int]cell{}
	maxRow, maxCol := -1, -1

	for rows.Next() {
		var r, c, sensitive int
		var label, content string
		if err := rows.Scan(&r, &c, &label, &content, &sensitive); err != nil {
			return model.Matrix{}, storageErr("scan cell", err)
		}
		if sensitive != 0 {
			it := model.Item{Sensitive: true, Content: content}
			s.revealContent(&it)
			content = it.Content
		}
		cells[[2]int{r, c}] = cell{label: label, content: content}
		if r > maxRow {
			maxRow = r
		}
		if c > maxCol {
			maxCol = c
		}
	}
	if err := rows.Err(); err != nil {
		return model.Matrix{}, storageErr("iterate cells", err)
	}

	if maxRow < 0 {
		return model.Matrix{Columns: []string{}, Rows: [][]string{}}, nil
	}

	columns := make([]string, maxCol+1)
	for c := 0; c <= maxCol; c++ {
		if head, ok := cells[[2]int{0, c}]; ok && head.label != "" {
			columns[c] = head.label
		} else {
			columns[c] = fmt.Sprintf("Column %d", c+1)
		}
	}

	dense := make([][]string, maxRow+1)
	for r := 0; r <= maxRow; r++ {
		dense[r] = make([]string, maxCol+1)
		for c := 0; c <= maxCol; c++ {
			if cl, ok := cells[[2]int{r, c}]; ok {
				dense[r][c] = cl.content
			}
		}
	}

	return model.Matrix{Columns: columns, Rows: dense}, nil
}
