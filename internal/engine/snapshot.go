package engine

import (
	"strconv"

	"github.com/google/uuid"

	"gridhost/internal/models"
)

// Snapshot is one published (rows, columns) pair.
// Rows are shared with the grid and must be treated as read-only.
type Snapshot struct {
	ID         uuid.UUID
	Generation uint64
	State      models.GridState
	Rows       []*models.Row
	Columns    []models.ColumnDescriptor
}

func (s Snapshot) Keys() []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Key
	}
	return out
}

// Cell looks up key on row. ok is false for a missing key; that is an empty
// cell, not an error.
func (s Snapshot) Cell(row *models.Row, key string) (models.DynamicData, bool) {
	if row == nil || row.DynamicItem == nil {
		return models.DynamicData{}, false
	}
	return row.DynamicItem.Get(key)
}

// FixedHeaders are the leading columns of every materialized table.
var FixedHeaders = []string{"Index", "A", "B"}

type TableCell struct {
	Text    string
	Present bool
}

// Table is the snapshot flattened to strings for renderers.
type Table struct {
	Header []string
	Rows   [][]TableCell
}

func (s Snapshot) Table() Table {
	t := Table{
		Header: append(append([]string{}, FixedHeaders...), s.Keys()...),
		Rows:   make([][]TableCell, 0, len(s.Rows)),
	}
	for _, r := range s.Rows {
		line := make([]TableCell, 0, len(t.Header))
		line = append(line,
			TableCell{Text: strconv.Itoa(r.Index), Present: true},
			TableCell{Text: r.A, Present: true},
			TableCell{Text: r.B, Present: true},
		)
		for _, c := range s.Columns {
			v, ok := s.Cell(r, c.Key)
			if !ok {
				line = append(line, TableCell{})
				continue
			}
			line = append(line, TableCell{Text: FormatValue(v), Present: true})
		}
		t.Rows = append(t.Rows, line)
	}
	return t
}

func FormatValue(v models.DynamicData) string {
	return v.X + " " + v.Y
}

// RowView renders one row with a cell per column, nil value when missing.
func (s Snapshot) RowView(r *models.Row) models.RowView {
	view := models.RowView{
		Index: r.Index,
		A:     r.A,
		B:     r.B,
		Cells: make([]models.Cell, 0, len(s.Columns)),
	}
	for _, c := range s.Columns {
		cell := models.Cell{Key: c.Key}
		if v, ok := s.Cell(r, c.Key); ok {
			cell.Value = &v
		}
		view.Cells = append(view.Cells, cell)
	}
	return view
}

// FindRow returns the row built from index.
func (s Snapshot) FindRow(index int) (*models.Row, bool) {
	for _, r := range s.Rows {
		if r.Index == index {
			return r, true
		}
	}
	return nil, false
}
