package engine

import (
	"gridhost/internal/models"
)

// IndexGenerator returns the construction indices for n rows.
type IndexGenerator func(n int) []int

// Sequential yields 1..n.
func Sequential(n int) []int {
	if n <= 0 {
		return []int{}
	}
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// GenerateRows builds one row per distinct index, in index order.
// Repeated indices are dropped after their first occurrence.
func GenerateRows(indices []int) []*models.Row {
	seen := make(map[int]struct{}, len(indices))
	rows := make([]*models.Row, 0, len(indices))
	for _, idx := range indices {
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		rows = append(rows, models.NewRow(idx))
	}
	return rows
}

// DiscoverKeys returns the union of sparse keys across rows, ordered by first
// appearance (rows in order, keys in each row's insertion order).
func DiscoverKeys(rows []*models.Row) []string {
	// same dictionary build as a string column: map for lookup, slice for order
	seen := make(map[string]struct{})
	keys := make([]string, 0, models.SeedKeyModulus)

	for _, r := range rows {
		if r == nil || r.DynamicItem == nil {
			continue
		}
		for _, k := range r.DynamicItem.Keys() {
			if _, exists := seen[k]; exists {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	return keys
}

func maxIndex(rows []*models.Row) (int, bool) {
	if len(rows) == 0 {
		return 0, false
	}
	m := rows[0].Index
	for _, r := range rows[1:] {
		if r.Index > m {
			m = r.Index
		}
	}
	return m, true
}
