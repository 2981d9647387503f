package engine

import (
	"gridhost/internal/models"
)

// Coverage counts, per column, how many rows carry the column's key.
// Columns keep their ColumnSet order.
func (s Snapshot) Coverage() models.CoverageReport {
	// 1. Dimensions
	numCols := len(s.Columns)
	colIDs := make(map[string]int, numCols)
	for i, c := range s.Columns {
		colIDs[c.Key] = i
	}

	// 2. Count (array indexed by column id, no per-key map updates)
	counts := make([]int, numCols)
	cells := 0
	for _, r := range s.Rows {
		for _, k := range r.DynamicItem.Keys() {
			if id, ok := colIDs[k]; ok {
				counts[id]++
				cells++
			}
		}
	}

	// 3. Build result
	report := models.CoverageReport{
		Rows:    len(s.Rows),
		Columns: make([]models.ColumnCoverage, 0, numCols),
		Cells:   cells,
	}
	for i, c := range s.Columns {
		cov := models.ColumnCoverage{Key: c.Key, Populated: counts[i]}
		if report.Rows > 0 {
			cov.Ratio = float64(counts[i]) / float64(report.Rows)
		}
		report.Columns = append(report.Columns, cov)
	}
	return report
}
