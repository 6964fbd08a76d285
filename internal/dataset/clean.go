package dataset

import (
	"fmt"
	"io"
	"sort"
)

type CleanStats struct {
	Read    int `json:"read"`
	Kept    int `json:"kept"`
	Dropped int `json:"dropped"`
}

// Clean returns the valid rows of t sorted by date ascending. Rows with equal
// dates keep their relative order, so cleaning clean output is a no-op.
func Clean(t *Table) ([]Row, CleanStats) {
	kept := make([]Row, 0, len(t.Rows))
	for _, r := range t.Rows {
		if r.Valid() {
			kept = append(kept, r)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Record.Date.Before(kept[j].Record.Date)
	})

	return kept, CleanStats{
		Read:    len(t.Rows),
		Kept:    len(kept),
		Dropped: len(t.Rows) - len(kept),
	}
}

// CleanFile reads src, cleans it and writes the result to dst.
func CleanFile(src, dst string) (CleanStats, error) {
	table, err := ReadFile(src)
	if err != nil {
		return CleanStats{}, err
	}

	rows, stats := Clean(table)
	if err := WriteFile(dst, func(w io.Writer) error {
		return WriteRows(w, rows)
	}); err != nil {
		return stats, fmt.Errorf("write cleaned dataset: %w", err)
	}
	return stats, nil
}
