package render

import (
	"fmt"

	"github.com/leapstack-labs/askdata/pkg/core"
)

// MaxTableRows caps how many records a table shows.
const MaxTableRows = 50

// TableView is a display grid. Every cell is already a display string.
type TableView struct {
	Header []string
	Rows   [][]string
	// Total is the number of records in the result
	Total int
}

// NewTable builds a grid from records. The header is the first record's key
// set in source order; cells of later records are looked up by header key.
func NewTable(records []core.Record) *TableView {
	t := &TableView{
		Header: []string{},
		Rows:   [][]string{},
		Total:  len(records),
	}
	if len(records) == 0 {
		return t
	}

	t.Header = records[0].Keys()

	shown := records
	if len(shown) > MaxTableRows {
		shown = shown[:MaxTableRows]
	}
	for _, rec := range shown {
		row := make([]string, len(t.Header))
		for i, key := range t.Header {
			if v, ok := rec.Get(key); ok {
				row[i] = DisplayString(v)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Truncated reports whether rows were dropped.
func (t *TableView) Truncated() bool {
	return t.Total > len(t.Rows)
}

// Note is the truncation footer, or "" when every row is shown.
func (t *TableView) Note() string {
	if !t.Truncated() {
		return ""
	}
	return fmt.Sprintf("Showing first %d rows of %d total rows", len(t.Rows), t.Total)
}
