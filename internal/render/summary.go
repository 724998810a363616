package render

import (
	"fmt"

	"github.com/leapstack-labs/askdata/pkg/core"
)

// Dataset summary limits.
const (
	SummaryColumns = 4
	SummaryRows    = 3
	SummaryCellLen = 20
	ellipsisColumn = "..."
)

// DatasetSummary is the info panel shown for the active dataset.
type DatasetSummary struct {
	Name    string
	Meta    string
	Columns []string
	// PreviewHeader is at most SummaryColumns names, plus "..." when more exist
	PreviewHeader []string
	PreviewRows   [][]string
}

// Summarize builds the info panel for ds.
func Summarize(ds core.Dataset) DatasetSummary {
	s := DatasetSummary{
		Name:    ds.Name,
		Meta:    fmt.Sprintf("%d rows • %d columns", ds.RowCount, len(ds.Columns)),
		Columns: append([]string{}, ds.Columns...),
	}

	shown := ds.Columns
	more := len(shown) > SummaryColumns
	if more {
		shown = shown[:SummaryColumns]
	}
	s.PreviewHeader = append([]string{}, shown...)
	if more {
		s.PreviewHeader = append(s.PreviewHeader, ellipsisColumn)
	}

	preview := ds.DataPreview
	if len(preview) > SummaryRows {
		preview = preview[:SummaryRows]
	}
	for _, rec := range preview {
		row := make([]string, 0, len(s.PreviewHeader))
		for _, col := range shown {
			v, ok := rec.Get(col)
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, Clip(DisplayString(v), SummaryCellLen))
		}
		if more {
			row = append(row, ellipsisColumn)
		}
		s.PreviewRows = append(s.PreviewRows, row)
	}
	return s
}
