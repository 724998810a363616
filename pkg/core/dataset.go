package core

import "fmt"

// Dataset is an uploaded tabular data source registered by the analytics service.
// It is created by a successful transfer and never mutated by the client.
type Dataset struct {
	// ID is the opaque, server-assigned identity
	ID string `json:"id" yaml:"id"`
	// Name is the display name (the uploaded file name)
	Name string `json:"name" yaml:"name"`
	// FileType is the ingest format reported by the service ("csv" or "json")
	FileType string `json:"file_type,omitempty" yaml:"file_type,omitempty"`
	// Columns are the distinct column names in source order
	Columns []string `json:"columns" yaml:"columns"`
	// RowCount is the total number of rows ingested
	RowCount int `json:"row_count" yaml:"row_count"`
	// DataPreview holds a handful of sample records
	DataPreview []Record `json:"data_preview" yaml:"-"`
	// UploadedAt is when the service registered the dataset
	UploadedAt Timestamp `json:"uploaded_at,omitzero" yaml:"-"`
}

// Validate checks the invariants the client relies on when displaying a dataset.
func (d Dataset) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("dataset has no id")
	}
	if d.RowCount < 0 {
		return fmt.Errorf("dataset %s: negative row count %d", d.ID, d.RowCount)
	}

	known := make(map[string]struct{}, len(d.Columns))
	for _, col := range d.Columns {
		if _, dup := known[col]; dup {
			return fmt.Errorf("dataset %s: duplicate column %q", d.ID, col)
		}
		known[col] = struct{}{}
	}

	for i, rec := range d.DataPreview {
		for _, f := range rec {
			if _, ok := known[f.Key]; !ok {
				return fmt.Errorf("dataset %s: preview row %d has unknown column %q", d.ID, i, f.Key)
			}
		}
	}
	return nil
}

// QueryRequest is the body of a query submission.
type QueryRequest struct {
	DatasetID string `json:"dataset_id"`
	QueryText string `json:"query_text"`
}
