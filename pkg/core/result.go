package core

import (
	"bytes"
	"encoding/json"
)

// Result type discriminants used by the analytics service.
const (
	ResultTable  = "table"
	ResultChart  = "chart"
	ResultPlotly = "plotly"
	ResultError  = "error"
)

// QueryResult is the tagged outcome of one natural-language query.
// Exactly one of ErrorMessage (ResultType "error") or ResultData is meaningful.
type QueryResult struct {
	ID            string      `json:"id,omitempty"`
	DatasetID     string      `json:"dataset_id,omitempty"`
	QueryText     string      `json:"query_text,omitempty"`
	GeneratedCode string      `json:"generated_code"`
	ResultType    string      `json:"result_type"`
	ResultData    *ResultData `json:"result_data,omitempty"`
	ErrorMessage  string      `json:"error_message,omitempty"`
	CreatedAt     Timestamp   `json:"created_at,omitzero"`
}

// ResultData is the success payload; Data is interpreted according to Type.
type ResultData struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// IsError reports whether the backend answered with a structured analysis failure.
func (q QueryResult) IsError() bool {
	return q.ResultType == ResultError
}

// Payload is the closed set of shapes a QueryResult can take.
// The unexported marker keeps the set closed to this package.
type Payload interface {
	isPayload()
}

// TablePayload is an ordered sequence of records.
type TablePayload struct {
	Records []Record
}

// ChartPayload is a base64-encoded raster image.
type ChartPayload struct {
	Encoded string
}

// MarkupPayload is an HTML/script fragment embedded verbatim.
type MarkupPayload struct {
	Markup string
}

// ErrorPayload is a structured analysis failure reported by the backend.
type ErrorPayload struct {
	Message string
}

// UnknownPayload is any combination of discriminants the client does not understand.
type UnknownPayload struct {
	ResultType string
	DataType   string
	Reason     string
}

func (TablePayload) isPayload()   {}
func (ChartPayload) isPayload()   {}
func (MarkupPayload) isPayload()  {}
func (ErrorPayload) isPayload()   {}
func (UnknownPayload) isPayload() {}

// Payload resolves the result's discriminants into one arm of the sum type.
// It never fails: shapes that cannot be decoded fall into UnknownPayload.
func (q QueryResult) Payload() Payload {
	switch q.ResultType {
	case ResultError:
		return ErrorPayload{Message: q.ErrorMessage}
	case ResultTable, ResultChart, ResultPlotly:
	default:
		return UnknownPayload{ResultType: q.ResultType, Reason: "unrecognized result type"}
	}

	if q.ResultData == nil {
		return UnknownPayload{ResultType: q.ResultType, Reason: "missing result data"}
	}

	unknown := func(reason string) Payload {
		return UnknownPayload{ResultType: q.ResultType, DataType: q.ResultData.Type, Reason: reason}
	}

	switch q.ResultData.Type {
	case ResultTable:
		records, ok := decodeRecords(q.ResultData.Data)
		if !ok {
			return unknown("table data is not a list of objects")
		}
		return TablePayload{Records: records}
	case ResultChart:
		s, ok := decodeString(q.ResultData.Data)
		if !ok {
			return unknown("chart data is not a string")
		}
		return ChartPayload{Encoded: s}
	case ResultPlotly:
		s, ok := decodeString(q.ResultData.Data)
		if !ok {
			return unknown("plotly data is not a string")
		}
		return MarkupPayload{Markup: s}
	default:
		return unknown("unrecognized result data type")
	}
}

func decodeRecords(raw json.RawMessage) ([]Record, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []Record{}, true
	}
	var records []Record
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, false
	}
	if records == nil {
		records = []Record{}
	}
	return records, true
}

func decodeString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
