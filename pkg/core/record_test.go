package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_UnmarshalPreservesOrder(t *testing.T) {
	var r Record
	err := json.Unmarshal([]byte(`{"zeta": 1, "alpha": "a", "mid": null, "flag": true}`), &r)
	require.NoError(t, err)

	assert.Equal(t, []string{"zeta", "alpha", "mid", "flag"}, r.Keys())

	v, ok := r.Get("zeta")
	require.True(t, ok)
	assert.Equal(t, json.Number("1"), v)

	v, ok = r.Get("mid")
	require.True(t, ok)
	assert.Nil(t, v)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRecord_UnmarshalDuplicateKeys(t *testing.T) {
	var r Record
	require.NoError(t, json.Unmarshal([]byte(`{"a": 1, "b": 2, "a": 3}`), &r))

	assert.Equal(t, []string{"a", "b"}, r.Keys())
	v, _ := r.Get("a")
	assert.Equal(t, json.Number("3"), v)
}

func TestRecord_UnmarshalRejectsNonObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"array", `[1, 2]`},
		{"string", `"x"`},
		{"number", `42`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Record
			assert.Error(t, json.Unmarshal([]byte(tt.input), &r))
		})
	}
}

func TestRecord_MarshalKeepsOrder(t *testing.T) {
	r := NewRecord("region", "East", "amount", json.Number("42"), "ok", true)

	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, `{"region":"East","amount":42,"ok":true}`, string(b))
}

func TestNewRecord(t *testing.T) {
	r := NewRecord("a", 1, "b")
	assert.Equal(t, []string{"a"}, r.Keys(), "dangling key without value is dropped")
}

func TestDataset_Validate(t *testing.T) {
	tests := []struct {
		name      string
		dataset   Dataset
		errSubstr string
	}{
		{
			name: "valid",
			dataset: Dataset{
				ID:          "ds-1",
				Columns:     []string{"region", "amount"},
				RowCount:    120,
				DataPreview: []Record{NewRecord("region", "East", "amount", 42)},
			},
		},
		{
			name:      "missing id",
			dataset:   Dataset{Columns: []string{"a"}},
			errSubstr: "no id",
		},
		{
			name:      "negative rows",
			dataset:   Dataset{ID: "x", RowCount: -1},
			errSubstr: "negative row count",
		},
		{
			name:      "duplicate column",
			dataset:   Dataset{ID: "x", Columns: []string{"a", "a"}},
			errSubstr: "duplicate column",
		},
		{
			name: "preview key outside columns",
			dataset: Dataset{
				ID:          "x",
				Columns:     []string{"a"},
				DataPreview: []Record{NewRecord("b", 1)},
			},
			errSubstr: `unknown column "b"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.dataset.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestDataset_DecodeServiceShape(t *testing.T) {
	body := `{
		"id": "5b0c",
		"name": "sales.csv",
		"file_type": "csv",
		"columns": ["region", "amount"],
		"row_count": 120,
		"data_preview": [{"region": "East", "amount": 42}],
		"uploaded_at": "2024-03-01T10:00:00.123456"
	}`

	var ds Dataset
	require.NoError(t, json.Unmarshal([]byte(body), &ds))
	assert.Equal(t, "sales.csv", ds.Name)
	assert.Equal(t, 120, ds.RowCount)
	require.Len(t, ds.DataPreview, 1)
	assert.Equal(t, []string{"region", "amount"}, ds.DataPreview[0].Keys())
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 123456000, time.UTC), ds.UploadedAt.Time)
}

func TestTimestamp_Unmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{"rfc3339", `"2024-03-01T10:00:00Z"`, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), false},
		{"offset", `"2024-03-01T12:00:00+02:00"`, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), false},
		{"naive", `"2024-03-01T10:00:00"`, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), false},
		{"space separated", `"2024-03-01 10:00:00"`, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), false},
		{"null", `null`, time.Time{}, false},
		{"garbage", `"yesterday"`, time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			err := json.Unmarshal([]byte(tt.input), &ts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(ts.Time), "got %v", ts.Time)
		})
	}
}
