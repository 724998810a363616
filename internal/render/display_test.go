package render

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/leapstack-labs/askdata/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplayString(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"nil", nil, "null"},
		{"string", "East", "East"},
		{"empty string", "", ""},
		{"json number keeps source text", json.Number("42.50"), "42.50"},
		{"bool", true, "true"},
		{"float", 3.25, "3.25"},
		{"int", 7, "7"},
		{"int64", int64(-3), "-3"},
		{"array", []any{json.Number("1"), "a"}, `[1,"a"]`},
		{"object", map[string]any{"k": nil}, `{"k":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayString(tt.value))
		})
	}
}

func TestClip(t *testing.T) {
	assert.Equal(t, "short", Clip("short", 20))
	assert.Equal(t, "exactly-twenty-chars", Clip("exactly-twenty-chars", 20))
	assert.Equal(t, "this is a long value...", Clip("this is a long value that overflows", 20))
	assert.Equal(t, "héllo...", Clip("héllo wörld", 5), "clips runes, not bytes")
}

func TestDecodeChart(t *testing.T) {
	padded := base64.StdEncoding.EncodeToString(pngHeader)
	raw := base64.RawStdEncoding.EncodeToString(pngHeader[:10])

	c, err := DecodeChart(padded)
	require.NoError(t, err)
	assert.Equal(t, "image/png", c.MIME)

	c, err = DecodeChart(raw)
	require.NoError(t, err)
	assert.Len(t, c.Bytes, 10)

	c, err = DecodeChart(padded[:8] + "\n" + padded[8:])
	require.NoError(t, err, "line-wrapped payloads decode")
	assert.Equal(t, pngHeader, c.Bytes)

	c, err = DecodeChart(base64.StdEncoding.EncodeToString([]byte("plain text")))
	require.NoError(t, err)
	assert.Equal(t, "image/png", c.MIME, "non-image bytes default to png")

	_, err = DecodeChart("")
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	ds := core.Dataset{
		ID:       "ds-1",
		Name:     "sales.csv",
		Columns:  []string{"region", "amount", "date", "rep", "notes"},
		RowCount: 120,
		DataPreview: []core.Record{
			core.NewRecord("region", "East", "amount", json.Number("42"), "date", "2024-01-01",
				"rep", "Ann", "notes", "n"),
			core.NewRecord("region", "a very long region name indeed", "amount", nil),
			core.NewRecord("region", "West"),
			core.NewRecord("region", "South"),
		},
	}

	s := Summarize(ds)
	assert.Equal(t, "sales.csv", s.Name)
	assert.Equal(t, "120 rows • 5 columns", s.Meta)
	assert.Equal(t, []string{"region", "amount", "date", "rep", "..."}, s.PreviewHeader)
	require.Len(t, s.PreviewRows, 3)
	assert.Equal(t, []string{"East", "42", "2024-01-01", "Ann", "..."}, s.PreviewRows[0])
	assert.Equal(t, []string{"a very long region n...", "null", "", "", "..."}, s.PreviewRows[1])
}

func TestSummarize_FewColumns(t *testing.T) {
	s := Summarize(core.Dataset{
		Name:        "a.csv",
		Columns:     []string{"region", "amount"},
		RowCount:    2,
		DataPreview: []core.Record{core.NewRecord("region", "East", "amount", 1)},
	})

	assert.Equal(t, "2 rows • 2 columns", s.Meta)
	assert.Equal(t, []string{"region", "amount"}, s.PreviewHeader)
	assert.Equal(t, [][]string{{"East", "1"}}, s.PreviewRows)
}
