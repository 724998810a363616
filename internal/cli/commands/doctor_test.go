package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateHealthScore(t *testing.T) {
	tests := []struct {
		name     string
		checks   []HealthCheck
		expected int
	}{
		{
			name:     "no checks returns 100",
			checks:   nil,
			expected: 100,
		},
		{
			name: "passing and skipped checks return 100",
			checks: []HealthCheck{
				{ID: "CF01", Status: statusPass},
				{ID: "CF04", Status: statusSkip},
			},
			expected: 100,
		},
		{
			name: "warnings reduce score",
			checks: []HealthCheck{
				{ID: "CF03", Status: statusWarn},
				{ID: "SV02", Status: statusWarn},
			},
			expected: 80,
		},
		{
			name: "errors reduce score more",
			checks: []HealthCheck{
				{ID: "SV01", Status: statusError},
			},
			expected: 70,
		},
		{
			name: "score floors at 0",
			checks: []HealthCheck{
				{ID: "CF02", Status: statusError},
				{ID: "SV01", Status: statusError},
				{ID: "SV02", Status: statusError},
				{ID: "CF03", Status: statusError},
			},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, calculateHealthScore(tt.checks))
		})
	}
}

func TestGetRecommendation(t *testing.T) {
	tests := []struct {
		id       string
		expected bool
	}{
		{"CF02", true},
		{"CF03", true},
		{"CF04", true},
		{"SV01", true},
		{"SV02", true},
		{"CF01", false},
		{"UNKNOWN", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			rec := getRecommendation(tt.id)
			if tt.expected {
				assert.NotEmpty(t, rec, "expected recommendation for %s", tt.id)
			} else {
				assert.Empty(t, rec, "expected no recommendation for %s", tt.id)
			}
		})
	}
}

func TestGenerateRecommendations(t *testing.T) {
	checks := []HealthCheck{
		{ID: "CF01", Status: statusPass},
		{ID: "CF03", Status: statusWarn},
		{ID: "CF04", Status: statusSkip},
		{ID: "SV01", Status: statusError},
	}

	recs := generateRecommendations(checks)
	require.Len(t, recs, 2)
	assert.Contains(t, recs[0], "charts_dir")
	assert.Contains(t, recs[1], "analytics service")
}

func TestGroupChecks(t *testing.T) {
	checks := []HealthCheck{
		{ID: "CF01", Group: "configuration"},
		{ID: "SV01", Group: "service"},
		{ID: "CF02", Group: "configuration"},
	}

	order, groups := groupChecks(checks)
	assert.Equal(t, []string{"configuration", "service"}, order)
	assert.Len(t, groups["configuration"], 2)
	assert.Len(t, groups["service"], 1)
}

func TestCheckWritable(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "charts")
	require.NoError(t, checkWritable(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch file should be removed")

	file := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
	assert.Error(t, checkWritable(file))
}
