package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/leapstack-labs/askdata/internal/render"
)

// saveChart writes a chart view's image into dir and returns the file path.
// Views without a chart are skipped and return "".
func saveChart(dir string, v render.View) (string, error) {
	if v.Chart == nil {
		return "", nil
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create charts directory: %w", err)
	}

	name := "chart-" + uuid.NewString()[:8] + v.Chart.Extension()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, v.Chart.Bytes, 0600); err != nil {
		return "", fmt.Errorf("failed to save chart: %w", err)
	}
	return path, nil
}
