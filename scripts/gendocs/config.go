package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/leapstack-labs/askdata/internal/cli/config"
)

// ConfigField represents a configuration key.
type ConfigField struct {
	Name        string
	Type        string
	Default     string
	Description string
	Section     string // "general", "ui", "query", "upload"
}

// getConfigSchema returns the configuration keys, mirroring internal/cli/config/types.go.
func getConfigSchema() []ConfigField {
	d := config.Default()
	return []ConfigField{
		{Name: "backend_url", Type: "string", Default: d.BackendURL, Description: "Analytics service address", Section: "general"},
		{Name: "timeout", Type: "duration", Default: d.Timeout.String(), Description: "Request timeout", Section: "general"},
		{Name: "output", Type: "string", Default: d.OutputFormat, Description: "Output format: auto, text, markdown, json, yaml", Section: "general"},
		{Name: "charts_dir", Type: "string", Default: d.ChartsDir, Description: "Directory chart images are written to", Section: "general"},
		{Name: "verbose", Type: "bool", Default: strconv.FormatBool(d.Verbose), Description: "Debug logging to stderr", Section: "general"},

		{Name: "ui.port", Type: "int", Default: strconv.Itoa(d.UI.Port), Description: "Web UI port", Section: "ui"},
		{Name: "ui.auto_open", Type: "bool", Default: strconv.FormatBool(d.UI.AutoOpen), Description: "Open a browser when the UI starts", Section: "ui"},
		{Name: "ui.session_secret", Type: "string", Description: "Secret signing session cookies", Section: "ui"},

		{Name: "query.discard_stale", Type: "bool", Default: strconv.FormatBool(d.Query.DiscardStale), Description: "Drop results that arrive after their dataset was deselected", Section: "query"},

		{Name: "upload.watch_dir", Type: "string", Description: "Folder whose new .csv and .json files are uploaded automatically", Section: "upload"},
	}
}

// envVar is the environment variable that sets key. A double underscore nests.
func envVar(key string) string {
	return config.EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "__"))
}

// generateConfigDocs generates the configuration reference page.
func generateConfigDocs(outDir string) error {
	log.Printf("Generating config docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	w := NewMarkdownWriter()
	w.Frontmatter("Configuration", "askdata configuration reference")
	w.GeneratedMarker()

	w.Header(1, "Configuration")
	w.Paragraph("askdata reads " + InlineCode("askdata.yaml") + " from the working directory, or the file named by " + InlineCode("--config") + ". Flags override environment variables, which override the file.")

	sections := []struct {
		key   string
		title string
	}{
		{"general", "General"},
		{"ui", "Web UI"},
		{"query", "Queries"},
		{"upload", "Uploads"},
	}

	fields := getConfigSchema()
	headers := []string{"Key", "Type", "Default", "Description"}
	for _, sec := range sections {
		var rows [][]string
		for _, f := range fields {
			if f.Section != sec.key {
				continue
			}
			defVal := "-"
			if f.Default != "" {
				defVal = InlineCode(f.Default)
			}
			rows = append(rows, []string{InlineCode(f.Name), f.Type, defVal, f.Description})
		}
		w.Header(2, sec.title)
		w.Table(headers, rows)
	}

	w.Header(2, "Full Configuration Example")
	w.CodeBlock("yaml", `# askdata.yaml
backend_url: http://localhost:8001
timeout: 5m
output: auto
charts_dir: ./charts

ui:
  port: 8765
  auto_open: true
  session_secret: ${ASKDATA_SESSION_SECRET}

query:
  discard_stale: false

upload:
  watch_dir: ./inbox`)

	w.Header(2, "Environment Variables")
	w.Paragraph("Every key can be set from the environment. Variables override the file and are overridden by flags.")
	envRows := make([][]string, 0, len(fields)+1)
	for _, f := range fields {
		envRows = append(envRows, []string{InlineCode(envVar(f.Name)), InlineCode(f.Name)})
	}
	envRows = append(envRows, []string{InlineCode(config.EnvPrefix + "SESSION_SECRET"), InlineCode("ui.session_secret") + " when the key is unset"})
	w.Table([]string{"Variable", "Key"}, envRows)

	w.Paragraph("Use " + InlineCode("${VAR_NAME}") + " in " + InlineCode("backend_url") + " to reference any other variable:")
	w.CodeBlock("yaml", `backend_url: ${ANALYTICS_URL}`)

	filename := filepath.Join(outDir, "configuration.md")
	log.Printf("  Generated configuration.md")
	return os.WriteFile(filename, w.Bytes(), 0600)
}
