package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownWriter_Table(t *testing.T) {
	w := NewMarkdownWriter()
	w.Table([]string{"Option", "Description"}, [][]string{{InlineCode("--output"), "auto|text"}})
	w.Table([]string{"Empty"}, nil)

	assert.Equal(t, "| Option | Description |\n| --- | --- |\n| `--output` | auto\\|text |\n\n", string(w.Bytes()))
}

func TestGenerateCLIDocs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, generateCLIDocs(dir))

	raw, err := os.ReadFile(filepath.Join(dir, "commands.md"))
	require.NoError(t, err)
	doc := string(raw)

	assert.Contains(t, doc, generatedHeader)
	assert.Contains(t, doc, "| `-o`, `--output` |  | Output format (auto\\|text\\|markdown\\|json\\|yaml) |")
	assert.Contains(t, doc, "### `askdata query`")
	assert.Contains(t, doc, "#### `askdata datasets info`")
	assert.Contains(t, doc, "Aliases: `ls`")
	assert.Contains(t, doc, "| `-d`, `--dataset` |  |")

	// Groups appear in help order, each command under its own group.
	order := []string{"## Datasets", "### `askdata upload`", "## Questions", "### `askdata ask`", "## Tools", "### `askdata doctor`", "## Other", "### `askdata completion`"}
	last := -1
	for _, heading := range order {
		i := strings.Index(doc, heading)
		require.NotEqual(t, -1, i, "missing %q", heading)
		assert.Greater(t, i, last, "%q out of order", heading)
		last = i
	}
}

func TestCommandGroups(t *testing.T) {
	root := &cobra.Command{Use: "tool"}
	root.AddGroup(&cobra.Group{ID: "a", Title: "Alpha:"}, &cobra.Group{ID: "b", Title: "Beta:"})
	run := func(*cobra.Command, []string) {}
	root.AddCommand(
		&cobra.Command{Use: "two", GroupID: "b", Run: run},
		&cobra.Command{Use: "one", GroupID: "a", Run: run},
		&cobra.Command{Use: "loose", Run: run},
		&cobra.Command{Use: "secret", GroupID: "a", Hidden: true, Run: run},
	)

	var got []string
	for _, g := range commandGroups(root) {
		names := make([]string, len(g.cmds))
		for i, c := range g.cmds {
			names[i] = c.Name()
		}
		got = append(got, g.title+": "+strings.Join(names, ","))
	}
	assert.Equal(t, []string{"Alpha: one", "Beta: two", "Other: loose"}, got)
}

func TestGenerateConfigDocs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, generateConfigDocs(dir))

	doc, err := os.ReadFile(filepath.Join(dir, "configuration.md"))
	require.NoError(t, err)
	assert.Contains(t, string(doc), "| `ui.port` | int | `8765` |")
	assert.Contains(t, string(doc), "## Uploads")
	assert.Contains(t, string(doc), "| `ASKDATA_UI__PORT` | `ui.port` |")
	assert.Contains(t, string(doc), "| `ASKDATA_UPLOAD__WATCH_DIR` | `upload.watch_dir` |")
}

func TestEnvVar(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"backend_url", "ASKDATA_BACKEND_URL"},
		{"ui.auto_open", "ASKDATA_UI__AUTO_OPEN"},
		{"query.discard_stale", "ASKDATA_QUERY__DISCARD_STALE"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, envVar(tt.key))
	}
}

func TestUnindent(t *testing.T) {
	assert.Equal(t, "# list\naskdata datasets\n\n# one\naskdata datasets info sales.csv",
		unindent("  # list\n  askdata datasets\n\n  # one\n  askdata datasets info sales.csv\n"))
}
