package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/askdata/internal/cli"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// commandGroup is one help group of the root command and its commands.
type commandGroup struct {
	title string
	cmds  []*cobra.Command
}

// generateCLIDocs writes commands.md: the global options, then every command
// under the heading of its help group.
func generateCLIDocs(outDir string) error {
	log.Printf("Generating CLI docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	root := cli.NewRootCmd()

	w := NewMarkdownWriter()
	w.Frontmatter("Commands", "askdata command reference")
	w.GeneratedMarker()

	w.Header(1, "Commands")
	w.Paragraph(root.Long)
	w.CodeBlock("bash", "go install github.com/leapstack-labs/askdata/cmd/askdata@latest")

	w.Header(2, "Global Options")
	writeFlags(w, root.PersistentFlags())
	w.Paragraph("Every option can also be set in " + InlineCode("askdata.yaml") + " or through an environment variable; see [Configuration](configuration.md).")

	for _, g := range commandGroups(root) {
		w.Header(2, g.title)
		for _, cmd := range g.cmds {
			writeCommand(w, cmd, 3)
		}
	}

	log.Printf("  Generated commands.md")
	return os.WriteFile(filepath.Join(outDir, "commands.md"), w.Bytes(), 0600)
}

// commandGroups returns root's visible commands in help order. Commands
// outside any group come last under "Other".
func commandGroups(root *cobra.Command) []commandGroup {
	groups := make([]commandGroup, 0, len(root.Groups())+1)
	index := make(map[string]int, len(root.Groups()))
	for i, g := range root.Groups() {
		index[g.ID] = i
		groups = append(groups, commandGroup{title: strings.TrimSuffix(g.Title, ":")})
	}

	other := commandGroup{title: "Other"}
	for _, cmd := range root.Commands() {
		if !cmd.IsAvailableCommand() {
			continue
		}
		if i, ok := index[cmd.GroupID]; ok {
			groups[i].cmds = append(groups[i].cmds, cmd)
			continue
		}
		other.cmds = append(other.cmds, cmd)
	}
	if len(other.cmds) > 0 {
		groups = append(groups, other)
	}
	return groups
}

// writeCommand documents cmd and then its subcommands one heading level down.
func writeCommand(w *MarkdownWriter, cmd *cobra.Command, level int) {
	w.Header(level, InlineCode(cmd.CommandPath()))
	if cmd.Long != "" {
		w.Paragraph(cmd.Long)
	} else {
		w.Paragraph(cmd.Short)
	}
	w.CodeBlock("bash", cmd.UseLine())

	if len(cmd.Aliases) > 0 {
		aliases := make([]string, len(cmd.Aliases))
		for i, a := range cmd.Aliases {
			aliases[i] = InlineCode(a)
		}
		w.Paragraph("Aliases: " + strings.Join(aliases, ", "))
	}

	if cmd.HasAvailableLocalFlags() {
		writeFlags(w, cmd.LocalFlags())
	}

	if cmd.Example != "" {
		w.CodeBlock("bash", unindent(cmd.Example))
	}

	for _, sub := range cmd.Commands() {
		if sub.IsAvailableCommand() {
			writeCommand(w, sub, level+1)
		}
	}
}

// writeFlags writes a flag table. Zero defaults are left blank.
func writeFlags(w *MarkdownWriter, flags *pflag.FlagSet) {
	var rows [][]string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		name := InlineCode("--" + f.Name)
		if f.Shorthand != "" {
			name = InlineCode("-"+f.Shorthand) + ", " + name
		}
		def := ""
		switch f.DefValue {
		case "", "false", "0", "0s", "[]":
		default:
			def = InlineCode(f.DefValue)
		}
		rows = append(rows, []string{name, def, cleanDescription(f.Usage)})
	})
	w.Table([]string{"Flag", "Default", "Description"}, rows)
}

// unindent strips the leading whitespace of every line of a command example.
func unindent(example string) string {
	lines := strings.Split(strings.TrimSpace(example), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.Join(lines, "\n")
}
