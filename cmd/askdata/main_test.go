// Package main provides tests for the askdata CLI.
package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/leapstack-labs/askdata/internal/cli"
	"github.com/leapstack-labs/askdata/internal/cli/config"
	"github.com/leapstack-labs/askdata/internal/testutil"
	"github.com/leapstack-labs/askdata/pkg/core"
)

// execute runs the root command with args in a scratch directory.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	output, err := execute(t, "version")
	if err != nil {
		t.Errorf("version command error = %v", err)
	}
	if !strings.Contains(output, "askdata") {
		t.Errorf("version output should contain 'askdata', got: %s", output)
	}
}

func TestHelpCommand(t *testing.T) {
	output, err := execute(t, "--help")
	if err != nil {
		t.Errorf("help command error = %v", err)
	}

	expectedCommands := []string{"ask", "datasets", "upload", "query", "history", "ui", "doctor"}
	for _, expected := range expectedCommands {
		if !strings.Contains(output, expected) {
			t.Errorf("help output should contain '%s', got: %s", expected, output)
		}
	}
}

func TestDatasetsCommand(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.Seed(core.Dataset{ID: "ds-1", Name: "sales.csv", Columns: []string{"region"}, RowCount: 3})

	output, err := execute(t, "datasets", "--backend-url", backend.URL(), "--output", "markdown")
	if err != nil {
		t.Errorf("datasets command error = %v", err)
	}
	if !strings.Contains(output, "sales.csv") {
		t.Errorf("datasets output should contain 'sales.csv', got: %s", output)
	}
}

func TestQueryCommandJSON(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.Seed(core.Dataset{ID: "ds-1", Name: "sales.csv", Columns: []string{"region"}, RowCount: 3})

	output, err := execute(t, "query", "-o", "json", "--backend-url", backend.URL(), "how many rows?")
	if err != nil {
		t.Fatalf("query command error = %v", err)
	}

	var res map[string]any
	if err := json.Unmarshal([]byte(output), &res); err != nil {
		t.Fatalf("query output should be JSON: %v\n%s", err, output)
	}
	if res["query"] != "how many rows?" {
		t.Errorf("query = %v, want %q", res["query"], "how many rows?")
	}
}

func TestUnreachableBackend(t *testing.T) {
	backend := testutil.NewBackend(t)
	url := backend.URL()
	backend.Server.Close()

	if _, err := execute(t, "datasets", "--backend-url", url, "--timeout", "2s"); err == nil {
		t.Error("datasets against a stopped service should fail")
	}
}

func TestInvalidOutputFormat(t *testing.T) {
	if _, err := execute(t, "datasets", "--output", "xml"); err == nil {
		t.Error("unknown output format should be rejected")
	}
}
