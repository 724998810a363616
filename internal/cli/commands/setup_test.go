package commands

import (
	"context"
	"testing"
	"time"

	"github.com/leapstack-labs/askdata/internal/cli/config"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCommandContextWithoutClient_LoadsConfigWhenUnset(t *testing.T) {
	tests := []struct {
		name       string
		env        map[string]string
		wantURL    string
		wantPort   int
		wantOutput string
		wantTO     time.Duration
	}{
		{
			name:       "defaults",
			wantURL:    config.DefaultBackendURL,
			wantPort:   config.DefaultUIPort,
			wantOutput: config.DefaultOutput,
			wantTO:     config.DefaultTimeout,
		},
		{
			name: "environment overrides",
			env: map[string]string{
				"ASKDATA_BACKEND_URL": "http://example.test:9000/",
				"ASKDATA_UI__PORT":    "9100",
				"ASKDATA_OUTPUT":      "json",
				"ASKDATA_TIMEOUT":     "5s",
			},
			wantURL:    "http://example.test:9000",
			wantPort:   9100,
			wantOutput: "json",
			wantTO:     5 * time.Second,
		},
		{
			name: "invalid environment falls back to defaults",
			env: map[string]string{
				"ASKDATA_BACKEND_URL": "http://example.test:9000",
				"ASKDATA_OUTPUT":      "xml",
			},
			wantURL:    config.DefaultBackendURL,
			wantPort:   config.DefaultUIPort,
			wantOutput: config.DefaultOutput,
			wantTO:     config.DefaultTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config.ResetConfig()
			t.Cleanup(config.ResetConfig)
			t.Chdir(t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cmd := &cobra.Command{}
			cmd.SetContext(context.Background())

			cmdCtx := NewCommandContextWithoutClient(cmd)
			require.NotNil(t, cmdCtx.Cfg)
			assert.Equal(t, tt.wantURL, cmdCtx.Cfg.BackendURL)
			assert.Equal(t, tt.wantPort, cmdCtx.Cfg.UI.Port)
			assert.Equal(t, tt.wantOutput, cmdCtx.Cfg.OutputFormat)
			assert.Equal(t, tt.wantTO, cmdCtx.Cfg.Timeout)
			assert.NotNil(t, cmdCtx.Renderer)
		})
	}
}

func TestNewCommandContextWithoutClient_PrefersLoadedConfig(t *testing.T) {
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)
	t.Chdir(t.TempDir())
	t.Setenv("ASKDATA_BACKEND_URL", "http://loaded.test:1234")

	loaded, err := config.LoadConfig("", nil)
	require.NoError(t, err)

	t.Setenv("ASKDATA_BACKEND_URL", "http://later.test:5678")

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	cmdCtx := NewCommandContextWithoutClient(cmd)
	assert.Same(t, loaded, cmdCtx.Cfg)
	assert.Equal(t, "http://loaded.test:1234", cmdCtx.Cfg.BackendURL)
}
