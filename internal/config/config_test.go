package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "util", cfg.Workflow.ScriptDir)
	assert.Equal(t, "shellcheck", cfg.Tools.Shellcheck)
	assert.Equal(t, "shfmt", cfg.Tools.Shfmt)
	assert.Equal(t, 5*time.Minute, cfg.Tools.StepTimeout)
}

func TestScriptDirEnvOverride(t *testing.T) {
	t.Setenv("SCRIPT_DIR", "scripts/shell")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "scripts/shell", cfg.Workflow.ScriptDir)
}
