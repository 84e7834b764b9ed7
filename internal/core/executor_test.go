package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTool writes an executable shell script standing in for an external
// binary and returns its path.
func fakeTool(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tool")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0755))
	return path
}

// scriptsDir builds a checkout containing util/<name> script files.
func scriptsDir(t *testing.T, names ...string) string {
	t.Helper()
	repo := t.TempDir()
	util := filepath.Join(repo, "util")
	require.NoError(t, os.MkdirAll(util, 0755))
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(util, n), []byte("#!/bin/bash\necho hi\n"), 0755))
	}
	return repo
}

func TestExecJobRunsShellSteps(t *testing.T) {
	e := NewExecutor()
	job := Job{Name: "greet", Steps: []Step{
		{Run: "echo one"},
		{Run: "echo two"},
	}}

	out, err := e.ExecJob(context.Background(), job, nil, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "one")
	assert.Contains(t, out, "two")
}

func TestExecJobStopsAtFirstFailure(t *testing.T) {
	e := NewExecutor()
	job := Job{Name: "broken", Steps: []Step{
		{Run: "echo before"},
		{Run: "exit 3"},
		{Run: "echo after"},
	}}

	out, err := e.ExecJob(context.Background(), job, nil, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, out, "before")
	assert.NotContains(t, out, "after")
}

func TestExecJobPassesEnvToShellSteps(t *testing.T) {
	e := NewExecutor()
	job := Job{Name: "env", Steps: []Step{{Run: "echo dir=$SCRIPT_DIR"}}}

	out, err := e.ExecJob(context.Background(), job, map[string]string{"SCRIPT_DIR": "util"}, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "dir=util")
}

func TestExecJobShellcheckFindingsFailTheJob(t *testing.T) {
	repo := scriptsDir(t, "deploy.sh")
	e := NewExecutor()
	e.LintBin = fakeTool(t, `echo "SC2086: double quote to prevent globbing"; exit 1`)

	job := Job{Name: "check", Steps: []Step{
		{Uses: ActionShellcheck, With: map[string]string{"severity": "warning"}},
	}}
	out, err := e.ExecJob(context.Background(), job, map[string]string{"SCRIPT_DIR": "util"}, repo)
	require.Error(t, err)
	assert.Contains(t, out, "SC2086")
}

func TestExecJobShellcheckCleanSucceeds(t *testing.T) {
	repo := scriptsDir(t, "deploy.sh")
	e := NewExecutor()
	e.LintBin = fakeTool(t, `echo "scanned: $@"; exit 0`)

	job := Job{Name: "check", Steps: []Step{{Uses: ActionShellcheck}}}
	out, err := e.ExecJob(context.Background(), job, map[string]string{"SCRIPT_DIR": "util"}, repo)
	require.NoError(t, err)
	// the scan dir resolved against the checkout, not the working directory
	assert.Contains(t, out, filepath.Join(repo, "util", "deploy.sh"))
}

func TestExecJobShfmtDiffIsAdvisory(t *testing.T) {
	repo := scriptsDir(t, "deploy.sh")
	e := NewExecutor()
	e.FmtBin = fakeTool(t, `echo "--- a/deploy.sh"; echo "+++ b/deploy.sh"; exit 1`)

	job := Job{Name: "format-diff", Steps: []Step{
		{Uses: ActionShfmtDiff, With: map[string]string{"indent": "4"}},
	}}
	out, err := e.ExecJob(context.Background(), job, map[string]string{"SCRIPT_DIR": "util"}, repo)
	require.NoError(t, err)
	assert.Contains(t, out, "+++ b/deploy.sh")
	assert.Contains(t, out, "differ from canonical formatting")
}

func TestExecJobUnknownActionFails(t *testing.T) {
	e := NewExecutor()
	job := Job{Name: "x", Steps: []Step{{Uses: "frobnicate"}}}
	_, err := e.ExecJob(context.Background(), job, nil, t.TempDir())
	assert.Error(t, err)
}

func TestScanDirResolution(t *testing.T) {
	// explicit step parameter wins over the env
	step := Step{With: map[string]string{"dir": "scripts"}}
	assert.Equal(t, filepath.Join("/repo", "scripts"),
		scanDir(step, map[string]string{"SCRIPT_DIR": "util"}, "/repo"))

	// env next
	assert.Equal(t, filepath.Join("/repo", "util"),
		scanDir(Step{}, map[string]string{"SCRIPT_DIR": "util"}, "/repo"))

	// default last
	assert.Equal(t, filepath.Join("/repo", DefaultScriptDir), scanDir(Step{}, nil, "/repo"))

	// absolute paths are left alone
	assert.Equal(t, "/abs/util",
		scanDir(Step{}, map[string]string{"SCRIPT_DIR": "/abs/util"}, "/repo"))
}
