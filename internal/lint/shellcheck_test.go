package lint

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeTool(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shellcheck")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0755))
	return path
}

func writeScript(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/bash\necho hi\n"), 0755))
	return path
}

func TestScriptsFindsShellFilesRecursively(t *testing.T) {
	dir := t.TempDir()
	a := writeScript(t, dir, "a.sh")
	b := writeScript(t, dir, "nested/deep/b.sh")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	files, err := Scripts(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, files)
}

func TestRunCleanDirectory(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "ok.sh")

	res, err := Run(context.Background(), Options{
		Bin: fakeTool(t, `echo "args: $@"; exit 0`),
		Dir: dir,
	})
	require.NoError(t, err)
	assert.False(t, res.Findings)
	// defaults flow into the invocation
	assert.Contains(t, res.Output, "--severity=warning")
	assert.Contains(t, res.Output, "--format=tty")
	assert.Contains(t, res.Output, "--shell=bash")
	assert.Contains(t, res.Output, "ok.sh")
}

func TestRunReportsFindings(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "bad.sh")

	res, err := Run(context.Background(), Options{
		Bin: fakeTool(t, `echo "SC2086: double quote to prevent globbing"; exit 1`),
		Dir: dir,
	})
	require.NoError(t, err)
	assert.True(t, res.Findings)
	assert.Contains(t, res.Output, "SC2086")
}

func TestRunToolFailureIsAnError(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "a.sh")

	_, err := Run(context.Background(), Options{
		Bin: fakeTool(t, `echo "cannot parse" >&2; exit 2`),
		Dir: dir,
	})
	assert.Error(t, err)
}

func TestRunMissingToolIsAnError(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "a.sh")

	_, err := Run(context.Background(), Options{Bin: filepath.Join(dir, "no-such-tool"), Dir: dir})
	assert.Error(t, err)
}

func TestRunEmptyDirectorySkipsTheTool(t *testing.T) {
	// the binary does not exist; it must never be invoked
	res, err := Run(context.Background(), Options{Bin: "/no/such/shellcheck", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.False(t, res.Findings)
	assert.Empty(t, res.Files)
}
