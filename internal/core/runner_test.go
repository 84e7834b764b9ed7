package core

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shellci/internal/journal"
	"shellci/internal/security"
	"shellci/internal/storage"
)

// mapExec returns canned results per job name.
type mapExec struct {
	out  map[string]string
	errs map[string]error
}

func (m *mapExec) ExecJob(ctx context.Context, job Job, env map[string]string, dir string) (string, error) {
	return m.out[job.Name], m.errs[job.Name]
}

func twoJobWorkflow() *Workflow {
	return &Workflow{
		Name: "code-quality",
		On:   Triggers{Push: &TriggerFilter{Paths: []string{"util/**/*.sh"}}},
		Env:  map[string]string{"SCRIPT_DIR": "util"},
		Jobs: []Job{
			{Name: "check", Steps: []Step{{Uses: ActionShellcheck}}},
			{Name: "format-diff", ContinueOnError: true, Steps: []Step{{Uses: ActionShfmtDiff}}},
		},
	}
}

func pushEvent() Event {
	return Event{
		Kind: EventPush, Ref: "main", DefaultBranch: "main",
		ChangedPaths: []string{"util/deploy.sh"},
	}
}

func TestRunAllJobsSucceed(t *testing.T) {
	r := NewRunner(&mapExec{out: map[string]string{"check": "clean", "format-diff": ""}})
	res := r.Run(context.Background(), "r1", twoJobWorkflow(), pushEvent())

	assert.Equal(t, StatusSuccess, res.Status)
	require.Len(t, res.Jobs, 2)
	for _, j := range res.Jobs {
		assert.Equal(t, StatusSuccess, j.Status)
	}
}

func TestRunLintFindingsFailOnlyTheCheckJob(t *testing.T) {
	// check fails on findings, format-diff reports a diff but is advisory
	exec := &mapExec{
		out: map[string]string{
			"check":       "util/deploy.sh: SC2086 double quote to prevent globbing",
			"format-diff": "--- a/util/deploy.sh\n+++ b/util/deploy.sh\n-  indent\n+    indent\n",
		},
		errs: map[string]error{
			"check":       errors.New("shellcheck reported findings"),
			"format-diff": errors.New("differences found"),
		},
	}
	r := NewRunner(exec)
	res := r.Run(context.Background(), "r1", twoJobWorkflow(), pushEvent())

	assert.Equal(t, StatusFailure, res.Status)
	assert.True(t, res.Failed())

	check := res.Jobs[0]
	assert.Equal(t, StatusFailure, check.Status)
	assert.Contains(t, check.Output, "SC2086")
	assert.NotEmpty(t, check.Error)

	fd := res.Jobs[1]
	assert.Equal(t, StatusSuccess, fd.Status, "advisory job must not fail the run")
	assert.True(t, fd.Advisory)
	assert.Contains(t, fd.Output, "+    indent")
}

func TestRunCancelledContextMarksJobsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(&mapExec{})
	res := r.Run(ctx, "r1", twoJobWorkflow(), pushEvent())
	assert.Equal(t, StatusCancelled, res.Status)
}

func TestRunPersistsLogsAndJournal(t *testing.T) {
	pub, priv, err := security.GenerateKeyPair()
	require.NoError(t, err)
	jnl, err := journal.Open(filepath.Join(t.TempDir(), "journal.jsonl"), priv, pub)
	require.NoError(t, err)

	r := NewRunner(&mapExec{out: map[string]string{"check": "clean\n", "format-diff": "diff\n"}})
	r.Logs = storage.NewLogStore(t.TempDir())
	r.Journal = jnl

	res := r.Run(context.Background(), "r1", twoJobWorkflow(), pushEvent())
	require.Equal(t, StatusSuccess, res.Status)

	for _, j := range res.Jobs {
		assert.NotEmpty(t, j.LogPath, "job %s has no log", j.Name)
		assert.FileExists(t, j.LogPath)
	}

	assert.Equal(t, 2, jnl.Len())
	require.NoError(t, jnl.Verify())
	for _, rec := range jnl.Records() {
		assert.Equal(t, "r1", rec.RunID)
		assert.Equal(t, "code-quality", rec.Workflow)
		assert.NotEmpty(t, rec.LogHash)
	}
}
