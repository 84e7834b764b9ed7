package core

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"shellci/internal/journal"
	"shellci/internal/storage"
	"shellci/pkg/utils"
)

// Status of a run or a job within it.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSuccess   Status = "success"
	StatusFailure   Status = "failure"
	StatusCancelled Status = "cancelled"
	StatusSkipped   Status = "skipped"
)

// JobResult is the externally visible outcome of one job.
type JobResult struct {
	Name       string    `json:"name"`
	Status     Status    `json:"status"`
	Advisory   bool      `json:"advisory,omitempty"`
	Output     string    `json:"output,omitempty"`
	Error      string    `json:"error,omitempty"`
	LogPath    string    `json:"log_path,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// RunResult is the outcome of one workflow run.
type RunResult struct {
	ID         string      `json:"id"`
	Workflow   string      `json:"workflow"`
	Event      EventKind   `json:"event"`
	Ref        string      `json:"ref"`
	Status     Status      `json:"status"`
	Jobs       []JobResult `json:"jobs"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
}

// Failed reports whether the run as a whole failed.
func (r *RunResult) Failed() bool { return r.Status == StatusFailure }

// Runner executes one run: all jobs fan out concurrently with no dependency
// between them, each through the configured JobExecutor. Logs and journal
// are best-effort; their failure never fails a run.
type Runner struct {
	Exec    JobExecutor
	Logs    *storage.LogStore   // optional
	Journal *journal.Journal    // optional
	RepoDir string              // checkout the jobs operate on
	Log     *zap.SugaredLogger
}

func NewRunner(exec JobExecutor) *Runner {
	return &Runner{
		Exec: exec,
		Log:  zap.NewNop().Sugar(),
	}
}

// Run executes every job of the workflow for the given event. Job failures
// are reported in the result, not as an error; the context cancels all jobs.
func (r *Runner) Run(ctx context.Context, id string, wf *Workflow, ev Event) *RunResult {
	res := &RunResult{
		ID:        id,
		Workflow:  wf.Name,
		Event:     ev.Kind,
		Ref:       ev.Ref,
		Status:    StatusRunning,
		Jobs:      make([]JobResult, len(wf.Jobs)),
		StartedAt: time.Now(),
	}
	r.Log.Infow("run started", "run", id, "workflow", wf.Name, "ref", ev.Ref, "jobs", len(wf.Jobs))

	env := make(map[string]string, len(wf.Env))
	for k, v := range wf.Env {
		env[k] = v
	}

	// Plain errgroup on purpose: one job failing must not cancel its
	// siblings, they are independent.
	var g errgroup.Group
	for i := range wf.Jobs {
		i, job := i, wf.Jobs[i]
		g.Go(func() error {
			jr := &res.Jobs[i]
			jr.Name = job.Name
			jr.Advisory = job.ContinueOnError
			jr.StartedAt = time.Now()

			out, err := r.Exec.ExecJob(ctx, job, env, r.RepoDir)
			jr.Output = out
			jr.FinishedAt = time.Now()

			switch {
			case ctx.Err() != nil:
				jr.Status = StatusCancelled
				r.Log.Infow("job cancelled", "run", id, "job", job.Name)
			case err != nil && job.ContinueOnError:
				// Advisory: findings are informational only
				jr.Status = StatusSuccess
				r.Log.Infow("job finished with advisory findings", "run", id, "job", job.Name)
			case err != nil:
				jr.Status = StatusFailure
				jr.Error = err.Error()
				r.Log.Warnw("job failed", "run", id, "job", job.Name, "error", err)
			default:
				jr.Status = StatusSuccess
				r.Log.Infow("job succeeded", "run", id, "job", job.Name)
			}

			r.record(res, jr)
			return nil
		})
	}
	_ = g.Wait()

	res.FinishedAt = time.Now()
	res.Status = aggregate(res.Jobs)
	r.Log.Infow("run finished", "run", id, "status", res.Status)
	return res
}

// record persists the job log and appends the journal entry. Both are
// best-effort: a storage problem must not change the job result.
func (r *Runner) record(res *RunResult, jr *JobResult) {
	logHash := utils.HashString(jr.Output)
	if r.Logs != nil {
		path, err := r.Logs.SaveJobLog(res.ID, jr.Name, jr.Output)
		if err != nil {
			r.Log.Warnw("cannot save job log", "job", jr.Name, "error", err)
		} else {
			jr.LogPath = path
			if h, err := utils.HashFile(path); err == nil {
				logHash = h
			}
		}
	}
	if r.Journal != nil {
		rec, err := r.Journal.Append(journal.Entry{
			RunID:    res.ID,
			Workflow: res.Workflow,
			Ref:      res.Ref,
			Job:      jr.Name,
			Status:   string(jr.Status),
			LogPath:  jr.LogPath,
			LogHash:  logHash,
		})
		if err != nil {
			r.Log.Warnw("cannot append journal record", "job", jr.Name, "error", err)
		} else {
			r.Log.Debugw("journal record appended", "seq", rec.Seq, "hash", utils.ShortHash(rec.Hash))
		}
	}
}

func aggregate(jobs []JobResult) Status {
	status := StatusSuccess
	for _, j := range jobs {
		switch j.Status {
		case StatusCancelled:
			return StatusCancelled
		case StatusFailure:
			status = StatusFailure
		}
	}
	return status
}
