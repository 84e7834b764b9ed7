package core

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"shellci/internal/fmtcheck"
	"shellci/internal/lint"
)

// DefaultScriptDir is the scan directory used when neither the workflow env
// nor a step parameter names one.
const DefaultScriptDir = "util"

// JobExecutor runs one job to completion and returns its combined output.
// A non-nil error marks the job failed; advisory handling is the runner's.
type JobExecutor interface {
	ExecJob(ctx context.Context, job Job, env map[string]string, dir string) (string, error)
}

// Executor is the local JobExecutor. Builtin steps dispatch to the tool
// adapter packages; run steps execute in a shell (sh -c) under a per-step
// timeout.
type Executor struct {
	StepTimeout time.Duration
	LintBin     string // override for the linter binary, tests mostly
	FmtBin      string // override for the formatter binary
}

func NewExecutor() *Executor {
	return &Executor{StepTimeout: 5 * time.Minute}
}

// ExecJob runs the job's steps in order, stopping at the first failure.
func (e *Executor) ExecJob(ctx context.Context, job Job, env map[string]string, dir string) (string, error) {
	var out bytes.Buffer
	for _, step := range job.Steps {
		if name := stepLabel(step); name != "" {
			fmt.Fprintf(&out, "==> %s\n", name)
		}
		stepOut, err := e.runStep(ctx, step, env, dir)
		out.WriteString(stepOut)
		if err != nil {
			return out.String(), err
		}
	}
	return out.String(), nil
}

func stepLabel(step Step) string {
	if step.Name != "" {
		return step.Name
	}
	return step.Uses
}

func (e *Executor) runStep(ctx context.Context, step Step, env map[string]string, dir string) (string, error) {
	if e.StepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.StepTimeout)
		defer cancel()
	}
	if step.Uses != "" {
		return e.runBuiltin(ctx, step, env, dir)
	}

	// Run the step in a shell (sh -c "cmd")
	cmd := exec.CommandContext(ctx, "sh", "-c", step.Run)
	cmd.Dir = dir
	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("step %q: %w", step.Run, err)
	}
	return string(out), nil
}

func (e *Executor) runBuiltin(ctx context.Context, step Step, env map[string]string, dir string) (string, error) {
	scan := scanDir(step, env, dir)
	switch step.Uses {
	case ActionShellcheck:
		opts := lint.Options{
			Bin:      e.LintBin,
			Severity: step.With["severity"],
			Format:   step.With["format"],
			Shell:    step.With["shell"],
			Dir:      scan,
		}
		res, err := lint.Run(ctx, opts)
		if err != nil {
			return "", err
		}
		if res.Findings {
			return res.Output, fmt.Errorf("shellcheck reported findings in %d file(s) under %s", len(res.Files), scan)
		}
		return res.Output, nil

	case ActionShfmtDiff:
		opts := fmtcheck.Options{
			Bin:        e.FmtBin,
			Language:   step.With["language"],
			CaseIndent: true,
			Dir:        scan,
		}
		if v, ok := step.With["indent"]; ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return "", fmt.Errorf("step %q: bad indent %q", step.Uses, v)
			}
			opts.Indent = n
		}
		if v, ok := step.With["case-indent"]; ok {
			opts.CaseIndent = v == "true"
		}
		res, err := fmtcheck.Run(ctx, opts)
		if err != nil {
			return "", err
		}
		// Divergence is informational only.
		out := res.Output()
		if res.Dirty() {
			out += fmt.Sprintf("%d file(s) differ from canonical formatting\n", len(res.Diffs))
		}
		return out, nil

	default:
		return "", fmt.Errorf("unknown action %q", step.Uses)
	}
}

// scanDir resolves the directory a builtin step operates on: explicit step
// parameter, then the SCRIPT_DIR env, then the default. Relative paths are
// anchored at the checkout dir.
func scanDir(step Step, env map[string]string, dir string) string {
	scan := step.With["dir"]
	if scan == "" {
		scan = env["SCRIPT_DIR"]
	}
	if scan == "" {
		scan = DefaultScriptDir
	}
	if !filepath.IsAbs(scan) && dir != "" {
		scan = filepath.Join(dir, scan)
	}
	return scan
}
