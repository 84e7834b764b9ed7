// Package fmtcheck drives the external shell formatter (shfmt) in diff mode.
// Divergence from canonical style is reported as text, never as failure.
package fmtcheck

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"shellci/internal/lint"
)

// Options parameterize the formatter: canonical style is the shell dialect
// plus indentation settings.
type Options struct {
	Bin        string // formatter binary, default "shfmt"
	Language   string // shell dialect, default "bash"
	Indent     int    // spaces per indent level, default 4
	CaseIndent bool   // indent switch/case bodies, default true
	Dir        string // scan directory
}

// Result of one formatter pass over a directory.
type Result struct {
	Files []string          // scripts that were checked
	Diffs map[string]string // file -> non-empty diff against canonical form
}

// Dirty reports whether any file diverges from canonical style.
func (r *Result) Dirty() bool { return len(r.Diffs) > 0 }

// Output renders the per-file diffs in scan order.
func (r *Result) Output() string {
	var b strings.Builder
	for _, f := range r.Files {
		if d, ok := r.Diffs[f]; ok {
			b.WriteString(d)
			if !strings.HasSuffix(d, "\n") {
				b.WriteByte('\n')
			}
		}
	}
	return b.String()
}

func (o *Options) fill() {
	if o.Bin == "" {
		o.Bin = "shfmt"
	}
	if o.Language == "" {
		o.Language = "bash"
	}
	if o.Indent == 0 {
		o.Indent = 4
	}
}

// Run diffs every shell script under opts.Dir against its canonical
// reformatting, one tool invocation per file. The formatter's "differences
// found" exit status is suppressed; only tool failures return an error.
func Run(ctx context.Context, opts Options) (*Result, error) {
	opts.fill()

	files, err := lint.Scripts(opts.Dir)
	if err != nil {
		return nil, err
	}
	res := &Result{Files: files, Diffs: make(map[string]string)}

	args := []string{"-ln", opts.Language, "-i", strconv.Itoa(opts.Indent)}
	if opts.CaseIndent {
		args = append(args, "-ci")
	}
	args = append(args, "-d")

	for _, f := range files {
		cmd := exec.CommandContext(ctx, opts.Bin, append(args, f)...)
		out, err := cmd.CombinedOutput()
		if err == nil {
			continue // canonical already
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			res.Diffs[f] = string(out)
			continue
		}
		return nil, fmt.Errorf("run %s on %s: %w", opts.Bin, f, err)
	}
	return res, nil
}
