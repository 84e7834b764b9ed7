// Package lint drives the external shell-script linter (shellcheck).
// The linter itself is an opaque collaborator; this package only builds the
// invocation and classifies its exit status.
package lint

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// Options parameterize one linter invocation.
type Options struct {
	Bin      string // linter binary, default "shellcheck"
	Severity string // minimum severity reported, default "warning"
	Format   string // output format, default "tty"
	Shell    string // shell dialect, default "bash"
	Dir      string // scan directory
}

// Result of one linter invocation.
type Result struct {
	Output   string   // combined stdout+stderr of the tool
	Files    []string // scripts that were scanned
	Findings bool     // true when the linter reported at least one issue
}

func (o *Options) fill() {
	if o.Bin == "" {
		o.Bin = "shellcheck"
	}
	if o.Severity == "" {
		o.Severity = "warning"
	}
	if o.Format == "" {
		o.Format = "tty"
	}
	if o.Shell == "" {
		o.Shell = "bash"
	}
}

// Scripts returns every *.sh file under dir, recursively, sorted.
func Scripts(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".sh") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// Run lints every shell script under opts.Dir. Findings at or above the
// severity threshold set Result.Findings; the caller decides whether that
// fails anything. A non-nil error means the tool itself could not run.
func Run(ctx context.Context, opts Options) (*Result, error) {
	opts.fill()

	files, err := Scripts(opts.Dir)
	if err != nil {
		return nil, err
	}
	res := &Result{Files: files}
	if len(files) == 0 {
		res.Output = fmt.Sprintf("no shell scripts under %s\n", opts.Dir)
		return res, nil
	}

	args := []string{
		"--severity=" + opts.Severity,
		"--format=" + opts.Format,
		"--shell=" + opts.Shell,
	}
	args = append(args, files...)

	cmd := exec.CommandContext(ctx, opts.Bin, args...)
	out, err := cmd.CombinedOutput()
	res.Output = string(out)
	if err == nil {
		return res, nil
	}

	// shellcheck exits 1 when it reported findings; anything else is a tool
	// or environment failure.
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		res.Findings = true
		return res, nil
	}
	return nil, fmt.Errorf("run %s: %w", opts.Bin, err)
}
