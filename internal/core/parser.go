package core

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ParseWorkflow parses YAML content into a Workflow and validates it.
func ParseWorkflow(data []byte) (*Workflow, error) {
	var wf Workflow
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("parse workflow: %w", err)
	}
	if err := wf.validate(); err != nil {
		return nil, err
	}
	return &wf, nil
}

// LoadWorkflow reads a workflow file and returns a Workflow object.
func LoadWorkflow(path string) (*Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workflow file: %w", err)
	}
	return ParseWorkflow(data)
}

func (w *Workflow) validate() error {
	if w.Name == "" {
		return fmt.Errorf("workflow has no name")
	}
	if w.On.Push == nil && w.On.PullRequest == nil {
		return fmt.Errorf("workflow %q declares no triggers", w.Name)
	}
	if len(w.Jobs) == 0 {
		return fmt.Errorf("workflow %q has no jobs", w.Name)
	}
	seen := make(map[string]bool)
	for _, job := range w.Jobs {
		if job.Name == "" {
			return fmt.Errorf("workflow %q: job with empty name", w.Name)
		}
		if seen[job.Name] {
			return fmt.Errorf("workflow %q: duplicate job %q", w.Name, job.Name)
		}
		seen[job.Name] = true
		if len(job.Steps) == 0 {
			return fmt.Errorf("job %q has no steps", job.Name)
		}
		for i, step := range job.Steps {
			if (step.Run == "") == (step.Uses == "") {
				return fmt.Errorf("job %q step %d: exactly one of run or uses is required", job.Name, i+1)
			}
			switch step.Uses {
			case "", ActionShellcheck, ActionShfmtDiff:
			default:
				return fmt.Errorf("job %q step %d: unknown action %q", job.Name, i+1, step.Uses)
			}
		}
	}
	return nil
}
