package core

// Workflow is the trigger/dispatch policy for one repository: which events
// start a run, and which jobs that run contains.
type Workflow struct {
	Name        string            `yaml:"name"`
	On          Triggers          `yaml:"on"`
	Concurrency Concurrency       `yaml:"concurrency"`
	Env         map[string]string `yaml:"env"` // e.g. SCRIPT_DIR
	Jobs        []Job             `yaml:"jobs"`
}

// Triggers lists the event kinds a workflow reacts to. A nil filter means
// the workflow ignores that kind entirely.
type Triggers struct {
	Push        *TriggerFilter `yaml:"push"`
	PullRequest *TriggerFilter `yaml:"pull_request"`
}

// TriggerFilter narrows a trigger by branch and changed-path globs.
// Empty Branches means "default branch only"; empty Paths means any change.
type TriggerFilter struct {
	Branches []string `yaml:"branches"`
	Paths    []string `yaml:"paths"`
}

// Concurrency controls preemption of overlapping runs in the same group.
// Cancellation is never applied to the default branch; those runs queue.
type Concurrency struct {
	CancelInProgress bool `yaml:"cancel-in-progress"`
}

// Job is an independently scheduled unit of execution. Jobs of one run have
// no ordering between them; steps inside a job run sequentially.
type Job struct {
	Name            string `yaml:"name"`
	ContinueOnError bool   `yaml:"continue-on-error"` // advisory job: never fails the run
	Steps           []Step `yaml:"steps"`
}

// Step is a single instruction inside a job: either a shell command (Run)
// or a builtin action (Uses) parameterized through With.
type Step struct {
	Name string            `yaml:"name,omitempty"`
	Run  string            `yaml:"run,omitempty"`
	Uses string            `yaml:"uses,omitempty"`
	With map[string]string `yaml:"with,omitempty"`
}

// Builtin action names accepted in Step.Uses.
const (
	ActionShellcheck = "shellcheck"
	ActionShfmtDiff  = "shfmt-diff"
)

// Job returns the named job, or nil.
func (w *Workflow) Job(name string) *Job {
	for i := range w.Jobs {
		if w.Jobs[i].Name == name {
			return &w.Jobs[i]
		}
	}
	return nil
}
