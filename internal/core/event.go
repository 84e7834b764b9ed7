package core

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// EventKind is the kind of repository event that can start a run.
type EventKind string

const (
	EventPush        EventKind = "push"
	EventPullRequest EventKind = "pull_request"
)

// Event is one repository event as delivered by the hosting platform.
// For pull_request events Ref is the head branch and BaseRef the target.
type Event struct {
	Kind          EventKind `json:"kind"`
	Ref           string    `json:"ref"`
	BaseRef       string    `json:"base_ref,omitempty"`
	DefaultBranch string    `json:"default_branch"`
	ChangedPaths  []string  `json:"changed_paths"`
}

// Decision is the outcome of evaluating an event against a workflow.
type Decision struct {
	Run    bool
	Reason string // why the event was skipped; empty when Run is true
}

// GroupKey returns the concurrency group key for an event: overlapping runs
// with the same key are serialized or cancelled per the workflow policy.
func GroupKey(wf *Workflow, ev Event) string {
	return wf.Name + "@" + ev.Ref
}

// Evaluate decides whether an event starts a run of the workflow.
// All declared jobs run when it does; there is no per-job filtering.
func Evaluate(wf *Workflow, ev Event) Decision {
	var filter *TriggerFilter
	switch ev.Kind {
	case EventPush:
		filter = wf.On.Push
	case EventPullRequest:
		filter = wf.On.PullRequest
	default:
		return skip("unknown event kind %q", ev.Kind)
	}
	if filter == nil {
		return skip("workflow has no %s trigger", ev.Kind)
	}

	// Branch filter. Push events match on the pushed ref, pull requests on
	// the branch they target. With no explicit list only the default branch
	// is eligible.
	branch := ev.Ref
	if ev.Kind == EventPullRequest {
		branch = ev.BaseRef
	}
	if len(filter.Branches) == 0 {
		if branch != ev.DefaultBranch {
			return skip("branch %q is not the default branch", branch)
		}
	} else if !matchAny(filter.Branches, branch) {
		return skip("branch %q matches no branch filter", branch)
	}

	if len(filter.Paths) > 0 {
		matched := false
		for _, p := range ev.ChangedPaths {
			if matchAny(filter.Paths, p) {
				matched = true
				break
			}
		}
		if !matched {
			return skip("no changed path matches the path filter")
		}
	}
	return Decision{Run: true}
}

func matchAny(patterns []string, name string) bool {
	for _, pat := range patterns {
		if ok, err := doublestar.Match(pat, name); err == nil && ok {
			return true
		}
	}
	return false
}

func skip(format string, args ...any) Decision {
	return Decision{Run: false, Reason: fmt.Sprintf(format, args...)}
}
