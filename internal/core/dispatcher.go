package core

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Dispatcher enforces the concurrency-group policy across runs. Group key is
// (workflow name, ref): a new run preempts an in-flight run with the same
// key by cancelling it, except on the default branch where runs queue and
// finish in order.
type Dispatcher struct {
	runner *Runner
	log    *zap.SugaredLogger

	mu       sync.Mutex
	inflight map[string]*groupRun
}

type groupRun struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func NewDispatcher(runner *Runner, log *zap.SugaredLogger) *Dispatcher {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Dispatcher{
		runner:   runner,
		log:      log,
		inflight: make(map[string]*groupRun),
	}
}

// Dispatch evaluates the event and, when eligible, runs the workflow under
// its concurrency group, blocking until the run completes. A skipped event
// returns a nil result and the skip decision.
func (d *Dispatcher) Dispatch(ctx context.Context, id string, wf *Workflow, ev Event) (*RunResult, Decision, error) {
	dec := Evaluate(wf, ev)
	if !dec.Run {
		d.log.Infow("event skipped", "workflow", wf.Name, "ref", ev.Ref, "reason", dec.Reason)
		return nil, dec, nil
	}

	key := GroupKey(wf, ev)
	for {
		d.mu.Lock()
		cur := d.inflight[key]
		if cur == nil {
			runCtx, cancel := context.WithCancel(ctx)
			gr := &groupRun{cancel: cancel, done: make(chan struct{})}
			d.inflight[key] = gr
			d.mu.Unlock()

			res := d.runner.Run(runCtx, id, wf, ev)

			d.mu.Lock()
			if d.inflight[key] == gr {
				delete(d.inflight, key)
			}
			d.mu.Unlock()
			cancel()
			close(gr.done)
			return res, dec, nil
		}
		d.mu.Unlock()

		if wf.Concurrency.CancelInProgress && ev.Ref != ev.DefaultBranch {
			// Preempt: a newer commit on the same branch supersedes the
			// running one.
			d.log.Infow("cancelling in-progress run", "group", key)
			cur.cancel()
		} else {
			d.log.Infow("queueing behind in-progress run", "group", key)
		}

		select {
		case <-cur.done:
			// re-check the group; another waiter may have claimed it
		case <-ctx.Done():
			return nil, dec, ctx.Err()
		}
	}
}

// InFlight reports whether a run is currently active for the group key.
func (d *Dispatcher) InFlight(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inflight[key] != nil
}
