package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/flowllm/flowllm/internal/flowerr"
)

// Result is one submitted task's outcome, embedded at its submission
// position when Join(returnExceptions=true) is used.
type Result struct {
	Value any
	Err   error
}

type task struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan Result
}

// TaskGroup is the per-Op task list: submit_async registers a
// cooperative task in the CURRENT Op's group (not its parent's, not
// its siblings'), and Join waits only on tasks this group submitted.
type TaskGroup struct {
	parent context.Context
	mu     sync.Mutex
	tasks  []*task
}

func NewTaskGroup(parent context.Context) *TaskGroup {
	return &TaskGroup{parent: parent}
}

// Submit registers fn as a cooperative task run on its own goroutine.
// fn receives a context derived from the group's parent that is
// cancelled individually if Join cancels this task (on timeout or a
// sibling's failure).
func (g *TaskGroup) Submit(fn func(ctx context.Context) (any, error)) {
	ctx, cancel := context.WithCancel(g.parent)
	t := &task{ctx: ctx, cancel: cancel, done: make(chan Result, 1)}
	g.mu.Lock()
	g.tasks = append(g.tasks, t)
	g.mu.Unlock()

	go func() {
		v, err := fn(ctx)
		t.done <- Result{Value: v, Err: err}
	}()
}

type indexedResult struct {
	idx int
	res Result
}

// Join waits for every task submitted by this group so far:
//   - if timeout elapses, cancel all still-running tasks, wait for
//     settlement, and return a Timeout error;
//   - if any task fails and returnExceptions is false, cancel siblings,
//     wait for settlement, and return the first error;
//   - if returnExceptions is true, wait for all and return every
//     result in submission order with failures embedded as Result.Err.
//
// The task list is cleared before returning. A negative timeout means
// "no timeout"; the exact value 0 is an immediate poll — it acts as a
// timeout that has already elapsed unless every task is already done.
func (g *TaskGroup) Join(timeout time.Duration, returnExceptions bool) ([]Result, error) {
	g.mu.Lock()
	tasks := g.tasks
	g.tasks = nil
	g.mu.Unlock()

	if len(tasks) == 0 {
		return nil, nil
	}

	// An immediate poll times out only if some task is still running;
	// check before the forwarders below start consuming t.done.
	pollPending := false
	if timeout == 0 {
		for _, t := range tasks {
			if len(t.done) == 0 {
				pollPending = true
				break
			}
		}
	}

	collected := make(chan indexedResult, len(tasks))
	for i, t := range tasks {
		i, t := i, t
		go func() {
			collected <- indexedResult{i, <-t.done}
		}()
	}

	var timerC <-chan time.Time
	if timeout == 0 && pollPending {
		immediate := make(chan time.Time, 1)
		immediate <- time.Now()
		timerC = immediate
	} else if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timerC = timer.C
	}

	results := make([]Result, len(tasks))
	remaining := len(tasks)
	for remaining > 0 {
		select {
		case item := <-collected:
			results[item.idx] = item.res
			remaining--
			if !returnExceptions && item.res.Err != nil {
				cancelAll(tasks)
				drain(collected, results, remaining)
				return nil, item.res.Err
			}
		case <-timerC:
			cancelAll(tasks)
			drain(collected, results, remaining)
			return nil, flowerr.New(flowerr.KindTimeout, context.DeadlineExceeded)
		}
	}
	return results, nil
}

// drain waits for the remaining outstanding tasks to settle after a
// cancellation, so Join never returns while a submitted task is still
// running.
func drain(collected <-chan indexedResult, results []Result, remaining int) {
	for remaining > 0 {
		item := <-collected
		results[item.idx] = item.res
		remaining--
	}
}

func cancelAll(tasks []*task) {
	for _, t := range tasks {
		t.cancel()
	}
}
