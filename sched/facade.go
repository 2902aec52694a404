// Policy Facade: the capability vector the runtime calls — Init/Deinit
// (via NewFacade/Deinit), AddWorkers, RemoveWorkers, Push, SimulatePush,
// Pop, PopEvery, PreExecHook, PostExecHook, PushTaskNotify.

package sched

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Facade is the runtime-facing scheduler: it owns one Context and the
// Decision Engine configured for it.
type Facade struct {
	ctx    *Context
	engine *Engine
	opts   EngineOptions
}

// NewFacade initializes a Facade for a fresh scheduling context: allocates
// the worker FIFO slot array, reads α/β/γ/idle_power from environment
// overrides, and, if priorityRange is non-nil, allocates priority-bucket
// arrays for every worker added afterward.
func NewFacade(contextID string, oracle Oracle, priorityRange *PriorityRange, opts EngineOptions, clock Clock) *Facade {
	coeffs := CoefficientsFromEnv()
	if clock == nil {
		clock = RealClock{}
	}
	ctx := NewContext(contextID, coeffs, priorityRange, clock)
	if opts.Variant == "" {
		opts.Variant = VariantDMDA
	}
	return &Facade{
		ctx: ctx,
		engine: &Engine{
			Oracle: oracle,
			Coeffs: coeffs,
			Clock:  clock,
		},
		opts: opts,
	}
}

// Context exposes the underlying scheduling context (for AddWorkers,
// RemoveWorkers, RegisterChild, EnableGlobalWindow).
func (f *Facade) Context() *Context { return f.ctx }

// Deinit releases the context's resources, returning any queued-but-not-
// popped tasks per worker.
func (f *Facade) Deinit() map[WorkerID][]*Task {
	return f.ctx.Deinit()
}

// PushResult reports the outcome of a successful Push.
type PushResult struct {
	// Delegated is true when the chosen worker is a master-for-child-
	// context worker: the task was forwarded to ChildContext's Push
	// instead of being queued locally. Counted as success, not an error.
	Delegated    bool
	ChildContext string

	Worker WorkerID
	Impl   int
	ExpEnd float64
}

// Push runs the Decision Engine for task and commits it to the chosen
// worker's FIFO (or forwards it to a child context on delegation).
func (f *Facade) Push(task *Task) (PushResult, error) {
	if f.ctx.closed {
		return PushResult{}, ErrContextClosed
	}

	snapshot := f.ctx.Snapshot()
	if len(snapshot) == 0 {
		return PushResult{}, ErrNoEligibleWorker
	}

	if f.ctx.globalWindow && f.opts.Variant == VariantDM {
		return f.pushGlobalWindow(snapshot, task)
	}

	decision, err := f.engine.Decide(snapshot, task, f.opts)
	if err != nil {
		return PushResult{}, err
	}
	return f.commit(task, decision)
}

// pushGlobalWindow implements the DM variant's priority-merge dispatch:
// task is inserted into the heterogeneity-ratio-sorted pending list under
// the context lock, then the head of that list is dispatched via the
// normal Decide+commit path. This keeps the list's invariant (sorted by
// descending ratio) without ever blocking on the Oracle while holding the
// context lock — the ratio is computed before the lock is taken.
func (f *Facade) pushGlobalWindow(snapshot []*WorkerFIFO, task *Task) (PushResult, error) {
	ratio := heterogeneityRatio(task, f.engine.Oracle, snapshot)

	f.ctx.mu.Lock()
	f.ctx.pending.Insert(task, ratio)
	head := f.ctx.pending.PopHead()
	f.ctx.mu.Unlock()

	decision, err := f.engine.Decide(snapshot, head, f.opts)
	if err != nil {
		return PushResult{}, err
	}
	return f.commit(head, decision)
}

// SimulatePush evaluates the Decision Engine for task without committing —
// used by meta-schedulers to compare policies before picking one for real.
func (f *Facade) SimulatePush(task *Task) (float64, error) {
	snapshot := f.ctx.Snapshot()
	if len(snapshot) == 0 {
		return 0, ErrNoEligibleWorker
	}
	decision, err := f.engine.Decide(snapshot, task, f.opts)
	if err != nil {
		return 0, err
	}
	return decision.ExpEnd, nil
}

// commit performs the commit protocol:
//  1. if the worker is a master-for-child-context with a registered child,
//     forward the task to the child's Push and stop; nothing is recorded
//     or queued locally
//  2. record task.SelectedImpl
//  3. under the chosen FIFO's lock: refresh exp_start, clamp
//     predicted_transfer against now(), bump exp_len, update buckets,
//     insert the task
func (f *Facade) commit(task *Task, d Decision) (PushResult, error) {
	f.ctx.mu.Lock()
	childID, delegated := f.ctx.masterFor[d.Worker.ID()]
	var child *Facade
	if delegated {
		child = f.ctx.children[childID]
	}
	f.ctx.mu.Unlock()

	if delegated {
		if child == nil {
			// No child registered yet: conservative fallback — treat as
			// non-delegating and queue locally rather than drop the task.
			logrus.Warnf("sched: worker %s marked master-for-child %q but no child Facade registered; queuing locally", d.Worker.ID(), childID)
		} else {
			res, err := child.Push(task)
			if err != nil {
				return PushResult{}, fmt.Errorf("delegating to child context %q: %w", childID, err)
			}
			res.Delegated = true
			res.ChildContext = childID
			return res, nil
		}
	}

	task.SelectedImpl = d.Impl

	w := d.Worker
	w.mu.Lock()
	w.refreshLocked()

	predictedTransfer := d.PredictedTransfer
	predictedLength := d.PredictedLength
	if !d.Unknown {
		// Clamp predicted_transfer against now(): if the transfer would
		// complete before exp_end, it contributes 0; otherwise the
		// residual (now + transfer) - exp_end is recorded.
		now := f.engine.Clock.Now()
		expEndBefore := w.recomputeEndLocked()
		if now+predictedTransfer <= expEndBefore {
			predictedTransfer = 0
		} else {
			predictedTransfer = (now + predictedTransfer) - expEndBefore
		}
	}

	task.PredictedLength = predictedLength
	task.PredictedTransfer = predictedTransfer
	w.expLen += predictedLength + predictedTransfer
	w.addBucketsLocked(task.Priority, contribution(task))
	expEnd := w.recomputeEndLocked()

	sorted := f.opts.SortedDecision
	w.mu.Unlock()

	if sorted {
		w.PushSorted(task)
	} else {
		w.PushTail(task)
	}
	task.ContextID = f.ctx.id

	return PushResult{Worker: w.ID(), Impl: d.Impl, ExpEnd: expEnd}, nil
}

// Pop withdraws the next task from workerID's FIFO (FCFS head).
func (f *Facade) Pop(workerID WorkerID) (*Task, error) {
	w, ok := f.ctx.Worker(workerID)
	if !ok {
		return nil, ErrUnknownWorker
	}
	return w.PopFront(), nil
}

// PopFirstReady withdraws the data-aware head-of-line-bypass pick from
// workerID's FIFO, considering readiness at memoryNode.
func (f *Facade) PopFirstReady(workerID WorkerID, memoryNode string) (*Task, error) {
	w, ok := f.ctx.Worker(workerID)
	if !ok {
		return nil, ErrUnknownWorker
	}
	return w.PopFirstReady(memoryNode), nil
}

// PopEvery withdraws workerID's entire queue atomically (rebalance). The
// caller is expected to hold no lock (SPEC_FULL.md §12.3): PopEvery takes
// the FIFO's lock itself.
func (f *Facade) PopEvery(workerID WorkerID) ([]*Task, error) {
	w, ok := f.ctx.Worker(workerID)
	if !ok {
		return nil, ErrUnknownWorker
	}
	return w.PopAll(), nil
}

// PreExecHook is invoked by the worker driver after data transfers complete
// and before kernel launch (state QUEUED -> TRANSFERRING -> EXECUTING): it
// subtracts the transfer model from exp_len and adds the compute model to
// exp_start.
func (f *Facade) PreExecHook(task *Task) {
	w := task.fifo
	assertf(w != nil, "sched: PreExecHook called on task %q with no owning FIFO", task.ID)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.refreshLocked()

	if task.PredictedTransfer > w.expLen {
		logrus.Warnf("sched: horizon underflow subtracting transfer %.6f from exp_len %.6f on worker %s; clamping to 0", task.PredictedTransfer, w.expLen, w.id)
		w.expLen = 0
	} else {
		w.expLen -= task.PredictedTransfer
	}
	w.expStart += task.PredictedLength
	w.recomputeEndLocked()
}

// PostExecHook is invoked after kernel completion (state EXECUTING -> DONE):
// it subtracts the remaining predicted length from exp_len and resets
// exp_start to now().
func (f *Facade) PostExecHook(task *Task) {
	w := task.fifo
	assertf(w != nil, "sched: PostExecHook called on task %q with no owning FIFO", task.ID)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.refreshLocked()

	if task.PredictedLength > w.expLen {
		logrus.Warnf("sched: horizon underflow subtracting length %.6f from exp_len %.6f on worker %s; clamping to 0", task.PredictedLength, w.expLen, w.id)
		w.expLen = 0
	} else {
		w.expLen -= task.PredictedLength
	}
	w.expStart = f.engine.Clock.Now()
	w.recomputeEndLocked()
	task.fifo = nil
}

// PushTaskNotify informs the scheduler that task was placed on workerID by
// an external path (e.g., explicit execute_on): the horizon is updated
// without running the Decision Engine. task.SelectedImpl and
// task.Codelet.Implementations[SelectedImpl] must already identify the
// implementation in use.
func (f *Facade) PushTaskNotify(task *Task, workerID WorkerID) error {
	w, ok := f.ctx.Worker(workerID)
	if !ok {
		return ErrUnknownWorker
	}
	assertf(task.SelectedImpl >= 0 && task.SelectedImpl < len(task.Codelet.Implementations),
		"sched: PushTaskNotify requires task %q to have a valid SelectedImpl", task.ID)

	arch := task.Codelet.Implementations[task.SelectedImpl].Arch
	length := f.engine.Oracle.ExpectedLength(task, arch, task.SelectedImpl)
	if isUncalibrated(length) {
		length = 0
	}
	transfer := f.engine.Oracle.ExpectedDataTransferTime(w.MemoryNode(), task)
	if isUncalibrated(transfer) {
		transfer = 0
	}

	w.mu.Lock()
	w.refreshLocked()
	task.PredictedLength = length
	task.PredictedTransfer = transfer
	w.expLen += length + transfer
	w.addBucketsLocked(task.Priority, contribution(task))
	w.recomputeEndLocked()
	w.mu.Unlock()

	w.PushTail(task)
	task.ContextID = f.ctx.id
	return nil
}

// WaitIdle blocks until every worker's queue is empty, polling every
// pollEvery: a barrier equivalent to starpu_task_wait_for_all() for
// callers outside the core. Nothing in this module calls it; the scheduler
// core itself never blocks.
func (f *Facade) WaitIdle(pollEvery time.Duration) {
	for {
		idle := true
		for _, w := range f.ctx.Snapshot() {
			if w.NTasks() > 0 {
				idle = false
				break
			}
		}
		if idle {
			return
		}
		time.Sleep(pollEvery)
	}
}
