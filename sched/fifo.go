// Per-worker ready queue with horizon bookkeeping. One WorkerFIFO exists per
// attached worker, created by Context.AddWorkers and destroyed by
// Context.RemoveWorkers.
//
// Locking: each WorkerFIFO owns its own mutex.
// Callers must never hold two FIFO locks at once, and must never call into
// the Oracle or a user callback while holding one.

package sched

import (
	"sort"
	"sync"
)

// WorkerID identifies a worker within a scheduling context.
type WorkerID string

// WorkerFIFO is the per-worker ready queue plus its predicted-completion
// bookkeeping ("horizon").
type WorkerFIFO struct {
	mu sync.Mutex

	id         WorkerID
	arch       ArchKind
	memoryNode string
	clock      Clock

	sequence   []*Task
	ntasks     int
	nprocessed int64

	expStart float64
	expLen   float64

	// Priority buckets, present iff numBuckets > 0 (context declares a
	// finite priority range).
	numBuckets        int
	minPriority       int
	maxPriority       int
	expLenPerPriority []float64
	ntasksPerPriority []int
}

// newWorkerFIFO constructs an empty WorkerFIFO. numBuckets == 0 disables
// per-priority accounting.
func newWorkerFIFO(id WorkerID, arch ArchKind, memoryNode string, clock Clock, numBuckets, minPriority, maxPriority int) *WorkerFIFO {
	f := &WorkerFIFO{
		id:          id,
		arch:        arch,
		memoryNode:  memoryNode,
		clock:       clock,
		numBuckets:  numBuckets,
		minPriority: minPriority,
		maxPriority: maxPriority,
	}
	if numBuckets > 0 {
		f.expLenPerPriority = make([]float64, numBuckets)
		f.ntasksPerPriority = make([]int, numBuckets)
	}
	return f
}

// ID returns the worker identifier.
func (f *WorkerFIFO) ID() WorkerID { return f.id }

// Arch returns the worker's architecture kind.
func (f *WorkerFIFO) Arch() ArchKind { return f.arch }

// MemoryNode returns the memory node associated with this worker.
func (f *WorkerFIFO) MemoryNode() string { return f.memoryNode }

// normalizePriority maps a raw priority into [0, numBuckets) using
// norm(p) = ((P-1)/(max-min)) * (p-min), rounded down to the containing
// bucket index. A degenerate range (numBuckets<=1 or max==min) collapses
// to bucket 0.
func normalizePriority(p, min, max, numBuckets int) int {
	if numBuckets <= 1 || max == min {
		return 0
	}
	norm := float64(numBuckets-1) / float64(max-min) * float64(p-min)
	idx := int(norm)
	if idx < 0 {
		idx = 0
	}
	if idx >= numBuckets {
		idx = numBuckets - 1
	}
	return idx
}

func (f *WorkerFIFO) bucketOf(priority int) int {
	return normalizePriority(priority, f.minPriority, f.maxPriority, f.numBuckets)
}

// contribution is the predicted horizon contribution of a task: its
// predicted length plus predicted transfer.
func contribution(t *Task) float64 {
	return t.PredictedLength + t.PredictedTransfer
}

// refreshLocked applies mutation rule (1): exp_start is never allowed to
// fall behind now(). Must be called with mu held.
func (f *WorkerFIFO) refreshLocked() {
	now := f.clock.Now()
	if now > f.expStart {
		f.expStart = now
	}
}

// recomputeEndLocked applies mutation rule (3): exp_end is always a
// derived invariant. Must be called with mu held.
func (f *WorkerFIFO) recomputeEndLocked() float64 {
	return f.expStart + f.expLen
}

// addBucketsLocked applies mutation rule (4) on insertion: every bucket
// p <= bucket(priority) gains one task and its predicted contribution.
func (f *WorkerFIFO) addBucketsLocked(priority int, contrib float64) {
	if f.numBuckets == 0 {
		return
	}
	b := f.bucketOf(priority)
	for p := 0; p <= b; p++ {
		f.ntasksPerPriority[p]++
		f.expLenPerPriority[p] += contrib
	}
}

// removeBucketsLocked is the inverse of addBucketsLocked, applied on
// dequeue.
func (f *WorkerFIFO) removeBucketsLocked(priority int, contrib float64) {
	if f.numBuckets == 0 {
		return
	}
	b := f.bucketOf(priority)
	for p := 0; p <= b; p++ {
		f.ntasksPerPriority[p]--
		f.expLenPerPriority[p] -= contrib
	}
}

// Snapshot is a racy, lock-free read of a FIFO's horizon and load, used by
// the Decision Engine while evaluating candidates: predictions taken from
// it are hints, not guarantees — the commit step re-validates under lock.
type Snapshot struct {
	ExpStart float64
	ExpLen   float64
	ExpEnd   float64
	NTasks   int
}

// Peek returns a racy snapshot of the FIFO's current horizon without
// acquiring the lock. Used by the Decision Engine during candidate
// evaluation; re-validated under lock at commit time.
func (f *WorkerFIFO) Peek() Snapshot {
	expStart := f.expStart
	if now := f.clock.Now(); now > expStart {
		expStart = now
	}
	return Snapshot{
		ExpStart: expStart,
		ExpLen:   f.expLen,
		ExpEnd:   expStart + f.expLen,
		NTasks:   f.ntasks,
	}
}

// ExpLenPerPriority returns a racy read of the bucket at the task's
// normalized priority, or false if priority buckets are not configured.
func (f *WorkerFIFO) ExpLenPerPriority(priority int) (float64, bool) {
	if f.numBuckets == 0 {
		return 0, false
	}
	return f.expLenPerPriority[f.bucketOf(priority)], true
}

// GetExpLenIfInserted returns the linear-scan fallback for "what would
// exp_len look like ahead of this task, if it were inserted respecting its
// priority" — the sum of predicted contributions of currently-queued tasks
// whose priority is >= task.Priority. Used by sorted-push decisions when
// the context has no priority buckets configured (O(n) scan).
func (f *WorkerFIFO) GetExpLenIfInserted(task *Task) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum float64
	for _, t := range f.sequence {
		if t.Priority >= task.Priority {
			sum += contribution(t)
		}
	}
	return sum
}

// PushTail appends a task to the back of the sequence (unsorted policies).
// Does not itself adjust exp_len/exp_start — callers perform the full
// commit protocol (Facade.commit) which calls PushTail/PushSorted as
// the final insertion step after mutating the horizon.
func (f *WorkerFIFO) PushTail(task *Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushLocked(task, false)
}

// PushSorted performs a stable priority-descending insert (sorted
// policies): the task is inserted after the last task with priority >= its
// own, preserving insertion order among equal priorities.
func (f *WorkerFIFO) PushSorted(task *Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushLocked(task, true)
}

func (f *WorkerFIFO) pushLocked(task *Task, sorted bool) {
	if sorted {
		idx := sort.Search(len(f.sequence), func(i int) bool {
			return f.sequence[i].Priority < task.Priority
		})
		f.sequence = append(f.sequence, nil)
		copy(f.sequence[idx+1:], f.sequence[idx:])
		f.sequence[idx] = task
	} else {
		f.sequence = append(f.sequence, task)
	}
	f.ntasks++
	f.nprocessed++
	task.fifo = f
}

// PopFront removes and returns the head of the sequence, or nil if empty.
func (f *WorkerFIFO) PopFront() *Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshLocked()
	if len(f.sequence) == 0 {
		f.recomputeEndLocked()
		return nil
	}
	task := f.sequence[0]
	f.sequence = f.sequence[1:]
	f.ntasks--
	f.removeBucketsLocked(task.Priority, contribution(task))
	f.recomputeEndLocked()
	return task
}

// PopFirstReady implements the data-aware head-of-line bypass: among tasks
// whose priority is >= the head's priority, it returns the one with the
// fewest non-ready input buffers at node (ties broken by position,
// earliest wins), short-circuiting on the first zero-non-ready match.
// Tasks with priority strictly below the head's are never considered.
func (f *WorkerFIFO) PopFirstReady(node string) *Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshLocked()
	if len(f.sequence) == 0 {
		f.recomputeEndLocked()
		return nil
	}
	headPriority := f.sequence[0].Priority
	bestIdx := -1
	bestNonReady := -1
	for i, t := range f.sequence {
		if t.Priority < headPriority {
			continue
		}
		nr := t.nonReadyCount(node)
		if bestIdx == -1 || nr < bestNonReady {
			bestIdx = i
			bestNonReady = nr
			if nr == 0 {
				break
			}
		}
	}
	task := f.sequence[bestIdx]
	f.sequence = append(f.sequence[:bestIdx], f.sequence[bestIdx+1:]...)
	f.ntasks--
	f.removeBucketsLocked(task.Priority, contribution(task))
	f.recomputeEndLocked()
	return task
}

// PopAll atomically withdraws the entire sequence (used on worker detach
// or rebalance) and resets the FIFO to empty, including its horizon: the
// work is leaving for another FIFO entirely, not merely starting to run.
func (f *WorkerFIFO) PopAll() []*Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshLocked()
	tasks := f.sequence
	f.sequence = nil
	f.ntasks = 0
	f.expLen = 0
	if f.numBuckets > 0 {
		for p := range f.ntasksPerPriority {
			f.ntasksPerPriority[p] = 0
			f.expLenPerPriority[p] = 0
		}
	}
	f.recomputeEndLocked()
	for _, t := range tasks {
		t.fifo = nil
	}
	return tasks
}

// clearPriorityBucketsLocked drops the per-priority arrays, used when
// tearing down a FIFO for a detached worker.
func (f *WorkerFIFO) clearPriorityBucketsLocked() {
	f.expLenPerPriority = nil
	f.ntasksPerPriority = nil
	f.numBuckets = 0
}

// NTasks returns the number of queued tasks, read under the FIFO's lock.
// The Decision Engine does not call it; it reads the count racily via Peek.
func (f *WorkerFIFO) NTasks() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ntasks
}

// ExpEnd returns the current exp_end, refreshing exp_start against now()
// first.
func (f *WorkerFIFO) ExpEnd() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshLocked()
	return f.recomputeEndLocked()
}
