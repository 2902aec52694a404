// Scheduling context: a named scope grouping workers, priorities, and one
// policy instance. Long-lived — created at startup (Facade.Init), destroyed
// at shutdown (Facade.Deinit).

package sched

import "sync"

// WorkerSpec describes a worker being attached to a context.
type WorkerSpec struct {
	ID         WorkerID
	Arch       ArchKind
	MemoryNode string
	// MasterForChild, if non-empty, names a child context this worker
	// delegates to instead of running tasks itself.
	MasterForChild string
}

// PriorityRange declares a context's finite priority range, enabling
// per-priority bucket accounting. A nil *PriorityRange passed to NewContext
// means "no bucket accounting" (GetExpLenIfInserted's linear scan is used
// for sorted-push instead).
type PriorityRange struct {
	Min     int
	Max     int
	Buckets int
}

// Context is a scheduling context: the worker collection, its coefficients,
// its priority-bucket configuration, and (for the DM variant's optional
// global window) a heterogeneity-ratio-sorted pending list.
//
// Lock ordering: mu (the context-wide "policy" lock) is always acquired
// before any single FIFO's mutex, never the reverse, and never while
// holding two FIFO mutexes. Decide() is called with mu NOT held; only the
// commit step takes mu then the chosen FIFO's lock.
type Context struct {
	mu sync.Mutex

	id     string
	clock  Clock
	coeffs Coefficients

	// order+workers are swapped wholesale (copy-on-write) by AddWorkers/
	// RemoveWorkers so a Snapshot taken without the lock stays valid even
	// as workers attach/detach concurrently.
	order   []WorkerID
	workers map[WorkerID]*WorkerFIFO

	masterFor map[WorkerID]string // WorkerID -> child context ID, for delegation
	children  map[string]*Facade  // child context ID -> child Facade

	priorityRange *PriorityRange

	globalWindow bool
	pending      *pendingList

	closed bool
}

// NewContext creates an initialized Context ready to accept workers.
func NewContext(id string, coeffs Coefficients, priorityRange *PriorityRange, clock Clock) *Context {
	if clock == nil {
		clock = RealClock{}
	}
	return &Context{
		id:            id,
		clock:         clock,
		coeffs:        coeffs,
		workers:       make(map[WorkerID]*WorkerFIFO),
		masterFor:     make(map[WorkerID]string),
		children:      make(map[string]*Facade),
		priorityRange: priorityRange,
	}
}

// ID returns the context's identifier.
func (c *Context) ID() string { return c.id }

// EnableGlobalWindow turns on the DM variant's heterogeneity-ratio-sorted
// pending list.
func (c *Context) EnableGlobalWindow() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.globalWindow = true
	c.pending = &pendingList{}
}

// RegisterChild wires workerID as a master-for-child-context worker: tasks
// the Decision Engine would place on it are instead forwarded to child's
// Push.
func (c *Context) RegisterChild(workerID WorkerID, childID string, child *Facade) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.masterFor[workerID] = childID
	c.children[childID] = child
}

// AddWorkers creates a FIFO for each newly-attached worker. Idempotent: a
// worker that already has a FIFO is left untouched.
func (c *Context) AddWorkers(specs ...WorkerSpec) {
	c.mu.Lock()
	defer c.mu.Unlock()

	newOrder := append([]WorkerID(nil), c.order...)
	newWorkers := make(map[WorkerID]*WorkerFIFO, len(c.workers)+len(specs))
	for k, v := range c.workers {
		newWorkers[k] = v
	}

	numBuckets, minP, maxP := 0, 0, 0
	if c.priorityRange != nil {
		numBuckets, minP, maxP = c.priorityRange.Buckets, c.priorityRange.Min, c.priorityRange.Max
	}

	for _, spec := range specs {
		if _, ok := newWorkers[spec.ID]; ok {
			continue
		}
		newWorkers[spec.ID] = newWorkerFIFO(spec.ID, spec.Arch, spec.MemoryNode, c.clock, numBuckets, minP, maxP)
		newOrder = append(newOrder, spec.ID)
		if spec.MasterForChild != "" {
			c.masterFor[spec.ID] = spec.MasterForChild
		}
	}

	c.order = newOrder
	c.workers = newWorkers
}

// RemoveWorkers destroys FIFOs for detached workers, clearing their
// priority-bucket arrays first.
func (c *Context) RemoveWorkers(ids ...WorkerID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	remove := make(map[WorkerID]bool, len(ids))
	for _, id := range ids {
		remove[id] = true
	}

	newWorkers := make(map[WorkerID]*WorkerFIFO, len(c.workers))
	newOrder := make([]WorkerID, 0, len(c.order))
	for _, id := range c.order {
		w := c.workers[id]
		if remove[id] {
			w.mu.Lock()
			w.clearPriorityBucketsLocked()
			w.mu.Unlock()
			delete(c.masterFor, id)
			continue
		}
		newWorkers[id] = w
		newOrder = append(newOrder, id)
	}
	c.workers = newWorkers
	c.order = newOrder
}

// Snapshot returns the worker collection valid for one decision: an
// explicit point-in-time view, safe to range over without the lock,
// since AddWorkers/RemoveWorkers never mutate the returned slice in place.
func (c *Context) Snapshot() []*WorkerFIFO {
	c.mu.Lock()
	order := c.order
	workers := c.workers
	c.mu.Unlock()

	out := make([]*WorkerFIFO, 0, len(order))
	for _, id := range order {
		out = append(out, workers[id])
	}
	return out
}

// Worker looks up a single attached worker's FIFO.
func (c *Context) Worker(id WorkerID) (*WorkerFIFO, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	w, ok := c.workers[id]
	return w, ok
}

// Deinit releases the context's resources. All attached workers are
// detached (their FIFOs' queued tasks are returned, mirroring PopAll).
func (c *Context) Deinit() map[WorkerID][]*Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	drained := make(map[WorkerID][]*Task, len(c.workers))
	for id, w := range c.workers {
		drained[id] = w.PopAll()
	}
	c.workers = nil
	c.order = nil
	c.closed = true
	return drained
}
