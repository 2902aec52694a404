// Defines the Task, Codelet, and DataHandle types that model a unit of
// dispatchable work and its per-architecture implementations.
//
// Ownership: a Task belongs to the scheduler from Push's commit until Pop
// hands it back to the worker driver (state QUEUED); TRANSFERRING and
// EXECUTING are tracked only via the PredictedLength/PredictedTransfer
// slots and the fifo backreference, not via a sequence membership.

package sched

// ArchKind identifies the architecture family of a worker or implementation.
type ArchKind string

const (
	ArchCPU ArchKind = "cpu"
	ArchGPU ArchKind = "gpu"
)

// MaxImplementations bounds the number of per-architecture implementations
// a single Codelet may enumerate, mirroring the runtime's MAX_IMPLEMENTATIONS.
const MaxImplementations = 8

// AccessMode describes how a task accesses one of its data handles.
type AccessMode int

const (
	AccessRead AccessMode = iota
	AccessWrite
	AccessReadWrite
)

// Implementation describes one architecture-specific entry point of a Codelet.
type Implementation struct {
	Arch ArchKind
	// ModelKey keys the performance model for this (task-size category,
	// arch, impl) cell inside the Oracle. Tasks of the same size category
	// and codelet implementation share a ModelKey so the Oracle can
	// accumulate calibration samples across them.
	ModelKey string
}

// Codelet enumerates a task kind's per-architecture implementations.
type Codelet struct {
	Name            string
	Implementations []Implementation
}

// NumImplementations returns the number of configured implementations. The
// count is not checked against MaxImplementations here or anywhere else.
func (c *Codelet) NumImplementations() int { return len(c.Implementations) }

// DataHandle is a data item with per-memory-node validity bits. The
// scheduler only queries validity; it never registers or mutates handles
// itself (that's the data-registration subsystem's job, out of scope here).
type DataHandle struct {
	ID       string
	validity map[string]bool
}

// NewDataHandle creates a DataHandle with no nodes yet marked valid.
func NewDataHandle(id string) *DataHandle {
	return &DataHandle{ID: id, validity: make(map[string]bool)}
}

// SetValid records whether the handle's data is resident and valid at node.
func (d *DataHandle) SetValid(node string, valid bool) {
	d.validity[node] = valid
}

// IsValid reports whether the handle's data is valid at node. An
// unregistered node is treated as not valid (matches query_status
// defaulting to "not ready" for a node that was never touched).
func (d *DataHandle) IsValid(node string) bool {
	return d.validity[node]
}

// DataAccess pairs a DataHandle with the access mode a task uses it with.
type DataAccess struct {
	Handle *DataHandle
	Mode   AccessMode
}

// Task is the unit of dispatchable work. It is produced by the caller and
// owned by the scheduler between Push's commit and Pop.
type Task struct {
	ID       string
	Priority int

	Codelet      *Codelet
	DataAccesses []DataAccess

	// SelectedImpl is written once by the Decision Engine at commit time
	// (or by the caller before PushTaskNotify for externally-placed tasks).
	// -1 means "not yet decided".
	SelectedImpl int

	// PredictedLength and PredictedTransfer are written at commit (or by
	// PushTaskNotify). They are the authoritative values subtracted from the
	// owning FIFO's exp_len by PreExecHook/PostExecHook; the hooks read them
	// and leave them unchanged.
	PredictedLength   float64
	PredictedTransfer float64

	ContextID string

	// fifo is the membership link: the Worker FIFO this task is currently
	// queued in (QUEUED), or was most recently queued in (TRANSFERRING /
	// EXECUTING, until PostExecHook clears it). Nil means DONE or never
	// committed.
	fifo *WorkerFIFO
}

// NewTask creates a Task in its pre-dispatch state (no implementation
// selected yet).
func NewTask(id string, priority int, codelet *Codelet, accesses ...DataAccess) *Task {
	return &Task{
		ID:           id,
		Priority:     priority,
		Codelet:      codelet,
		DataAccesses: accesses,
		SelectedImpl: -1,
	}
}

// nonReadyCount returns the number of this task's data handles that are not
// valid at node, counting every access mode. Used by WorkerFIFO.PopFirstReady's
// data-aware head-of-line bypass.
func (t *Task) nonReadyCount(node string) int {
	n := 0
	for _, da := range t.DataAccesses {
		if !da.Handle.IsValid(node) {
			n++
		}
	}
	return n
}
