// Performance-Model Oracle: read-only access to predicted execution time,
// data-transfer cost, conversion surcharge, energy, and relative speedup.
// The learning back-end that calibrates these predictions is external; the
// scheduler only ever queries, never writes.

package sched

import "math"

// Oracle is the read-only capability set the Decision Engine consults for
// every (task, worker, implementation) candidate.
type Oracle interface {
	// ExpectedLength predicts task's execution time in seconds on arch
	// using implementation impl. Returns NaN if the (task-size category,
	// arch, impl) cell is not yet calibrated.
	ExpectedLength(task *Task, arch ArchKind, impl int) float64

	// ExpectedDataTransferTime predicts the time in seconds to move task's
	// inputs to memoryNode. Returns NaN if unknown.
	ExpectedDataTransferTime(memoryNode string, task *Task) float64

	// ExpectedConversionTime predicts the data-layout conversion surcharge
	// in seconds for running task's implementation impl on arch.
	ExpectedConversionTime(task *Task, arch ArchKind, impl int) float64

	// ExpectedEnergy predicts joules consumed. Returns NaN if unknown (the
	// Fitness Evaluator treats NaN as 0).
	ExpectedEnergy(task *Task, arch ArchKind, impl int) float64

	// RelativeSpeedup returns arch's speedup relative to a reference CPU
	// core. Always defined (never NaN).
	RelativeSpeedup(arch ArchKind) float64

	// CanExecute returns a bitmask of task.Codelet.Implementations indices
	// that worker is capable of running (bit i set means implementation i
	// is eligible).
	CanExecute(worker *WorkerFIFO, task *Task) uint64
}

// calibKey identifies one (task-size category, arch, impl) cell.
type calibKey struct {
	sizeCategory string
	arch         ArchKind
	impl         int
}

// calibCell accumulates online measurements for one cell.
type calibCell struct {
	samples    int
	meanLength float64
	meanEnergy float64
}

// HistoryOracle is a reference Oracle implementation backed by an in-memory
// calibration table, keyed by the task's codelet implementation ModelKey.
// It exists so the scheduler core is runnable and testable without an
// external learning back-end; a production deployment swaps this for a
// real model-serving client behind the same interface.
type HistoryOracle struct {
	calib     map[calibKey]*calibCell
	transfer  map[string]float64 // memoryNode -> default transfer seconds, NaN if unset
	speedups  map[ArchKind]float64
	energyPer map[calibKey]float64
}

// NewHistoryOracle creates an empty HistoryOracle. CPU is always registered
// at speedup 1.0 (the reference core); other archs default to NaN-free 1.0
// until set via SetSpeedup.
func NewHistoryOracle() *HistoryOracle {
	return &HistoryOracle{
		calib:     make(map[calibKey]*calibCell),
		transfer:  make(map[string]float64),
		speedups:  map[ArchKind]float64{ArchCPU: 1.0},
		energyPer: make(map[calibKey]float64),
	}
}

// SetSpeedup registers arch's relative_speedup.
func (h *HistoryOracle) SetSpeedup(arch ArchKind, speedup float64) {
	h.speedups[arch] = speedup
}

// Observe records one real measurement, updating the running mean for the
// (task's ModelKey, arch, impl) cell. This is the online-learning write
// path; it is never called by the Decision Engine itself, only from
// outside the core (a worker driver reporting real outcomes, or the demo
// harness and tests seeding the table).
func (h *HistoryOracle) Observe(task *Task, arch ArchKind, impl int, length, energy float64) {
	k := h.key(task, arch, impl)
	c, ok := h.calib[k]
	if !ok {
		c = &calibCell{}
		h.calib[k] = c
	}
	c.samples++
	c.meanLength += (length - c.meanLength) / float64(c.samples)
	c.meanEnergy += (energy - c.meanEnergy) / float64(c.samples)
}

func (h *HistoryOracle) key(task *Task, arch ArchKind, impl int) calibKey {
	modelKey := ""
	if task.Codelet != nil && impl >= 0 && impl < len(task.Codelet.Implementations) {
		modelKey = task.Codelet.Implementations[impl].ModelKey
	}
	return calibKey{sizeCategory: modelKey, arch: arch, impl: impl}
}

// ExpectedLength implements Oracle.
func (h *HistoryOracle) ExpectedLength(task *Task, arch ArchKind, impl int) float64 {
	c, ok := h.calib[h.key(task, arch, impl)]
	if !ok || c.samples == 0 {
		return math.NaN()
	}
	return c.meanLength
}

// SetTransferTime registers a fixed transfer-time estimate for moving data
// to memoryNode. Exercised by tests and the demo harness; a real oracle
// would model this from bandwidth/distance instead of a fixed value.
func (h *HistoryOracle) SetTransferTime(memoryNode string, seconds float64) {
	h.transfer[memoryNode] = seconds
}

// ExpectedDataTransferTime implements Oracle.
func (h *HistoryOracle) ExpectedDataTransferTime(memoryNode string, _ *Task) float64 {
	v, ok := h.transfer[memoryNode]
	if !ok {
		return math.NaN()
	}
	return v
}

// ExpectedConversionTime implements Oracle. HistoryOracle does not model
// layout-conversion surcharges; it always reports zero.
func (h *HistoryOracle) ExpectedConversionTime(_ *Task, _ ArchKind, _ int) float64 {
	return 0
}

// ExpectedEnergy implements Oracle.
func (h *HistoryOracle) ExpectedEnergy(task *Task, arch ArchKind, impl int) float64 {
	c, ok := h.calib[h.key(task, arch, impl)]
	if !ok || c.samples == 0 {
		return math.NaN()
	}
	return c.meanEnergy
}

// RelativeSpeedup implements Oracle. Unregistered archs default to 1.0.
func (h *HistoryOracle) RelativeSpeedup(arch ArchKind) float64 {
	if s, ok := h.speedups[arch]; ok {
		return s
	}
	return 1.0
}

// CanExecute implements Oracle: every implementation whose Arch matches
// worker's arch is eligible.
func (h *HistoryOracle) CanExecute(worker *WorkerFIFO, task *Task) uint64 {
	var mask uint64
	if task.Codelet == nil {
		return 0
	}
	for i, impl := range task.Codelet.Implementations {
		if impl.Arch == worker.Arch() {
			mask |= 1 << uint(i)
		}
	}
	return mask
}
