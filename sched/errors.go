// Error kinds. ErrNoEligibleWorker is the one push failure the caller can
// act on; delegation to a child context is reported as a PushResult field,
// not an error; a horizon underflow is clamped and logged, never returned;
// an uncalibrated model is expected behavior signaled via the Decision's
// Calibrating flag, never an error.

package sched

import (
	"errors"
	"fmt"
)

// ErrNoEligibleWorker is returned by Push/SimulatePush when a task's
// codelet has no implementation any current worker in the context can
// execute.
var ErrNoEligibleWorker = errors.New("sched: no eligible worker for task")

// ErrContextClosed is returned by facade operations after Deinit.
var ErrContextClosed = errors.New("sched: context is deinitialized")

// ErrUnknownWorker is returned when an operation names a worker with no
// attached FIFO.
var ErrUnknownWorker = errors.New("sched: unknown worker")

// assertf panics with a formatted message. Used for internal contract
// violations (e.g., an exec hook called on a task with no owning FIFO) that
// indicate a caller bug rather than a runtime condition — these abort the
// process rather than propagate as errors.
func assertf(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}
