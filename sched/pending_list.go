// The DM variant's optional global scheduling window: a single
// policy_mutex-protected list of not-yet-dispatched tasks, merged by
// descending heterogeneity ratio (max predicted execution time over min,
// across eligible workers) so that the most architecture-sensitive tasks
// get first pick of the best-suited worker.
//
// Grounded on the intended semantics of the source's dm_push_task
// priority-merge list (SPEC_FULL.md §12.1): the source's insertion loop
// never advances its cursor, which is an infinite loop for any insertion
// point other than the head or the very end. This reimplements the
// evidently-intended sorted-insert instead.

package sched

import "sort"

type pendingEntry struct {
	task  *Task
	ratio float64
}

// pendingList keeps tasks sorted by descending heterogeneity ratio.
type pendingList struct {
	entries []pendingEntry
}

// Insert places task into the list at the position that keeps entries
// sorted by descending ratio, stable among equal ratios (new entries with
// an equal ratio are inserted after existing ones — FIFO among ties).
func (p *pendingList) Insert(task *Task, ratio float64) {
	idx := sort.Search(len(p.entries), func(i int) bool {
		return p.entries[i].ratio < ratio
	})
	p.entries = append(p.entries, pendingEntry{})
	copy(p.entries[idx+1:], p.entries[idx:])
	p.entries[idx] = pendingEntry{task: task, ratio: ratio}
}

// PopHead removes and returns the highest-ratio task, or nil if empty.
func (p *pendingList) PopHead() *Task {
	if len(p.entries) == 0 {
		return nil
	}
	e := p.entries[0]
	p.entries = p.entries[1:]
	return e.task
}

// Len returns the number of pending tasks.
func (p *pendingList) Len() int { return len(p.entries) }

// heterogeneityRatio computes max(predicted length)/min(predicted length)
// across every (worker, implementation) pair task is eligible for in
// snapshot. Pairs with an uncalibrated (NaN) or non-positive prediction are
// excluded from both the max and the min. A task with fewer than two valid
// predictions is not heterogeneity-sensitive; its ratio defaults to 1.0.
func heterogeneityRatio(task *Task, oracle Oracle, snapshot []*WorkerFIFO) float64 {
	min, max := -1.0, -1.0
	for _, w := range snapshot {
		mask := oracle.CanExecute(w, task)
		for impl := range task.Codelet.Implementations {
			if mask&(1<<uint(impl)) == 0 {
				continue
			}
			length := oracle.ExpectedLength(task, task.Codelet.Implementations[impl].Arch, impl)
			if isUncalibrated(length) {
				continue
			}
			if min < 0 || length < min {
				min = length
			}
			if length > max {
				max = length
			}
		}
	}
	if min <= 0 {
		return 1.0
	}
	return max / min
}
