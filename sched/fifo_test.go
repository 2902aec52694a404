package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFIFO(clock Clock, numBuckets, min, max int) *WorkerFIFO {
	return newWorkerFIFO("w0", ArchCPU, "node0", clock, numBuckets, min, max)
}

func simpleTask(id string, priority int) *Task {
	return NewTask(id, priority, &Codelet{Name: "k", Implementations: []Implementation{{Arch: ArchCPU}}})
}

func TestWorkerFIFO_PushTailPopFront_FCFS(t *testing.T) {
	f := newTestFIFO(NewManualClock(0), 0, 0, 0)
	a, b := simpleTask("a", 0), simpleTask("b", 0)
	f.PushTail(a)
	f.PushTail(b)

	require.Equal(t, a, f.PopFront())
	require.Equal(t, b, f.PopFront())
	require.Nil(t, f.PopFront())
}

func TestWorkerFIFO_PushSorted_PriorityDescendingStable(t *testing.T) {
	f := newTestFIFO(NewManualClock(0), 0, 0, 0)
	low1 := simpleTask("low1", 1)
	high := simpleTask("high", 5)
	low2 := simpleTask("low2", 1)

	f.PushSorted(low1)
	f.PushSorted(high)
	f.PushSorted(low2)

	// high first (priority 5), then low1/low2 in insertion order (stable).
	assert.Equal(t, high, f.PopFront())
	assert.Equal(t, low1, f.PopFront())
	assert.Equal(t, low2, f.PopFront())
}

func TestWorkerFIFO_PopFront_NeverAdjustsExpLen(t *testing.T) {
	clock := NewManualClock(0)
	f := newTestFIFO(clock, 0, 0, 0)
	task := simpleTask("a", 0)
	task.PredictedLength = 10
	f.expLen = 10
	f.PushTail(task)

	before := f.ExpEnd()
	f.PopFront()
	after := f.ExpEnd()

	assert.Equal(t, before, after, "pop must not mutate exp_len; only hooks do")
}

func TestWorkerFIFO_PopAll_ResetsHorizon(t *testing.T) {
	clock := NewManualClock(0)
	f := newTestFIFO(clock, 3, 0, 10)
	task := simpleTask("a", 5)
	task.PredictedLength = 7
	f.expLen = 7
	f.addBucketsLocked(5, 7)
	f.PushTail(task)

	tasks := f.PopAll()
	require.Len(t, tasks, 1)
	assert.Equal(t, 0.0, f.ExpEnd())
	assert.Equal(t, 0, f.ntasks)
	for _, v := range f.expLenPerPriority {
		assert.Equal(t, 0.0, v)
	}
	assert.Nil(t, tasks[0].fifo)
}

func TestWorkerFIFO_PopFirstReady_SkipsLowerPriorityAndPicksFewestNonReady(t *testing.T) {
	clock := NewManualClock(0)
	f := newTestFIFO(clock, 0, 0, 0)

	notReady := NewDataHandle("x")
	ready := NewDataHandle("y")
	ready.SetValid("node0", true)

	head := simpleTask("head", 5)
	head.DataAccesses = []DataAccess{{Handle: notReady, Mode: AccessRead}}

	samePriorityReady := simpleTask("ready", 5)
	samePriorityReady.DataAccesses = []DataAccess{{Handle: ready, Mode: AccessRead}}

	lowerPriority := simpleTask("lower", 1)
	lowerPriority.DataAccesses = []DataAccess{{Handle: ready, Mode: AccessRead}}

	f.PushTail(head)
	f.PushTail(lowerPriority)
	f.PushTail(samePriorityReady)

	picked := f.PopFirstReady("node0")
	assert.Equal(t, samePriorityReady, picked, "lower-priority task must never be picked over the head")
}

func TestWorkerFIFO_GetExpLenIfInserted_SumsContributionsAtOrAbovePriority(t *testing.T) {
	f := newTestFIFO(NewManualClock(0), 0, 0, 0)
	a := simpleTask("a", 5)
	a.PredictedLength = 1
	b := simpleTask("b", 2)
	b.PredictedLength = 2
	c := simpleTask("c", 5)
	c.PredictedLength = 3
	f.PushTail(a)
	f.PushTail(b)
	f.PushTail(c)

	probe := simpleTask("probe", 5)
	got := f.GetExpLenIfInserted(probe)
	assert.Equal(t, 4.0, got) // a + c, not b (priority 2 < 5)
}

func TestNormalizePriority_DegenerateRangeCollapsesToZero(t *testing.T) {
	assert.Equal(t, 0, normalizePriority(7, 0, 0, 4))
	assert.Equal(t, 0, normalizePriority(7, 0, 10, 1))
}

func TestNormalizePriority_ClampsToBucketBounds(t *testing.T) {
	assert.Equal(t, 0, normalizePriority(0, 0, 10, 4))
	assert.Equal(t, 3, normalizePriority(10, 0, 10, 4))
}
