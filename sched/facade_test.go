package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFacade(t *testing.T, clock Clock, variant EngineVariant) (*Facade, *HistoryOracle) {
	t.Helper()
	oracle := NewHistoryOracle()
	oracle.SetSpeedup(ArchGPU, 10.0)
	oracle.SetTransferTime("node0", 0)
	f := NewFacade("c0", oracle, nil, EngineOptions{Variant: variant}, clock)
	f.Context().AddWorkers(
		WorkerSpec{ID: "cpu0", Arch: ArchCPU, MemoryNode: "node0"},
		WorkerSpec{ID: "gpu0", Arch: ArchGPU, MemoryNode: "node0"},
	)
	return f, oracle
}

func TestFacade_Push_CommitsToChosenWorker(t *testing.T) {
	clock := NewManualClock(0)
	f, oracle := newTestFacade(t, clock, VariantDMDA)

	task := NewTask("t", 0, codeletCPUGPU())
	oracle.Observe(task, ArchCPU, 0, 0.100, 0)
	oracle.Observe(task, ArchGPU, 1, 0.020, 0)

	result, err := f.Push(task)
	require.NoError(t, err)
	assert.Equal(t, WorkerID("gpu0"), result.Worker)
	assert.False(t, result.Delegated)

	w, _ := f.Context().Worker("gpu0")
	assert.Equal(t, 1, w.NTasks())
}

func TestFacade_SimulatePush_DoesNotCommit(t *testing.T) {
	clock := NewManualClock(0)
	f, oracle := newTestFacade(t, clock, VariantDMDA)

	task := NewTask("t", 0, codeletCPUGPU())
	oracle.Observe(task, ArchCPU, 0, 0.100, 0)
	oracle.Observe(task, ArchGPU, 1, 0.020, 0)

	expEnd, err := f.SimulatePush(task)
	require.NoError(t, err)
	assert.Greater(t, expEnd, 0.0)

	cpu, _ := f.Context().Worker("cpu0")
	gpu, _ := f.Context().Worker("gpu0")
	assert.Equal(t, 0, cpu.NTasks())
	assert.Equal(t, 0, gpu.NTasks())
}

func TestFacade_PushThenPop_RoundTrips(t *testing.T) {
	clock := NewManualClock(0)
	f, oracle := newTestFacade(t, clock, VariantDMDA)

	task := NewTask("t", 0, codeletCPUGPU())
	oracle.Observe(task, ArchCPU, 0, 0.100, 0)
	oracle.Observe(task, ArchGPU, 1, 0.020, 0)

	result, err := f.Push(task)
	require.NoError(t, err)

	popped, err := f.Pop(result.Worker)
	require.NoError(t, err)
	assert.Equal(t, task, popped)
}

func TestFacade_PreAndPostExecHook_SubtractFromHorizon(t *testing.T) {
	clock := NewManualClock(0)
	f, oracle := newTestFacade(t, clock, VariantDMDA)

	task := NewTask("t", 0, codeletCPUGPU())
	oracle.Observe(task, ArchCPU, 0, 0.100, 0)
	oracle.Observe(task, ArchGPU, 1, 0.020, 0)

	result, err := f.Push(task)
	require.NoError(t, err)
	w, _ := f.Context().Worker(result.Worker)
	popped, _ := f.Pop(result.Worker)

	before := w.ExpEnd()
	f.PreExecHook(popped)
	f.PostExecHook(popped)
	after := w.ExpEnd()

	assert.LessOrEqual(t, after, before)
	assert.Nil(t, popped.fifo, "PostExecHook must clear the task's fifo backreference")
}

func TestFacade_Push_NoWorkers_ReturnsNoEligibleWorker(t *testing.T) {
	oracle := NewHistoryOracle()
	f := NewFacade("c0", oracle, nil, EngineOptions{Variant: VariantDMDA}, NewManualClock(0))

	task := NewTask("t", 0, codeletCPUGPU())
	_, err := f.Push(task)
	require.ErrorIs(t, err, ErrNoEligibleWorker)
}

func TestFacade_Push_AfterDeinit_ReturnsContextClosed(t *testing.T) {
	clock := NewManualClock(0)
	f, _ := newTestFacade(t, clock, VariantDMDA)
	f.Deinit()

	task := NewTask("t", 0, codeletCPUGPU())
	_, err := f.Push(task)
	require.ErrorIs(t, err, ErrContextClosed)
}

func TestFacade_Commit_DelegatesToChildContext(t *testing.T) {
	clock := NewManualClock(0)
	parent, parentOracle := newTestFacade(t, clock, VariantDMDA)

	childOracle := NewHistoryOracle()
	child := NewFacade("child", childOracle, nil, EngineOptions{Variant: VariantDMDA}, clock)
	child.Context().AddWorkers(WorkerSpec{ID: "child-cpu0", Arch: ArchCPU, MemoryNode: "node0"})

	parent.Context().RegisterChild("gpu0", "child", child)

	task := NewTask("t", 0, codeletCPUGPU())
	parentOracle.Observe(task, ArchCPU, 0, 0.100, 0)
	parentOracle.Observe(task, ArchGPU, 1, 0.020, 0)
	childOracle.Observe(task, ArchCPU, 0, 0.050, 0)

	result, err := parent.Push(task)
	require.NoError(t, err)
	assert.True(t, result.Delegated)
	assert.Equal(t, "child", result.ChildContext)
	assert.Equal(t, WorkerID("child-cpu0"), result.Worker)

	gpu0, _ := parent.Context().Worker("gpu0")
	assert.Equal(t, 0, gpu0.NTasks(), "delegated task must not be queued on the master worker itself")
}
