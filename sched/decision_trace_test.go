package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dispatch-sim/dispatch-sim/sched/trace"
)

func TestEngine_Decide_RecordsTraceAtDecisionsLevel(t *testing.T) {
	clock := NewManualClock(0)
	cpu, gpu := twoWorkers(clock)
	oracle := NewHistoryOracle()
	oracle.SetSpeedup(ArchGPU, 10.0)

	task := NewTask("t", 0, codeletCPUGPU())
	oracle.Observe(task, ArchCPU, 0, 0.100, 0)
	oracle.Observe(task, ArchGPU, 1, 0.020, 0)

	tr := trace.New(trace.Config{Level: trace.LevelDecisions})
	engine := &Engine{Oracle: oracle, Coeffs: DefaultCoefficients(), Clock: clock, Trace: tr}

	d, err := engine.Decide([]*WorkerFIFO{cpu, gpu}, task, EngineOptions{Variant: VariantDMDA})
	require.NoError(t, err)

	require.Len(t, tr.Records, 1)
	rec := tr.Records[0]
	assert.Equal(t, "t", rec.TaskID)
	assert.Equal(t, string(d.Worker.ID()), rec.ChosenWorker)
	assert.Nil(t, rec.Candidates, "LevelDecisions must not capture per-candidate detail")
}

func TestEngine_Decide_RecordsCandidatesAtCandidatesLevel(t *testing.T) {
	clock := NewManualClock(0)
	cpu, gpu := twoWorkers(clock)
	oracle := NewHistoryOracle()
	oracle.SetSpeedup(ArchGPU, 10.0)

	task := NewTask("t", 0, codeletCPUGPU())
	oracle.Observe(task, ArchCPU, 0, 0.100, 0)
	oracle.Observe(task, ArchGPU, 1, 0.020, 0)

	tr := trace.New(trace.Config{Level: trace.LevelCandidates})
	engine := &Engine{Oracle: oracle, Coeffs: DefaultCoefficients(), Clock: clock, Trace: tr}

	_, err := engine.Decide([]*WorkerFIFO{cpu, gpu}, task, EngineOptions{Variant: VariantDMDA})
	require.NoError(t, err)

	require.Len(t, tr.Records, 1)
	assert.Len(t, tr.Records[0].Candidates, 2)
}

func TestEngine_Decide_NoTraceIsNoOp(t *testing.T) {
	clock := NewManualClock(0)
	cpu, gpu := twoWorkers(clock)
	oracle := NewHistoryOracle()
	oracle.SetSpeedup(ArchGPU, 10.0)
	task := NewTask("t", 0, codeletCPUGPU())
	oracle.Observe(task, ArchCPU, 0, 0.100, 0)
	oracle.Observe(task, ArchGPU, 1, 0.020, 0)

	engine := &Engine{Oracle: oracle, Coeffs: DefaultCoefficients(), Clock: clock}
	_, err := engine.Decide([]*WorkerFIFO{cpu, gpu}, task, EngineOptions{Variant: VariantDMDA})
	require.NoError(t, err)
}
