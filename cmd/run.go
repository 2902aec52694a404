package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/dispatch-sim/dispatch-sim/sched"
)

// defaultBundle describes a small CPU/GPU roster used when --config is
// not given, mirroring the Monte-Carlo demo's "one CPU worker, one CUDA
// worker" setup.
func defaultBundle() *sched.PolicyBundle {
	return &sched.PolicyBundle{
		Engine: sched.EngineConfig{Variant: "dmda"},
		Workers: []sched.WorkerConfig{
			{ID: "cpu0", Arch: "cpu", MemoryNode: "node0"},
			{ID: "gpu0", Arch: "gpu", MemoryNode: "node0"},
		},
	}
}

func runDemo() error {
	bundle := defaultBundle()
	if configPath != "" {
		loaded, err := sched.LoadPolicyBundle(configPath)
		if err != nil {
			return fmt.Errorf("loading policy config: %w", err)
		}
		bundle = loaded
	}

	oracle := sched.NewHistoryOracle()
	oracle.SetSpeedup(sched.ArchGPU, 10.0)
	oracle.SetTransferTime("node0", 0)

	seedTask := generatePiTasks(1, 0, seed)[0]
	oracle.Observe(seedTask, sched.ArchCPU, 0, 0.01, 5.0)
	oracle.Observe(seedTask, sched.ArchGPU, 1, 0.002, 8.0)

	facade := sched.NewFacade("dispatch-sim-demo", oracle, bundle.ToPriorityRange(), bundle.ToEngineOptions(), nil)
	facade.Context().AddWorkers(bundle.ToWorkerSpecs()...)
	if bundle.Engine.GlobalWindow {
		facade.Context().EnableGlobalWindow()
	}

	tasks := generatePiTasks(ntasks, priorityMax, seed)
	placed := make(map[sched.WorkerID]int, len(bundle.Workers))
	for _, task := range tasks {
		result, err := facade.Push(task)
		if err != nil {
			logrus.Warnf("push %s failed: %v", task.ID, err)
			continue
		}
		placed[result.Worker]++
	}

	for _, w := range facade.Context().Snapshot() {
		snap := w.Peek()
		logrus.Infof("worker %-8s placed=%-4d ntasks=%-4d exp_start=%.6f exp_len=%.6f exp_end=%.6f",
			w.ID(), placed[w.ID()], w.NTasks(), snap.ExpStart, snap.ExpLen, snap.ExpEnd)
	}
	return nil
}
