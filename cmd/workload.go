package cmd

import (
	"fmt"
	"math/rand"

	"github.com/dispatch-sim/dispatch-sim/sched"
)

// piCodelet mirrors the Monte-Carlo pi estimation demo's two-implementation
// task: a CPU kind and a GPU kind, each touching one shared read-write
// sample-count buffer.
func piCodelet() *sched.Codelet {
	return &sched.Codelet{
		Name: "pi_reduce",
		Implementations: []sched.Implementation{
			{Arch: sched.ArchCPU, ModelKey: "pi_reduce"},
			{Arch: sched.ArchGPU, ModelKey: "pi_reduce"},
		},
	}
}

// generatePiTasks builds n synthetic Monte-Carlo-shaped tasks for the demo
// harness: every task shares one data handle (the running sample count)
// and carries a random priority in [0, priorityMax].
func generatePiTasks(n int, priorityMax int, seed int64) []*sched.Task {
	rng := rand.New(rand.NewSource(seed))
	shared := sched.NewDataHandle("pi_samples")
	shared.SetValid("node0", true)
	codelet := piCodelet()

	tasks := make([]*sched.Task, n)
	for i := 0; i < n; i++ {
		priority := 0
		if priorityMax > 0 {
			priority = rng.Intn(priorityMax + 1)
		}
		tasks[i] = sched.NewTask(fmt.Sprintf("pi-task-%d", i), priority, codelet,
			sched.DataAccess{Handle: shared, Mode: sched.AccessReadWrite})
	}
	return tasks
}
