// cmd/root.go
package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dispatch-sim/dispatch-sim/sched"
)

var (
	configPath  string
	ntasks      int
	priorityMax int
	logLevel    string
	seed        int64
)

var rootCmd = &cobra.Command{
	Use:   "dispatch-sim",
	Short: "Demo harness for the heterogeneous task scheduler core",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay a synthetic task stream through the scheduler and print per-worker horizons",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
		sched.ApplyLogLevel()
		logrus.Infof("Starting scheduler demo with %d tasks, priority range [0,%d], seed=%d",
			ntasks, priorityMax, seed)

		if err := runDemo(); err != nil {
			logrus.Fatalf("demo run failed: %v", err)
		}
		logrus.Info("Demo run complete.")
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML PolicyBundle (defaults to a built-in two-worker CPU/GPU roster)")
	runCmd.Flags().IntVar(&ntasks, "ntasks", 200, "Number of synthetic pi-shaped tasks to push")
	runCmd.Flags().IntVar(&priorityMax, "priority-max", 0, "Maximum task priority (tasks get a random priority in [0, priority-max])")
	runCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (debug, info, warn, error)")
	runCmd.Flags().Int64Var(&seed, "seed", 1, "Random seed for the synthetic workload")

	rootCmd.AddCommand(runCmd)
}
