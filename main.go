// Idiomatic entrypoint for the Cobra CLI that delegates handling to the root command in cmd/root.go.

package main

import (
	"github.com/dispatch-sim/dispatch-sim/cmd"
)

func main() {
	cmd.Execute()
}
