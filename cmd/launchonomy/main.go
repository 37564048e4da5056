// Command launchonomy drives a mission through the orchestration scheduler
// from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/launchonomy/orchestrator/cmd/launchonomy/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
