package main

import "github.com/streamsim/dataflow-sim/cmd/cli/cmd"

func main() {
	cmd.Execute()
}
