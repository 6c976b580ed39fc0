// ./main.go
package main

import (
	"github.com/bigOK666/oba-live-tool/cmd"
)

// main is the entry point for the oba-live-tool CLI.
func main() {
	// Execute the root command defined in the cmd package.
	// This handles all command-line parsing, configuration, and execution.
	cmd.Execute()
}
