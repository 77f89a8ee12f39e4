package main

import (
	"os"

	"github.com/wonny/argos/cmd/argos/commands"
)

// main is the entry point for the Argos CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
