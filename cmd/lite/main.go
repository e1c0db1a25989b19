package main

import (
	"os"

	"github.com/wonny/factorlab-lite/cmd/lite/commands"
)

// main is the entry point for the FactorLab Lite CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
