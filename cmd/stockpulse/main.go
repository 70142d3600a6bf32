package main

import (
	"os"

	"github.com/quantlens/stockpulse/cmd/stockpulse/commands"
)

// main is the entry point for the stockpulse CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
