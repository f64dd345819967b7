package main

import (
	"os"

	"github.com/transmaint/backend/cmd/transmaint/commands"
)

// main is the entry point for the transmaint CLI
// ⭐ Punto de entrada único: go run ./cmd/transmaint [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
