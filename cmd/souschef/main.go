package main

import (
	"fmt"
	"os"

	"github.com/souschef-live/souschef/cmd/souschef/commands"
)

var (
	// Version is set via ldflags at build time
	Version = "dev"
	// Commit is set via ldflags at build time
	Commit = "unknown"
)

func main() {
	commands.SetVersion(Version, Commit)
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
