package main

import (
	"fmt"
	"os"
	"path/filepath"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// logFileName is where the terminal UI logs, since it owns the screen.
const logFileName = "kb.log"

func main() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}

	baseDir := filepath.Join(homeDir, ".kb")
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		fmt.Fprintf(os.Stderr, "error: could not create %s: %v\n", baseDir, err)
		os.Exit(1)
	}

	app := newCLIApp(baseDir)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
