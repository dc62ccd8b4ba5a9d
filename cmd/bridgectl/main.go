// Package main is the entry point for the bridgectl CLI.
package main

import (
	"os"

	"github.com/allobrice/claude-telegram-bridge/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
