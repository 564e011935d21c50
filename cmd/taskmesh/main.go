// Package main is the entry point for the taskmesh CLI.
package main

import (
	"os"

	"github.com/hupe1980/taskmesh/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
