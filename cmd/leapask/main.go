// Package main provides the CLI entry point for leapask.
package main

import (
	"os"

	"github.com/leapstack-labs/leapask/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
