// Package main is the entry point for the fieldctl operator CLI.
package main

import (
	"fmt"
	"os"

	"fieldvisits_backend/internal/cli"
)

func main() {
	if err := cli.NewRootCmd(cli.OpenPostgres).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
