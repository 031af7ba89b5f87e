// Package main is the entry point for the segue CLI.
package main

import (
	"fmt"
	"os"

	"github.com/go-drift/segue/cmd/segue/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
