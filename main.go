// Package main is the entry point for the drift changepoint detector.
package main

import (
	"fmt"
	"os"

	"firestige.xyz/drift/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
