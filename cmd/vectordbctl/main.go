// Package main provides the entry point for the vectordbctl CLI.
package main

import (
	"os"

	"github.com/aaronbannin/vectordb/cmd/vectordbctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
