// Package main is the entry point for the codecomments CLI and server.
package main

import (
	"fmt"
	"os"

	"github.com/evcraddock/code-comments/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
