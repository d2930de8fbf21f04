// Package main is the entry point for the aichat server and its
// maintenance commands.
package main

import (
	"fmt"
	"os"

	"aichat/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "aichat:", err)
		os.Exit(1)
	}
}
