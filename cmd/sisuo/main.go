// Package main provides the CLI for the SiSuo formula engine.
package main

import (
	"os"

	"github.com/supaloboto/sisuo/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
