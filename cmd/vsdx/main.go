// Package main provides the CLI entry point for vsdx.
package main

import (
	"os"

	"github.com/ukaji3/vsdx-go/internal/cli"
)

// version is injected at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
