// Command apiserver runs the SMILES parse HTTP API.
package main

import (
	"os"

	"github.com/turtacn/keyip-smiles/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func init() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate
}

func main() {
	if err := cli.Execute(cli.NewServerCommand()); err != nil {
		os.Exit(1)
	}
}
