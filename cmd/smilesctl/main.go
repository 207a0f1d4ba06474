// Command smilesctl parses SMILES, SMARTS and reaction SMILES from the
// command line and can serve the same operations over HTTP.
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
	if err := cli.Execute(cli.NewRootCommand()); err != nil {
		os.Exit(1)
	}
}
