// Command searchlens is the Search Console analytics CLI.
package main

import (
	"os"

	"github.com/searchlens-labs/searchlens/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
