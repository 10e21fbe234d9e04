// Command tutorial runs guided terminal tutorials.
package main

import (
	"os"

	"github.com/opencode-ai/tutorial/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
