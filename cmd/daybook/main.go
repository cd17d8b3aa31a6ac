// Package main provides the daybook CLI.
package main

import (
	"os"

	"github.com/mesh-intelligence/daybook/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
