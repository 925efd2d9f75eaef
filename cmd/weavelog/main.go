// Command weavelog infers, encodes and decodes typed JSON values and reconciles
// column types across logged history tables.
package main

import (
	"os"

	"github.com/roach88/weavelog/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
