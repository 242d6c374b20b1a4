package main

import (
	"os"

	"github.com/felixhq/felix/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
