package main

import (
	"os"

	"github.com/misty-step/landfall/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCodeOf(err))
	}
}
