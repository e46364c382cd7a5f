package main

import (
	"os"

	"github.com/jakechorley/shift-roster/cmd/cli/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
