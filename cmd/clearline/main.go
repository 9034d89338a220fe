package main

import (
	"os"

	"github.com/clearline-dev/clearline/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
