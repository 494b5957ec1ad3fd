package main

import (
	"os"

	"github.com/cortexbi/cortex/cmd/cortex/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
