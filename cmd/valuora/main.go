package main

import (
	"os"

	"github.com/valuora/backend/cmd/valuora/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
