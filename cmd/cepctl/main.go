package main

import (
	"os"

	"github.com/dukerupert/cepfinder/cmd/cepctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
