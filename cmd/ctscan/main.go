package main

import (
	"os"

	"ct-scan-inspector/cmd/ctscan/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
