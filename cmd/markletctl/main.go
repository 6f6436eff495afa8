package main

import (
	"os"

	"github.com/fatih/color"

	"github.com/marklet/marklet/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}
