package main

import (
	"os"

	"github.com/odyssey/ruleforge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
