// cmd/gendocs writes reference documentation for the ruleforge CLI by
// walking the Cobra command tree. Run via: go run ./cmd/gendocs [dir] [man]
package main

import (
	"log"
	"os"

	"github.com/spf13/cobra/doc"

	"github.com/odyssey/ruleforge/cmd"
)

const defaultOutputDirpath = "./docs/cli"

func main() {
	outputDirpath := defaultOutputDirpath
	if len(os.Args) > 1 {
		outputDirpath = os.Args[1]
	}
	manPages := len(os.Args) > 2 && os.Args[2] == "man"

	if err := os.MkdirAll(outputDirpath, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	rootCmd := cmd.GetRootCmd()
	// Keeps regenerated docs byte-identical between runs.
	rootCmd.DisableAutoGenTag = true

	var err error
	if manPages {
		err = doc.GenManTree(rootCmd, &doc.GenManHeader{Title: "RULEFORGE", Section: "1"}, outputDirpath)
	} else {
		err = doc.GenMarkdownTree(rootCmd, outputDirpath)
	}
	if err != nil {
		log.Fatalf("failed to generate docs in %s: %v", outputDirpath, err)
	}

	log.Printf("Documentation generated in %s", outputDirpath)
}
