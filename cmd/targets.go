package cmd

import (
	"github.com/spf13/cobra"

	"github.com/odyssey/ruleforge/internal/adapter"
	"github.com/odyssey/ruleforge/internal/tableprinter"
)

var targetsCmd = &cobra.Command{
	Use:   targetsCmdStr,
	Short: "List supported targets",
	Args:  cobra.NoArgs,
	RunE:  runTargets,
}

func init() {
	rootCmd.AddCommand(targetsCmd)
}

func runTargets(cmd *cobra.Command, args []string) error {
	tbl := tableprinter.NewTable("NAME", "TOOL", "INSTRUCTIONS", "RULES DIR").WithWriter(cmd.OutOrStdout())
	for _, p := range adapter.Platforms(adapter.Options{}) {
		instructions := p.Instructions
		if instructions == "" {
			instructions = "--"
		}
		rulesDir := "--"
		if p.RuleFormat != nil {
			rulesDir = p.RuleFormat.Dir
		}
		tbl.AddRow(p.ID, p.DisplayName, instructions, rulesDir)
	}
	tbl.Print()
	return nil
}
