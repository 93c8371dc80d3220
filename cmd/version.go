package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odyssey/ruleforge/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   versionCmdStr,
	Short: "Print the ruleforge version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", ruleforgeCmdStr, version.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
