package cmd

import (
	"github.com/kurtosis-tech/stacktrace"
	"github.com/spf13/cobra"
)

var buildTargetFlags []string
var buildDryRunFlag bool

var buildCmd = &cobra.Command{
	Use:   buildCmdStr,
	Short: "Generate configuration for every configured target",
	Long: `Generate configuration for every configured target.

Targets come from --target, then the targets list in .ruleforge/config.yml,
then every supported target. Existing files that ruleforge did not write are
backed up under .ruleforge/backups before being replaced.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringSliceVarP(&buildTargetFlags, targetFlagName, "t", nil, "target to build (repeatable; default: config targets)")
	buildCmd.Flags().BoolVar(&buildDryRunFlag, dryRunFlagName, false, "show what would change without writing anything")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	p, err := loadProject(projectDirpath)
	if err != nil {
		return err
	}

	result, err := p.build(cmd.Context(), buildTargetFlags, buildDryRunFlag)
	if err != nil {
		return err
	}
	printBuildResult(cmd.OutOrStdout(), result, buildDryRunFlag)

	if failed := result.failedTargets(); failed > 0 {
		return stacktrace.NewError("%d of %d targets failed", failed, len(result.outcomes))
	}
	return nil
}
