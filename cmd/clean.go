package cmd

import (
	"github.com/kurtosis-tech/stacktrace"
	"github.com/spf13/cobra"

	"github.com/odyssey/ruleforge/internal/config"
)

var cleanTargetFlags []string

var cleanCmd = &cobra.Command{
	Use:   cleanCmdStr,
	Short: "Remove every generated file recorded in the manifest",
	Long: `Remove every generated file recorded in the manifest.

Generated files edited since the last build are backed up first. Shared
settings files only lose the keys ruleforge added. Hand-authored files are
never touched.`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().StringSliceVarP(&cleanTargetFlags, targetFlagName, "t", nil, "target to clean (repeatable; default: all)")
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	p, err := loadProject(projectDirpath)
	if err != nil {
		return err
	}
	for _, target := range cleanTargetFlags {
		if err := config.ValidateTargetName(target, p.registry.Names()); err != nil {
			return err
		}
	}

	report, err := p.newWriter().Clean(cmd.Context(), cleanTargetFlags)
	if err != nil {
		return stacktrace.Propagate(err, "failed to clean generated files")
	}
	printCleanReport(cmd.OutOrStdout(), report)

	if failed := report.Failed(); len(failed) > 0 {
		return stacktrace.NewError("%d targets could not be cleaned", len(failed))
	}
	return nil
}
