package cmd

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/odyssey/ruleforge/internal/config"
	"github.com/odyssey/ruleforge/internal/watch"
	"github.com/odyssey/ruleforge/internal/writer"
)

var watchTargetFlags []string

var watchCmd = &cobra.Command{
	Use:   watchCmdStr,
	Short: "Rebuild whenever .ruleforge changes",
	Long: `Build once, then rebuild whenever a file under .ruleforge changes.

config.yml is re-read on every rebuild. A failing rebuild is reported and
watching continues. Stop with Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringSliceVarP(&watchTargetFlags, targetFlagName, "t", nil, "target to build (repeatable; default: config targets)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	// The first build must succeed so that a broken config is reported
	// before the watch starts.
	p, err := loadProject(projectDirpath)
	if err != nil {
		return err
	}
	outputDirpath := p.cfg.GetOutputDirpath(projectDirpath)

	rebuild := func(ctx context.Context) {
		p, err := loadProject(projectDirpath)
		if err != nil {
			logger.Error("rebuild failed", "error", err)
			return
		}
		result, err := p.build(ctx, watchTargetFlags, false)
		if err != nil {
			logger.Error("rebuild failed", "error", err)
			return
		}
		printBuildResult(cmd.OutOrStdout(), result, false)
	}
	rebuild(cmd.Context())

	w := watch.New(
		config.GetSourceDirpath(projectDirpath),
		rebuild,
		watch.WithLogger(logger),
		watch.WithIgnored(
			writer.ManifestPath(outputDirpath),
			filepath.Join(outputDirpath, writer.StateDirname, writer.BackupsDirname),
		),
	)
	return w.Run(cmd.Context())
}
