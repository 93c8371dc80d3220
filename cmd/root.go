package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kurtosis-tech/stacktrace"
	"github.com/spf13/cobra"

	"github.com/odyssey/ruleforge/internal/config"
)

var projectFlag string
var verboseFlag bool

// projectDirpath and logger are set by the root command before any
// subcommand runs.
var projectDirpath string
var logger *slog.Logger

var rootCmd = &cobra.Command{
	Use:   ruleforgeCmdStr,
	Short: "Generate agent tool configuration from one .ruleforge source tree",
	Long: `ruleforge reads rules, hooks, commands, skills and agents from a project's
.ruleforge directory and generates the native configuration of every
supported AI coding tool. Features a tool cannot express natively are folded
into its plain instructions and reported as degraded.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verboseFlag {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		dirpath, err := config.GetProjectDirpath(projectFlag)
		if err != nil {
			return stacktrace.Propagate(err, "failed to determine project directory")
		}
		projectDirpath = dirpath
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&projectFlag, projectFlagName, "", "project root containing .ruleforge (default: $RULEFORGE_PROJECT or the working directory)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", false, "enable debug logging")
}

// Execute runs the root command. Interrupts cancel the command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// GetRootCmd returns the root command for documentation generation.
func GetRootCmd() *cobra.Command {
	return rootCmd
}
