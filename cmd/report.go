package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/odyssey/ruleforge/internal/writer"
)

// summaryOrder is the order actions are listed in a target's summary line.
var summaryOrder = []writer.Action{
	writer.ActionCreate,
	writer.ActionUpdate,
	writer.ActionMerge,
	writer.ActionUnchanged,
	writer.ActionBackup,
	writer.ActionRemoveStale,
	writer.ActionRemove,
	writer.ActionStrip,
	writer.ActionKeep,
}

// printBuildResult prints one block per target: a summary line, then its
// file changes when verbose (always for dry runs), then its warnings.
func printBuildResult(out io.Writer, result buildResult, dryRun bool) {
	reports := make(map[string]writer.TargetReport, len(result.report.Targets))
	for _, t := range result.report.Targets {
		reports[t.Target] = t
	}

	for _, warning := range result.report.Warnings {
		fmt.Fprintf(out, "warning: %s\n", warning)
	}

	for _, o := range result.outcomes {
		if o.Err != nil {
			fmt.Fprintf(out, "%s: FAILED to generate: %v\n", o.Target, o.Err)
			continue
		}
		t := reports[o.Target]
		if t.Err != nil {
			fmt.Fprintf(out, "%s: FAILED to write (%s): %v\n", o.Target, t.State, t.Err)
		} else {
			fmt.Fprintf(out, "%s: %s\n", o.Target, summarizeChanges(t.Changes))
		}

		if dryRun || verboseFlag {
			for _, c := range t.Changes {
				line := fmt.Sprintf("  %-12s %s", c.Action, c.Path)
				if c.BackupPath != "" {
					line += " -> " + c.BackupPath
				}
				fmt.Fprintln(out, line)
			}
		}
		for _, warning := range o.Result.Warnings {
			fmt.Fprintf(out, "  warning: %s\n", warning)
		}
		for _, warning := range t.Warnings {
			fmt.Fprintf(out, "  warning: %s\n", warning)
		}
	}
}

// printCleanReport prints what clean removed per target.
func printCleanReport(out io.Writer, report writer.Report) {
	if len(report.Targets) == 0 {
		fmt.Fprintln(out, "Nothing to clean.")
		return
	}
	for _, t := range report.Targets {
		if t.Err != nil {
			fmt.Fprintf(out, "%s: FAILED (%s): %v\n", t.Target, t.State, t.Err)
		} else {
			fmt.Fprintf(out, "%s: %s\n", t.Target, summarizeChanges(t.Changes))
		}
		if verboseFlag {
			for _, c := range t.Changes {
				fmt.Fprintf(out, "  %-12s %s\n", c.Action, c.Path)
			}
		}
		for _, warning := range t.Warnings {
			fmt.Fprintf(out, "  warning: %s\n", warning)
		}
	}
}

// summarizeChanges renders counts such as "2 create, 1 unchanged".
func summarizeChanges(changes []writer.FileChange) string {
	if len(changes) == 0 {
		return "no files"
	}
	counts := make(map[writer.Action]int)
	for _, c := range changes {
		counts[c.Action]++
	}
	var parts []string
	for _, action := range summaryOrder {
		if n := counts[action]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, action))
		}
	}
	return strings.Join(parts, ", ")
}
