package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/odyssey/ruleforge/internal/adapter"
	"github.com/odyssey/ruleforge/internal/tableprinter"
)

var inspectTargetFlags []string
var inspectCapabilitiesFlag bool

var inspectCmd = &cobra.Command{
	Use:   inspectCmdStr,
	Short: "Show how each target represents this project's features",
	Long: `Show how each target represents this project's features.

Each cell is "native" when the target's own mechanism is used, "degraded"
when the feature is folded into plain instructions, and "-" when the project
has no such feature or the target cannot express it. Nothing is written.

With --capabilities the static capability table is printed instead, and no
project is needed.`,
	Args: cobra.NoArgs,
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().StringSliceVarP(&inspectTargetFlags, targetFlagName, "t", nil, "target to inspect (repeatable; default: config targets)")
	inspectCmd.Flags().BoolVar(&inspectCapabilitiesFlag, "capabilities", false, "print what every target supports, independent of any project")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	useColor := out == os.Stdout && tableprinter.UseColor(os.Stdout)

	if inspectCapabilitiesFlag {
		printCapabilities(cmd, useColor)
		return nil
	}

	p, err := loadProject(projectDirpath)
	if err != nil {
		return err
	}
	outcomes, err := p.generate(cmd.Context(), inspectTargetFlags)
	if err != nil {
		return err
	}

	tbl := tableprinter.NewTable(featureHeaders("TARGET", "FILES", "WARNINGS")...).WithWriter(out)
	var failures []string
	for _, o := range outcomes {
		if o.Err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", o.Target, o.Err))
			row := []interface{}{o.Target}
			for range adapter.AllFeatures {
				row = append(row, tableprinter.Colorize(tableprinter.StatusFailed, useColor))
			}
			tbl.AddRow(append(row, "--", "--")...)
			continue
		}
		row := []interface{}{o.Target}
		for _, f := range adapter.AllFeatures {
			row = append(row, tableprinter.Colorize(featureStatus(o.Result, f), useColor))
		}
		tbl.AddRow(append(row, len(o.Result.Files), len(o.Result.Warnings))...)
	}
	tbl.Print()

	for _, failure := range failures {
		fmt.Fprintf(out, "\n%s\n", failure)
	}
	return nil
}

// printCapabilities prints the capability table of every platform.
func printCapabilities(cmd *cobra.Command, useColor bool) {
	tbl := tableprinter.NewTable(featureHeaders("TARGET")...).WithWriter(cmd.OutOrStdout())
	for _, p := range adapter.Platforms(adapter.Options{}) {
		row := []interface{}{p.ID}
		for _, f := range adapter.AllFeatures {
			status := p.Capabilities.Support(f).String()
			if status == adapter.Omitted.String() {
				status = tableprinter.StatusNone
			}
			row = append(row, tableprinter.Colorize(status, useColor))
		}
		tbl.AddRow(row...)
	}
	tbl.Print()
}

// featureHeaders returns first, one column per feature, then trailing.
func featureHeaders(first string, trailing ...string) []interface{} {
	headers := []interface{}{first}
	for _, f := range adapter.AllFeatures {
		headers = append(headers, strings.ToUpper(strings.TrimSuffix(string(f), "-rules")))
	}
	for _, h := range trailing {
		headers = append(headers, h)
	}
	return headers
}

// featureStatus reports how a result represents f.
func featureStatus(res adapter.Result, f adapter.Feature) string {
	for _, tagged := range res.NativeFeatures {
		if tagged == f {
			return tableprinter.StatusNative
		}
	}
	for _, tagged := range res.DegradedFeatures {
		if tagged == f {
			return tableprinter.StatusDegraded
		}
	}
	return tableprinter.StatusNone
}
