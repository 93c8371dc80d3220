package cmd

// Centralized command name strings for all CLI commands. Use these constants
// in Cobra Use fields and user-facing messages (error text, help text,
// remediation suggestions) so that command names are defined in exactly one
// place.

const (
	// Root command
	ruleforgeCmdStr = "ruleforge"

	// Top-level commands
	buildCmdStr   = "build"
	inspectCmdStr = "inspect"
	cleanCmdStr   = "clean"
	targetsCmdStr = "targets"
	watchCmdStr   = "watch"
	versionCmdStr = "version"
)

// Flag names shared by several commands.
const (
	projectFlagName = "project"
	verboseFlagName = "verbose"
	targetFlagName  = "target"
	dryRunFlagName  = "dry-run"
)
