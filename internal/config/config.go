package config

import (
	"os"
	"path/filepath"

	"github.com/kurtosis-tech/stacktrace"
)

const (
	projectDirpathEnvVar = "RULEFORGE_PROJECT"

	SourceDirname   = ".ruleforge"
	ConfigFilename  = "config.yml"
	RulesDirname    = "rules"
	CommandsDirname = "commands"
	SkillsDirname   = "skills"
	AgentsDirname   = "agents"
	HooksDirname    = "hooks"

	SkillFilename = "SKILL.md"
)

// GetProjectDirpath returns the absolute project root: flagValue when set,
// then the RULEFORGE_PROJECT environment variable, then the working
// directory.
func GetProjectDirpath(flagValue string) (string, error) {
	dirpath := flagValue
	if dirpath == "" {
		dirpath = os.Getenv(projectDirpathEnvVar)
	}
	if dirpath == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", stacktrace.Propagate(err, "failed to determine working directory")
		}
		dirpath = cwd
	}
	abs, err := filepath.Abs(dirpath)
	if err != nil {
		return "", stacktrace.Propagate(err, "failed to resolve project directory '%s'", dirpath)
	}
	return abs, nil
}

// GetSourceDirpath returns the .ruleforge directory of a project.
func GetSourceDirpath(projectDirpath string) string {
	return filepath.Join(projectDirpath, SourceDirname)
}

// GetConfigFilepath returns the path to config.yml.
func GetConfigFilepath(projectDirpath string) string {
	return filepath.Join(GetSourceDirpath(projectDirpath), ConfigFilename)
}

// GetRulesDirpath returns the directory holding rule files.
func GetRulesDirpath(projectDirpath string) string {
	return filepath.Join(GetSourceDirpath(projectDirpath), RulesDirname)
}

// GetCommandsDirpath returns the directory holding command files.
func GetCommandsDirpath(projectDirpath string) string {
	return filepath.Join(GetSourceDirpath(projectDirpath), CommandsDirname)
}

// GetSkillsDirpath returns the directory holding one subdirectory per skill.
func GetSkillsDirpath(projectDirpath string) string {
	return filepath.Join(GetSourceDirpath(projectDirpath), SkillsDirname)
}

// GetAgentsDirpath returns the directory holding agent files.
func GetAgentsDirpath(projectDirpath string) string {
	return filepath.Join(GetSourceDirpath(projectDirpath), AgentsDirname)
}

// GetHooksDirpath returns the directory hook scripts are kept in. Hook
// commands that start with hooks/ refer to it.
func GetHooksDirpath(projectDirpath string) string {
	return filepath.Join(GetSourceDirpath(projectDirpath), HooksDirname)
}
