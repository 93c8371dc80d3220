package adapter

import (
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/kurtosis-tech/stacktrace"

	"github.com/odyssey/ruleforge/internal/hookcompiler"
	"github.com/odyssey/ruleforge/internal/ir"
)

// ClaudeSettingsPath is the shared project settings file that receives the
// compiled hooks. Only the "hooks" entries this tool produces are owned.
const ClaudeSettingsPath = ".claude/settings.json"

func claudeHooks(compiler *hookcompiler.Compiler) func([]ir.Hook) ([]File, []string, error) {
	return func(hooks []ir.Hook) ([]File, []string, error) {
		compiled, err := compiler.CompileAll(hooks)
		if err != nil {
			return nil, nil, stacktrace.Propagate(err, "failed to compile hooks")
		}
		content, err := marshalJSON(map[string]any{"hooks": compiled})
		if err != nil {
			return nil, nil, err
		}
		files := []File{{Path: ClaudeSettingsPath, Content: content, Ownership: OwnershipPartial}}
		return files, hookcompiler.PathWarnings(hooks), nil
	}
}

func claudeRuleFrontmatter(rule ir.Rule) yaml.MapSlice {
	return yaml.MapSlice{{Key: "paths", Value: rule.Globs}}
}

func claudeCommandFrontmatter(cmd ir.Command) yaml.MapSlice {
	if cmd.Description == "" {
		return nil
	}
	return yaml.MapSlice{{Key: "description", Value: cmd.Description}}
}

func claudeAgentFrontmatter(agent ir.Agent) yaml.MapSlice {
	fields := yaml.MapSlice{
		{Key: "name", Value: agent.Name},
		{Key: "description", Value: agent.Description},
	}
	if len(agent.Tools) > 0 {
		fields = append(fields, yaml.MapItem{Key: "tools", Value: strings.Join(agent.Tools, ", ")})
	}
	if agent.Model != "" {
		fields = append(fields, yaml.MapItem{Key: "model", Value: agent.Model})
	}
	return fields
}
