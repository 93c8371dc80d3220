package adapter

import (
	"github.com/goccy/go-yaml"

	"github.com/odyssey/ruleforge/internal/budget"
	"github.com/odyssey/ruleforge/internal/hookcompiler"
	"github.com/odyssey/ruleforge/internal/ir"
)

// Options configure the built-in platforms.
type Options struct {
	// HookStoragePath replaces a leading hooks/ in hook commands. Empty
	// means hookcompiler.DefaultStoragePath.
	HookStoragePath string
	// InstructionLimits bound size-constrained instruction files. The zero
	// value means budget.DefaultLimits.
	InstructionLimits budget.Limits
}

// DefaultRegistry returns a registry holding every built-in platform.
func DefaultRegistry(opts Options) *Registry {
	r := NewRegistry()
	for _, p := range Platforms(opts) {
		r.Register(p)
	}
	return r
}

func rules(always, glob, description, manual Support) map[ir.Scope]Support {
	return map[ir.Scope]Support{
		ir.ScopeAlways:      always,
		ir.ScopeGlob:        glob,
		ir.ScopeDescription: description,
		ir.ScopeManual:      manual,
	}
}

func noFrontmatter(ir.Rule) yaml.MapSlice {
	return nil
}

func descriptionFrontmatter(description string) yaml.MapSlice {
	if description == "" {
		return nil
	}
	return yaml.MapSlice{{Key: "description", Value: description}}
}

// Platforms returns the capability table, one Platform per target tool.
func Platforms(opts Options) []*Platform {
	storage := opts.HookStoragePath
	if storage == "" {
		storage = hookcompiler.DefaultStoragePath
	}
	limits := opts.InstructionLimits
	if limits == (budget.Limits{}) {
		limits = budget.DefaultLimits()
	}
	compiler := hookcompiler.New(storage)

	return []*Platform{
		{
			ID:           "claude",
			DisplayName:  "Claude Code",
			Capabilities: Capabilities{Rules: rules(Native, Native, Degraded, Degraded), Hooks: Native, Commands: Native, Skills: Native, Agents: Native},
			Instructions: "CLAUDE.md",
			RuleFormat: &RuleFormat{
				Dir:         ".claude/rules",
				Ext:         ".md",
				Scopes:      []ir.Scope{ir.ScopeGlob},
				Frontmatter: claudeRuleFrontmatter,
			},
			Hooks:       claudeHooks(compiler),
			Commands:    markdownCommands(".claude/commands", ".md", claudeCommandFrontmatter),
			Skills:      skillDirs(".claude/skills"),
			Agents:      markdownAgents(".claude/agents", ".md", claudeAgentFrontmatter),
			ManagedDirs: []string{".claude/rules", ".claude/commands", ".claude/skills", ".claude/agents"},
		},
		{
			ID:           "cursor",
			DisplayName:  "Cursor",
			Capabilities: Capabilities{Rules: rules(Native, Native, Native, Native), Hooks: Omitted, Commands: Native, Skills: Degraded, Agents: Degraded},
			RuleFormat: &RuleFormat{
				Dir:         ".cursor/rules",
				Ext:         ".mdc",
				Scopes:      ir.AllScopes,
				Frontmatter: cursorRuleFrontmatter,
				AuxFrontmatter: func(description string) yaml.MapSlice {
					return yaml.MapSlice{
						{Key: "description", Value: description},
						{Key: "globs", Value: ""},
						{Key: "alwaysApply", Value: false},
					}
				},
			},
			Commands:    markdownCommands(".cursor/commands", ".md", nil),
			ManagedDirs: []string{".cursor/rules", ".cursor/commands"},
		},
		{
			ID:           "windsurf",
			DisplayName:  "Windsurf",
			Capabilities: Capabilities{Rules: rules(Native, Degraded, Degraded, Degraded), Hooks: Degraded, Commands: Native, Skills: Degraded, Agents: Omitted},
			Instructions: ".windsurfrules",
			Assembler:    BudgetAssembler(limits),
			Commands: markdownCommands(".windsurf/workflows", ".md", func(cmd ir.Command) yaml.MapSlice {
				return descriptionFrontmatter(cmd.Description)
			}),
			ManagedDirs: []string{".windsurf/workflows"},
		},
		{
			ID:           "copilot",
			DisplayName:  "GitHub Copilot",
			Capabilities: Capabilities{Rules: rules(Native, Native, Degraded, Degraded), Hooks: Degraded, Commands: Native, Skills: Degraded, Agents: Native},
			Instructions: ".github/copilot-instructions.md",
			RuleFormat: &RuleFormat{
				Dir:    ".github/instructions",
				Ext:    ".instructions.md",
				Scopes: []ir.Scope{ir.ScopeGlob},
				Frontmatter: func(rule ir.Rule) yaml.MapSlice {
					return yaml.MapSlice{{Key: "applyTo", Value: commaJoined(rule.Globs)}}
				},
			},
			Commands: markdownCommands(".github/prompts", ".prompt.md", func(cmd ir.Command) yaml.MapSlice {
				return descriptionFrontmatter(cmd.Description)
			}),
			Agents: markdownAgents(".github/agents", ".agent.md", func(agent ir.Agent) yaml.MapSlice {
				fields := yaml.MapSlice{{Key: "name", Value: agent.Name}, {Key: "description", Value: agent.Description}}
				if len(agent.Tools) > 0 {
					fields = append(fields, yaml.MapItem{Key: "tools", Value: agent.Tools})
				}
				return fields
			}),
			ManagedDirs: []string{".github/instructions", ".github/prompts", ".github/agents"},
		},
		{
			ID:           "codex",
			DisplayName:  "OpenAI Codex",
			Capabilities: Capabilities{Rules: rules(Native, Degraded, Degraded, Degraded), Hooks: Degraded, Commands: Degraded, Skills: Native, Agents: Degraded},
			Instructions: "AGENTS.md",
			Skills:       skillDirs(".codex/skills"),
			ManagedDirs:  []string{".codex/skills"},
		},
		{
			ID:           "gemini",
			DisplayName:  "Gemini CLI",
			Capabilities: Capabilities{Rules: rules(Native, Degraded, Degraded, Degraded), Hooks: Degraded, Commands: Native, Skills: Degraded, Agents: Degraded},
			Instructions: "GEMINI.md",
			Commands:     geminiCommands,
			ManagedDirs:  []string{".gemini/commands"},
		},
		{
			ID:           "cline",
			DisplayName:  "Cline",
			Capabilities: Capabilities{Rules: rules(Native, Native, Degraded, Degraded), Hooks: Degraded, Commands: Native, Skills: Degraded, Agents: Omitted},
			RuleFormat: &RuleFormat{
				Dir:    ".clinerules",
				Ext:    ".md",
				Scopes: ir.AllScopes,
				Frontmatter: func(rule ir.Rule) yaml.MapSlice {
					if rule.Scope != ir.ScopeGlob {
						return nil
					}
					return yaml.MapSlice{{Key: "paths", Value: rule.Globs}}
				},
			},
			Commands:    markdownCommands(".clinerules/workflows", ".md", nil),
			ManagedDirs: []string{".clinerules", ".clinerules/workflows"},
		},
		{
			ID:           "roo",
			DisplayName:  "Roo Code",
			Capabilities: Capabilities{Rules: rules(Native, Degraded, Degraded, Degraded), Hooks: Degraded, Commands: Native, Skills: Degraded, Agents: Native},
			RuleFormat: &RuleFormat{
				Dir:         ".roo/rules",
				Ext:         ".md",
				Scopes:      ir.AllScopes,
				Frontmatter: noFrontmatter,
			},
			Commands:    markdownCommands(".roo/commands", ".md", rooCommandFrontmatter),
			Agents:      rooModes,
			ManagedDirs: []string{".roo/rules", ".roo/commands"},
		},
		{
			ID:           "continue",
			DisplayName:  "Continue",
			Capabilities: Capabilities{Rules: rules(Native, Native, Native, Degraded), Hooks: Degraded, Commands: Native, Skills: Degraded, Agents: Omitted},
			RuleFormat: &RuleFormat{
				Dir:         ".continue/rules",
				Ext:         ".md",
				Scopes:      ir.AllScopes,
				Frontmatter: continueRuleFrontmatter,
				AuxFrontmatter: func(description string) yaml.MapSlice {
					fields := yaml.MapSlice{{Key: "name", Value: description}}
					if description == "" {
						fields = nil
					}
					return append(fields, yaml.MapItem{Key: "alwaysApply", Value: true})
				},
			},
			Commands:    continuePrompts,
			ManagedDirs: []string{".continue/rules", ".continue/prompts"},
		},
		{
			ID:           "kiro",
			DisplayName:  "Kiro",
			Capabilities: Capabilities{Rules: rules(Native, Native, Degraded, Native), Hooks: Native, Commands: Degraded, Skills: Degraded, Agents: Omitted},
			RuleFormat: &RuleFormat{
				Dir:         ".kiro/steering",
				Ext:         ".md",
				Scopes:      ir.AllScopes,
				Frontmatter: kiroRuleFrontmatter,
				AuxFrontmatter: func(string) yaml.MapSlice {
					return yaml.MapSlice{{Key: "inclusion", Value: "always"}}
				},
			},
			Hooks:       kiroHooks,
			ManagedDirs: []string{".kiro/steering", ".kiro/hooks"},
		},
		{
			ID:           "amazonq",
			DisplayName:  "Amazon Q Developer",
			Capabilities: Capabilities{Rules: rules(Native, Degraded, Degraded, Degraded), Hooks: Degraded, Commands: Degraded, Skills: Degraded, Agents: Native},
			RuleFormat: &RuleFormat{
				Dir:         ".amazonq/rules",
				Ext:         ".md",
				Scopes:      ir.AllScopes,
				Frontmatter: noFrontmatter,
			},
			Agents:      amazonqAgents,
			ManagedDirs: []string{".amazonq/rules", ".amazonq/cli-agents"},
		},
		{
			ID:           "aider",
			DisplayName:  "Aider",
			Capabilities: Capabilities{Rules: rules(Native, Degraded, Degraded, Degraded), Hooks: Degraded, Commands: Degraded, Skills: Degraded, Agents: Omitted},
			Instructions: aiderConventionsPath,
			Extras:       aiderExtras,
		},
	}
}

func cursorRuleFrontmatter(rule ir.Rule) yaml.MapSlice {
	fields := yaml.MapSlice{
		{Key: "description", Value: rule.Description},
		{Key: "globs", Value: commaJoined(rule.Globs)},
		{Key: "alwaysApply", Value: rule.Scope == ir.ScopeAlways},
	}
	return fields
}

func continueRuleFrontmatter(rule ir.Rule) yaml.MapSlice {
	fields := yaml.MapSlice{{Key: "name", Value: rule.Name}}
	switch rule.Scope {
	case ir.ScopeGlob:
		fields = append(fields, yaml.MapItem{Key: "globs", Value: rule.Globs})
	case ir.ScopeDescription:
		fields = append(fields, yaml.MapItem{Key: "description", Value: rule.Description})
	}
	return append(fields, yaml.MapItem{Key: "alwaysApply", Value: rule.Scope == ir.ScopeAlways})
}

// continuePrompts writes invokable .prompt files.
func continuePrompts(commands []ir.Command) ([]File, error) {
	return markdownCommands(".continue/prompts", ".prompt", func(cmd ir.Command) yaml.MapSlice {
		fields := yaml.MapSlice{{Key: "name", Value: cmd.Name}}
		if cmd.Description != "" {
			fields = append(fields, yaml.MapItem{Key: "description", Value: cmd.Description})
		}
		return append(fields, yaml.MapItem{Key: "invokable", Value: true})
	})(commands)
}
