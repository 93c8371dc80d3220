// cmd/genskill writes a ruleforge skill that teaches coding agents how to
// edit a project's .ruleforge sources and rebuild them. The command list is
// taken from the Cobra command tree, so the skill never drifts from the
// binary. Run via: go run ./cmd/genskill [project-dir]
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/spf13/cobra"

	"github.com/odyssey/ruleforge/cmd"
	"github.com/odyssey/ruleforge/internal/config"
)

const skillName = "ruleforge-cli"

// commandEntry is one command line in the skill's reference table.
type commandEntry struct {
	Usage       string
	Description string
}

// skillData is what skillTemplate renders.
type skillData struct {
	Name     string
	Commands []commandEntry

	SourceDir   string
	RulesDir    string
	CommandsDir string
	SkillsDir   string
	AgentsDir   string
	HooksDir    string
	ConfigFile  string
}

func main() {
	projectDirpath := "."
	if len(os.Args) > 1 {
		projectDirpath = os.Args[1]
	}

	content, err := renderSkill(buildSkillData(cmd.GetRootCmd()))
	if err != nil {
		log.Fatalf("failed to render skill: %v", err)
	}

	outputFilepath := filepath.Join(config.GetSkillsDirpath(projectDirpath), skillName, config.SkillFilename)
	if err := os.MkdirAll(filepath.Dir(outputFilepath), 0755); err != nil {
		log.Fatalf("failed to create %s: %v", filepath.Dir(outputFilepath), err)
	}
	if err := os.WriteFile(outputFilepath, []byte(content), 0644); err != nil {
		log.Fatalf("failed to write %s: %v", outputFilepath, err)
	}

	log.Printf("Generated %s", outputFilepath)
}

// buildSkillData collects every visible top-level command.
func buildSkillData(rootCmd *cobra.Command) skillData {
	var commands []commandEntry
	for _, child := range rootCmd.Commands() {
		if child.Hidden || !child.IsAvailableCommand() {
			continue
		}
		commands = append(commands, commandEntry{
			Usage:       fmt.Sprintf("%s %s", rootCmd.Name(), child.Use),
			Description: child.Short,
		})
	}
	sort.Slice(commands, func(i, j int) bool { return commands[i].Usage < commands[j].Usage })

	return skillData{
		Name:        skillName,
		Commands:    commands,
		SourceDir:   config.SourceDirname,
		RulesDir:    config.RulesDirname,
		CommandsDir: config.CommandsDirname,
		SkillsDir:   config.SkillsDirname,
		AgentsDir:   config.AgentsDirname,
		HooksDir:    config.HooksDirname,
		ConfigFile:  config.ConfigFilename,
	}
}

// padRight pads a string with spaces to the given width.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func renderSkill(data skillData) (string, error) {
	funcMap := template.FuncMap{
		"padRight": padRight,
		"maxUsageLen": func(cmds []commandEntry) int {
			maxLen := 0
			for _, c := range cmds {
				maxLen = max(maxLen, len(c.Usage))
			}
			return maxLen
		},
	}

	tmpl, err := template.New("skill").Funcs(funcMap).Parse(skillTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return sb.String(), nil
}

var skillTemplate = `---
name: {{ .Name }}
description: Edit this project's agent rules, hooks, commands, skills and agents, then regenerate every tool's configuration with ruleforge.
---
ruleforge
=========

This project keeps its agent configuration in ` + "`{{ .SourceDir }}/`" + `. Every tool's native files (CLAUDE.md, .cursor/rules, .windsurfrules and the rest) are generated from it. **Never edit generated files**; they carry a "Generated by ruleforge" marker and are overwritten on the next build. Edit the sources and rebuild instead.

Source layout
-------------

- ` + "`{{ .SourceDir }}/{{ .RulesDir }}/**/*.md`" + `: rules. Frontmatter keys: ` + "`globs`" + `, ` + "`alwaysApply`" + `, ` + "`manual`" + `, ` + "`description`" + `, ` + "`priority`" + ` (critical, high, normal, low).
- ` + "`{{ .SourceDir }}/{{ .CommandsDir }}/*.md`" + `: reusable prompts. Frontmatter: ` + "`description`" + `, ` + "`aliases`" + `.
- ` + "`{{ .SourceDir }}/{{ .SkillsDir }}/<name>/SKILL.md`" + `: skills, with any supporting files beside SKILL.md.
- ` + "`{{ .SourceDir }}/{{ .AgentsDir }}/*.md`" + `: sub-agents. Frontmatter: ` + "`description`" + `, ` + "`model`" + `, ` + "`tools`" + `.
- ` + "`{{ .SourceDir }}/{{ .ConfigFile }}`" + `: targets, lifecycle hooks and budgets. Hook scripts referenced as ` + "`hooks/<script>`" + ` live in ` + "`{{ .SourceDir }}/{{ .HooksDir }}/`" + `.

Commands
--------

` + "```" + `
{{ $maxLen := maxUsageLen .Commands }}{{ range .Commands }}{{ padRight .Usage $maxLen }}  # {{ .Description }}
{{ end }}` + "```" + `

After editing, run ` + "`ruleforge build --dry-run`" + ` to preview, then ` + "`ruleforge build`" + `. ` + "`ruleforge inspect`" + ` shows which features each tool receives natively and which are folded into plain instructions.
`
