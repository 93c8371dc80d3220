package adapter

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/kurtosis-tech/stacktrace"

	"github.com/odyssey/ruleforge/internal/ir"
)

// Shared renderings used by every platform. level is the markdown heading
// level of the block's title: 2 inside a combined instructions file, 1 when
// the block is a file of its own.

func heading(level int, title string) string {
	return strings.Repeat("#", level) + " " + title
}

func joinParagraphs(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}

// renderNativeRule renders a rule whose scope the platform understands.
func renderNativeRule(rule ir.Rule, level int) string {
	return joinParagraphs(heading(level, rule.Name), rule.Body)
}

// renderDegradedRule folds a rule's activation scope into plain text.
func renderDegradedRule(rule ir.Rule, level int) string {
	switch rule.Scope {
	case ir.ScopeGlob:
		return joinParagraphs(
			heading(level, rule.Name),
			fmt.Sprintf("When working on files matching `%s`:", strings.Join(rule.Globs, ", ")),
			rule.Body,
		)
	case ir.ScopeDescription:
		return joinParagraphs(
			heading(level, fmt.Sprintf("%s (%s)", rule.Name, rule.Description)),
			rule.Body,
		)
	case ir.ScopeManual:
		return joinParagraphs(
			heading(level, rule.Name),
			"_Apply this rule only when it is explicitly requested._",
			rule.Body,
		)
	default:
		return renderNativeRule(rule, level)
	}
}

var hookEventPhrases = map[ir.HookEvent]string{
	ir.EventPostEdit:   "After editing a file",
	ir.EventPostCreate: "After creating a file",
	ir.EventPreCommit:  "Before committing",
}

// renderHook describes a hook as an instruction for platforms without a
// lifecycle mechanism.
func renderHook(hook ir.Hook, level int) string {
	lines := []string{heading(level, "Hook: "+string(hook.Event))}
	trigger := hookEventPhrases[hook.Event]
	if hook.Match != "" {
		trigger += fmt.Sprintf(" matching `%s`", hook.Match)
	}
	lines = append(lines, trigger+":")
	if hook.Description != "" {
		lines = append(lines, hook.Description)
		if hook.Run != "" {
			lines = append(lines, fmt.Sprintf("Command: `%s`", hook.Run))
		}
	} else {
		lines = append(lines, fmt.Sprintf("Run: `%s`", hook.Run))
	}
	return joinParagraphs(lines...)
}

func renderHooks(hooks []ir.Hook, level int) string {
	blocks := make([]string, 0, len(hooks))
	for _, h := range hooks {
		blocks = append(blocks, renderHook(h, level))
	}
	return joinParagraphs(blocks...)
}

func formatAliases(aliases []string) string {
	if len(aliases) == 0 {
		return ""
	}
	quoted := make([]string, 0, len(aliases))
	for _, a := range aliases {
		quoted = append(quoted, "`"+a+"`")
	}
	return "Aliases: " + strings.Join(quoted, ", ")
}

func renderCommand(cmd ir.Command, level int) string {
	return joinParagraphs(
		heading(level, "Command: "+cmd.Name),
		cmd.Description,
		formatAliases(cmd.Aliases),
		cmd.Body,
	)
}

// renderSkill renders a skill as one block. Supporting files are inlined as
// fenced code blocks when inlineFiles is set.
func renderSkill(skill ir.Skill, level int, inlineFiles bool) string {
	parts := []string{heading(level, "Skill: "+skill.Name), skill.Description, skill.Body}
	if inlineFiles {
		for _, rel := range sortedKeys(skill.Files) {
			parts = append(parts,
				heading(level+1, "File: "+rel),
				fence(skill.Files[rel], strings.TrimPrefix(path.Ext(rel), ".")),
			)
		}
	}
	return joinParagraphs(parts...)
}

func renderAgent(agent ir.Agent, level int) string {
	var meta []string
	if agent.Model != "" {
		meta = append(meta, "Model: "+agent.Model)
	}
	if len(agent.Tools) > 0 {
		meta = append(meta, "Tools: "+strings.Join(agent.Tools, ", "))
	}
	return joinParagraphs(
		heading(level, "Agent: "+agent.Name),
		agent.Description,
		strings.Join(meta, "\n"),
		agent.Body,
	)
}

// fence wraps content in a code fence longer than any backtick run inside it.
func fence(content string, lang string) string {
	longest, run := 0, 0
	for _, r := range content {
		if r == '`' {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}
	ticks := strings.Repeat("`", max(3, longest+1))
	return ticks + lang + "\n" + strings.TrimRight(content, "\n") + "\n" + ticks
}

// renderFrontmatter renders fields as a ---/--- YAML block. Empty fields
// produce no block at all.
func renderFrontmatter(fields yaml.MapSlice) (string, error) {
	if len(fields) == 0 {
		return "", nil
	}
	data, err := yaml.Marshal(fields)
	if err != nil {
		return "", stacktrace.Propagate(err, "failed to render frontmatter")
	}
	return "---\n" + string(data) + "---\n", nil
}

// withFrontmatter prefixes body with rendered frontmatter and ends the
// document with a single newline.
func withFrontmatter(fields yaml.MapSlice, body string) (string, error) {
	fm, err := renderFrontmatter(fields)
	if err != nil {
		return "", err
	}
	return fm + strings.TrimRight(body, "\n") + "\n", nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// slug turns a display name into a safe file name component.
func slug(name string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '.':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	result := strings.Trim(b.String(), "-.")
	if result == "" {
		return "unnamed"
	}
	return result
}
