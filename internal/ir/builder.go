package ir

import (
	"maps"
	"slices"
	"strings"
)

// SourceRule is one parsed rule file.
type SourceRule struct {
	Name        string
	Frontmatter Frontmatter
	Body        string
	Source      string
}

// SourceCommand is one parsed command file.
type SourceCommand struct {
	Name        string
	Frontmatter Frontmatter
	Body        string
	Source      string
}

// SourceSkill is one parsed skill directory.
type SourceSkill struct {
	Name        string
	Description string
	Body        string
	Files       map[string]string
	Source      string
}

// SourceAgent is one parsed agent file.
type SourceAgent struct {
	Name        string
	Frontmatter Frontmatter
	Body        string
	Source      string
}

// Source is everything the loader produced for one project. Upstream has
// already applied defaults, so Build never fails.
type Source struct {
	Rules    []SourceRule
	Commands []SourceCommand
	Skills   []SourceSkill
	Agents   []SourceAgent
	Hooks    []Hook
	Targets  []string
}

// Build normalizes src into an IR. The returned IR shares no slices or maps
// with src.
func Build(src Source) IR {
	result := IR{
		Hooks:   slices.Clone(src.Hooks),
		Targets: slices.Clone(src.Targets),
	}

	rules := make([]Rule, 0, len(src.Rules))
	for _, sr := range src.Rules {
		rules = append(rules, buildRule(sr))
	}
	result.Rules = SortByPriority(rules)

	for _, sc := range src.Commands {
		result.Commands = append(result.Commands, Command{
			Name:        pickName(sc.Frontmatter.Name, sc.Name),
			Description: strings.TrimSpace(sc.Frontmatter.Description),
			Body:        trimBody(sc.Body),
			Aliases:     nonEmpty(sc.Frontmatter.Aliases),
			Source:      sc.Source,
		})
	}

	for _, ss := range src.Skills {
		files := make(map[string]string, len(ss.Files))
		maps.Copy(files, ss.Files)
		result.Skills = append(result.Skills, Skill{
			Name:        ss.Name,
			Description: strings.TrimSpace(ss.Description),
			Body:        trimBody(ss.Body),
			Files:       files,
			Source:      ss.Source,
		})
	}

	for _, sa := range src.Agents {
		result.Agents = append(result.Agents, Agent{
			Name:        pickName(sa.Frontmatter.Name, sa.Name),
			Description: strings.TrimSpace(sa.Frontmatter.Description),
			Body:        trimBody(sa.Body),
			Model:       strings.TrimSpace(sa.Frontmatter.Model),
			Tools:       nonEmpty(sa.Frontmatter.Tools),
			Source:      sa.Source,
		})
	}

	return result
}

func buildRule(sr SourceRule) Rule {
	scope := DetermineScope(sr.Frontmatter)
	rule := Rule{
		Name:        pickName(sr.Frontmatter.Name, sr.Name),
		Scope:       scope,
		Body:        trimBody(sr.Body),
		Description: strings.TrimSpace(sr.Frontmatter.Description),
		Priority:    ParsePriority(sr.Frontmatter.Priority),
		Source:      sr.Source,
	}
	if scope == ScopeGlob {
		rule.Globs = nonEmpty(sr.Frontmatter.Globs)
	}
	return rule
}

func pickName(frontmatterName string, fallback string) string {
	if name := strings.TrimSpace(frontmatterName); name != "" {
		return name
	}
	return fallback
}

// trimBody strips surrounding blank lines but keeps interior formatting.
func trimBody(body string) string {
	return strings.Trim(body, "\r\n\t ")
}
