// Package source reads a project's .ruleforge directory into an ir.Source.
package source

import (
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/kurtosis-tech/stacktrace"

	"github.com/odyssey/ruleforge/internal/config"
	"github.com/odyssey/ruleforge/internal/ir"
)

// Load reads rules, commands, skills and agents from sourceDirpath. Hooks
// and targets come from config.yml and are not filled in here.
func Load(sourceDirpath string) (ir.Source, error) {
	return LoadFS(os.DirFS(sourceDirpath))
}

// LoadFS reads a .ruleforge tree from fsys.
func LoadFS(fsys fs.FS) (ir.Source, error) {
	var src ir.Source

	ruleFiles, err := listMarkdown(fsys, config.RulesDirname+"/**/*.md")
	if err != nil {
		return ir.Source{}, err
	}
	for _, p := range ruleFiles {
		fm, body, err := readDocument(fsys, p)
		if err != nil {
			return ir.Source{}, err
		}
		src.Rules = append(src.Rules, ir.SourceRule{Name: ruleName(p), Frontmatter: fm, Body: body, Source: p})
	}

	commandFiles, err := listMarkdown(fsys, config.CommandsDirname+"/*.md")
	if err != nil {
		return ir.Source{}, err
	}
	for _, p := range commandFiles {
		fm, body, err := readDocument(fsys, p)
		if err != nil {
			return ir.Source{}, err
		}
		src.Commands = append(src.Commands, ir.SourceCommand{Name: stem(p), Frontmatter: fm, Body: body, Source: p})
	}

	agentFiles, err := listMarkdown(fsys, config.AgentsDirname+"/*.md")
	if err != nil {
		return ir.Source{}, err
	}
	for _, p := range agentFiles {
		fm, body, err := readDocument(fsys, p)
		if err != nil {
			return ir.Source{}, err
		}
		src.Agents = append(src.Agents, ir.SourceAgent{Name: stem(p), Frontmatter: fm, Body: body, Source: p})
	}

	skills, err := loadSkills(fsys)
	if err != nil {
		return ir.Source{}, err
	}
	src.Skills = skills

	return src, nil
}

func loadSkills(fsys fs.FS) ([]ir.SourceSkill, error) {
	skillFiles, err := doublestar.Glob(fsys, config.SkillsDirname+"/*/"+config.SkillFilename)
	if err != nil {
		return nil, stacktrace.Propagate(err, "failed to list skills")
	}
	sort.Strings(skillFiles)

	var skills []ir.SourceSkill
	for _, skillFile := range skillFiles {
		dir := path.Dir(skillFile)
		fm, body, err := readDocument(fsys, skillFile)
		if err != nil {
			return nil, err
		}
		skill := ir.SourceSkill{
			Name:        path.Base(dir),
			Description: fm.Description,
			Body:        body,
			Files:       map[string]string{},
			Source:      skillFile,
		}
		if fm.Name != "" {
			skill.Name = fm.Name
		}

		supporting, err := doublestar.Glob(fsys, dir+"/**", doublestar.WithFilesOnly())
		if err != nil {
			return nil, stacktrace.Propagate(err, "failed to list files of skill '%s'", skill.Name)
		}
		for _, p := range supporting {
			rel := strings.TrimPrefix(p, dir+"/")
			if rel == config.SkillFilename || hidden(rel) {
				continue
			}
			data, err := fs.ReadFile(fsys, p)
			if err != nil {
				return nil, stacktrace.Propagate(err, "failed to read '%s'", p)
			}
			skill.Files[rel] = string(data)
		}
		skills = append(skills, skill)
	}
	return skills, nil
}

func listMarkdown(fsys fs.FS, pattern string) ([]string, error) {
	matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, stacktrace.Propagate(err, "failed to list '%s'", pattern)
	}
	kept := matches[:0]
	for _, p := range matches {
		if !hidden(p) {
			kept = append(kept, p)
		}
	}
	sort.Strings(kept)
	return kept, nil
}

func readDocument(fsys fs.FS, p string) (ir.Frontmatter, string, error) {
	data, err := fs.ReadFile(fsys, p)
	if err != nil {
		return ir.Frontmatter{}, "", stacktrace.Propagate(err, "failed to read '%s'", p)
	}
	fm, body, err := parseDocument(string(data))
	if err != nil {
		return ir.Frontmatter{}, "", stacktrace.Propagate(err, "failed to parse '%s'", p)
	}
	return fm, body, nil
}

// ruleName derives a rule name from its path below rules/, so nested rules
// do not collide: rules/go/style.md becomes go-style.
func ruleName(p string) string {
	rel := strings.TrimPrefix(p, config.RulesDirname+"/")
	rel = strings.TrimSuffix(rel, path.Ext(rel))
	return strings.ReplaceAll(rel, "/", "-")
}

func stem(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}

// hidden reports whether any element of p starts with a dot.
func hidden(p string) bool {
	for _, part := range strings.Split(p, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
