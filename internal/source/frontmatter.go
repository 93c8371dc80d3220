package source

import (
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/kurtosis-tech/stacktrace"

	"github.com/odyssey/ruleforge/internal/ir"
)

// stringList accepts either a YAML sequence or a comma-separated string.
type stringList []string

func (l *stringList) UnmarshalYAML(unmarshal func(any) error) error {
	var list []string
	if err := unmarshal(&list); err == nil {
		*l = list
		return nil
	}
	var single string
	if err := unmarshal(&single); err != nil {
		return stacktrace.Propagate(err, "expected a string or a list of strings")
	}
	var parts []string
	for _, p := range strings.Split(single, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	*l = parts
	return nil
}

type rawFrontmatter struct {
	Name        string     `yaml:"name"`
	Globs       stringList `yaml:"globs"`
	Paths       stringList `yaml:"paths"`
	AlwaysApply *bool      `yaml:"alwaysApply"`
	Manual      *bool      `yaml:"manual"`
	Description string     `yaml:"description"`
	Priority    string     `yaml:"priority"`
	Aliases     stringList `yaml:"aliases"`
	Model       string     `yaml:"model"`
	Tools       stringList `yaml:"tools"`
}

func (r rawFrontmatter) toIR() ir.Frontmatter {
	globs := []string(r.Globs)
	if len(globs) == 0 {
		globs = r.Paths
	}
	return ir.Frontmatter{
		Name:        r.Name,
		Globs:       globs,
		AlwaysApply: r.AlwaysApply,
		Manual:      r.Manual,
		Description: r.Description,
		Priority:    r.Priority,
		Aliases:     r.Aliases,
		Model:       r.Model,
		Tools:       r.Tools,
	}
}

// splitDocument separates a leading ---/--- YAML block from the body.
// Content without frontmatter is all body.
func splitDocument(content string) (frontmatter string, body string) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimPrefix(content, "\ufeff")
	if !strings.HasPrefix(content, "---\n") {
		return "", content
	}
	rest := content[len("---\n"):]
	if strings.HasPrefix(rest, "---\n") {
		return "", rest[len("---\n"):]
	}
	end := strings.Index(rest, "\n---\n")
	if end < 0 {
		if strings.HasSuffix(rest, "\n---") {
			return rest[:len(rest)-len("\n---")], ""
		}
		return "", content
	}
	return rest[:end], rest[end+len("\n---\n"):]
}

// parseDocument parses frontmatter and body of one markdown file.
func parseDocument(content string) (ir.Frontmatter, string, error) {
	fm, body := splitDocument(content)
	var raw rawFrontmatter
	if strings.TrimSpace(fm) != "" {
		if err := yaml.Unmarshal([]byte(fm), &raw); err != nil {
			return ir.Frontmatter{}, "", stacktrace.Propagate(err, "invalid frontmatter")
		}
	}
	return raw.toIR(), body, nil
}
