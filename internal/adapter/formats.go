package adapter

import (
	"bytes"
	"encoding/json"
	"path"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/kurtosis-tech/stacktrace"

	"github.com/odyssey/ruleforge/internal/ir"
)

// markdownCommands writes one markdown file per command into dir, plus a
// copy per alias so the command can be invoked under every name.
func markdownCommands(dir string, ext string, frontmatter func(ir.Command) yaml.MapSlice) func([]ir.Command) ([]File, error) {
	return func(commands []ir.Command) ([]File, error) {
		var files []File
		for _, cmd := range commands {
			var fields yaml.MapSlice
			if frontmatter != nil {
				fields = frontmatter(cmd)
			}
			content, err := withFrontmatter(fields, cmd.Body)
			if err != nil {
				return nil, stacktrace.Propagate(err, "failed to render command '%s'", cmd.Name)
			}
			files = append(files, markedFile(dir+"/"+slug(cmd.Name)+ext, content))
			for _, alias := range cmd.Aliases {
				aliasContent, err := withFrontmatter(fields, joinParagraphs("Alias of `"+cmd.Name+"`.", cmd.Body))
				if err != nil {
					return nil, stacktrace.Propagate(err, "failed to render alias '%s' of command '%s'", alias, cmd.Name)
				}
				files = append(files, markedFile(dir+"/"+slug(alias)+ext, aliasContent))
			}
		}
		return files, nil
	}
}

// markdownAgents writes one markdown file per agent into dir.
func markdownAgents(dir string, ext string, frontmatter func(ir.Agent) yaml.MapSlice) func([]ir.Agent) ([]File, error) {
	return func(agents []ir.Agent) ([]File, error) {
		var files []File
		for _, agent := range agents {
			content, err := withFrontmatter(frontmatter(agent), agent.Body)
			if err != nil {
				return nil, stacktrace.Propagate(err, "failed to render agent '%s'", agent.Name)
			}
			files = append(files, markedFile(dir+"/"+slug(agent.Name)+ext, content))
		}
		return files, nil
	}
}

// skillDirs writes each skill as <root>/<name>/SKILL.md with its supporting
// files as siblings under the same directory.
func skillDirs(root string) func([]ir.Skill) ([]File, error) {
	return func(skills []ir.Skill) ([]File, error) {
		var files []File
		for _, skill := range skills {
			dir := root + "/" + slug(skill.Name)
			fields := yaml.MapSlice{{Key: "name", Value: skill.Name}}
			if skill.Description != "" {
				fields = append(fields, yaml.MapItem{Key: "description", Value: skill.Description})
			}
			content, err := withFrontmatter(fields, skill.Body)
			if err != nil {
				return nil, stacktrace.Propagate(err, "failed to render skill '%s'", skill.Name)
			}
			files = append(files, markedFile(dir+"/SKILL.md", content))

			for _, rel := range sortedKeys(skill.Files) {
				clean := path.Clean(rel)
				if clean == "SKILL.md" || clean == ".." || strings.HasPrefix(clean, "../") || path.IsAbs(clean) {
					return nil, stacktrace.NewError("skill '%s' has an invalid supporting file path '%s'", skill.Name, rel)
				}
				// Supporting files are copied verbatim; scripts and data
				// files cannot carry a marker without changing behaviour.
				files = append(files, File{Path: dir + "/" + clean, Content: skill.Files[rel], Ownership: OwnershipFull})
			}
		}
		return files, nil
	}
}

func markedFile(path string, content string) File {
	return File{Path: path, Content: Mark(content, MarkerHTML), Ownership: OwnershipFull}
}

// marshalJSON renders v as indented JSON without HTML escaping.
func marshalJSON(v any) (string, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return "", stacktrace.Propagate(err, "failed to marshal JSON")
	}
	return buf.String(), nil
}

func commaJoined(values []string) string {
	return strings.Join(values, ",")
}
