package adapter

import (
	"github.com/goccy/go-yaml"
	"github.com/kurtosis-tech/stacktrace"

	"github.com/odyssey/ruleforge/internal/ir"
)

// RooModesPath holds every agent as a Roo custom mode.
const RooModesPath = ".roomodes"

var rooToolGroups = map[string]string{
	"Read":      "read",
	"Grep":      "read",
	"Glob":      "read",
	"LS":        "read",
	"Edit":      "edit",
	"Write":     "edit",
	"MultiEdit": "edit",
	"Bash":      "command",
	"WebFetch":  "browser",
	"WebSearch": "browser",
}

var rooDefaultGroups = []string{"read", "edit", "browser", "command", "mcp"}

type rooMode struct {
	Slug           string   `yaml:"slug"`
	Name           string   `yaml:"name"`
	RoleDefinition string   `yaml:"roleDefinition"`
	WhenToUse      string   `yaml:"whenToUse,omitempty"`
	Groups         []string `yaml:"groups"`
}

func rooGroups(tools []string) []string {
	if len(tools) == 0 {
		return rooDefaultGroups
	}
	seen := map[string]bool{}
	var groups []string
	for _, tool := range tools {
		group, ok := rooToolGroups[tool]
		if !ok || seen[group] {
			continue
		}
		seen[group] = true
		groups = append(groups, group)
	}
	if len(groups) == 0 {
		return []string{"read"}
	}
	return groups
}

func rooModes(agents []ir.Agent) ([]File, error) {
	modes := make([]rooMode, 0, len(agents))
	for _, agent := range agents {
		modes = append(modes, rooMode{
			Slug:           slug(agent.Name),
			Name:           agent.Name,
			RoleDefinition: agent.Body,
			WhenToUse:      agent.Description,
			Groups:         rooGroups(agent.Tools),
		})
	}
	data, err := yaml.Marshal(map[string]any{"customModes": modes})
	if err != nil {
		return nil, stacktrace.Propagate(err, "failed to marshal Roo custom modes")
	}
	return []File{{Path: RooModesPath, Content: Mark(string(data), MarkerHash), Ownership: OwnershipFull}}, nil
}

func rooCommandFrontmatter(cmd ir.Command) yaml.MapSlice {
	if cmd.Description == "" {
		return nil
	}
	return yaml.MapSlice{{Key: "description", Value: cmd.Description}}
}
