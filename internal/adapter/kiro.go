package adapter

import (
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/odyssey/ruleforge/internal/hookcompiler"
	"github.com/odyssey/ruleforge/internal/ir"
)

var kiroHookTriggers = map[ir.HookEvent]string{
	ir.EventPostEdit:   "fileEdited",
	ir.EventPostCreate: "fileCreated",
	ir.EventPreCommit:  "agentStop",
}

type kiroHook struct {
	Generated   string   `json:"_generated"`
	Enabled     bool     `json:"enabled"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Version     string   `json:"version"`
	When        kiroWhen `json:"when"`
	Then        kiroThen `json:"then"`
}

type kiroWhen struct {
	Type     string   `json:"type"`
	Patterns []string `json:"patterns,omitempty"`
}

type kiroThen struct {
	Type   string `json:"type"`
	Prompt string `json:"prompt"`
}

// kiroHooks writes one .kiro.hook file per hook. Kiro hooks ask the agent to
// act rather than run a shell command, so the command becomes the prompt.
func kiroHooks(hooks []ir.Hook) ([]File, []string, error) {
	var files []File
	for i, hook := range hooks {
		name := hook.Description
		if name == "" {
			name = fmt.Sprintf("%s hook %d", hook.Event, i+1)
		}
		prompt := fmt.Sprintf("Run `%s`.", hook.Run)
		if strings.Contains(hook.Run, hookcompiler.FilePlaceholder) {
			prompt += " Replace " + hookcompiler.FilePlaceholder + " with the path of the file that triggered this hook."
		}
		h := kiroHook{
			Generated:   MarkerText,
			Enabled:     true,
			Name:        name,
			Description: hook.Description,
			Version:     "1",
			When:        kiroWhen{Type: kiroHookTriggers[hook.Event]},
			Then:        kiroThen{Type: "askAgent", Prompt: prompt},
		}
		if hook.Event != ir.EventPreCommit {
			pattern := hook.Match
			if pattern == "" {
				pattern = "**/*"
			}
			h.When.Patterns = []string{pattern}
		}
		content, err := marshalJSON(h)
		if err != nil {
			return nil, nil, err
		}
		path := fmt.Sprintf(".kiro/hooks/%02d-%s.kiro.hook", i+1, hook.Event)
		files = append(files, File{Path: path, Content: content, Ownership: OwnershipFull})
	}
	return files, nil, nil
}

func kiroRuleFrontmatter(rule ir.Rule) yaml.MapSlice {
	switch rule.Scope {
	case ir.ScopeGlob:
		return yaml.MapSlice{
			{Key: "inclusion", Value: "fileMatch"},
			{Key: "fileMatchPattern", Value: commaJoined(rule.Globs)},
		}
	case ir.ScopeManual:
		return yaml.MapSlice{{Key: "inclusion", Value: "manual"}}
	default:
		return yaml.MapSlice{{Key: "inclusion", Value: "always"}}
	}
}
