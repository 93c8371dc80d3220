// Package hookcompiler turns abstract lifecycle hooks into Claude Code
// settings.json hook entries: a trigger event, a tool matcher, and a shell
// command that receives the edited file path as a positional parameter.
package hookcompiler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/kurtosis-tech/stacktrace"

	"github.com/odyssey/ruleforge/internal/globregex"
	"github.com/odyssey/ruleforge/internal/ir"
)

const (
	// FilePlaceholder is replaced by the positional parameter holding the
	// edited file's path.
	FilePlaceholder = "{file}"

	// DefaultStoragePath is where hook scripts referenced as hooks/<name>
	// live once installed.
	DefaultStoragePath = `"$CLAUDE_PROJECT_DIR"/.ruleforge/hooks/`

	boundPathParam = `"$1"`

	// payloadQuery extracts the edited file's path from the hook payload
	// that Claude Code writes to stdin.
	payloadQuery = `jq -r '.tool_input.file_path // empty'`
)

// Trigger is a native hook event and tool matcher.
type Trigger struct {
	Event   string
	Matcher string
}

var triggers = map[ir.HookEvent]Trigger{
	ir.EventPostEdit:   {Event: "PostToolUse", Matcher: "Edit|Write|MultiEdit"},
	ir.EventPostCreate: {Event: "PostToolUse", Matcher: "Write"},
	ir.EventPreCommit:  {Event: "Notification", Matcher: "Stop"},
}

// pathlessEvents fire without a tool payload, so there is no file path for
// {file} or match to bind.
var pathlessEvents = map[ir.HookEvent]bool{
	ir.EventPreCommit: true,
}

// TriggerFor returns the native trigger for event.
func TriggerFor(event ir.HookEvent) (Trigger, error) {
	trigger, ok := triggers[event]
	if !ok {
		return Trigger{}, stacktrace.NewError("unknown hook event '%s'", event)
	}
	return trigger, nil
}

// CompiledHook is one hook ready to be placed in settings.json.
type CompiledHook struct {
	Trigger
	Command string
}

// Compiler holds the settings shared by every compiled hook.
type Compiler struct {
	storagePath string
}

// New returns a Compiler that rewrites hooks/ references to storagePath.
// An empty storagePath uses DefaultStoragePath.
func New(storagePath string) *Compiler {
	if storagePath == "" {
		storagePath = DefaultStoragePath
	}
	if !strings.HasSuffix(storagePath, "/") {
		storagePath += "/"
	}
	return &Compiler{storagePath: storagePath}
}

// hookPrefixRegex matches a hooks/ or ./hooks/ path at the start of a shell
// word.
var hookPrefixRegex = regexp.MustCompile(`(^|[\s;&|(])(\./)?hooks/`)

// Compile translates one hook.
func (c *Compiler) Compile(hook ir.Hook) (CompiledHook, error) {
	trigger, err := TriggerFor(hook.Event)
	if err != nil {
		return CompiledHook{}, err
	}
	run := strings.TrimSpace(hook.Run)
	if run == "" {
		return CompiledHook{}, stacktrace.NewError("hook for event '%s' has an empty run command", hook.Event)
	}

	run = c.resolveStoragePrefix(run)

	hasPlaceholder := strings.Contains(run, FilePlaceholder)
	hasMatch := strings.TrimSpace(hook.Match) != ""

	if !hasPlaceholder && !hasMatch {
		return CompiledHook{Trigger: trigger, Command: run}, nil
	}

	body := strings.ReplaceAll(run, FilePlaceholder, boundPathParam)
	if hasMatch {
		body = guard(hook.Match) + " && " + body
	}

	return CompiledHook{Trigger: trigger, Command: bindPath(body)}, nil
}

func (c *Compiler) resolveStoragePrefix(run string) string {
	return hookPrefixRegex.ReplaceAllString(run, "${1}"+escapeReplacement(c.storagePath))
}

// guard builds a test that succeeds only when the bound path matches glob.
func guard(glob string) string {
	return `echo ` + boundPathParam + ` | grep -qE "` + globregex.CompileAnchored(strings.TrimSpace(glob)) + `"`
}

// bindPath pipes the payload's file path into body as $1, one invocation per
// line.
func bindPath(body string) string {
	return payloadQuery + ` | while IFS= read -r file_path; do sh -c ` + singleQuote(body) + ` _ "$file_path"; done`
}

func singleQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func escapeReplacement(s string) string {
	return strings.ReplaceAll(s, "$", "$$")
}

// settingsHook mirrors one entry inside a matcher group's "hooks" array.
type settingsHook struct {
	Type    string `json:"type"`
	Command string `json:"command"`
}

type matcherGroup struct {
	Matcher string         `json:"matcher"`
	Hooks   []settingsHook `json:"hooks"`
}

// PathWarnings reports hooks that use {file} or match on an event with no
// file path. Their command is guarded on a path that is always empty, so it
// never runs.
func PathWarnings(hooks []ir.Hook) []string {
	var warnings []string
	for i, hook := range hooks {
		if !pathlessEvents[hook.Event] {
			continue
		}
		var uses []string
		if strings.Contains(hook.Run, FilePlaceholder) {
			uses = append(uses, FilePlaceholder)
		}
		if strings.TrimSpace(hook.Match) != "" {
			uses = append(uses, "match")
		}
		if len(uses) > 0 {
			warnings = append(warnings, fmt.Sprintf(
				"hook #%d (%s) uses %s but %s hooks receive no file path; it will never run",
				i+1, hook.Event, strings.Join(uses, " and "), hook.Event,
			))
		}
	}
	return warnings
}

// CompileAll compiles hooks and groups them into the value of the
// settings.json "hooks" key: event → [{matcher, hooks:[...]}]. Hooks sharing
// an event and matcher land in the same group, in source order.
func (c *Compiler) CompileAll(hooks []ir.Hook) (json.RawMessage, error) {
	groups := map[string][]matcherGroup{}
	for i, hook := range hooks {
		compiled, err := c.Compile(hook)
		if err != nil {
			return nil, stacktrace.Propagate(err, "failed to compile hook #%d", i+1)
		}
		eventGroups := groups[compiled.Event]
		idx := -1
		for j, g := range eventGroups {
			if g.Matcher == compiled.Matcher {
				idx = j
				break
			}
		}
		entry := settingsHook{Type: "command", Command: compiled.Command}
		if idx < 0 {
			eventGroups = append(eventGroups, matcherGroup{Matcher: compiled.Matcher, Hooks: []settingsHook{entry}})
		} else {
			eventGroups[idx].Hooks = append(eventGroups[idx].Hooks, entry)
		}
		groups[compiled.Event] = eventGroups
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(groups); err != nil {
		return nil, stacktrace.Propagate(err, "failed to marshal compiled hooks")
	}
	return json.RawMessage(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
