// Package ir defines the platform-agnostic intermediate representation that
// sits between the source loader and the per-platform adapters.
package ir

// Scope is a rule's activation mode.
type Scope string

const (
	ScopeAlways      Scope = "always"
	ScopeGlob        Scope = "glob"
	ScopeDescription Scope = "description"
	ScopeManual      Scope = "manual"
)

// AllScopes lists scopes in rendering order.
var AllScopes = []Scope{ScopeAlways, ScopeGlob, ScopeDescription, ScopeManual}

// Priority orders rules for size-constrained targets.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityNormal   Priority = "normal"
	PriorityLow      Priority = "low"
)

// HookEvent is an abstract lifecycle event.
type HookEvent string

const (
	EventPostEdit   HookEvent = "post-edit"
	EventPostCreate HookEvent = "post-create"
	EventPreCommit  HookEvent = "pre-commit"
)

// AllHookEvents lists every recognized hook event.
var AllHookEvents = []HookEvent{EventPostEdit, EventPostCreate, EventPreCommit}

// IsValid reports whether e is a recognized event.
func (e HookEvent) IsValid() bool {
	for _, known := range AllHookEvents {
		if e == known {
			return true
		}
	}
	return false
}

// Rule is a normalized instruction block.
type Rule struct {
	Name        string
	Scope       Scope
	Body        string
	Globs       []string
	Description string
	Priority    Priority
	Source      string
}

// Hook is an abstract lifecycle hook. Run may contain a {file} placeholder.
type Hook struct {
	Event       HookEvent
	Match       string
	Run         string
	Description string
}

// Command is a reusable prompt invoked by name.
type Command struct {
	Name        string
	Description string
	Body        string
	Aliases     []string
	Source      string
}

// Skill is a multi-file capability. Files maps forward-slash relative paths
// to content and never contains the primary SKILL.md body.
type Skill struct {
	Name        string
	Description string
	Body        string
	Files       map[string]string
	Source      string
}

// Agent is a sub-agent definition.
type Agent struct {
	Name        string
	Description string
	Body        string
	Model       string
	Tools       []string
	Source      string
}

// IR is the full normalized input handed to every adapter. Rules are
// priority-sorted. Values are never mutated after Build returns.
type IR struct {
	Rules    []Rule
	Hooks    []Hook
	Commands []Command
	Skills   []Skill
	Agents   []Agent
	Targets  []string
}

// RulesWithScope returns the rules in r with the given scope, preserving order.
func (r IR) RulesWithScope(scope Scope) []Rule {
	var result []Rule
	for _, rule := range r.Rules {
		if rule.Scope == scope {
			result = append(result, rule)
		}
	}
	return result
}
