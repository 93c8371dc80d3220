package ir

import "strings"

// Frontmatter is the normalized structured header of a rule, command or
// agent file. Pointer booleans distinguish "absent" from "explicitly false".
type Frontmatter struct {
	Name        string
	Globs       []string
	AlwaysApply *bool
	Manual      *bool
	Description string
	Priority    string
	Aliases     []string
	Model       string
	Tools       []string
}

// DetermineScope resolves a rule's activation scope. First match wins:
//
//  1. alwaysApply: true        → always
//  2. manual: true             → manual
//  3. non-empty globs          → glob
//  4. non-empty description    → description
//  5. alwaysApply: false       → manual
//  6. nothing set              → always
func DetermineScope(fm Frontmatter) Scope {
	if fm.AlwaysApply != nil && *fm.AlwaysApply {
		return ScopeAlways
	}
	if fm.Manual != nil && *fm.Manual {
		return ScopeManual
	}
	if len(nonEmpty(fm.Globs)) > 0 {
		return ScopeGlob
	}
	if strings.TrimSpace(fm.Description) != "" {
		return ScopeDescription
	}
	if fm.AlwaysApply != nil && !*fm.AlwaysApply {
		return ScopeManual
	}
	return ScopeAlways
}

// nonEmpty returns the trimmed, non-blank entries of values.
func nonEmpty(values []string) []string {
	var result []string
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
