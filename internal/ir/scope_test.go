package ir

import "testing"

func boolPtr(b bool) *bool { return &b }

func TestDetermineScope(t *testing.T) {
	tests := []struct {
		name string
		fm   Frontmatter
		want Scope
	}{
		{"no metadata defaults to always", Frontmatter{}, ScopeAlways},
		{"always true", Frontmatter{AlwaysApply: boolPtr(true)}, ScopeAlways},
		{"always true beats manual", Frontmatter{AlwaysApply: boolPtr(true), Manual: boolPtr(true)}, ScopeAlways},
		{"always true beats globs", Frontmatter{AlwaysApply: boolPtr(true), Globs: []string{"*.go"}}, ScopeAlways},
		{"manual true", Frontmatter{Manual: boolPtr(true)}, ScopeManual},
		{"manual true beats globs", Frontmatter{Manual: boolPtr(true), Globs: []string{"*.go"}}, ScopeManual},
		{"globs", Frontmatter{Globs: []string{"*.go"}}, ScopeGlob},
		{"globs beat description", Frontmatter{Globs: []string{"*.go"}, Description: "go files"}, ScopeGlob},
		{"blank globs ignored", Frontmatter{Globs: []string{"  "}}, ScopeAlways},
		{"description", Frontmatter{Description: "when writing SQL"}, ScopeDescription},
		{"description beats explicit false", Frontmatter{AlwaysApply: boolPtr(false), Description: "x"}, ScopeDescription},
		{"explicit false alone is manual", Frontmatter{AlwaysApply: boolPtr(false)}, ScopeManual},
		{"manual false alone is always", Frontmatter{Manual: boolPtr(false)}, ScopeAlways},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetermineScope(tt.fm); got != tt.want {
				t.Errorf("DetermineScope() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetermineScope_Exhaustive(t *testing.T) {
	tristate := []*bool{nil, boolPtr(true), boolPtr(false)}
	globOptions := [][]string{nil, {"src/**"}}
	descOptions := []string{"", "use for migrations"}

	for _, always := range tristate {
		for _, manual := range tristate {
			for _, globs := range globOptions {
				for _, desc := range descOptions {
					fm := Frontmatter{AlwaysApply: always, Manual: manual, Globs: globs, Description: desc}
					want := expectedScope(fm)
					if got := DetermineScope(fm); got != want {
						t.Errorf("DetermineScope(%+v) = %q, want %q", fm, got, want)
					}
				}
			}
		}
	}
}

// expectedScope restates the precedence chain independently of DetermineScope.
func expectedScope(fm Frontmatter) Scope {
	switch {
	case fm.AlwaysApply != nil && *fm.AlwaysApply:
		return ScopeAlways
	case fm.Manual != nil && *fm.Manual:
		return ScopeManual
	case len(fm.Globs) > 0:
		return ScopeGlob
	case fm.Description != "":
		return ScopeDescription
	case fm.AlwaysApply != nil:
		return ScopeManual
	default:
		return ScopeAlways
	}
}
