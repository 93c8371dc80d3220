package ir

import "testing"

func TestBuild(t *testing.T) {
	src := Source{
		Rules: []SourceRule{
			{Name: "style", Body: "\n\nUse gofmt.\n\n", Source: "rules/style.md"},
			{Name: "sql", Frontmatter: Frontmatter{Globs: []string{"**/*.sql"}, Priority: "critical"}, Body: "Use CTEs."},
			{Name: "stem", Frontmatter: Frontmatter{Name: "renamed", Description: "db work", Globs: nil}, Body: "x"},
		},
		Commands: []SourceCommand{
			{Name: "review", Frontmatter: Frontmatter{Description: " Review code ", Aliases: []string{"rv", ""}}, Body: "Review."},
		},
		Skills: []SourceSkill{
			{Name: "pdf", Description: "PDF tools", Body: "Body", Files: map[string]string{"scripts/Fill.py": "print()"}},
		},
		Agents: []SourceAgent{
			{Name: "reviewer", Frontmatter: Frontmatter{Model: "sonnet", Tools: []string{"Read", "Grep"}}, Body: "You review."},
		},
		Hooks:   []Hook{{Event: EventPostEdit, Run: "gofmt -w {file}"}},
		Targets: []string{"claude"},
	}

	result := Build(src)

	t.Run("rules sorted with critical first", func(t *testing.T) {
		if len(result.Rules) != 3 {
			t.Fatalf("expected 3 rules, got %d", len(result.Rules))
		}
		if result.Rules[0].Name != "sql" {
			t.Errorf("expected critical rule first, got %q", result.Rules[0].Name)
		}
		if result.Rules[0].Scope != ScopeGlob {
			t.Errorf("expected glob scope, got %q", result.Rules[0].Scope)
		}
	})

	t.Run("body trimmed and name overridden", func(t *testing.T) {
		style := findRule(t, result, "style")
		if style.Body != "Use gofmt." {
			t.Errorf("expected trimmed body, got %q", style.Body)
		}
		if style.Priority != PriorityNormal {
			t.Errorf("expected default priority normal, got %q", style.Priority)
		}
		renamed := findRule(t, result, "renamed")
		if renamed.Scope != ScopeDescription {
			t.Errorf("expected description scope, got %q", renamed.Scope)
		}
	})

	t.Run("command aliases cleaned", func(t *testing.T) {
		cmd := result.Commands[0]
		if cmd.Description != "Review code" {
			t.Errorf("expected trimmed description, got %q", cmd.Description)
		}
		if len(cmd.Aliases) != 1 || cmd.Aliases[0] != "rv" {
			t.Errorf("expected aliases [rv], got %v", cmd.Aliases)
		}
	})

	t.Run("skill files copied", func(t *testing.T) {
		src.Skills[0].Files["scripts/Fill.py"] = "mutated"
		if result.Skills[0].Files["scripts/Fill.py"] != "print()" {
			t.Error("expected IR skill files to be independent of the source map")
		}
	})

	t.Run("agent fields", func(t *testing.T) {
		agent := result.Agents[0]
		if agent.Model != "sonnet" || len(agent.Tools) != 2 {
			t.Errorf("unexpected agent: %+v", agent)
		}
	})
}

func findRule(t *testing.T, result IR, name string) Rule {
	t.Helper()
	for _, r := range result.Rules {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("rule %q not found", name)
	return Rule{}
}
