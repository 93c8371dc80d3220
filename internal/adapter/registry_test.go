package adapter

import (
	"context"
	"strings"
	"testing"

	"github.com/odyssey/ruleforge/internal/ir"
)

type fakeAdapter struct {
	name     string
	generate func(ir.IR) (Result, error)
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Generate(in ir.IR) (Result, error) {
	return f.generate(in)
}

func TestRegistryUnknownTargetListsValidNames(t *testing.T) {
	r := NewRegistry(
		&fakeAdapter{name: "zeta"},
		&fakeAdapter{name: "alpha"},
	)
	_, err := r.Get("cursr")
	if err == nil {
		t.Fatal("expected an error for an unknown target")
	}
	if !strings.Contains(err.Error(), "unknown target 'cursr'; valid targets are: alpha, zeta") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRegistryResolve(t *testing.T) {
	r := DefaultRegistry(Options{})
	adapters, err := r.Resolve([]string{"kiro", "claude"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(adapters) != 2 || adapters[0].Name() != "kiro" || adapters[1].Name() != "claude" {
		t.Errorf("Resolve should keep the requested order")
	}
	if _, err := r.Resolve([]string{"claude", "vim"}); err == nil {
		t.Errorf("expected Resolve to fail on an unknown name")
	}
}

func TestGenerateAllIsolatesFailures(t *testing.T) {
	adapters := []Adapter{
		&fakeAdapter{name: "ok", generate: func(ir.IR) (Result, error) {
			return Result{Files: []File{{Path: "ok.md", Content: "x"}}}, nil
		}},
		&fakeAdapter{name: "panics", generate: func(ir.IR) (Result, error) {
			panic("boom")
		}},
		&fakeAdapter{name: "fails", generate: func(ir.IR) (Result, error) {
			return Result{}, context.DeadlineExceeded
		}},
	}
	outcomes := GenerateAll(context.Background(), adapters, ir.IR{})
	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}

	if outcomes[0].Err != nil || outcomes[0].Result.Target != "ok" || len(outcomes[0].Result.Files) != 1 {
		t.Errorf("healthy adapter outcome is wrong: %+v", outcomes[0])
	}
	if outcomes[1].Err == nil || !strings.Contains(outcomes[1].Err.Error(), "panicked: boom") {
		t.Errorf("panic should become an error, got %v", outcomes[1].Err)
	}
	if outcomes[2].Err != context.DeadlineExceeded {
		t.Errorf("adapter error should pass through, got %v", outcomes[2].Err)
	}
}

func TestGenerateAllMatchesSequentialRuns(t *testing.T) {
	reg := DefaultRegistry(Options{})
	adapters, err := reg.Resolve(reg.Names())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	for _, outcome := range GenerateAll(context.Background(), adapters, fixtureIR()) {
		if outcome.Err != nil {
			t.Fatalf("%s failed: %v", outcome.Target, outcome.Err)
		}
		a, _ := reg.Get(outcome.Target)
		want, _ := a.Generate(fixtureIR())
		if len(want.Files) != len(outcome.Result.Files) {
			t.Errorf("%s: concurrent run produced %d files, sequential %d", outcome.Target, len(outcome.Result.Files), len(want.Files))
		}
	}
}
