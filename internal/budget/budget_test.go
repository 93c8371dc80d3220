package budget

import (
	"strings"
	"testing"

	"github.com/odyssey/ruleforge/internal/ir"
)

func TestAllocate_DropsLowestPriorityOnOverflow(t *testing.T) {
	items := []Item{
		{Name: "low-rule", Priority: ir.PriorityLow, Content: strings.Repeat("l", 5000)},
		{Name: "high-rule", Priority: ir.PriorityHigh, Content: strings.Repeat("h", 5000)},
		{Name: "normal-rule", Priority: ir.PriorityNormal, Content: strings.Repeat("n", 5000)},
	}

	alloc := Allocate(items, "", DefaultLimits())

	if len(alloc.Included) != 2 {
		t.Fatalf("expected 2 included rules, got %d", len(alloc.Included))
	}
	if alloc.Included[0].Name != "high-rule" || alloc.Included[1].Name != "normal-rule" {
		t.Errorf("unexpected inclusion order: %s, %s", alloc.Included[0].Name, alloc.Included[1].Name)
	}
	if len(alloc.Dropped) != 1 || alloc.Dropped[0].Name != "low-rule" {
		t.Fatalf("expected low-rule dropped, got %+v", alloc.Dropped)
	}
	if len(alloc.Warnings) != 1 {
		t.Fatalf("expected exactly one warning, got %v", alloc.Warnings)
	}
	if !strings.Contains(alloc.Warnings[0], "low-rule") || !strings.Contains(alloc.Warnings[0], "low") {
		t.Errorf("expected warning naming the dropped rule and priority, got %q", alloc.Warnings[0])
	}
	if alloc.Total != 10002 {
		t.Errorf("expected running total 10002, got %d", alloc.Total)
	}
}

func TestAllocate_OversizedItemStillIncluded(t *testing.T) {
	items := []Item{{Name: "huge", Priority: ir.PriorityNormal, Content: strings.Repeat("x", 6100)}}

	alloc := Allocate(items, "", DefaultLimits())

	if len(alloc.Included) != 1 {
		t.Fatalf("expected oversized rule to be included, got %d", len(alloc.Included))
	}
	if len(alloc.Warnings) != 1 || !strings.Contains(alloc.Warnings[0], "per-rule limit") {
		t.Errorf("expected per-item warning, got %v", alloc.Warnings)
	}
}

func TestAllocate_TiesPreserveInputOrder(t *testing.T) {
	items := []Item{
		{Name: "first", Priority: ir.PriorityNormal, Content: "a"},
		{Name: "second", Priority: ir.PriorityNormal, Content: "b"},
		{Name: "third", Priority: ir.PriorityNormal, Content: "c"},
	}
	alloc := Allocate(items, "", DefaultLimits())
	if got := alloc.Content(); got != "a\n\nb\n\nc" {
		t.Errorf("unexpected content %q", got)
	}
}

func TestAllocate_LaterSmallItemStillFits(t *testing.T) {
	items := []Item{
		{Name: "big", Priority: ir.PriorityHigh, Content: strings.Repeat("b", 9000)},
		{Name: "too-big", Priority: ir.PriorityNormal, Content: strings.Repeat("t", 4000)},
		{Name: "small", Priority: ir.PriorityLow, Content: strings.Repeat("s", 100)},
	}
	alloc := Allocate(items, "", DefaultLimits())
	if len(alloc.Included) != 2 || alloc.Included[1].Name != "small" {
		t.Errorf("expected greedy pass to keep the small rule, got %+v", alloc.Included)
	}
}

func TestAllocate_TrailerEmittedOnOverflow(t *testing.T) {
	items := []Item{{Name: "rule", Priority: ir.PriorityNormal, Content: strings.Repeat("r", 90)}}
	alloc := Allocate(items, strings.Repeat("t", 50), Limits{Total: 100, PerItem: 100})

	if alloc.Trailer == "" {
		t.Fatal("expected trailer to be emitted despite overflow")
	}
	if len(alloc.Warnings) != 1 || !strings.Contains(alloc.Warnings[0], "emitted anyway") {
		t.Errorf("expected overflow warning for trailer, got %v", alloc.Warnings)
	}
	if !strings.HasSuffix(alloc.Content(), "\n\n"+strings.Repeat("t", 50)) {
		t.Error("expected trailer at the end of the content")
	}
}

func TestAllocate_CountsRunes(t *testing.T) {
	items := []Item{{Name: "unicode", Priority: ir.PriorityNormal, Content: strings.Repeat("é", 6000)}}
	alloc := Allocate(items, "", DefaultLimits())
	if len(alloc.Warnings) != 0 {
		t.Errorf("expected 6000 runes to fit the per-item limit, got %v", alloc.Warnings)
	}
}
