// Package budget selects rule blocks for targets that cap the size of their
// instruction files. Selection is greedy in priority order; it does not try
// to find an optimal packing.
package budget

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/odyssey/ruleforge/internal/ir"
)

const (
	// DefaultTotalLimit caps the combined size of every emitted block.
	DefaultTotalLimit = 12000
	// DefaultItemLimit caps a single block; larger blocks are still emitted.
	DefaultItemLimit = 6000

	// Separator joins consecutive blocks and counts against the total.
	Separator = "\n\n"
)

// Limits are character budgets counted in runes.
type Limits struct {
	Total   int
	PerItem int
}

// DefaultLimits returns the 12,000 / 6,000 character limits.
func DefaultLimits() Limits {
	return Limits{Total: DefaultTotalLimit, PerItem: DefaultItemLimit}
}

// Item is one fully rendered rule block.
type Item struct {
	Name     string
	Priority ir.Priority
	Content  string
}

// Allocation is the outcome of Allocate.
type Allocation struct {
	Included []Item
	Dropped  []Item
	// Trailer is the aggregate block, empty when none was supplied.
	Trailer  string
	Total    int
	Warnings []string
}

// Content joins the included blocks and the trailer.
func (a Allocation) Content() string {
	parts := make([]string, 0, len(a.Included)+1)
	for _, item := range a.Included {
		parts = append(parts, item.Content)
	}
	if a.Trailer != "" {
		parts = append(parts, a.Trailer)
	}
	return strings.Join(parts, Separator)
}

// Size returns the rune count of s.
func Size(s string) int {
	return utf8.RuneCountInString(s)
}

// Allocate walks items in priority order (stable) and keeps each one that
// fits in the remaining total budget. An item larger than the per-item limit
// is kept with a warning. An item that would push the running total past the
// limit is dropped with a warning naming it. The trailer is added last and is
// always kept, with a warning when it overflows.
func Allocate(items []Item, trailer string, limits Limits) Allocation {
	ordered := slices.Clone(items)
	slices.SortStableFunc(ordered, func(a, b Item) int {
		return a.Priority.Rank() - b.Priority.Rank()
	})

	var alloc Allocation
	for _, item := range ordered {
		size := Size(item.Content)
		if limits.PerItem > 0 && size > limits.PerItem {
			alloc.Warnings = append(alloc.Warnings, fmt.Sprintf(
				"rule '%s' is %d characters, over the %d character per-rule limit; the target may truncate it",
				item.Name, size, limits.PerItem,
			))
		}

		cost := size
		if len(alloc.Included) > 0 {
			cost += Size(Separator)
		}
		if limits.Total > 0 && alloc.Total+cost > limits.Total {
			alloc.Dropped = append(alloc.Dropped, item)
			alloc.Warnings = append(alloc.Warnings, fmt.Sprintf(
				"rule '%s' (priority %s) dropped: adding %d characters would exceed the %d character total limit (%d used)",
				item.Name, item.Priority, size, limits.Total, alloc.Total,
			))
			continue
		}

		alloc.Included = append(alloc.Included, item)
		alloc.Total += cost
	}

	if trailer != "" {
		cost := Size(trailer)
		if len(alloc.Included) > 0 {
			cost += Size(Separator)
		}
		if limits.Total > 0 && alloc.Total+cost > limits.Total {
			alloc.Warnings = append(alloc.Warnings, fmt.Sprintf(
				"hooks and skills section (%d characters) exceeds the %d character total limit; emitted anyway",
				Size(trailer), limits.Total,
			))
		}
		alloc.Trailer = trailer
		alloc.Total += cost
	}

	return alloc
}
