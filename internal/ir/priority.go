package ir

import (
	"slices"
	"strings"
)

var priorityRanks = map[Priority]int{
	PriorityCritical: 0,
	PriorityHigh:     1,
	PriorityNormal:   2,
	PriorityLow:      3,
}

// ParsePriority maps a frontmatter value to a Priority. Unrecognized or
// empty values become PriorityNormal.
func ParsePriority(value string) Priority {
	p := Priority(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := priorityRanks[p]; ok {
		return p
	}
	return PriorityNormal
}

// Rank returns the sort rank of p; lower sorts first.
func (p Priority) Rank() int {
	if rank, ok := priorityRanks[p]; ok {
		return rank
	}
	return priorityRanks[PriorityNormal]
}

// SortByPriority returns a copy of rules stably sorted by priority rank.
// Rules with equal priority keep their input order.
func SortByPriority(rules []Rule) []Rule {
	sorted := slices.Clone(rules)
	slices.SortStableFunc(sorted, func(a, b Rule) int {
		return a.Priority.Rank() - b.Priority.Rank()
	})
	return sorted
}
