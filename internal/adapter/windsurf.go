package adapter

import (
	"strings"

	"github.com/odyssey/ruleforge/internal/budget"
)

// BudgetAssembler returns an Assembler that keeps rule blocks within limits
// and appends every auxiliary block as one trailing aggregate.
func BudgetAssembler(limits budget.Limits) Assembler {
	return func(rules []Block, aux []Block) (string, []string) {
		items := make([]budget.Item, 0, len(rules))
		for _, b := range rules {
			items = append(items, budget.Item{Name: b.Name, Priority: b.Priority, Content: b.Content})
		}
		trailerParts := make([]string, 0, len(aux))
		for _, b := range aux {
			trailerParts = append(trailerParts, b.Content)
		}
		alloc := budget.Allocate(items, strings.Join(trailerParts, budget.Separator), limits)
		return alloc.Content(), alloc.Warnings
	}
}
