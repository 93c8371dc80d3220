package adapter

import (
	"context"

	"github.com/kurtosis-tech/stacktrace"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey/ruleforge/internal/ir"
)

// Outcome is the result of one target's generation. Err is set when the
// adapter failed; other targets are unaffected.
type Outcome struct {
	Target string
	Result Result
	Err    error
}

// GenerateAll runs every adapter against in concurrently. Outcomes are
// returned in the order of adapters. A failing or panicking adapter only
// fails its own outcome.
func GenerateAll(ctx context.Context, adapters []Adapter, in ir.IR) []Outcome {
	outcomes := make([]Outcome, len(adapters))
	group, _ := errgroup.WithContext(ctx)
	for i, a := range adapters {
		group.Go(func() error {
			outcomes[i] = generateOne(a, in)
			return nil
		})
	}
	_ = group.Wait()
	return outcomes
}

func generateOne(a Adapter, in ir.IR) (outcome Outcome) {
	outcome.Target = a.Name()
	defer func() {
		if r := recover(); r != nil {
			outcome.Err = stacktrace.NewError("adapter '%s' panicked: %v", a.Name(), r)
		}
	}()
	result, err := a.Generate(in)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	if result.Target == "" {
		result.Target = a.Name()
	}
	outcome.Result = result
	return outcome
}
