package cmd

import (
	"context"

	"github.com/kurtosis-tech/stacktrace"

	"github.com/odyssey/ruleforge/internal/adapter"
	"github.com/odyssey/ruleforge/internal/config"
	"github.com/odyssey/ruleforge/internal/ir"
	"github.com/odyssey/ruleforge/internal/source"
	"github.com/odyssey/ruleforge/internal/version"
	"github.com/odyssey/ruleforge/internal/writer"
)

// project is one loaded .ruleforge configuration. It is rebuilt from disk
// on every run so that watch mode picks up config.yml edits.
type project struct {
	dirpath  string
	cfg      *config.RuleforgeConfig
	registry *adapter.Registry
}

// loadProject reads config.yml and sets up the platform registry.
// Configuration errors are returned as-is and end the run.
func loadProject(dirpath string) (*project, error) {
	hasSource, err := config.HasSourceDir(dirpath)
	if err != nil {
		return nil, err
	}
	if !hasSource {
		return nil, stacktrace.NewError(
			"no %s directory in '%s'; create %s/%s/<name>.md to add a first rule",
			config.SourceDirname, dirpath, config.SourceDirname, config.RulesDirname,
		)
	}

	validTargets := adapter.DefaultRegistry(adapter.Options{}).Names()
	cfg, err := config.ReadRuleforgeConfig(dirpath, validTargets)
	if err != nil {
		return nil, err
	}

	for _, script := range cfg.MissingHookScripts(dirpath) {
		logger.Warn("hook script not found", "script", script, "dir", config.GetHooksDirpath(dirpath))
	}

	registry := adapter.DefaultRegistry(adapter.Options{
		HookStoragePath:   cfg.HookStorage,
		InstructionLimits: cfg.BudgetLimits(),
	})
	return &project{dirpath: dirpath, cfg: cfg, registry: registry}, nil
}

// buildIR reads the source tree and normalizes it for the resolved targets.
func (p *project) buildIR(requestedTargets []string) (ir.IR, error) {
	targets, err := p.cfg.ResolveTargets(requestedTargets, p.registry.Names())
	if err != nil {
		return ir.IR{}, err
	}

	src, err := source.Load(config.GetSourceDirpath(p.dirpath))
	if err != nil {
		return ir.IR{}, stacktrace.Propagate(err, "failed to load %s", config.SourceDirname)
	}
	src.Hooks = p.cfg.IRHooks()
	src.Targets = targets

	in := ir.Build(src)
	logger.Debug("built IR",
		"rules", len(in.Rules),
		"hooks", len(in.Hooks),
		"commands", len(in.Commands),
		"skills", len(in.Skills),
		"agents", len(in.Agents),
		"targets", len(in.Targets),
	)
	return in, nil
}

// generate runs every resolved target's adapter. Adapter failures are
// reported in the outcomes; the error is only set for configuration
// problems.
func (p *project) generate(ctx context.Context, requestedTargets []string) ([]adapter.Outcome, error) {
	in, err := p.buildIR(requestedTargets)
	if err != nil {
		return nil, err
	}
	adapters, err := p.registry.Resolve(in.Targets)
	if err != nil {
		return nil, err
	}
	return adapter.GenerateAll(ctx, adapters, in), nil
}

func (p *project) newWriter() *writer.Writer {
	return writer.New(p.cfg.GetOutputDirpath(p.dirpath), version.Version, writer.WithLogger(logger))
}

// buildResult is the outcome of one build: what each adapter produced and
// what the writer did with it.
type buildResult struct {
	outcomes []adapter.Outcome
	report   writer.Report
}

// failedTargets counts targets that failed to generate or to write.
func (r buildResult) failedTargets() int {
	failed := 0
	for _, o := range r.outcomes {
		if o.Err != nil {
			failed++
		}
	}
	return failed + len(r.report.Failed())
}

// build generates and persists every resolved target. With dryRun set the
// writer only plans.
func (p *project) build(ctx context.Context, requestedTargets []string, dryRun bool) (buildResult, error) {
	outcomes, err := p.generate(ctx, requestedTargets)
	if err != nil {
		return buildResult{}, err
	}

	var results []adapter.Result
	for _, o := range outcomes {
		if o.Err != nil {
			logger.Error("target generation failed", "target", o.Target, "error", o.Err)
			continue
		}
		results = append(results, o.Result)
	}

	w := p.newWriter()
	var report writer.Report
	if dryRun {
		report, err = w.Plan(ctx, results)
	} else {
		report, err = w.Write(ctx, results)
	}
	if err != nil {
		return buildResult{}, stacktrace.Propagate(err, "failed to write output to '%s'", w.Root())
	}
	return buildResult{outcomes: outcomes, report: report}, nil
}
