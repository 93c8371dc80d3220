package config

import (
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/kurtosis-tech/stacktrace"

	"github.com/odyssey/ruleforge/internal/budget"
	"github.com/odyssey/ruleforge/internal/ir"
)

// HookConfig is one hook entry in config.yml.
type HookConfig struct {
	Event       string `yaml:"event"`
	Match       string `yaml:"match,omitempty"`
	Run         string `yaml:"run"`
	Description string `yaml:"description,omitempty"`
}

// BudgetConfig overrides the instruction size limits of size-constrained
// targets. Zero fields keep the defaults.
type BudgetConfig struct {
	Total   int `yaml:"total,omitempty"`
	PerRule int `yaml:"perRule,omitempty"`
}

// RuleforgeConfig represents the contents of .ruleforge/config.yml.
type RuleforgeConfig struct {
	Targets []string     `yaml:"targets,omitempty"`
	Hooks   []HookConfig `yaml:"hooks,omitempty"`
	// OutputDir is relative to the project root. Empty means the root.
	OutputDir string `yaml:"outputDir,omitempty"`
	// HookStorage replaces the hooks/ prefix in compiled hook commands.
	HookStorage string        `yaml:"hookStorage,omitempty"`
	Budget      *BudgetConfig `yaml:"budget,omitempty"`
}

// ReadRuleforgeConfig reads and validates config.yml. A missing file yields
// an empty config. validTargets lists the names a target may take.
func ReadRuleforgeConfig(projectDirpath string, validTargets []string) (*RuleforgeConfig, error) {
	configFilepath := GetConfigFilepath(projectDirpath)

	data, err := os.ReadFile(configFilepath)
	if err != nil {
		if os.IsNotExist(err) {
			return &RuleforgeConfig{}, nil
		}
		return nil, stacktrace.Propagate(err, "failed to read config file '%s'", configFilepath)
	}

	var cfg RuleforgeConfig
	if err := yaml.UnmarshalWithOptions(data, &cfg, yaml.DisallowUnknownField()); err != nil {
		return nil, stacktrace.Propagate(err, "failed to parse config file '%s'", configFilepath)
	}
	if err := cfg.Validate(validTargets); err != nil {
		return nil, stacktrace.Propagate(err, "invalid config file '%s'", configFilepath)
	}
	return &cfg, nil
}

// Validate checks targets, hooks, outputDir and budget.
func (c *RuleforgeConfig) Validate(validTargets []string) error {
	seen := make(map[string]bool, len(c.Targets))
	for _, target := range c.Targets {
		if err := ValidateTargetName(target, validTargets); err != nil {
			return err
		}
		if seen[target] {
			return stacktrace.NewError("target '%s' is listed more than once", target)
		}
		seen[target] = true
	}

	for i, hook := range c.Hooks {
		if !ir.HookEvent(hook.Event).IsValid() {
			names := make([]string, 0, len(ir.AllHookEvents))
			for _, e := range ir.AllHookEvents {
				names = append(names, string(e))
			}
			return stacktrace.NewError(
				"hook %d has unknown event '%s'; valid events are: %s",
				i+1, hook.Event, strings.Join(names, ", "),
			)
		}
		if strings.TrimSpace(hook.Run) == "" {
			return stacktrace.NewError("hook %d (%s) must have a run command", i+1, hook.Event)
		}
	}

	if c.OutputDir != "" {
		clean := filepath.ToSlash(filepath.Clean(c.OutputDir))
		if filepath.IsAbs(c.OutputDir) || clean == ".." || strings.HasPrefix(clean, "../") {
			return stacktrace.NewError("outputDir '%s' must be a path inside the project", c.OutputDir)
		}
	}

	if c.Budget != nil && (c.Budget.Total < 0 || c.Budget.PerRule < 0) {
		return stacktrace.NewError("budget limits must not be negative")
	}
	return nil
}

// ValidateTargetName returns an error listing validTargets when name is not
// one of them.
func ValidateTargetName(name string, validTargets []string) error {
	if slices.Contains(validTargets, name) {
		return nil
	}
	return stacktrace.NewError(
		"unknown target '%s'; valid targets are: %s",
		name, strings.Join(validTargets, ", "),
	)
}

// IRHooks converts the configured hooks to IR hooks.
func (c *RuleforgeConfig) IRHooks() []ir.Hook {
	hooks := make([]ir.Hook, 0, len(c.Hooks))
	for _, h := range c.Hooks {
		hooks = append(hooks, ir.Hook{
			Event:       ir.HookEvent(h.Event),
			Match:       strings.TrimSpace(h.Match),
			Run:         strings.TrimSpace(h.Run),
			Description: strings.TrimSpace(h.Description),
		})
	}
	return hooks
}

// GetOutputDirpath returns the absolute directory generated files go to.
func (c *RuleforgeConfig) GetOutputDirpath(projectDirpath string) string {
	if c.OutputDir == "" {
		return projectDirpath
	}
	return filepath.Join(projectDirpath, filepath.FromSlash(c.OutputDir))
}

// ResolveTargets picks the targets for a run: requested when non-empty,
// then the configured targets, then every valid target.
func (c *RuleforgeConfig) ResolveTargets(requested []string, validTargets []string) ([]string, error) {
	switch {
	case len(requested) > 0:
		for _, name := range requested {
			if err := ValidateTargetName(name, validTargets); err != nil {
				return nil, err
			}
		}
		var targets []string
		for _, name := range requested {
			if !slices.Contains(targets, name) {
				targets = append(targets, name)
			}
		}
		return targets, nil
	case len(c.Targets) > 0:
		return slices.Clone(c.Targets), nil
	default:
		return slices.Clone(validTargets), nil
	}
}

// hookScriptRegex matches a hooks/<script> reference at the start of a shell
// word in a run command.
var hookScriptRegex = regexp.MustCompile(`(?:^|[\s;&|(])(?:\./)?hooks/([^\s;&|)'"]+)`)

// MissingHookScripts returns the hooks/<script> references in run commands
// that have no file under .ruleforge/hooks. Each missing script is listed
// once, in order of first reference.
func (c *RuleforgeConfig) MissingHookScripts(projectDirpath string) []string {
	hooksDirpath := GetHooksDirpath(projectDirpath)
	var missing []string
	for _, hook := range c.Hooks {
		for _, match := range hookScriptRegex.FindAllStringSubmatch(hook.Run, -1) {
			script := match[1]
			if slices.Contains(missing, script) {
				continue
			}
			if _, err := os.Stat(filepath.Join(hooksDirpath, filepath.FromSlash(script))); os.IsNotExist(err) {
				missing = append(missing, script)
			}
		}
	}
	return missing
}

// BudgetLimits returns the instruction-file limits, with unset values taken
// from budget.DefaultLimits.
func (c *RuleforgeConfig) BudgetLimits() budget.Limits {
	limits := budget.DefaultLimits()
	if c.Budget == nil {
		return limits
	}
	if c.Budget.Total > 0 {
		limits.Total = c.Budget.Total
	}
	if c.Budget.PerRule > 0 {
		limits.PerItem = c.Budget.PerRule
	}
	return limits
}
