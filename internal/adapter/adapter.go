// Package adapter turns an IR into the file set of one target platform.
//
// Every platform is a row in a capability table (see platforms.go) rendered
// by a single engine. Behaviour that does not fit the table, such as the
// Claude hook compiler or the Windsurf size budget, is supplied as a
// strategy on the row.
package adapter

import "github.com/odyssey/ruleforge/internal/ir"

// Adapter generates one platform's artifacts. Generate must be pure: the
// same IR always yields the same Result, and nothing outside the argument is
// read or written.
type Adapter interface {
	Name() string
	Generate(in ir.IR) (Result, error)
}

// Ownership describes how the writer may treat a file already on disk.
type Ownership string

const (
	// OwnershipFull files carry the generated marker and may be replaced.
	OwnershipFull Ownership = "full"
	// OwnershipPartial files are shared documents; Content holds only the
	// keys this tool owns and is deep-merged into the existing document.
	OwnershipPartial Ownership = "partial"
)

// File is one generated artifact. Path is relative to the output root and
// always uses forward slashes.
type File struct {
	Path      string
	Content   string
	Ownership Ownership
}

// Feature tags a category of IR content in a Result.
type Feature string

const (
	FeatureAlwaysRules      Feature = "always-rules"
	FeatureGlobRules        Feature = "glob-rules"
	FeatureDescriptionRules Feature = "description-rules"
	FeatureManualRules      Feature = "manual-rules"
	FeatureHooks            Feature = "hooks"
	FeatureCommands         Feature = "commands"
	FeatureSkills           Feature = "skills"
	FeatureAgents           Feature = "agents"
)

// AllFeatures lists features in the order they appear in results.
var AllFeatures = []Feature{
	FeatureAlwaysRules,
	FeatureGlobRules,
	FeatureDescriptionRules,
	FeatureManualRules,
	FeatureHooks,
	FeatureCommands,
	FeatureSkills,
	FeatureAgents,
}

// RuleFeature returns the feature tag for rules of the given scope.
func RuleFeature(scope ir.Scope) Feature {
	return Feature(string(scope) + "-rules")
}

// Result is the output of one adapter run.
type Result struct {
	Target           string
	Files            []File
	Warnings         []string
	NativeFeatures   []Feature
	DegradedFeatures []Feature
	// ManagedDirs are directories where this target owns every file that
	// carries the generated marker. Stale generated files there are removed.
	ManagedDirs []string
}

// HasFeature reports whether f is tagged native or degraded.
func (r Result) HasFeature(f Feature) bool {
	for _, tagged := range r.NativeFeatures {
		if tagged == f {
			return true
		}
	}
	for _, tagged := range r.DegradedFeatures {
		if tagged == f {
			return true
		}
	}
	return false
}

// File returns the generated file at path.
func (r Result) File(path string) (File, bool) {
	for _, f := range r.Files {
		if f.Path == path {
			return f, true
		}
	}
	return File{}, false
}
