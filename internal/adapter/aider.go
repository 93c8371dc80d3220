package adapter

import (
	"github.com/goccy/go-yaml"
	"github.com/kurtosis-tech/stacktrace"
)

const (
	aiderConventionsPath = "CONVENTIONS.md"
	// AiderConfigPath is shared with the user; only its "read" entry for the
	// conventions file is owned.
	AiderConfigPath = ".aider.conf.yml"
)

// aiderExtras registers CONVENTIONS.md in .aider.conf.yml so aider loads it
// as read-only context.
func aiderExtras(files []File) ([]File, error) {
	found := false
	for _, f := range files {
		if f.Path == aiderConventionsPath {
			found = true
			break
		}
	}
	if !found {
		return nil, nil
	}
	data, err := yaml.Marshal(yaml.MapSlice{{Key: "read", Value: []string{aiderConventionsPath}}})
	if err != nil {
		return nil, stacktrace.Propagate(err, "failed to marshal aider config fragment")
	}
	return []File{{Path: AiderConfigPath, Content: string(data), Ownership: OwnershipPartial}}, nil
}
