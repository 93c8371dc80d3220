package writer

import (
	"path"
	"strings"

	"github.com/kurtosis-tech/stacktrace"
)

// mergePartial merges the owned fragment into an existing shared document.
// previous is the fragment written last time; its entries are removed first
// so repeated runs do not accumulate copies.
func mergePartial(filePath string, existing []byte, previous string, fragment string) ([]byte, error) {
	switch partialFormat(filePath) {
	case formatJSON:
		return mergeJSON(existing, previous, fragment)
	case formatYAML:
		return mergeYAML(existing, previous, fragment)
	default:
		return nil, stacktrace.NewError("no merge strategy for partially owned file '%s'", filePath)
	}
}

// stripPartial removes fragment from an existing shared document. empty
// reports that nothing else remains in it.
func stripPartial(filePath string, existing []byte, fragment string) (result []byte, empty bool, err error) {
	switch partialFormat(filePath) {
	case formatJSON:
		return stripJSON(existing, fragment)
	case formatYAML:
		return stripYAML(existing, fragment)
	default:
		return nil, false, stacktrace.NewError("no merge strategy for partially owned file '%s'", filePath)
	}
}

type documentFormat int

const (
	formatUnknown documentFormat = iota
	formatJSON
	formatYAML
)

func partialFormat(filePath string) documentFormat {
	switch strings.ToLower(path.Ext(filePath)) {
	case ".json", ".jsonc":
		return formatJSON
	case ".yml", ".yaml":
		return formatYAML
	default:
		return formatUnknown
	}
}
