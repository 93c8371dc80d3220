package writer

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kurtosis-tech/stacktrace"
	"golang.org/x/mod/semver"

	"github.com/odyssey/ruleforge/internal/adapter"
)

const (
	// StateDirname holds the manifest and backups under the output root.
	StateDirname     = ".ruleforge"
	ManifestFilename = "manifest.json"
	BackupsDirname   = "backups"
)

// Entry records one file written for one target.
type Entry struct {
	Path      string            `json:"path"`
	Checksum  string            `json:"checksum"`
	Target    string            `json:"target"`
	Ownership adapter.Ownership `json:"ownership"`
	// Fragment is the owned content of a partially owned file, kept so the
	// next run can strip it before merging again.
	Fragment string `json:"fragment,omitempty"`
}

// Manifest lists every file the tool wrote, by target.
type Manifest struct {
	ToolVersion string  `json:"toolVersion"`
	Files       []Entry `json:"files"`
}

// ManifestPath returns the manifest location under root.
func ManifestPath(root string) string {
	return filepath.Join(root, StateDirname, ManifestFilename)
}

// ReadManifest loads the manifest under root. A missing manifest is empty.
func ReadManifest(root string) (*Manifest, error) {
	manifestFilepath := ManifestPath(root)
	data, err := os.ReadFile(manifestFilepath)
	if errors.Is(err, fs.ErrNotExist) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, stacktrace.Propagate(err, "failed to read manifest '%s'", manifestFilepath)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, stacktrace.Propagate(err, "failed to parse manifest '%s'", manifestFilepath)
	}
	return &m, nil
}

// WriteManifest writes m under root with entries sorted by path and target.
func WriteManifest(root string, m *Manifest) error {
	sort.Slice(m.Files, func(i, j int) bool {
		if m.Files[i].Path != m.Files[j].Path {
			return m.Files[i].Path < m.Files[j].Path
		}
		return m.Files[i].Target < m.Files[j].Target
	})
	if m.Files == nil {
		m.Files = []Entry{}
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return stacktrace.Propagate(err, "failed to marshal manifest")
	}
	data = append(data, '\n')
	manifestFilepath := ManifestPath(root)
	if err := os.MkdirAll(filepath.Dir(manifestFilepath), 0755); err != nil {
		return stacktrace.Propagate(err, "failed to create '%s'", filepath.Dir(manifestFilepath))
	}
	return writeIfChanged(manifestFilepath, data)
}

// entriesByPath indexes every target's entries by path.
func (m *Manifest) entriesByPath() map[string][]Entry {
	result := make(map[string][]Entry, len(m.Files))
	for _, e := range m.Files {
		result[e.Path] = append(result[e.Path], e)
	}
	return result
}

func (m *Manifest) forTarget(target string) []Entry {
	var result []Entry
	for _, e := range m.Files {
		if e.Target == target {
			result = append(result, e)
		}
	}
	return result
}

// Checksum returns the SHA-256 hex digest of data.
func Checksum(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// newerManifestWarning returns a warning when the manifest was written by a
// newer release than the running one. Non-semver versions (dev builds) are
// never compared.
func newerManifestWarning(manifestVersion string, toolVersion string) string {
	mv, tv := canonicalVersion(manifestVersion), canonicalVersion(toolVersion)
	if !semver.IsValid(mv) || !semver.IsValid(tv) {
		return ""
	}
	if semver.Compare(mv, tv) <= 0 {
		return ""
	}
	return "manifest was written by ruleforge " + manifestVersion + ", newer than this version (" + toolVersion + "); ownership records may not be understood"
}

func canonicalVersion(v string) string {
	if v == "" || strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}
