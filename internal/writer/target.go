package writer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/kurtosis-tech/stacktrace"

	"github.com/odyssey/ruleforge/internal/adapter"
)

// targetOp writes one target's result. known and claimed are shared
// read-only across targets.
type targetOp struct {
	w         *Writer
	result    adapter.Result
	dryRun    bool
	known     map[string][]Entry
	previous  []Entry
	claimed   map[string]bool
	backupDir string

	report  TargetReport
	entries []Entry
}

func (t *targetOp) transition(state State) {
	if t.report.State == state {
		return
	}
	t.w.logger.Debug("Target state changed", "target", t.result.Target, "from", t.report.State, "to", state)
	t.report.State = state
}

func (t *targetOp) warn(format string, args ...any) {
	warning := fmt.Sprintf(format, args...)
	t.w.logger.Warn(warning, "target", t.result.Target)
	t.report.Warnings = append(t.report.Warnings, warning)
}

func (t *targetOp) fail(err error) {
	t.report.Err = err
	t.transition(StatePartialFailure)
	t.w.logger.Error("Target failed", "target", t.result.Target, "error", err)
}

func (t *targetOp) run(ctx context.Context) {
	t.transition(StateResolvingOwnership)
	current := make(map[string]bool, len(t.result.Files))
	for _, f := range t.result.Files {
		if err := ctx.Err(); err != nil {
			t.fail(stacktrace.Propagate(err, "write of target '%s' was cancelled", t.result.Target))
			return
		}
		current[f.Path] = true
		if err := t.writeFile(f); err != nil {
			t.fail(stacktrace.Propagate(err, "failed to write '%s' for target '%s'", f.Path, t.result.Target))
			return
		}
	}
	if err := t.removeStale(current); err != nil {
		t.fail(stacktrace.Propagate(err, "failed to remove stale files for target '%s'", t.result.Target))
		return
	}
	if t.dryRun {
		t.transition(StatePlanned)
	}
}

func (t *targetOp) record(change FileChange) {
	t.w.logger.Debug("File resolved", "target", t.result.Target, "path", change.Path, "action", change.Action)
	t.report.Changes = append(t.report.Changes, change)
}

// owns reports whether existing content at p may be replaced without a
// backup: it matches a checksum this tool recorded, or, for untracked
// files, it carries the generated marker.
func (t *targetOp) owns(p string, existing []byte) bool {
	entries, tracked := t.known[p]
	if !tracked {
		return adapter.HasMarker(existing)
	}
	sum := Checksum(existing)
	for _, e := range entries {
		if e.Checksum == sum {
			return true
		}
	}
	return false
}

func (t *targetOp) ownEntry(p string) (Entry, bool) {
	for _, e := range t.previous {
		if e.Path == p {
			return e, true
		}
	}
	return Entry{}, false
}

func (t *targetOp) writeFile(f adapter.File) error {
	unlock := t.w.locks.lock(f.Path)
	defer unlock()

	existing, err := readIfExists(t.w.abs(f.Path))
	if err != nil {
		return err
	}
	if f.Ownership == adapter.OwnershipPartial {
		return t.mergeFile(f, existing)
	}

	data := []byte(f.Content)
	t.entries = append(t.entries, Entry{Path: f.Path, Checksum: Checksum(data), Target: t.result.Target, Ownership: adapter.OwnershipFull})

	switch {
	case existing == nil:
		t.transition(StateOverwriting)
		t.record(FileChange{Path: f.Path, Action: ActionCreate})
		return t.writeBytes(f.Path, data)
	case bytes.Equal(existing, data):
		t.record(FileChange{Path: f.Path, Action: ActionUnchanged})
		return nil
	case t.owns(f.Path, existing):
		t.transition(StateOverwriting)
		t.record(FileChange{Path: f.Path, Action: ActionUpdate})
		return t.writeBytes(f.Path, data)
	}

	t.transition(StateBackingUp)
	backupPath, err := t.backup(f.Path, existing)
	if err != nil {
		return err
	}
	if adapter.HasMarker(existing) {
		t.warn("'%s' was edited since it was generated; saved a copy to '%s' before overwriting", f.Path, backupPath)
	} else {
		t.warn("'%s' was not created by ruleforge; saved a copy to '%s' before overwriting", f.Path, backupPath)
	}
	t.record(FileChange{Path: f.Path, Action: ActionBackup, BackupPath: backupPath})
	return t.writeBytes(f.Path, data)
}

func (t *targetOp) mergeFile(f adapter.File, existing []byte) error {
	prev, _ := t.ownEntry(f.Path)
	merged, err := mergePartial(f.Path, existing, prev.Fragment, f.Content)
	if err != nil {
		return err
	}
	t.entries = append(t.entries, Entry{
		Path:      f.Path,
		Checksum:  Checksum(merged),
		Target:    t.result.Target,
		Ownership: adapter.OwnershipPartial,
		Fragment:  f.Content,
	})

	if existing != nil && bytes.Equal(existing, merged) {
		t.record(FileChange{Path: f.Path, Action: ActionUnchanged})
		return nil
	}

	t.transition(StateMerging)
	change := FileChange{Path: f.Path, Action: ActionMerge}
	if existing == nil {
		change.Action = ActionCreate
	} else if _, tracked := t.known[f.Path]; !tracked {
		// First merge into a file someone else wrote.
		t.transition(StateBackingUp)
		backupPath, err := t.backup(f.Path, existing)
		if err != nil {
			return err
		}
		change.BackupPath = backupPath
		t.transition(StateMerging)
	}
	t.record(change)
	return t.writeBytes(f.Path, merged)
}

// removeStale deletes files this target wrote before but no longer produces,
// plus marker-bearing files in its managed directories.
func (t *targetOp) removeStale(current map[string]bool) error {
	handled := make(map[string]bool)
	for _, e := range t.previous {
		if current[e.Path] || t.claimed[e.Path] {
			continue
		}
		handled[e.Path] = true
		if err := t.removeEntry(e); err != nil {
			return err
		}
	}

	for _, dir := range t.managedDirs() {
		matches, err := doublestar.Glob(os.DirFS(t.w.root), path.Join(dir, "**"), doublestar.WithFilesOnly())
		if err != nil {
			return stacktrace.Propagate(err, "failed to list managed directory '%s'", dir)
		}
		for _, p := range matches {
			if current[p] || t.claimed[p] || handled[p] {
				continue
			}
			if _, trackedElsewhere := t.known[p]; trackedElsewhere {
				continue
			}
			handled[p] = true
			existing, err := readIfExists(t.w.abs(p))
			if err != nil {
				return err
			}
			if existing == nil || !adapter.HasMarker(existing) {
				continue
			}
			t.record(FileChange{Path: p, Action: ActionRemoveStale})
			if err := t.removeFile(p); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *targetOp) managedDirs() []string {
	dirs := slices.Clone(t.result.ManagedDirs)
	slices.Sort(dirs)
	return slices.Compact(dirs)
}

func (t *targetOp) removeEntry(e Entry) error {
	unlock := t.w.locks.lock(e.Path)
	defer unlock()

	existing, err := readIfExists(t.w.abs(e.Path))
	if err != nil || existing == nil {
		return err
	}

	if e.Ownership == adapter.OwnershipPartial {
		stripped, empty, err := stripPartial(e.Path, existing, e.Fragment)
		if err != nil {
			return err
		}
		t.record(FileChange{Path: e.Path, Action: ActionRemoveStale})
		if empty {
			return t.removeFile(e.Path)
		}
		return t.writeBytes(e.Path, stripped)
	}

	if Checksum(existing) != e.Checksum {
		t.warn("'%s' is no longer generated but was edited; leaving it in place", e.Path)
		t.record(FileChange{Path: e.Path, Action: ActionKeep})
		return nil
	}
	t.record(FileChange{Path: e.Path, Action: ActionRemoveStale})
	return t.removeFile(e.Path)
}

func (t *targetOp) backup(rel string, data []byte) (string, error) {
	backupRel := path.Join(t.backupDir, rel)
	if err := t.writeBytes(backupRel, data); err != nil {
		return "", stacktrace.Propagate(err, "failed to back up '%s'", rel)
	}
	return backupRel, nil
}

func (t *targetOp) writeBytes(rel string, data []byte) error {
	if t.dryRun {
		return nil
	}
	return writeFile(t.w.abs(rel), data)
}

func (t *targetOp) removeFile(rel string) error {
	if t.dryRun {
		return nil
	}
	return removeFile(t.w.root, rel)
}

func readIfExists(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, stacktrace.Propagate(err, "failed to read '%s'", filePath)
	}
	return data, nil
}

func writeFile(filePath string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return stacktrace.Propagate(err, "failed to create directory for '%s'", filePath)
	}
	return writeIfChanged(filePath, data)
}

// writeIfChanged writes data only when it differs from what is on disk, so
// unchanged files keep their mtime.
func writeIfChanged(filePath string, data []byte) error {
	existingData, readErr := os.ReadFile(filePath)
	if readErr == nil && bytes.Equal(existingData, data) {
		return nil
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return stacktrace.Propagate(err, "failed to write '%s'", filePath)
	}
	return nil
}

// removeFile deletes rel and then any parent directories it leaves empty,
// stopping at root.
func removeFile(root string, rel string) error {
	target := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return stacktrace.Propagate(err, "failed to remove '%s'", target)
	}
	for dir := path.Dir(rel); dir != "." && dir != "/"; dir = path.Dir(dir) {
		dirpath := filepath.Join(root, filepath.FromSlash(dir))
		entries, err := os.ReadDir(dirpath)
		if err != nil || len(entries) > 0 {
			break
		}
		if err := os.Remove(dirpath); err != nil {
			break
		}
	}
	return nil
}
