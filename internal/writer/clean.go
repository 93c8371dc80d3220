package writer

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"slices"

	"github.com/kurtosis-tech/stacktrace"

	"github.com/odyssey/ruleforge/internal/adapter"
)

// Clean removes everything the manifest records for targets, or for every
// target when targets is empty. Full files edited since generation are
// backed up before deletion; partial files only lose their owned fragment.
// The manifest is deleted once it has no entries left.
func (w *Writer) Clean(ctx context.Context, targets []string) (Report, error) {
	manifest, err := ReadManifest(w.root)
	if err != nil {
		return Report{}, err
	}

	selected := func(target string) bool {
		return len(targets) == 0 || slices.Contains(targets, target)
	}

	var order []string
	byTarget := make(map[string][]Entry)
	remaining := &Manifest{ToolVersion: manifest.ToolVersion}
	for _, e := range manifest.Files {
		if !selected(e.Target) {
			remaining.Files = append(remaining.Files, e)
			continue
		}
		if _, ok := byTarget[e.Target]; !ok {
			order = append(order, e.Target)
		}
		byTarget[e.Target] = append(byTarget[e.Target], e)
	}

	known := manifest.entriesByPath()
	backupDir := path.Join(StateDirname, BackupsDirname, w.now().UTC().Format("20060102T150405Z"))
	var report Report
	for _, target := range order {
		op := &targetOp{
			w:         w,
			known:     known,
			backupDir: backupDir,
			result:    adapter.Result{Target: target},
			report:    TargetReport{Target: target, State: StateResolvingOwnership},
		}
		for _, e := range byTarget[target] {
			if err := ctx.Err(); err != nil {
				op.fail(stacktrace.Propagate(err, "clean was cancelled"))
				break
			}
			if err := op.cleanEntry(e); err != nil {
				op.fail(stacktrace.Propagate(err, "failed to clean '%s' for target '%s'", e.Path, target))
				break
			}
		}
		if op.report.Err != nil {
			remaining.Files = append(remaining.Files, byTarget[target]...)
		} else {
			op.transition(StateCommitted)
		}
		report.Targets = append(report.Targets, op.report)
	}

	if len(remaining.Files) == 0 {
		if err := os.Remove(ManifestPath(w.root)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return report, stacktrace.Propagate(err, "failed to remove manifest")
		}
		return report, nil
	}
	if err := WriteManifest(w.root, remaining); err != nil {
		return report, err
	}
	return report, nil
}

func (t *targetOp) cleanEntry(e Entry) error {
	unlock := t.w.locks.lock(e.Path)
	defer unlock()

	existing, err := readIfExists(t.w.abs(e.Path))
	if err != nil || existing == nil {
		return err
	}

	if e.Ownership == adapter.OwnershipPartial {
		t.transition(StateMerging)
		stripped, empty, err := stripPartial(e.Path, existing, e.Fragment)
		if err != nil {
			return err
		}
		t.record(FileChange{Path: e.Path, Action: ActionStrip})
		if empty {
			return t.removeFile(e.Path)
		}
		return t.writeBytes(e.Path, stripped)
	}

	change := FileChange{Path: e.Path, Action: ActionRemove}
	if Checksum(existing) != e.Checksum {
		t.transition(StateBackingUp)
		backupPath, err := t.backup(e.Path, existing)
		if err != nil {
			return err
		}
		t.warn("'%s' was edited since it was generated; saved a copy to '%s' before removing it", e.Path, backupPath)
		change.BackupPath = backupPath
	}
	t.transition(StateOverwriting)
	t.record(change)
	return t.removeFile(e.Path)
}
