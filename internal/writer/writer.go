// Package writer persists adapter results to disk. It decides, per file,
// whether the tool owns what is already there, backs up anything it would
// otherwise destroy, merges into shared documents, removes stale generated
// files and records every write in a manifest.
package writer

import (
	"context"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/odyssey/ruleforge/internal/adapter"
)

// State is a target's position in the write state machine.
type State string

const (
	StateIdle               State = "idle"
	StateResolvingOwnership State = "resolving-ownership"
	StateMerging            State = "merging"
	StateOverwriting        State = "overwriting"
	StateBackingUp          State = "backing-up"
	StateCommitted          State = "manifest-committed"
	StatePartialFailure     State = "partial-failure"
	// StatePlanned ends a dry run; nothing was written.
	StatePlanned State = "planned"
)

// Action is what happened, or would happen, to one file.
type Action string

const (
	ActionCreate      Action = "create"
	ActionUpdate      Action = "update"
	ActionUnchanged   Action = "unchanged"
	ActionBackup      Action = "backup"
	ActionMerge       Action = "merge"
	ActionRemoveStale Action = "remove-stale"
	ActionRemove      Action = "remove"
	ActionStrip       Action = "strip"
	// ActionKeep leaves a stale file that was modified outside the tool.
	ActionKeep Action = "keep"
)

// FileChange describes one file operation.
type FileChange struct {
	Path   string
	Action Action
	// BackupPath is set when the previous content was saved first.
	BackupPath string
}

// TargetReport is the outcome of writing one target.
type TargetReport struct {
	Target   string
	State    State
	Changes  []FileChange
	Warnings []string
	Err      error
}

// Report is the outcome of a Write, Plan or Clean.
type Report struct {
	Targets  []TargetReport
	Warnings []string
}

// Failed returns the targets that did not complete.
func (r Report) Failed() []TargetReport {
	var failed []TargetReport
	for _, t := range r.Targets {
		if t.Err != nil {
			failed = append(failed, t)
		}
	}
	return failed
}

// Writer writes results under a root directory.
type Writer struct {
	root        string
	toolVersion string
	logger      *slog.Logger
	now         func() time.Time
	locks       *pathLocks
}

// Option configures a Writer.
type Option func(*Writer)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Writer) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithClock sets the clock used to name backup directories.
func WithClock(now func() time.Time) Option {
	return func(w *Writer) {
		w.now = now
	}
}

// New returns a Writer rooted at root. toolVersion is recorded in the
// manifest.
func New(root string, toolVersion string, opts ...Option) *Writer {
	w := &Writer{
		root:        root,
		toolVersion: toolVersion,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:         time.Now,
		locks:       newPathLocks(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Root returns the output root.
func (w *Writer) Root() string {
	return w.root
}

// Write applies results and commits the manifest. Per-target failures are
// reported in the Report; the error is only set when the manifest itself
// cannot be read or written.
func (w *Writer) Write(ctx context.Context, results []adapter.Result) (Report, error) {
	return w.apply(ctx, results, false)
}

// Plan reports what Write would do without touching the disk.
func (w *Writer) Plan(ctx context.Context, results []adapter.Result) (Report, error) {
	return w.apply(ctx, results, true)
}

func (w *Writer) apply(ctx context.Context, results []adapter.Result, dryRun bool) (Report, error) {
	manifest, err := ReadManifest(w.root)
	if err != nil {
		return Report{}, err
	}

	var report Report
	if warning := newerManifestWarning(manifest.ToolVersion, w.toolVersion); warning != "" {
		w.logger.Warn(warning)
		report.Warnings = append(report.Warnings, warning)
	}

	// Paths produced by any target in this run are never treated as stale.
	claimed := make(map[string]bool)
	for _, res := range results {
		for _, f := range res.Files {
			claimed[f.Path] = true
		}
	}

	known := manifest.entriesByPath()
	backupDir := path.Join(StateDirname, BackupsDirname, w.now().UTC().Format("20060102T150405Z"))
	ops := make([]*targetOp, len(results))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, res := range results {
		ops[i] = &targetOp{
			w:         w,
			result:    res,
			dryRun:    dryRun,
			known:     known,
			previous:  manifest.forTarget(res.Target),
			claimed:   claimed,
			backupDir: backupDir,
			report:    TargetReport{Target: res.Target, State: StateIdle},
		}
		group.Go(func() error {
			ops[i].run(groupCtx)
			return nil
		})
	}
	_ = group.Wait()

	for _, op := range ops {
		report.Targets = append(report.Targets, op.report)
	}
	if dryRun {
		return report, nil
	}

	next := &Manifest{ToolVersion: w.toolVersion}
	rewritten := make(map[string]bool, len(ops))
	for _, op := range ops {
		if op.report.Err == nil {
			rewritten[op.result.Target] = true
			next.Files = append(next.Files, op.entries...)
		}
	}
	for _, e := range manifest.Files {
		if !rewritten[e.Target] {
			next.Files = append(next.Files, e)
		}
	}
	if err := WriteManifest(w.root, next); err != nil {
		return report, err
	}
	for i := range report.Targets {
		if report.Targets[i].Err == nil {
			report.Targets[i].State = StateCommitted
		}
	}
	return report, nil
}

func (w *Writer) abs(rel string) string {
	return filepath.Join(w.root, filepath.FromSlash(rel))
}
