package writer

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/odyssey/ruleforge/internal/adapter"
)

var fixedTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

const backupStamp = "20260102T030405Z"

func newTestWriter(t *testing.T) *Writer {
	t.Helper()
	return New(t.TempDir(), "1.2.0", WithClock(func() time.Time { return fixedTime }))
}

func marked(content string) string {
	return adapter.Mark(content, adapter.MarkerHTML)
}

func readFile(t *testing.T, w *Writer, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(w.Root(), rel))
	if err != nil {
		t.Fatalf("failed to read %s: %v", rel, err)
	}
	return string(data)
}

func writeRaw(t *testing.T, w *Writer, rel string, content string) {
	t.Helper()
	p := filepath.Join(w.Root(), rel)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", rel, err)
	}
}

func exists(w *Writer, rel string) bool {
	_, err := os.Stat(filepath.Join(w.Root(), rel))
	return err == nil
}

func mustWrite(t *testing.T, w *Writer, results ...adapter.Result) Report {
	t.Helper()
	report, err := w.Write(context.Background(), results)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	for _, target := range report.Targets {
		if target.Err != nil {
			t.Fatalf("target %s failed: %v", target.Target, target.Err)
		}
	}
	return report
}

func actions(report Report) map[string]Action {
	result := map[string]Action{}
	for _, target := range report.Targets {
		for _, c := range target.Changes {
			result[c.Path] = c.Action
		}
	}
	return result
}

func fullFile(path string, content string) adapter.File {
	return adapter.File{Path: path, Content: marked(content), Ownership: adapter.OwnershipFull}
}

func TestWriteCreatesFilesAndManifest(t *testing.T) {
	w := newTestWriter(t)
	res := adapter.Result{Target: "claude", Files: []adapter.File{fullFile("CLAUDE.md", "# style\n")}}

	report := mustWrite(t, w, res)
	if diff := cmp.Diff(map[string]Action{"CLAUDE.md": ActionCreate}, actions(report)); diff != "" {
		t.Errorf("actions mismatch (-want +got):\n%s", diff)
	}
	if report.Targets[0].State != StateCommitted {
		t.Errorf("expected %s, got %s", StateCommitted, report.Targets[0].State)
	}

	m, err := ReadManifest(w.Root())
	if err != nil {
		t.Fatalf("ReadManifest failed: %v", err)
	}
	want := &Manifest{ToolVersion: "1.2.0", Files: []Entry{{
		Path:      "CLAUDE.md",
		Checksum:  Checksum([]byte(marked("# style\n"))),
		Target:    "claude",
		Ownership: adapter.OwnershipFull,
	}}}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Errorf("manifest mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteTwiceIsIdempotent(t *testing.T) {
	w := newTestWriter(t)
	results := []adapter.Result{
		{Target: "claude", Files: []adapter.File{
			fullFile("CLAUDE.md", "# style\n"),
			{Path: ".claude/settings.json", Content: `{"hooks":{"PostToolUse":[{"matcher":"Edit","hooks":[{"type":"command","command":"fmt"}]}]}}`, Ownership: adapter.OwnershipPartial},
		}},
		{Target: "aider", Files: []adapter.File{
			fullFile("CONVENTIONS.md", "# style\n"),
			{Path: ".aider.conf.yml", Content: "read:\n- CONVENTIONS.md\n", Ownership: adapter.OwnershipPartial},
		}},
	}

	mustWrite(t, w, results...)
	first, _ := os.ReadFile(ManifestPath(w.Root()))
	settings := readFile(t, w, ".claude/settings.json")

	report := mustWrite(t, w, results...)
	for path, action := range actions(report) {
		if action != ActionUnchanged {
			t.Errorf("%s: expected unchanged on second write, got %s", path, action)
		}
	}
	second, _ := os.ReadFile(ManifestPath(w.Root()))
	if diff := cmp.Diff(string(first), string(second)); diff != "" {
		t.Errorf("manifest changed between identical runs:\n%s", diff)
	}
	if got := readFile(t, w, ".claude/settings.json"); got != settings {
		t.Errorf("settings.json changed between identical runs:\n%s", got)
	}
	if exists(w, filepath.Join(StateDirname, BackupsDirname)) {
		t.Errorf("identical runs should not create backups")
	}
}

func TestWriteBacksUpHandAuthoredFile(t *testing.T) {
	w := newTestWriter(t)
	writeRaw(t, w, "AGENTS.md", "# my own notes\n")

	report := mustWrite(t, w, adapter.Result{Target: "codex", Files: []adapter.File{fullFile("AGENTS.md", "# generated\n")}})

	change := report.Targets[0].Changes[0]
	wantBackup := StateDirname + "/" + BackupsDirname + "/" + backupStamp + "/AGENTS.md"
	if change.Action != ActionBackup || change.BackupPath != wantBackup {
		t.Fatalf("unexpected change: %+v", change)
	}
	if got := readFile(t, w, wantBackup); got != "# my own notes\n" {
		t.Errorf("backup content = %q", got)
	}
	if got := readFile(t, w, "AGENTS.md"); got != marked("# generated\n") {
		t.Errorf("file was not overwritten: %q", got)
	}
	if len(report.Targets[0].Warnings) != 1 || !strings.Contains(report.Targets[0].Warnings[0], "not created by ruleforge") {
		t.Errorf("expected a backup warning, got %v", report.Targets[0].Warnings)
	}
}

func TestWriteBacksUpEditedGeneratedFile(t *testing.T) {
	w := newTestWriter(t)
	mustWrite(t, w, adapter.Result{Target: "codex", Files: []adapter.File{fullFile("AGENTS.md", "# v1\n")}})
	writeRaw(t, w, "AGENTS.md", marked("# v1\n")+"\nlocal tweak\n")

	report := mustWrite(t, w, adapter.Result{Target: "codex", Files: []adapter.File{fullFile("AGENTS.md", "# v2\n")}})
	change := report.Targets[0].Changes[0]
	if change.Action != ActionBackup {
		t.Fatalf("expected a backup, got %+v", change)
	}
	if got := readFile(t, w, change.BackupPath); !strings.Contains(got, "local tweak") {
		t.Errorf("backup lost the local edit: %q", got)
	}
	if !strings.Contains(report.Targets[0].Warnings[0], "was edited since it was generated") {
		t.Errorf("unexpected warning: %v", report.Targets[0].Warnings)
	}
}

func TestWriteUpdatesOwnedFileWithoutBackup(t *testing.T) {
	w := newTestWriter(t)
	mustWrite(t, w, adapter.Result{Target: "codex", Files: []adapter.File{fullFile("AGENTS.md", "# v1\n")}})
	report := mustWrite(t, w, adapter.Result{Target: "codex", Files: []adapter.File{fullFile("AGENTS.md", "# v2\n")}})
	if got := actions(report)["AGENTS.md"]; got != ActionUpdate {
		t.Errorf("expected update, got %s", got)
	}
}

func TestUnmarkedTrackedFileIsOwned(t *testing.T) {
	w := newTestWriter(t)
	script := adapter.File{Path: ".claude/skills/db/run.sh", Content: "echo v1\n", Ownership: adapter.OwnershipFull}
	mustWrite(t, w, adapter.Result{Target: "claude", Files: []adapter.File{script}})

	script.Content = "echo v2\n"
	report := mustWrite(t, w, adapter.Result{Target: "claude", Files: []adapter.File{script}})
	if got := actions(report)[script.Path]; got != ActionUpdate {
		t.Errorf("tracked supporting file should update in place, got %s", got)
	}
}

func TestPartialJSONKeepsForeignContent(t *testing.T) {
	w := newTestWriter(t)
	writeRaw(t, w, ".claude/settings.json", `{
  "model": "opus",
  "hooks": {
    "PostToolUse": [{"matcher": "Bash", "hooks": [{"type": "command", "command": "audit"}]}]
  }
}
`)
	fragment := func(command string) adapter.File {
		return adapter.File{
			Path:      ".claude/settings.json",
			Content:   `{"hooks":{"PostToolUse":[{"matcher":"Edit","hooks":[{"type":"command","command":"` + command + `"}]}]}}`,
			Ownership: adapter.OwnershipPartial,
		}
	}

	report := mustWrite(t, w, adapter.Result{Target: "claude", Files: []adapter.File{fragment("gofmt")}})
	if change := report.Targets[0].Changes[0]; change.Action != ActionMerge || change.BackupPath == "" {
		t.Errorf("first merge into a foreign file should back it up, got %+v", change)
	}
	mustWrite(t, w, adapter.Result{Target: "claude", Files: []adapter.File{fragment("goimports")}})

	var parsed struct {
		Model string `json:"model"`
		Hooks map[string][]struct {
			Matcher string `json:"matcher"`
		} `json:"hooks"`
	}
	content := readFile(t, w, ".claude/settings.json")
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		t.Fatalf("invalid JSON after merge: %v\n%s", err, content)
	}
	if parsed.Model != "opus" {
		t.Errorf("foreign key lost: %s", content)
	}
	var matchers []string
	for _, group := range parsed.Hooks["PostToolUse"] {
		matchers = append(matchers, group.Matcher)
	}
	if diff := cmp.Diff([]string{"Bash", "Edit"}, matchers); diff != "" {
		t.Errorf("hook groups mismatch (-want +got):\n%s", diff)
	}
	if strings.Contains(content, "gofmt") {
		t.Errorf("previous fragment should have been replaced:\n%s", content)
	}
}

func TestPartialJSONDropsHooksOfAChangedEvent(t *testing.T) {
	w := newTestWriter(t)
	writeRaw(t, w, ".claude/settings.json", "{\n  \"model\": \"opus\"\n}\n")
	hooks := func(event string, command string) adapter.File {
		return adapter.File{
			Path:      ".claude/settings.json",
			Content:   `{"hooks":{"` + event + `":[{"hooks":[{"type":"command","command":"` + command + `"}]}]}}`,
			Ownership: adapter.OwnershipPartial,
		}
	}

	mustWrite(t, w, adapter.Result{Target: "claude", Files: []adapter.File{hooks("PostToolUse", "lint-edit")}})
	mustWrite(t, w, adapter.Result{Target: "claude", Files: []adapter.File{hooks("Notification", "lint-commit")}})

	var parsed struct {
		Model string                     `json:"model"`
		Hooks map[string]json.RawMessage `json:"hooks"`
	}
	content := readFile(t, w, ".claude/settings.json")
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		t.Fatalf("invalid JSON after merge: %v\n%s", err, content)
	}
	var events []string
	for event := range parsed.Hooks {
		events = append(events, event)
	}
	if diff := cmp.Diff([]string{"Notification"}, events); diff != "" {
		t.Errorf("hook events mismatch (-want +got):\n%s", diff)
	}
	if strings.Contains(content, "lint-edit") || !strings.Contains(content, "lint-commit") {
		t.Errorf("the earlier event's hook should be gone:\n%s", content)
	}
	if parsed.Model != "opus" {
		t.Errorf("foreign key lost: %s", content)
	}
}

func TestPartialJSONKeepsForeignBytes(t *testing.T) {
	w := newTestWriter(t)
	original := `{
  // keep me
  "permissions": {"allow": ["Bash(ls)"]},
  "theme":"dark"
}
`
	writeRaw(t, w, ".claude/settings.json", original)
	hooks := adapter.File{
		Path:      ".claude/settings.json",
		Content:   `{"hooks":{"Stop":[{"hooks":[{"type":"command","command":"notify"}]}]}}`,
		Ownership: adapter.OwnershipPartial,
	}

	mustWrite(t, w, adapter.Result{Target: "claude", Files: []adapter.File{hooks}})
	content := readFile(t, w, ".claude/settings.json")
	untouched := strings.TrimSuffix(original, "\n}\n")
	if !strings.HasPrefix(content, untouched) {
		t.Errorf("foreign text was reflowed:\n%s", content)
	}
	if !strings.Contains(content, "notify") {
		t.Errorf("owned hook missing:\n%s", content)
	}

	mustWrite(t, w, adapter.Result{Target: "claude", Files: []adapter.File{hooks}})
	if again := readFile(t, w, ".claude/settings.json"); again != content {
		t.Errorf("rebuild changed the file:\n%s\nvs\n%s", content, again)
	}

	if _, err := w.Clean(context.Background(), []string{"claude"}); err != nil {
		t.Fatalf("Clean failed: %v", err)
	}
	if diff := cmp.Diff(original, readFile(t, w, ".claude/settings.json")); diff != "" {
		t.Errorf("clean should restore the original bytes (-want +got):\n%s", diff)
	}
}

func TestStaleFilesAreRemoved(t *testing.T) {
	w := newTestWriter(t)
	writeRaw(t, w, ".claude/rules/hand-written.md", "# mine\n")
	writeRaw(t, w, ".claude/rules/orphan.md", marked("# left by an older run\n"))

	res := adapter.Result{
		Target:      "claude",
		ManagedDirs: []string{".claude/rules"},
		Files: []adapter.File{
			fullFile(".claude/rules/a.md", "# a\n"),
			fullFile(".claude/rules/b.md", "# b\n"),
		},
	}
	mustWrite(t, w, res)

	res.Files = res.Files[:1]
	report := mustWrite(t, w, res)

	got := actions(report)
	if got[".claude/rules/b.md"] != ActionRemoveStale {
		t.Errorf("tracked stale file should be removed, got %v", got)
	}
	if exists(w, ".claude/rules/b.md") || exists(w, ".claude/rules/orphan.md") {
		t.Errorf("stale generated files should be gone")
	}
	if !exists(w, ".claude/rules/hand-written.md") {
		t.Errorf("hand-authored sibling must be kept")
	}
	if !exists(w, ".claude/rules/a.md") {
		t.Errorf("current file must be kept")
	}
}

func TestEditedStaleFileIsKept(t *testing.T) {
	w := newTestWriter(t)
	mustWrite(t, w, adapter.Result{Target: "cursor", Files: []adapter.File{fullFile(".cursor/rules/old.mdc", "# old\n")}})
	writeRaw(t, w, ".cursor/rules/old.mdc", marked("# old\n")+"edited\n")

	report := mustWrite(t, w, adapter.Result{Target: "cursor"})
	if got := actions(report)[".cursor/rules/old.mdc"]; got != ActionKeep {
		t.Errorf("expected keep, got %s", got)
	}
	if !exists(w, ".cursor/rules/old.mdc") {
		t.Errorf("edited file must not be deleted")
	}
}

func TestFailingTargetIsIsolated(t *testing.T) {
	w := newTestWriter(t)
	writeRaw(t, w, ".claude/settings.json", "this is not json {")

	report, err := w.Write(context.Background(), []adapter.Result{
		{Target: "claude", Files: []adapter.File{{Path: ".claude/settings.json", Content: `{"hooks":{}}`, Ownership: adapter.OwnershipPartial}}},
		{Target: "codex", Files: []adapter.File{fullFile("AGENTS.md", "# ok\n")}},
	})
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if report.Targets[0].State != StatePartialFailure || report.Targets[0].Err == nil {
		t.Errorf("claude should have failed: %+v", report.Targets[0])
	}
	if report.Targets[1].State != StateCommitted {
		t.Errorf("codex should have committed: %+v", report.Targets[1])
	}
	if len(report.Failed()) != 1 {
		t.Errorf("expected one failed target")
	}

	m, _ := ReadManifest(w.Root())
	if len(m.Files) != 1 || m.Files[0].Target != "codex" {
		t.Errorf("manifest should only record codex: %+v", m.Files)
	}
}

func TestSharedPartialFileAcrossTargets(t *testing.T) {
	w := newTestWriter(t)
	mustWrite(t, w,
		adapter.Result{Target: "one", Files: []adapter.File{{Path: "shared.json", Content: `{"one":true}`, Ownership: adapter.OwnershipPartial}}},
		adapter.Result{Target: "two", Files: []adapter.File{{Path: "shared.json", Content: `{"two":true}`, Ownership: adapter.OwnershipPartial}}},
	)
	var parsed map[string]bool
	if err := json.Unmarshal([]byte(readFile(t, w, "shared.json")), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if diff := cmp.Diff(map[string]bool{"one": true, "two": true}, parsed); diff != "" {
		t.Errorf("shared document mismatch (-want +got):\n%s", diff)
	}
}

func TestOtherTargetsKeepManifestEntries(t *testing.T) {
	w := newTestWriter(t)
	mustWrite(t, w,
		adapter.Result{Target: "claude", Files: []adapter.File{fullFile("CLAUDE.md", "# c\n")}},
		adapter.Result{Target: "codex", Files: []adapter.File{fullFile("AGENTS.md", "# a\n")}},
	)
	mustWrite(t, w, adapter.Result{Target: "codex", Files: []adapter.File{fullFile("AGENTS.md", "# a2\n")}})

	m, _ := ReadManifest(w.Root())
	var targets []string
	for _, e := range m.Files {
		targets = append(targets, e.Target)
	}
	if diff := cmp.Diff([]string{"codex", "claude"}, targets); diff != "" {
		t.Errorf("manifest targets mismatch (-want +got):\n%s", diff)
	}
	if !exists(w, "CLAUDE.md") {
		t.Errorf("building one target must not touch another")
	}
}

func TestPlanDoesNotTouchDisk(t *testing.T) {
	w := newTestWriter(t)
	writeRaw(t, w, "AGENTS.md", "# mine\n")

	report, err := w.Plan(context.Background(), []adapter.Result{
		{Target: "codex", Files: []adapter.File{fullFile("AGENTS.md", "# generated\n"), fullFile("docs/new.md", "# new\n")}},
	})
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	want := map[string]Action{"AGENTS.md": ActionBackup, "docs/new.md": ActionCreate}
	if diff := cmp.Diff(want, actions(report)); diff != "" {
		t.Errorf("planned actions mismatch (-want +got):\n%s", diff)
	}
	if report.Targets[0].State != StatePlanned {
		t.Errorf("expected %s, got %s", StatePlanned, report.Targets[0].State)
	}
	if got := readFile(t, w, "AGENTS.md"); got != "# mine\n" {
		t.Errorf("Plan modified AGENTS.md")
	}
	if exists(w, "docs/new.md") || exists(w, StateDirname) {
		t.Errorf("Plan created files")
	}
}

func TestNewerManifestWarns(t *testing.T) {
	w := newTestWriter(t)
	if err := WriteManifest(w.Root(), &Manifest{ToolVersion: "9.0.0"}); err != nil {
		t.Fatalf("WriteManifest failed: %v", err)
	}
	report := mustWrite(t, w, adapter.Result{Target: "codex"})
	if len(report.Warnings) != 1 || !strings.Contains(report.Warnings[0], "9.0.0") {
		t.Errorf("expected a version warning, got %v", report.Warnings)
	}
}

func TestNewerManifestWarning(t *testing.T) {
	tests := []struct {
		manifest string
		tool     string
		warn     bool
	}{
		{"1.3.0", "1.2.0", true},
		{"v2.0.0", "1.9.9", true},
		{"1.2.0", "1.2.0", false},
		{"1.0.0", "1.2.0", false},
		{"", "1.2.0", false},
		{"1.3.0", "dev", false},
	}
	for _, tt := range tests {
		t.Run(tt.manifest+"_vs_"+tt.tool, func(t *testing.T) {
			got := newerManifestWarning(tt.manifest, tt.tool) != ""
			if got != tt.warn {
				t.Errorf("newerManifestWarning(%q, %q) warned=%v, want %v", tt.manifest, tt.tool, got, tt.warn)
			}
		})
	}
}
