package patch

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// fakeRunner stands in for the external apply tools so the cascade is
// exercised without git or patch on the machine.
type fakeRunner struct {
	calls   []string
	results map[string]func(dir string) (string, string, int)
}

func (r *fakeRunner) Run(dir, stdin, name string, args ...string) (string, string, int) {
	r.calls = append(r.calls, name)
	if fn, ok := r.results[name]; ok {
		return fn(dir)
	}
	return "", name + ": no fake behavior registered", 1
}

func succeedAndWrite(t *testing.T, rel, content string) func(string) (string, string, int) {
	return func(dir string) (string, string, int) {
		writeFile(t, dir, rel, content)
		return "", "", 0
	}
}

func failWith(stderr string, code int) func(string) (string, string, int) {
	return func(string) (string, string, int) {
		return "", stderr, code
	}
}

func TestApplyStrategyA(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "x.py", "old\n")

	runner := &fakeRunner{results: map[string]func(string) (string, string, int){
		"git": succeedAndWrite(t, "x.py", "new\n"),
	}}
	applier := NewApplierWithRunner(dir, runner)

	if err := applier.Apply(singleFileDiff); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got := strings.Join(runner.calls, ","); got != "git" {
		t.Errorf("tool invocations = %s, want git only", got)
	}
}

func TestApplyFallsBackToPatchTool(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "x.py", "old\n")

	runner := &fakeRunner{results: map[string]func(string) (string, string, int){
		"git":   failWith("error: patch does not apply", 1),
		"patch": succeedAndWrite(t, "x.py", "new\n"),
	}}
	applier := NewApplierWithRunner(dir, runner)

	if err := applier.Apply(singleFileDiff); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got := strings.Join(runner.calls, ","); got != "git,patch" {
		t.Errorf("tool invocations = %s, want git then patch", got)
	}
}

func TestApplyBothStrategiesFail(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "x.py", "old\n")

	runner := &fakeRunner{results: map[string]func(string) (string, string, int){
		"git":   failWith("error: corrupt patch at line 3", 1),
		"patch": failWith("Hunk #1 FAILED", 1),
	}}
	applier := NewApplierWithRunner(dir, runner)

	err := applier.Apply(singleFileDiff)
	var applyErr *ApplyError
	if !errors.As(err, &applyErr) {
		t.Fatalf("Apply() error = %v, want *ApplyError", err)
	}
	for _, fragment := range []string{"corrupt patch", "Hunk #1 FAILED", "patch saved to"} {
		if !strings.Contains(applyErr.Details, fragment) {
			t.Errorf("error details missing %q: %s", fragment, applyErr.Details)
		}
	}
	if applyErr.Patch != Normalize(singleFileDiff) {
		t.Error("ApplyError.Patch is not the normalized patch text")
	}
}

func TestApplyDetectsNoOp(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "x.py", "new\n")

	// git apply reports success but the tree keeps its bytes, as happens
	// with already-applied hunks.
	runner := &fakeRunner{results: map[string]func(string) (string, string, int){
		"git": failWith("", 0),
	}}
	applier := NewApplierWithRunner(dir, runner)

	err := applier.Apply(singleFileDiff)
	var applyErr *ApplyError
	if !errors.As(err, &applyErr) {
		t.Fatalf("Apply() error = %v, want *ApplyError", err)
	}
	if !strings.Contains(applyErr.Details, "no file changes") {
		t.Errorf("error details = %q, want no-op diagnosis", applyErr.Details)
	}
}

func TestApplyCleansToolArtifacts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "x.py", "old\n")
	writeFile(t, dir, "x.py.orig", "old\n")
	writeFile(t, dir, "x.py.rej", "rejected hunk\n")

	runner := &fakeRunner{results: map[string]func(string) (string, string, int){
		"git": succeedAndWrite(t, "x.py", "new\n"),
	}}
	applier := NewApplierWithRunner(dir, runner)

	if err := applier.Apply(singleFileDiff); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	for _, artifact := range []string{"x.py.orig", "x.py.rej"} {
		if _, err := os.Stat(filepath.Join(dir, artifact)); err == nil {
			t.Errorf("%s still present after apply", artifact)
		}
	}
}

// End-to-end against a real git checkout: extraction finds the patch,
// normalization leaves correct counts alone, and git apply lands it.
func TestApplyEndToEnd(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	initCmd := exec.Command("git", "init", "-q")
	initCmd.Dir = dir
	if err := initCmd.Run(); err != nil {
		t.Fatalf("git init: %v", err)
	}
	writeFile(t, dir, "x.py", "old\n")

	response := "```diff\n" + singleFileDiff + "\n```"
	patches := Extract(response)
	if len(patches) != 1 {
		t.Fatalf("Extract() returned %d patches, want 1", len(patches))
	}
	if normalized := Normalize(patches[0]); normalized != patches[0]+"\n" {
		t.Errorf("normalization altered a correct patch: %q", normalized)
	}

	if err := NewApplier(dir).Apply(patches[0]); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	content, err := os.ReadFile(filepath.Join(dir, "x.py"))
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "new\n" {
		t.Errorf("x.py = %q, want %q", content, "new\n")
	}
}
