package repocontext

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felixhq/felix/internal/issue"
	"github.com/felixhq/felix/internal/llm"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCollect(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "src/pager.py", "def page():\n    return []\n")

	iss := issue.Issue{
		Key:         "FELIX-1",
		Summary:     "Pager crashes",
		Description: "The bug lives in src/pager.py near the return.",
		StackTrace:  "Traceback:\n  File src/pager.py:2, in page",
	}
	ctx := Collect(iss, dir, "Status:\n## main\n\nDiff:\n")

	for _, want := range []string{
		"## Repo Status",
		"## Stack Trace Matches",
		"File: src/pager.py",
		"   2:     return []",
		"## Files Mentioned in Issue",
		"## Issue Description",
		"## Issue Stack Trace",
	} {
		if !strings.Contains(ctx, want) {
			t.Errorf("context missing %q", want)
		}
	}
}

func TestCollectWithoutReferences(t *testing.T) {
	iss := issue.Issue{Summary: "Something is slow", Description: "No file names here."}
	ctx := Collect(iss, t.TempDir(), "Status:\nclean\nDiff:\n")

	if strings.Contains(ctx, "## Files Mentioned in Issue") {
		t.Error("context contains a files section with nothing referenced")
	}
	if strings.Contains(ctx, "## Stack Trace Matches") {
		t.Error("context contains stack matches without a trace")
	}
}

func TestCollectPlanFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "handler.go", "package main\n\nfunc handle() {}\n")

	plan := llm.Plan{ProposedChanges: []llm.ProposedChange{
		{File: "./handler.go", Change: "guard nil body"},
		{File: "handler.go", Change: "duplicate reference"},
		{File: "missing.go", Change: "does not exist"},
	}}

	out := CollectPlanFiles(plan, dir)
	if !strings.Contains(out, "## Files Referenced in Plan") {
		t.Fatalf("missing section header:\n%s", out)
	}
	if got := strings.Count(out, "File: handler.go"); got != 1 {
		t.Errorf("handler.go rendered %d times, want 1", got)
	}
	if strings.Contains(out, "missing.go") {
		t.Error("nonexistent file rendered")
	}
	if !strings.Contains(out, "```go") {
		t.Error("go fence language missing")
	}
}

func TestCollectPlanFilesEmptyPlan(t *testing.T) {
	if out := CollectPlanFiles(llm.Plan{}, t.TempDir()); out != "" {
		t.Errorf("CollectPlanFiles = %q, want empty", out)
	}
}

func TestRenderFileTruncation(t *testing.T) {
	dir := t.TempDir()
	long := strings.Repeat("line\n", maxRenderedLines+10)
	writeFile(t, dir, "big.py", long)

	out := renderFile(filepath.Join(dir, "big.py"), "big.py")
	if !strings.Contains(out, "... (truncated)") {
		t.Error("long file not truncated")
	}
	if strings.Count(out, "\n") > maxRenderedLines+5 {
		t.Errorf("rendered output longer than the cap")
	}
}
