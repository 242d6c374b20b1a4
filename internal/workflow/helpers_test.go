package workflow

import (
	"regexp"
	"strings"
	"testing"

	"github.com/felixhq/felix/internal/gitops"
)

func TestBuildBranchName(t *testing.T) {
	re := regexp.MustCompile(`^work/felix-42-[0-9a-f]{6}$`)
	name := buildBranchName("work", "FELIX-42")
	if !re.MatchString(name) {
		t.Errorf("buildBranchName = %q, want match for %s", name, re)
	}
	if other := buildBranchName("work", "FELIX-42"); other == name {
		t.Errorf("two branch names collided: %q", name)
	}
}

func TestBuildBranchNameDefaults(t *testing.T) {
	name := buildBranchName("", "")
	if !strings.HasPrefix(name, "felix/issue-") {
		t.Errorf("buildBranchName = %q, want felix/issue- prefix", name)
	}
}

func TestDiffSnippet(t *testing.T) {
	short := "diff --git a/x b/x\n--- a/x\n+++ b/x"
	if got := diffSnippet(short); got != short {
		t.Errorf("short diff altered: %q", got)
	}

	long := strings.TrimSpace(strings.Repeat("line\n", diffSnippetLines+20))
	got := diffSnippet(long)
	if !strings.HasSuffix(got, "...") {
		t.Errorf("long diff not elided: %q", got[len(got)-20:])
	}
	if n := strings.Count(got, "\n"); n != diffSnippetLines {
		t.Errorf("snippet has %d newlines, want %d", n, diffSnippetLines)
	}
}

func TestFormatTestResults(t *testing.T) {
	tests := []struct {
		name     string
		results  []gitops.TestResult
		commands []string
		want     []string
	}{
		{
			name: "pass with output",
			results: []gitops.TestResult{
				{Command: "go test ./...", ExitCode: 0, Stdout: "ok  \tfelix\t0.1s"},
			},
			want: []string{"- `go test ./...` PASS", "ok"},
		},
		{
			name: "fail without output",
			results: []gitops.TestResult{
				{Command: "make check", ExitCode: 2},
			},
			want: []string{"- `make check` FAIL"},
		},
		{
			name:     "commands skipped",
			commands: []string{"go vet ./..."},
			want:     []string{"- `go vet ./...` (skipped)"},
		},
		{
			name: "nothing configured",
			want: []string{"Tests skipped"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := formatTestResults(tt.results, tt.commands)
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestClipOutput(t *testing.T) {
	long := strings.Repeat("x", testSnippetBytes+100)
	got := clipOutput(long)
	if len(got) > testSnippetBytes+3 {
		t.Errorf("clipped output still %d bytes", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Error("clipped output missing ellipsis")
	}

	tall := strings.TrimSpace(strings.Repeat("y\n", testSnippetLines+5))
	if got := clipOutput(tall); strings.Count(got, "\n") != testSnippetLines {
		t.Errorf("tall output not clipped to %d lines", testSnippetLines)
	}
}
