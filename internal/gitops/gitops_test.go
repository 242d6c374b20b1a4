package gitops

import (
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"testing"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want []string
	}{
		{
			name: "branch header skipped",
			out:  "## work/felix-7-abc123\n M internal/pager.go\n?? internal/pager_test.go\n",
			want: []string{"internal/pager.go", "internal/pager_test.go"},
		},
		{
			name: "clean tree",
			out:  "## main...origin/main\n",
			want: nil,
		},
		{
			name: "empty output",
			out:  "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseStatus(tt.out)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseStatus = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRunTests(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("coreutils not available")
	}

	dir := t.TempDir()

	results, err := RunTests(dir, []string{"true", "true"})
	if err != nil {
		t.Fatalf("RunTests: %v", err)
	}
	if len(results) != 2 || !results[0].Passed() || !results[1].Passed() {
		t.Errorf("results = %+v, want two passes", results)
	}

	results, err = RunTests(dir, []string{"true", "false", "true"})
	if err == nil {
		t.Fatal("RunTests did not fail on nonzero exit")
	}
	if len(results) != 2 {
		t.Errorf("got %d results, want 2 (fail fast after second command)", len(results))
	}
	if results[1].Passed() {
		t.Errorf("failing command reported as passed: %+v", results[1])
	}
}

// initRepo creates a git repository with one committed file.
func initRepo(t *testing.T) *Git {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	g := New(dir)
	for _, args := range [][]string{
		{"init", "-q", "-b", "master"},
		{"config", "user.email", "felix@test"},
		{"config", "user.name", "felix"},
	} {
		if _, err := g.run(args...); err != nil {
			t.Fatalf("git %v: %v", args, err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("one\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := g.CommitAll("initial"); err != nil {
		t.Fatalf("CommitAll: %v", err)
	}
	return g
}

func TestEnsureBranchAndChangedFiles(t *testing.T) {
	g := initRepo(t)

	if err := g.EnsureBranch("master", "work/felix-1-aaaaaa"); err != nil {
		t.Fatalf("EnsureBranch: %v", err)
	}
	branch, err := g.CurrentBranch()
	if err != nil {
		t.Fatalf("CurrentBranch: %v", err)
	}
	if branch != "work/felix-1-aaaaaa" {
		t.Errorf("branch = %q, want work/felix-1-aaaaaa", branch)
	}

	files, err := g.ChangedFiles()
	if err != nil {
		t.Fatalf("ChangedFiles: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("clean tree reported changes: %v", files)
	}

	if err := os.WriteFile(filepath.Join(g.Dir, "a.txt"), []byte("two\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	files, err = g.ChangedFiles()
	if err != nil {
		t.Fatalf("ChangedFiles: %v", err)
	}
	if len(files) != 1 || files[0] != "a.txt" {
		t.Errorf("ChangedFiles = %v, want [a.txt]", files)
	}
}
