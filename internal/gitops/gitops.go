// Package gitops wraps the git operations the fix workflow needs:
// branch management, change detection, commit and push. Every command
// runs with an explicit working directory; nothing here touches global
// git state.
package gitops

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"

	"github.com/felixhq/felix/internal/utils"
)

// Git runs git commands against one working copy.
type Git struct {
	Dir string

	bin string
}

// New returns a Git bound to the working copy at dir.
func New(dir string) *Git {
	return &Git{Dir: dir, bin: utils.ResolveBinaryPath("git")}
}

// run executes git with the given arguments and returns stdout. A
// nonzero exit becomes an error carrying the tool's diagnostic output.
func (g *Git) run(args ...string) (string, error) {
	cmd := exec.Command(g.bin, args...)
	cmd.Dir = g.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		details := strings.TrimSpace(stderr.String())
		if details == "" {
			details = strings.TrimSpace(stdout.String())
		}
		if details == "" {
			details = err.Error()
		}
		return "", fmt.Errorf("git %s: %s", strings.Join(args, " "), details)
	}
	return stdout.String(), nil
}

// runQuiet executes git and ignores failures; used for steps that are
// best-effort (fetching without a remote, pulling a local-only branch).
func (g *Git) runQuiet(args ...string) string {
	out, _ := g.run(args...)
	return out
}

// CurrentBranch returns the checked-out branch name.
func (g *Git) CurrentBranch() (string, error) {
	out, err := g.run("rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// EnsureBranch checks out base, fast-forwards it when a remote is
// reachable, and resets branch onto it.
func (g *Git) EnsureBranch(base, branch string) error {
	if base == "" {
		base = "master"
	}
	g.runQuiet("fetch", "--all")
	if _, err := g.run("checkout", base); err != nil {
		return err
	}
	g.runQuiet("pull", "--ff-only")
	if _, err := g.run("checkout", "-B", branch, base); err != nil {
		return err
	}
	return nil
}

// WorkingTreeSummary renders the short status and diff stat, the form
// the LLM context uses. Errors collapse to empty sections; a summary is
// advisory, never load-bearing.
func (g *Git) WorkingTreeSummary() string {
	status, _ := g.run("status", "-sb")
	diffstat := g.runQuiet("diff", "--stat")
	return fmt.Sprintf("Status:\n%s\nDiff:\n%s", status, diffstat)
}

// ChangedFiles lists paths whose tracked status differs from HEAD.
func (g *Git) ChangedFiles() ([]string, error) {
	out, err := g.run("status", "-sb")
	if err != nil {
		return nil, err
	}
	return parseStatus(out), nil
}

// parseStatus extracts file paths from `git status -sb` output,
// skipping the branch header line.
func parseStatus(out string) []string {
	var files []string
	for _, line := range strings.Split(out, "\n") {
		if line == "" || strings.HasPrefix(line, "##") {
			continue
		}
		fields := strings.SplitN(strings.TrimSpace(line), " ", 2)
		if len(fields) == 2 {
			files = append(files, strings.TrimSpace(fields[1]))
		}
	}
	return files
}

// CommitAll stages everything and commits with message.
func (g *Git) CommitAll(message string) error {
	if _, err := g.run("add", "."); err != nil {
		return err
	}
	if _, err := g.run("commit", "-m", message); err != nil {
		return err
	}
	return nil
}

// Push publishes branch to origin with an upstream.
func (g *Git) Push(branch string) error {
	_, err := g.run("push", "-u", "origin", branch)
	return err
}
