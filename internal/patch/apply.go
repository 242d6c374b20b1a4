package patch

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ApplyError reports a patch that could not be applied, or that applied
// without changing any target file. Patch holds the normalized text so
// the refinement loop can show the model exactly what failed.
type ApplyError struct {
	Patch   string
	Details string
}

func (e *ApplyError) Error() string { return e.Details }

// Runner executes an external command in a directory and reports its
// outcome. The default implementation shells out; tests substitute fakes
// so the apply cascade is exercised without git or patch installed.
type Runner interface {
	Run(dir, stdin, name string, args ...string) (stdout, stderr string, exitCode int)
}

type execRunner struct{}

func (execRunner) Run(dir, stdin, name string, args ...string) (string, string, int) {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	code := 0
	if err != nil {
		code = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		} else {
			fmt.Fprintln(&errBuf, err.Error())
		}
	}
	return outBuf.String(), errBuf.String(), code
}

// Applier applies unified diffs to one working tree. Strategy A is git
// apply with whitespace fixing; strategy B pipes the patch into the
// POSIX patch tool in forward mode. An Applier holds no state between
// calls, but two appliers must not target the same tree concurrently —
// serializing per-directory access is the caller's obligation.
type Applier struct {
	Dir string

	runner   Runner
	gitBin   string
	patchBin string
}

// NewApplier returns an applier for the working copy at dir.
func NewApplier(dir string) *Applier {
	return &Applier{
		Dir:      dir,
		runner:   execRunner{},
		gitBin:   "git",
		patchBin: "patch",
	}
}

// NewApplierWithRunner injects a command runner; used by tests and by
// callers that resolve tool paths themselves.
func NewApplierWithRunner(dir string, runner Runner) *Applier {
	a := NewApplier(dir)
	a.runner = runner
	return a
}

// Apply normalizes patchText and applies it to the working tree. It
// fails with *ApplyError when every strategy rejects the patch, or when
// the tools report success without a single target byte changing (a
// vacuous or already-applied patch is a defect, not a success). The
// scratch patch file is removed on every exit path; on terminal failure
// a diagnostic copy is retained for postmortem and its path included in
// the error.
func (a *Applier) Apply(patchText string) error {
	normalized := Normalize(patchText)
	targets := TargetPaths(normalized)
	before := Snapshot(a.Dir, targets)

	scratch, err := os.CreateTemp("", "felix-patch-*.diff")
	if err != nil {
		return fmt.Errorf("create scratch patch: %w", err)
	}
	scratchPath := scratch.Name()
	defer os.Remove(scratchPath)
	defer a.cleanupArtifacts(targets)

	if _, err := scratch.WriteString(normalized); err != nil {
		scratch.Close()
		return fmt.Errorf("write scratch patch: %w", err)
	}
	if err := scratch.Close(); err != nil {
		return fmt.Errorf("write scratch patch: %w", err)
	}

	gitOut, gitErr, gitCode := a.runner.Run(a.Dir, "", a.gitBin, "apply", "--whitespace=fix", scratchPath)
	if gitCode != 0 {
		fbOut, fbErr, fbCode := a.runner.Run(a.Dir, normalized, a.patchBin, "--forward", "-p1")
		if fbCode != 0 {
			details := fmt.Sprintf(
				"failed to apply patch via git apply and patch. git apply: %s. patch: %s",
				commandDetails(gitOut, gitErr, gitCode),
				commandDetails(fbOut, fbErr, fbCode),
			)
			if dump := persistFailure(normalized); dump != "" {
				details += "\npatch saved to " + dump
			}
			return &ApplyError{Patch: normalized, Details: details}
		}
	}

	if !Changed(a.Dir, targets, before) {
		return &ApplyError{Patch: normalized, Details: "patch applied but produced no file changes"}
	}
	return nil
}

// cleanupArtifacts removes the backup and reject files git apply and
// patch leave next to their targets.
func (a *Applier) cleanupArtifacts(targets []string) {
	suffixes := []string{".orig", ".rej", ".rej.orig", ".orig.rej"}
	for _, rel := range targets {
		for _, suffix := range suffixes {
			os.Remove(filepath.Join(a.Dir, rel+suffix))
		}
	}
}

// persistFailure writes the normalized patch to a recoverable scratch
// location. Deliberately not cleaned up: terminal failures keep their
// evidence.
func persistFailure(normalized string) string {
	dump, err := os.CreateTemp("", "felix-patch-error-*.diff")
	if err != nil {
		return ""
	}
	defer dump.Close()
	if _, err := dump.WriteString(normalized); err != nil {
		return ""
	}
	return dump.Name()
}

func commandDetails(stdout, stderr string, code int) string {
	if s := strings.TrimSpace(stderr); s != "" {
		return s
	}
	if s := strings.TrimSpace(stdout); s != "" {
		return s
	}
	return fmt.Sprintf("exit code %d", code)
}
