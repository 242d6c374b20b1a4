package gitops

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

// TestResult captures one test command's outcome.
type TestResult struct {
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
}

// Passed reports whether the command exited cleanly.
func (r TestResult) Passed() bool { return r.ExitCode == 0 }

// RunTests executes each command in dir, failing fast on the first
// nonzero exit. The results gathered so far are returned either way so
// the caller can report partial output. Commands are split on
// whitespace; shell syntax is not interpreted.
func RunTests(dir string, commands []string) ([]TestResult, error) {
	var results []TestResult
	for _, command := range commands {
		tokens := strings.Fields(command)
		if len(tokens) == 0 {
			continue
		}
		cmd := exec.Command(tokens[0], tokens[1:]...)
		cmd.Dir = dir
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		err := cmd.Run()
		code := 0
		if err != nil {
			code = -1
			if exitErr, ok := err.(*exec.ExitError); ok {
				code = exitErr.ExitCode()
			}
		}
		res := TestResult{
			Command:  command,
			ExitCode: code,
			Stdout:   strings.TrimSpace(stdout.String()),
			Stderr:   strings.TrimSpace(stderr.String()),
		}
		results = append(results, res)
		if code != 0 {
			detail := res.Stderr
			if detail == "" {
				detail = res.Stdout
			}
			return results, fmt.Errorf("test command %q failed with code %d: %s", command, code, detail)
		}
	}
	return results, nil
}
