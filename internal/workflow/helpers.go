package workflow

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/felixhq/felix/internal/gitops"
	"github.com/felixhq/felix/internal/utils"
)

const (
	diffSnippetLines  = 80
	testSnippetLines  = 20
	testSnippetBytes  = 600
	defaultBaseBranch = "master"
	defaultPrefix     = "felix"
)

// buildBranchName derives a work branch like felix/felix-42-3fa9c1 from
// the issue key, with a random suffix so repeated runs never collide.
func buildBranchName(prefix, issueKey string) string {
	if prefix == "" {
		prefix = defaultPrefix
	}
	slug := utils.Slugify(issueKey)
	if slug == "" {
		slug = "issue"
	}
	buf := make([]byte, 3)
	rand.Read(buf)
	return fmt.Sprintf("%s/%s-%s", prefix, slug, hex.EncodeToString(buf))
}

// diffSnippet clips a diff for preview events.
func diffSnippet(diff string) string {
	lines := strings.Split(strings.TrimSpace(diff), "\n")
	if len(lines) == 0 {
		return ""
	}
	snippet := strings.Join(lines[:min(len(lines), diffSnippetLines)], "\n")
	if len(lines) > diffSnippetLines {
		snippet += "\n..."
	}
	return snippet
}

// formatTestResults renders test outcomes for the PR body.
func formatTestResults(results []gitops.TestResult, commands []string) string {
	if len(results) > 0 {
		var lines []string
		for _, res := range results {
			status := "PASS"
			if !res.Passed() {
				status = "FAIL"
			}
			snippet := clipOutput(res.Stdout)
			if snippet == "" {
				snippet = clipOutput(res.Stderr)
			}
			if snippet == "" {
				lines = append(lines, fmt.Sprintf("- `%s` %s", res.Command, status))
				continue
			}
			var fenced []string
			for _, l := range strings.Split(snippet, "\n") {
				fenced = append(fenced, "  "+l)
			}
			lines = append(lines, fmt.Sprintf("- `%s` %s\n  ```\n%s\n  ```", res.Command, status, strings.Join(fenced, "\n")))
		}
		return strings.Join(lines, "\n")
	}
	if len(commands) > 0 {
		var lines []string
		for _, cmd := range commands {
			lines = append(lines, fmt.Sprintf("- `%s` (skipped)", cmd))
		}
		return strings.Join(lines, "\n")
	}
	return "Tests skipped"
}

func clipOutput(text string) string {
	snippet := strings.TrimSpace(text)
	if snippet == "" {
		return ""
	}
	lines := strings.Split(snippet, "\n")
	if len(lines) > testSnippetLines {
		snippet = strings.Join(lines[:testSnippetLines], "\n") + "\n..."
	}
	if len(snippet) > testSnippetBytes {
		snippet = strings.TrimRight(snippet[:testSnippetBytes], " \n") + "..."
	}
	return snippet
}
