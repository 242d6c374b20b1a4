// Package repocontext assembles the repository context sections that
// accompany every LLM prompt: working-tree state, files the issue
// mentions, and files the plan proposes to change.
package repocontext

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/felixhq/felix/internal/issue"
	"github.com/felixhq/felix/internal/llm"
)

const (
	maxRenderedLines = 400
	maxIssueFiles    = 5
	snippetContext   = 5
)

var (
	fileRefRe    = regexp.MustCompile(`[A-Za-z0-9_./\-]+\.(?:js|jsx|ts|tsx|java|kt|py|rb|go|css|scss|json)`)
	stackFrameRe = regexp.MustCompile(`([A-Za-z0-9_./\-]+\.(?:js|jsx|ts|tsx|java|kt|py|rb|go))(?::(\d+))?`)
)

// Collect builds the base context for an issue: the working-tree
// summary, snippets around stack-trace frames, files the issue text
// references, and the raw description and trace.
func Collect(iss issue.Issue, repoDir, treeSummary string) string {
	sections := []string{"## Repo Status\n" + treeSummary}

	if snippets := stackSnippets(iss.StackTrace, repoDir); len(snippets) > 0 {
		sections = append(sections, "## Stack Trace Matches\n"+strings.Join(snippets, "\n\n"))
	}
	if files := referencedFiles(iss.Summary+"\n"+iss.Description, repoDir); len(files) > 0 {
		sections = append(sections, "## Files Mentioned in Issue\n"+strings.Join(files, "\n\n"))
	}
	if iss.Description != "" {
		sections = append(sections, "## Issue Description\n```\n"+strings.TrimSpace(iss.Description)+"\n```")
	}
	if iss.StackTrace != "" {
		sections = append(sections, "## Issue Stack Trace\n```\n"+strings.TrimSpace(iss.StackTrace)+"\n```")
	}
	return strings.Join(sections, "\n\n")
}

// CollectPlanFiles renders every existing file the plan's proposed
// changes name, deduplicated, so the patch request sees current
// contents. Empty when the plan carries no usable file references.
func CollectPlanFiles(plan llm.Plan, repoDir string) string {
	var rendered []string
	seen := make(map[string]bool)
	for _, change := range plan.ProposedChanges {
		ref := strings.Trim(strings.TrimSpace(change.File), "./")
		if ref == "" || seen[ref] {
			continue
		}
		seen[ref] = true
		path := filepath.Join(repoDir, ref)
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			continue
		}
		rendered = append(rendered, renderFile(path, ref))
	}
	if len(rendered) == 0 {
		return ""
	}
	return "## Files Referenced in Plan\n" + strings.Join(rendered, "\n\n")
}

// stackSnippets renders a few context lines around each file:line frame
// found in the stack trace.
func stackSnippets(stackTrace, repoDir string) []string {
	if stackTrace == "" {
		return nil
	}
	var snippets []string
	seen := make(map[string]bool)
	for _, m := range stackFrameRe.FindAllStringSubmatch(stackTrace, -1) {
		rel := m[1]
		if seen[rel] {
			continue
		}
		path := filepath.Join(repoDir, rel)
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			continue
		}
		seen[rel] = true
		line := 1
		if m[2] != "" {
			line, _ = strconv.Atoi(m[2])
		}
		snippets = append(snippets, renderSnippet(path, rel, line))
		if len(snippets) >= maxIssueFiles {
			break
		}
	}
	return snippets
}

// referencedFiles renders files whose paths appear verbatim in text.
func referencedFiles(text, repoDir string) []string {
	var rendered []string
	seen := make(map[string]bool)
	for _, ref := range fileRefRe.FindAllString(text, -1) {
		rel := strings.Trim(strings.TrimLeft(ref, "./"), " .,:;\"'")
		if rel == "" || seen[rel] {
			continue
		}
		seen[rel] = true
		path := filepath.Join(repoDir, rel)
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			continue
		}
		rendered = append(rendered, renderFile(path, rel))
		if len(rendered) >= maxIssueFiles {
			break
		}
	}
	return rendered
}

// renderSnippet shows the lines around one stack frame with 1-based
// line numbers.
func renderSnippet(path, rel string, line int) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Sprintf("File: %s (unable to read)", rel)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	start := max(line-snippetContext-1, 0)
	end := min(line+snippetContext, len(lines))

	var sb strings.Builder
	fmt.Fprintf(&sb, "File: %s\n", rel)
	for i := start; i < end; i++ {
		fmt.Fprintf(&sb, "%4d: %s\n", i+1, lines[i])
	}
	return strings.TrimRight(sb.String(), "\n")
}

// renderFile numbers each line and fences the body, truncating long
// files so a single reference cannot blow the prompt budget.
func renderFile(path, rel string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Sprintf("File: %s (unable to read)", rel)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")

	var sb strings.Builder
	fmt.Fprintf(&sb, "File: %s\n```%s\n", rel, fenceLanguage(rel))
	for i, line := range lines {
		if i >= maxRenderedLines {
			sb.WriteString("... (truncated)\n")
			break
		}
		fmt.Fprintf(&sb, "%4d: %s\n", i+1, line)
	}
	sb.WriteString("```")
	return sb.String()
}

func fenceLanguage(rel string) string {
	switch filepath.Ext(rel) {
	case ".go":
		return "go"
	case ".py":
		return "python"
	case ".json":
		return "json"
	case ".js", ".jsx", ".ts", ".tsx":
		return "jsx"
	}
	return ""
}
