// Package issue holds the issue value the agent works from. Issues are
// loaded from a local JSON or markdown file; tracker integration is a
// separate concern and lives outside this tool.
package issue

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Issue describes one bug to fix.
type Issue struct {
	Key         string `json:"key"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	StackTrace  string `json:"stack_trace,omitempty"`
	URL         string `json:"url,omitempty"`
}

// Validate checks the issue carries enough signal to work with.
func (i Issue) Validate() error {
	if strings.TrimSpace(i.Summary) == "" && strings.TrimSpace(i.Description) == "" {
		return fmt.Errorf("issue %s has no summary or description", i.KeyOr("?"))
	}
	return nil
}

// KeyOr returns the issue key, or fallback when none is set.
func (i Issue) KeyOr(fallback string) string {
	if strings.TrimSpace(i.Key) == "" {
		return fallback
	}
	return i.Key
}

// ToPrompt renders the issue as the text block sent in every LLM
// request.
func (i Issue) ToPrompt() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Issue %s: %s\n", i.KeyOr("?"), i.Summary)
	fmt.Fprintf(&sb, "Description:\n%s\n", i.Description)
	fmt.Fprintf(&sb, "Stack Trace:\n%s\n", orNA(i.StackTrace))
	fmt.Fprintf(&sb, "URL: %s", orNA(i.URL))
	return sb.String()
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "n/a"
	}
	return s
}

// Load reads an issue from path. A .json file is decoded directly;
// anything else is treated as markdown with the layout
//
//	# KEY: Summary
//	free-form description
//	## Stack Trace
//	the trace, optionally fenced
func Load(path string) (Issue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Issue{}, fmt.Errorf("read issue file: %w", err)
	}

	var iss Issue
	if filepath.Ext(path) == ".json" {
		if err := json.Unmarshal(data, &iss); err != nil {
			return Issue{}, fmt.Errorf("decode issue file %s: %w", path, err)
		}
	} else {
		iss = parseMarkdown(string(data))
	}
	if err := iss.Validate(); err != nil {
		return Issue{}, err
	}
	return iss, nil
}

func parseMarkdown(text string) Issue {
	var iss Issue
	var desc, trace []string
	inTrace := false

	for _, line := range strings.Split(text, "\n") {
		switch {
		case iss.Summary == "" && strings.HasPrefix(line, "# "):
			header := strings.TrimSpace(strings.TrimPrefix(line, "# "))
			if key, rest, ok := strings.Cut(header, ":"); ok && !strings.Contains(key, " ") {
				iss.Key = strings.TrimSpace(key)
				iss.Summary = strings.TrimSpace(rest)
			} else {
				iss.Summary = header
			}
		case strings.EqualFold(strings.TrimSpace(line), "## Stack Trace"):
			inTrace = true
		case inTrace:
			trace = append(trace, line)
		default:
			desc = append(desc, line)
		}
	}

	iss.Description = strings.TrimSpace(strings.Join(desc, "\n"))
	iss.StackTrace = strings.TrimSpace(strings.Trim(strings.TrimSpace(strings.Join(trace, "\n")), "`"))
	return iss
}
