package patch

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var hunkHeaderRe = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@(.*)$`)

// Normalize rewrites hunk headers whose declared line counts disagree
// with the lines actually present in the hunk body. Models get the
// counts wrong often enough that git apply rejects otherwise-correct
// diffs. Line endings collapse to LF and the result always ends with a
// newline. Total: every input maps to some output, and
// Normalize(Normalize(p)) == Normalize(p).
func Normalize(patchText string) string {
	sanitized := strings.ReplaceAll(patchText, "\r\n", "\n")
	sanitized = strings.ReplaceAll(sanitized, "\r", "\n")

	lines := strings.Split(sanitized, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	changed := false
	for i := 0; i < len(lines); i++ {
		m := hunkHeaderRe.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		oldStart := m[1]
		declaredOld := headerCount(m[2])
		newStart := m[3]
		declaredNew := headerCount(m[4])
		suffix := m[5]

		oldCount, newCount := 0, 0
		for j := i + 1; j < len(lines); j++ {
			candidate := lines[j]
			if hunkHeaderRe.MatchString(candidate) || strings.HasPrefix(candidate, "diff --git ") {
				break
			}
			// "--- " right after a file header starts the next file,
			// not a removed line.
			if strings.HasPrefix(candidate, "--- ") && strings.HasPrefix(lines[j-1], "diff --git ") {
				break
			}
			if strings.HasPrefix(candidate, `\ No newline at end of file`) {
				continue
			}
			switch {
			case strings.HasPrefix(candidate, "+++"), strings.HasPrefix(candidate, "---"):
				// file-label lines contribute no counts
			case strings.HasPrefix(candidate, "+"):
				newCount++
			case strings.HasPrefix(candidate, "-"):
				oldCount++
			default:
				oldCount++
				newCount++
			}
		}

		if oldCount != declaredOld || newCount != declaredNew {
			lines[i] = fmt.Sprintf("@@ -%s,%d +%s,%d @@%s", oldStart, oldCount, newStart, newCount, suffix)
			changed = true
		}
	}

	normalized := sanitized
	if changed {
		normalized = strings.Join(lines, "\n")
	}
	if !strings.HasSuffix(normalized, "\n") {
		normalized += "\n"
	}
	return normalized
}

// headerCount parses a hunk-header count field; the format defaults an
// omitted count to 1.
func headerCount(s string) int {
	if s == "" {
		return 1
	}
	n, _ := strconv.Atoi(s)
	return n
}
