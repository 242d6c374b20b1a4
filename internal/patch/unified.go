package patch

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// unifiedContext is the number of context lines around each change,
// matching the unified-diff default.
const unifiedContext = 3

const (
	opEqual byte = iota
	opDelete
	opInsert
)

type lineOp struct {
	kind byte
	line string
}

type hunk struct {
	oldStart, oldCount int
	newStart, newCount int
	ops                []lineOp
}

// UnifiedDiff renders the line-level difference between two versions of
// a file as a unified diff with a/<path> and b/<path> labels. Returns
// the empty string when the versions match line for line.
func UnifiedDiff(oldText, newText, path string) string {
	dmp := diffmatchpatch.New()
	src, dst, lineArray := dmp.DiffLinesToRunes(oldText, newText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMainRunes(src, dst, false), lineArray)

	hunks := groupHunks(flattenLineOps(diffs), unifiedContext)
	if len(hunks) == 0 {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- a/%s\n", path)
	fmt.Fprintf(&sb, "+++ b/%s\n", path)
	for _, h := range hunks {
		fmt.Fprintf(&sb, "@@ -%s +%s @@\n", formatRange(h.oldStart, h.oldCount), formatRange(h.newStart, h.newCount))
		for _, op := range h.ops {
			sb.WriteString(marker(op.kind))
			sb.WriteString(op.line)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// flattenLineOps explodes diffmatchpatch's chunked diffs into one op per
// line, dropping the phantom element a trailing newline produces.
func flattenLineOps(diffs []diffmatchpatch.Diff) []lineOp {
	var ops []lineOp
	for _, d := range diffs {
		kind := opEqual
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			kind = opDelete
		case diffmatchpatch.DiffInsert:
			kind = opInsert
		}
		lines := strings.Split(d.Text, "\n")
		if len(lines) > 0 && lines[len(lines)-1] == "" {
			lines = lines[:len(lines)-1]
		}
		for _, line := range lines {
			ops = append(ops, lineOp{kind: kind, line: line})
		}
	}
	return ops
}

// groupHunks collects changed lines plus surrounding context into hunks,
// merging changes whose context windows touch. Equal runs longer than
// twice the context split hunks apart.
func groupHunks(ops []lineOp, context int) []hunk {
	include := make([]bool, len(ops))
	any := false
	for i, op := range ops {
		if op.kind == opEqual {
			continue
		}
		any = true
		lo := max(i-context, 0)
		hi := min(i+context, len(ops)-1)
		for j := lo; j <= hi; j++ {
			include[j] = true
		}
	}
	if !any {
		return nil
	}

	var hunks []hunk
	oldLine, newLine := 1, 1
	i := 0
	for i < len(ops) {
		if !include[i] {
			oldLine++
			newLine++
			i++
			continue
		}
		h := hunk{oldStart: oldLine, newStart: newLine}
		for i < len(ops) && include[i] {
			op := ops[i]
			h.ops = append(h.ops, op)
			switch op.kind {
			case opEqual:
				h.oldCount++
				h.newCount++
				oldLine++
				newLine++
			case opDelete:
				h.oldCount++
				oldLine++
			case opInsert:
				h.newCount++
				newLine++
			}
			i++
		}
		hunks = append(hunks, h)
	}
	return hunks
}

// formatRange renders one side of a hunk header. A count of 1 is
// implicit; a zero-length range anchors on the line before it.
func formatRange(start, count int) string {
	if count == 1 {
		return fmt.Sprintf("%d", start)
	}
	if count == 0 {
		start--
	}
	return fmt.Sprintf("%d,%d", start, count)
}

func marker(kind byte) string {
	switch kind {
	case opDelete:
		return "-"
	case opInsert:
		return "+"
	}
	return " "
}
