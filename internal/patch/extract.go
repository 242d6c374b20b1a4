// Package patch turns free-form LLM output into unified diffs and
// applies them to a working tree. Extraction finds candidate diffs in a
// response, normalization repairs the hunk headers models routinely get
// wrong, and the applier runs a cascade of external tools with no-op
// detection on top.
package patch

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// DevNull is the path sentinel unified diffs use for file creates and
// deletes.
const DevNull = "/dev/null"

// FileHeader is one (old, new) path pair from a "diff --git" line.
// Either side may be the DevNull sentinel.
type FileHeader struct {
	OldPath string
	NewPath string
}

var (
	fileHeaderRe = regexp.MustCompile(`(?m)^diff --git a/(.+) b/(.+)$`)
	codeFenceRe  = regexp.MustCompile("(?s)```[a-zA-Z0-9]*\n(.*?)```")
)

// Extract pulls candidate unified-diff texts out of an LLM response, in
// priority order: fenced code blocks first (a block holding several
// "diff --git" sections yields one patch per file), then raw text that
// already looks like a diff, then a bare fence-wrapped response. An
// empty result means the response contained no usable patch.
func Extract(response string) []string {
	var patches []string
	for _, block := range fencedBlocks(response) {
		if !block.isPatchCandidate() {
			continue
		}
		body := strings.TrimSpace(block.content)
		if strings.HasPrefix(body, "diff --git") {
			patches = append(patches, splitFileDiffs(body)...)
		} else if body != "" {
			patches = append(patches, body)
		}
	}
	if len(patches) > 0 {
		return patches
	}

	trimmed := strings.TrimSpace(response)
	if strings.HasPrefix(trimmed, "---") || strings.HasPrefix(trimmed, "diff --git") {
		if chunks := splitFileDiffs(trimmed); len(chunks) > 0 {
			return chunks
		}
		return []string{trimmed}
	}
	if strings.HasPrefix(trimmed, "```") {
		return []string{strings.Trim(trimmed, "`")}
	}
	return nil
}

type fencedBlock struct {
	lang    string
	content string
}

// isPatchCandidate keeps fences tagged diff or patch, and untagged ones.
// Blocks tagged with a language (go, python, ...) are prose examples,
// not patches.
func (b fencedBlock) isPatchCandidate() bool {
	switch b.lang {
	case "", "diff", "patch":
		return true
	}
	return false
}

// fencedBlocks walks the markdown AST for fenced code blocks rather than
// regex-matching backticks, so indented or quoted fences inside the
// response body do not confuse extraction.
func fencedBlocks(response string) []fencedBlock {
	source := []byte(response)
	root := goldmark.DefaultParser().Parse(text.NewReader(source))

	var blocks []fencedBlock
	_ = ast.Walk(root, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fence, ok := node.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		var block fencedBlock
		if fence.Info != nil {
			block.lang = string(fence.Info.Text(source))
		}
		var content bytes.Buffer
		lines := fence.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			content.Write(line.Value(source))
		}
		block.content = content.String()

		blocks = append(blocks, block)
		return ast.WalkSkipChildren, nil
	})
	return blocks
}

// splitFileDiffs cuts a multi-file diff at each "diff --git" line so the
// retry loop can repair files independently. Text before the first
// header is dropped.
func splitFileDiffs(s string) []string {
	lines := strings.Split(s, "\n")
	var starts []int
	for i, line := range lines {
		if strings.HasPrefix(line, "diff --git ") {
			starts = append(starts, i)
		}
	}

	var chunks []string
	for n, start := range starts {
		end := len(lines)
		if n+1 < len(starts) {
			end = starts[n+1]
		}
		chunk := strings.TrimSpace(strings.Join(lines[start:end], "\n"))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

// ParseFileHeaders returns the (old, new) path pairs declared by the
// patch's "diff --git" lines, in order of appearance.
func ParseFileHeaders(patchText string) []FileHeader {
	var headers []FileHeader
	for _, m := range fileHeaderRe.FindAllStringSubmatch(patchText, -1) {
		headers = append(headers, FileHeader{OldPath: m[1], NewPath: m[2]})
	}
	return headers
}

// TargetPaths lists the on-disk paths a patch touches: both sides of
// every file header, DevNull excluded, de-duplicated in first-seen
// order.
func TargetPaths(patchText string) []string {
	var targets []string
	seen := make(map[string]bool)
	for _, h := range ParseFileHeaders(patchText) {
		for _, p := range []string{h.OldPath, h.NewPath} {
			if p == "" || p == DevNull || seen[p] {
				continue
			}
			seen[p] = true
			targets = append(targets, p)
		}
	}
	return targets
}

// ExtractCodeBlock returns the content of the first fenced block in s,
// or the trimmed text itself when no fence is present. Used on rewrite
// responses, where the model returns one whole file.
func ExtractCodeBlock(s string) string {
	if m := codeFenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(s)
}
