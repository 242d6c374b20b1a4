package refine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/felixhq/felix/internal/llm"
	"github.com/felixhq/felix/internal/patch"
)

// Rewrite is the last-resort repair for a patch the appliers keep
// rejecting: ask the model for the whole corrected file and derive a
// fresh diff from it. Only works on files that already exist in the
// tree; this strategy cannot create files.
func Rewrite(ctx context.Context, client llm.Client, issuePrompt string, plan llm.Plan, repoDir, failingPatch string) (string, error) {
	headers := patch.ParseFileHeaders(failingPatch)
	if len(headers) == 0 {
		return "", errors.New("unable to determine target file for rewrite fallback")
	}
	target := headers[0].NewPath

	current, err := os.ReadFile(filepath.Join(repoDir, target))
	if err != nil {
		return "", fmt.Errorf("cannot rewrite missing file %s: %w", target, err)
	}

	response, err := client.RewriteFile(ctx, issuePrompt, plan, target, string(current))
	if err != nil {
		return "", fmt.Errorf("rewrite request: %w", err)
	}
	newText := patch.ExtractCodeBlock(response)
	if newText != "" && !strings.HasSuffix(newText, "\n") {
		newText += "\n"
	}

	diff := patch.UnifiedDiff(string(current), newText, target)
	if strings.TrimSpace(diff) == "" {
		return "", errors.New("rewrite produced no changes")
	}
	if !strings.HasSuffix(diff, "\n") {
		diff += "\n"
	}
	return diff, nil
}
