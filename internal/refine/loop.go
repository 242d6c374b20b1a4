// Package refine drives the bounded patch-repair loop: apply a patch,
// feed failures back to the model for correction, and fall back to a
// whole-file rewrite when hunk-based patching keeps getting rejected.
package refine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/felixhq/felix/internal/llm"
	"github.com/felixhq/felix/internal/patch"
)

// DefaultMaxAttempts bounds hunk-based apply attempts before the
// rewrite fallback kicks in.
const DefaultMaxAttempts = 3

// Applier is the subset of the patch applier the loop needs.
type Applier interface {
	Apply(patchText string) error
}

// ProgressFunc receives one-way progress events in exact transition
// order. Fire-and-forget: it must not block, and nothing it returns is
// read back.
type ProgressFunc func(event string, payload map[string]any)

// AttemptState tracks one file-change application through the loop. It
// is owned by a single Run invocation and never shared; holding the
// counters here rather than in closure variables keeps the state
// machine inspectable.
type AttemptState struct {
	CurrentPatch     string
	AttemptsUsed     int
	MaxAttempts      int
	RewriteAttempted bool
}

// Loop owns the retry budget for applying patches to one working copy.
type Loop struct {
	client   llm.Client
	applier  Applier
	repoDir  string
	progress ProgressFunc
}

// NewLoop wires a loop to its collaborators. progress may be nil.
func NewLoop(client llm.Client, applier Applier, repoDir string, progress ProgressFunc) *Loop {
	if progress == nil {
		progress = func(string, map[string]any) {}
	}
	return &Loop{client: client, applier: applier, repoDir: repoDir, progress: progress}
}

// Run applies patchText, refining it through the model on each failure.
// The total budget is maxAttempts applies, one rewrite fallback, then
// exactly one more apply cycle. The counter reset after a failed
// rewrite permits one extra apply but no further refinement round;
// widening it would change observable retry counts.
func (l *Loop) Run(ctx context.Context, issuePrompt string, plan llm.Plan, repoContext, patchText string, maxAttempts int) error {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	st := &AttemptState{CurrentPatch: patchText, MaxAttempts: maxAttempts}

	for st.AttemptsUsed < st.MaxAttempts {
		l.progress("patch_apply_start", map[string]any{"attempt": st.AttemptsUsed + 1})
		err := l.applier.Apply(st.CurrentPatch)
		if err == nil {
			l.progress("patch_apply_success", map[string]any{"attempt": st.AttemptsUsed + 1})
			return nil
		}
		var applyErr *patch.ApplyError
		if !errors.As(err, &applyErr) {
			return err
		}
		st.AttemptsUsed++
		l.progress("patch_apply_error", map[string]any{"attempt": st.AttemptsUsed, "error": applyErr.Error()})

		if st.AttemptsUsed >= st.MaxAttempts {
			if st.RewriteAttempted {
				return fmt.Errorf("rewrite already attempted and failed: %w", applyErr)
			}
			rewriteErr := l.tryRewrite(ctx, issuePrompt, plan, st)
			if rewriteErr == nil {
				return nil
			}
			l.progress("patch_rewrite_failed", map[string]any{"error": rewriteErr.Error()})
			st.RewriteAttempted = true
			if err := l.refine(ctx, issuePrompt, plan, repoContext, st, rewriteErr.Error()); err != nil {
				return err
			}
			st.AttemptsUsed = st.MaxAttempts - 1
			continue
		}

		if err := l.refine(ctx, issuePrompt, plan, repoContext, st, applyErr.Error()); err != nil {
			return err
		}
		l.progress("patch_refined", map[string]any{"attempt": st.AttemptsUsed})
	}
	return errors.New("patch apply attempts exhausted")
}

// tryRewrite runs the whole-file rewrite fallback and applies its diff.
func (l *Loop) tryRewrite(ctx context.Context, issuePrompt string, plan llm.Plan, st *AttemptState) error {
	fallback, err := Rewrite(ctx, l.client, issuePrompt, plan, l.repoDir, st.CurrentPatch)
	if err != nil {
		return err
	}
	if err := l.applier.Apply(fallback); err != nil {
		return err
	}
	l.progress("patch_rewrite_applied", map[string]any{"attempt": st.AttemptsUsed})
	return nil
}

// refine asks the model for a corrected patch and swaps it in. When
// extraction finds nothing in the response, the raw text is used as-is;
// the next apply attempt will surface whatever is wrong with it.
func (l *Loop) refine(ctx context.Context, issuePrompt string, plan llm.Plan, repoContext string, st *AttemptState, errorMessage string) error {
	response, err := l.client.RefinePatch(ctx, issuePrompt, plan, repoContext, st.CurrentPatch, errorMessage)
	if err != nil {
		return fmt.Errorf("patch refinement request: %w", err)
	}
	if candidates := patch.Extract(response); len(candidates) > 0 {
		st.CurrentPatch = candidates[0]
	} else {
		st.CurrentPatch = strings.TrimSpace(response)
	}
	return nil
}
