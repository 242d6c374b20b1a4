// Package workflow orchestrates one issue-fix run end to end: collect
// context, plan, propose a patch, apply it through the refinement loop,
// run tests, commit, and optionally push and open a pull request.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/felixhq/felix/internal/gitops"
	"github.com/felixhq/felix/internal/issue"
	"github.com/felixhq/felix/internal/llm"
	"github.com/felixhq/felix/internal/patch"
	"github.com/felixhq/felix/internal/refine"
	"github.com/felixhq/felix/internal/repocontext"
)

// PullRequestCreator is the narrow surface the workflow needs from a
// code host. Nil means push without a PR.
type PullRequestCreator interface {
	CreatePullRequest(ctx context.Context, title, body, head, base string) (url string, err error)
}

// Options configures one run. LLM and RepoDir are required.
type Options struct {
	Issue        issue.Issue
	RepoDir      string
	BaseBranch   string
	BranchPrefix string
	TestCommands []string
	MaxAttempts  int
	DryRun       bool

	LLM          llm.Client
	PullRequests PullRequestCreator
	Progress     Sink
}

// Result reports where the fix ended up.
type Result struct {
	IssueKey string
	Branch   string
	PRURL    string
}

// Run executes the workflow. Steps are strictly sequential; each step's
// output feeds the next. Any error is terminal for the run.
func Run(ctx context.Context, opts Options) (Result, error) {
	if opts.LLM == nil {
		return Result{}, errors.New("workflow: LLM client is required")
	}
	if opts.RepoDir == "" {
		return Result{}, errors.New("workflow: repository directory is required")
	}
	if err := opts.Issue.Validate(); err != nil {
		return Result{}, err
	}
	ev := emitter{sink: opts.Progress}
	iss := opts.Issue
	ev.emit("issue_loaded", map[string]any{"key": iss.KeyOr("?"), "summary": iss.Summary})

	git := gitops.New(opts.RepoDir)
	baseContext := repocontext.Collect(iss, opts.RepoDir, git.WorkingTreeSummary())
	ev.emit("context_collected", map[string]any{"length": len(baseContext)})

	plan, err := opts.LLM.GeneratePlan(ctx, iss.ToPrompt(), baseContext)
	if err != nil {
		return Result{}, fmt.Errorf("generate plan: %w", err)
	}
	repoContext := baseContext
	if planFiles := repocontext.CollectPlanFiles(plan, opts.RepoDir); planFiles != "" {
		repoContext += "\n\n" + planFiles
	}
	ev.emit("plan_generated", map[string]any{
		"analysis": plan.Analysis,
		"tests":    plan.Tests,
		"origin":   plan.Origin.String(),
	})

	patchResp, err := opts.LLM.ProposePatch(ctx, iss.ToPrompt(), plan, repoContext)
	if err != nil {
		return Result{}, fmt.Errorf("propose patch: %w", err)
	}
	patches := patch.Extract(patchResp)
	if len(patches) == 0 {
		return Result{}, errors.New("model returned no patch")
	}
	ev.emit("patches_proposed", map[string]any{"count": len(patches)})

	branch := buildBranchName(opts.BranchPrefix, iss.KeyOr("issue"))
	result := Result{IssueKey: iss.KeyOr("ISSUE"), Branch: branch}
	base := opts.BaseBranch
	if base == "" {
		base = defaultBaseBranch
	}
	if err := git.EnsureBranch(base, branch); err != nil {
		return Result{}, err
	}
	ev.emit("branch_ready", map[string]any{"branch": branch})

	loop := refine.NewLoop(opts.LLM, patch.NewApplier(opts.RepoDir), opts.RepoDir, func(event string, payload map[string]any) {
		ev.emit(event, payload)
	})
	for i, p := range patches {
		ev.emit("patch_preview", map[string]any{"index": i + 1, "total": len(patches), "diff": diffSnippet(p)})
		if err := loop.Run(ctx, iss.ToPrompt(), plan, repoContext, p, opts.MaxAttempts); err != nil {
			return Result{}, err
		}
		ev.emit("patch_applied", map[string]any{"index": i + 1})
	}

	changed, err := git.ChangedFiles()
	if err != nil {
		return Result{}, err
	}
	if len(changed) == 0 {
		return Result{}, errors.New("no changes detected after applying patch")
	}
	ev.emit("workspace_changed", map[string]any{"files": changed})

	var testResults []gitops.TestResult
	if len(opts.TestCommands) > 0 {
		testResults, err = gitops.RunTests(opts.RepoDir, opts.TestCommands)
		if err != nil {
			ev.emit("tests_failed", map[string]any{"error": err.Error()})
			return Result{}, err
		}
		ev.emit("tests_completed", map[string]any{"commands": opts.TestCommands})
	} else {
		ev.emit("tests_skipped", nil)
	}

	commitMessage := commitMessageFor(iss)
	if err := git.CommitAll(commitMessage); err != nil {
		return Result{}, err
	}
	ev.emit("commit_created", map[string]any{"message": commitMessage})

	if opts.DryRun {
		ev.emit("dry_run_complete", map[string]any{"branch": branch})
		return result, nil
	}

	if err := git.Push(branch); err != nil {
		return Result{}, err
	}
	ev.emit("branch_pushed", map[string]any{"branch": branch})

	if opts.PullRequests == nil {
		ev.emit("push_complete", map[string]any{"branch": branch})
		return result, nil
	}
	body := buildPRBody(iss, plan, testResults, opts.TestCommands)
	url, err := opts.PullRequests.CreatePullRequest(ctx, commitMessage, body, branch, base)
	if err != nil {
		return Result{}, fmt.Errorf("create pull request: %w", err)
	}
	result.PRURL = url
	ev.emit("pr_created", map[string]any{"url": url})
	return result, nil
}

func commitMessageFor(iss issue.Issue) string {
	summary := iss.Summary
	if strings.TrimSpace(summary) == "" {
		summary = "Auto fix"
	}
	return fmt.Sprintf("%s: %s", iss.KeyOr("ISSUE"), summary)
}

// buildPRBody renders the pull request description from the plan
// analysis and test outcomes.
func buildPRBody(iss issue.Issue, plan llm.Plan, results []gitops.TestResult, commands []string) string {
	summary := strings.TrimSpace(plan.Analysis)
	if summary == "" {
		summary = fmt.Sprintf("Automated fix for %s", iss.KeyOr("the reported issue"))
	}
	ref := iss.URL
	if ref == "" {
		ref = iss.KeyOr("n/a")
	}
	return fmt.Sprintf("## Summary\n- Issue: %s\n- Fix: %s\n\n## Tests\n%s",
		ref, summary, formatTestResults(results, commands))
}
