package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixhq/felix/internal/config"
	"github.com/felixhq/felix/internal/display"
	"github.com/felixhq/felix/internal/github"
	"github.com/felixhq/felix/internal/issue"
	"github.com/felixhq/felix/internal/llm"
	"github.com/felixhq/felix/internal/workflow"
)

var (
	fixRepo        string
	fixBaseBranch  string
	fixTests       []string
	fixDryRun      bool
	fixMaxAttempts int
	fixModel       string
	fixNoColor     bool
)

var fixCmd = &cobra.Command{
	Use:   "fix <issue-file>",
	Short: "Fix the issue described in a local file",
	Long: `Fix runs the full workflow for one issue: plan, patch, apply with
refinement, test, commit, and (unless --dry-run) push and open a PR.

The issue file is JSON ({"key", "summary", "description", ...}) or
markdown with a "# KEY: Summary" header.

Examples:
  felix fix issue.md --repo ~/src/widgets --dry-run
  felix fix FELIX-42.json --repo . --test "go test ./..." --base-branch main`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		cfg, err := config.Load(cwd)
		if err != nil {
			return err
		}
		applyFlagOverrides(cfg)

		if cfg.Repo.Path == "" {
			cfg.Repo.Path = cwd
		}
		if cfg.LLM.APIKey == "" {
			return errors.New("no LLM API key configured (set FELIX_LLM_API_KEY or OPENAI_API_KEY)")
		}

		iss, err := issue.Load(args[0])
		if err != nil {
			return err
		}

		client, err := llm.NewOpenAIClient(llm.Options{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
		})
		if err != nil {
			return err
		}

		var prs workflow.PullRequestCreator
		if cfg.GitHub.Token != "" && cfg.GitHub.Repo != "" {
			prs = github.NewClient(cfg.GitHub.Token, cfg.GitHub.Repo, cfg.GitHub.BaseURL)
		}

		d := display.NewWithOptions(fixNoColor)
		result, err := workflow.Run(cmd.Context(), workflow.Options{
			Issue:        iss,
			RepoDir:      cfg.Repo.Path,
			BaseBranch:   cfg.Repo.BaseBranch,
			BranchPrefix: cfg.Repo.BranchPrefix,
			TestCommands: cfg.Repo.TestCommands,
			MaxAttempts:  fixMaxAttempts,
			DryRun:       fixDryRun,
			LLM:          client,
			PullRequests: prs,
			Progress:     d.Observer(),
		})
		if err != nil {
			d.Error(err.Error())
			return err
		}

		d.Success(fmt.Sprintf("Fix for %s ready on %s", result.IssueKey, result.Branch))
		if result.PRURL != "" {
			d.Info("PR", result.PRURL)
		}
		return nil
	},
}

func applyFlagOverrides(cfg *config.Config) {
	if fixRepo != "" {
		cfg.Repo.Path = fixRepo
	}
	if fixBaseBranch != "" {
		cfg.Repo.BaseBranch = fixBaseBranch
	}
	if len(fixTests) > 0 {
		cfg.Repo.TestCommands = fixTests
	}
	if fixModel != "" {
		cfg.LLM.Model = fixModel
	}
}

func init() {
	fixCmd.Flags().StringVar(&fixRepo, "repo", "", "path to the repository working copy (default: cwd)")
	fixCmd.Flags().StringVar(&fixBaseBranch, "base-branch", "", "branch to base the fix on")
	fixCmd.Flags().StringArrayVar(&fixTests, "test", nil, "test command to run after applying (repeatable)")
	fixCmd.Flags().BoolVar(&fixDryRun, "dry-run", false, "stop after committing; do not push or open a PR")
	fixCmd.Flags().IntVar(&fixMaxAttempts, "max-attempts", 0, "patch apply attempts before the rewrite fallback (default 3)")
	fixCmd.Flags().StringVar(&fixModel, "model", "", "model name override")
	fixCmd.Flags().BoolVar(&fixNoColor, "no-color", false, "disable colored output")
	rootCmd.AddCommand(fixCmd)
}
