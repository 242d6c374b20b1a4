// Package cli wires the felix commands. Commands stay thin: flag
// parsing and construction only, with the work done by the workflow
// package.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "felix",
	Short: "Automated issue fixing with LLM-generated patches",
	Long: `Felix turns a tracked issue into a proposed code change: it asks a
language model to plan and produce a patch, applies the patch to a
working copy with bounded repair retries, runs tests, commits, and can
open a pull request.

Get started:
  felix fix issue.md --repo /path/to/checkout --dry-run`,
	Version: version,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("felix version %s\n", version))
}
