package llm

import "fmt"

const planSystem = "You are a senior engineer. Produce a terse JSON plan for fixing the bug."

const patchSystem = "You output unified diff patches compatible with git apply. " +
	"Each file must start with 'diff --git' and include proper context. " +
	"Wrap the entire response in one ```diff code fence. " +
	"Only modify the minimal lines related to the bug; do not rewrite unrelated code. " +
	"Always include the test changes required to prove the fix."

const refineSystem = "You output unified diff patches compatible with git apply. " +
	"Each file must begin with diff --git and include context. " +
	"Wrap everything in a ```diff fence and only touch lines relevant to the failure. " +
	"Include or fix the corresponding test case."

const rewriteSystem = "Rewrite the provided file to fix the bug. " +
	"Return the full file content only, inside a single code fence. " +
	"Do not include explanations."

func planUser(issuePrompt, repoSummary string) string {
	return fmt.Sprintf(
		"Issue:\n%s\n\nRepository status:\n%s\n"+
			"Respond with JSON containing keys analysis, proposed_changes, tests. "+
			"Tests section must describe the concrete regression test you will add or update.",
		issuePrompt, repoSummary)
}

func patchUser(issuePrompt string, plan Plan, fileContext string) string {
	return fmt.Sprintf(
		"Issue:\n%s\nPlan:\n%s\nRepository context:\n%s\nReturn diff relative to working tree.",
		issuePrompt, plan.PromptJSON(), fileContext)
}

func refineUser(issuePrompt string, plan Plan, repoContext, failedPatch, errorMessage string) string {
	return fmt.Sprintf(
		"Issue:\n%s\nPlan:\n%s\nRepository context:\n%s\n"+
			"The previous patch failed to apply with error:\n%s\n"+
			"Here is the failing patch:\n```diff\n%s\n```\nReturn a corrected patch.",
		issuePrompt, plan.PromptJSON(), repoContext, errorMessage, failedPatch)
}

func rewriteUser(issuePrompt string, plan Plan, filePath, currentText string) string {
	return fmt.Sprintf(
		"Issue:\n%s\nPlan:\n%s\n\nFile path: %s\nCurrent contents:\n```\n%s\n```\n"+
			"Return the corrected file contents.",
		issuePrompt, plan.PromptJSON(), filePath, currentText)
}
