// Package llm talks to the language model behind the agent. The Client
// interface is the narrow surface the rest of the tool consumes; the
// default implementation speaks to any OpenAI-compatible chat endpoint.
package llm

import "context"

// Client is the model surface the agent consumes. Every call blocks
// until the full response text is available; there is no streaming and
// no partial result. Cancellation rides on the context.
type Client interface {
	// GeneratePlan asks for a structured fix plan given the issue and a
	// summary of the repository.
	GeneratePlan(ctx context.Context, issuePrompt, repoSummary string) (Plan, error)

	// ProposePatch asks for unified-diff patches implementing the plan.
	ProposePatch(ctx context.Context, issuePrompt string, plan Plan, fileContext string) (string, error)

	// RefinePatch feeds a failed patch and its apply error back to the
	// model for correction.
	RefinePatch(ctx context.Context, issuePrompt string, plan Plan, repoContext, failedPatch, errorMessage string) (string, error)

	// RewriteFile asks for the complete corrected content of one file.
	RewriteFile(ctx context.Context, issuePrompt string, plan Plan, filePath, currentText string) (string, error)
}
