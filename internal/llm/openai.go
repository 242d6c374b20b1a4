package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Options configures the OpenAI-compatible client. BaseURL may point at
// any endpoint speaking the chat-completions protocol.
type Options struct {
	APIKey  string
	BaseURL string
	Model   string
}

// OpenAIClient implements Client over the chat-completions API.
type OpenAIClient struct {
	client openai.Client
	model  string
}

// NewOpenAIClient builds a client from explicit options; nothing here
// reads the environment.
func NewOpenAIClient(opts Options) (*OpenAIClient, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("llm: api key is required")
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	model := opts.Model
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAIClient{
		client: openai.NewClient(reqOpts...),
		model:  model,
	}, nil
}

func (c *OpenAIClient) GeneratePlan(ctx context.Context, issuePrompt, repoSummary string) (Plan, error) {
	raw, err := c.chat(ctx, planSystem, planUser(issuePrompt, repoSummary), 0.2)
	if err != nil {
		return Plan{}, err
	}
	return DecodePlan(raw), nil
}

func (c *OpenAIClient) ProposePatch(ctx context.Context, issuePrompt string, plan Plan, fileContext string) (string, error) {
	return c.chat(ctx, patchSystem, patchUser(issuePrompt, plan, fileContext), 0.1)
}

func (c *OpenAIClient) RefinePatch(ctx context.Context, issuePrompt string, plan Plan, repoContext, failedPatch, errorMessage string) (string, error) {
	return c.chat(ctx, refineSystem, refineUser(issuePrompt, plan, repoContext, failedPatch, errorMessage), 0.1)
}

func (c *OpenAIClient) RewriteFile(ctx context.Context, issuePrompt string, plan Plan, filePath, currentText string) (string, error) {
	return c.chat(ctx, rewriteSystem, rewriteUser(issuePrompt, plan, filePath, currentText), 0.1)
}

func (c *OpenAIClient) chat(ctx context.Context, system, user string, temperature float64) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}
