package adapter

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/zen-systems/scriptflow/pkg/artifact"
)

// LocalAdapter talks to an OpenAI-compatible endpoint on the local machine,
// typically an Ollama server. It is the cheap oracle used for planning and
// review when no remote key is needed.
type LocalAdapter struct {
	client openai.Client
	model  string
}

// NewLocalAdapter creates an adapter for a local OpenAI-compatible endpoint.
func NewLocalAdapter(baseURL, model string) (*LocalAdapter, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("local endpoint URL is required")
	}
	if model == "" {
		model = "gemma3:1b"
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey("local"),
	)
	return &LocalAdapter{client: client, model: model}, nil
}

// Name returns the adapter identifier.
func (a *LocalAdapter) Name() string {
	return "local"
}

// Models returns the configured local model.
func (a *LocalAdapter) Models() []string {
	return []string{a.model}
}

// Generate sends a prompt to the local endpoint and returns the response as
// an artifact.
func (a *LocalAdapter) Generate(ctx context.Context, model string, prompt string) (*artifact.Artifact, error) {
	if model == "" {
		model = a.model
	}

	resp, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return nil, &Error{Temporary: true, Err: fmt.Errorf("local endpoint error: %w", err)}
	}

	if len(resp.Choices) == 0 {
		return nil, &Error{Err: fmt.Errorf("local endpoint returned no choices")}
	}

	content := resp.Choices[0].Message.Content
	return artifact.New(content, a.Name(), model, prompt), nil
}
