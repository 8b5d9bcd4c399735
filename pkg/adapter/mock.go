package adapter

import (
	"context"
	"fmt"

	"github.com/zen-systems/scriptflow/pkg/artifact"
)

// MockAdapter returns deterministic responses for local runs and tests.
// When built with NewScriptedAdapter it replays a fixed sequence of replies,
// which lets tests drive the stage runner through invalid attempts, transport
// errors, and eventual success.
type MockAdapter struct {
	responses       map[string]string
	defaultResponse string
	script          []ScriptedReply
	calls           int
	prompts         []string
}

// ScriptedReply is a single canned oracle turn.
type ScriptedReply struct {
	Content string
	Err     error
}

// NewMockAdapter creates a mock adapter with a default response.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{
		responses:       make(map[string]string),
		defaultResponse: "mock response:",
	}
}

// NewMockAdapterWithResponses creates a mock adapter with predefined responses
// keyed by exact prompt.
func NewMockAdapterWithResponses(responses map[string]string, defaultResponse string) *MockAdapter {
	if defaultResponse == "" {
		defaultResponse = "mock response:"
	}
	return &MockAdapter{responses: responses, defaultResponse: defaultResponse}
}

// NewScriptedAdapter creates a mock adapter that replays replies in order.
// Once the script is exhausted the last reply repeats.
func NewScriptedAdapter(replies ...ScriptedReply) *MockAdapter {
	return &MockAdapter{script: replies}
}

// Name returns the adapter identifier.
func (a *MockAdapter) Name() string {
	return "mock"
}

// Models returns the list of supported mock models.
func (a *MockAdapter) Models() []string {
	return []string{"mock-1"}
}

// Calls reports how many times Generate has been invoked.
func (a *MockAdapter) Calls() int {
	return a.calls
}

// Prompts returns every prompt passed to Generate, in call order.
func (a *MockAdapter) Prompts() []string {
	return a.prompts
}

// Generate returns a deterministic artifact for the prompt.
func (a *MockAdapter) Generate(_ context.Context, model string, prompt string) (*artifact.Artifact, error) {
	a.calls++
	a.prompts = append(a.prompts, prompt)
	if model == "" {
		model = "mock-1"
	}

	if len(a.script) > 0 {
		idx := a.calls - 1
		if idx >= len(a.script) {
			idx = len(a.script) - 1
		}
		reply := a.script[idx]
		if reply.Err != nil {
			return nil, reply.Err
		}
		return artifact.New(reply.Content, a.Name(), model, prompt), nil
	}

	if response, ok := a.responses[prompt]; ok {
		return artifact.New(response, a.Name(), model, prompt), nil
	}
	content := fmt.Sprintf("%s\n%s", a.defaultResponse, prompt)
	return artifact.New(content, a.Name(), model, prompt), nil
}
