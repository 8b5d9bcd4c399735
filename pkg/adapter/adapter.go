package adapter

import (
	"context"

	"github.com/zen-systems/scriptflow/pkg/artifact"
)

// Adapter is the oracle boundary: a generative capability invoked by pipeline
// stages. Output is untrusted and must pass extraction and validation before
// any stage relies on it.
type Adapter interface {
	// Generate sends a prompt to the model and returns an artifact.
	Generate(ctx context.Context, model string, prompt string) (*artifact.Artifact, error)

	// Name returns the adapter's identifier.
	Name() string

	// Models returns the list of supported models.
	Models() []string
}

// Selection pairs an adapter with the model a stage should use.
type Selection struct {
	Adapter Adapter
	Model   string
}

// DefaultModel returns the adapter's first model when none is configured.
func (s Selection) DefaultModel() string {
	if s.Model != "" {
		return s.Model
	}
	if s.Adapter == nil {
		return ""
	}
	models := s.Adapter.Models()
	if len(models) == 0 {
		return ""
	}
	return models[0]
}
