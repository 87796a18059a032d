// Package anthropic adapts the Anthropic Messages API to the memory
// package's Generator interface. The summarizer treats generation as an
// opaque text-in/text-out call; this is the production implementation.
package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/sageai/sage-go-sdk/memory"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "claude-sonnet-4-20250514"

// Config configures the generator.
type Config struct {
	// Model is the Claude model to use.
	Model string

	// MaxTokens caps the response size. Summaries are short; the
	// default of 512 matches the original assistant.
	MaxTokens int64
}

// Generator implements memory.Generator on the Anthropic client.
type Generator struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
}

var _ memory.Generator = (*Generator)(nil)

// New creates a Generator over an existing Anthropic client.
func New(client *anthropic.Client, cfg Config) *Generator {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 512
	}
	return &Generator{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
	}
}

// Generate sends prompt as a single user message and returns the
// concatenated text blocks of the reply.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: g.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic generate: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, nil
}
