// Package gemini wraps the first-party backend's native SDK.
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-2.5-flash"

// Client calls the Gemini API through the official SDK.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient creates a Gemini client for the given credential and model name.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{client: c, model: model}, nil
}

// Generate sends the conversation with a side-channel system instruction and
// returns the raw reply text. When jsonOnly is set, the model is directed to
// return a single JSON object with no surrounding prose.
func (c *Client) Generate(ctx context.Context, contents []*genai.Content, system string, jsonOnly bool) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
	}
	if jsonOnly {
		cfg.ResponseMIMEType = "application/json"
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return resp.Text(), nil
}
