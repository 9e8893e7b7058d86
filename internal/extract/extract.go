// Package extract normalizes raw model output into a StructuredResponse.
//
// Model replies are unreliable prose-wrapped JSON. The extractor slices the
// outermost brace pair and parses it; anything that fails to parse degrades
// to a deterministic fallback rather than an error, so malformed-but-present
// text still reaches the user as a plain narrative message.
package extract

import (
	"encoding/json"
	"strings"

	"github.com/microbemap/assistant/internal/domain"
)

// FallbackThought marks responses recovered from a formatting failure. It is
// diagnostic only and never rendered as a chat bubble.
const FallbackThought = "Fallback due to response format error. The model's response was not valid JSON."

// Extract produces a StructuredResponse from raw model text.
//
// The only failure mode is an empty or all-whitespace reply: falling back
// there would show the user nothing, so it surfaces as domain.ErrEmptyReply
// instead. Every other input yields a value.
func Extract(raw string) (*domain.StructuredResponse, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, domain.ErrEmptyReply
	}

	first := strings.Index(raw, "{")
	last := strings.LastIndex(raw, "}")
	if first != -1 && last > first {
		var parsed domain.StructuredResponse
		if err := json.Unmarshal([]byte(raw[first:last+1]), &parsed); err == nil {
			return &parsed, nil
		}
	}

	return &domain.StructuredResponse{
		Thought:      FallbackThought,
		ResponseText: raw,
		QuickReplies: []string{},
	}, nil
}
