// Package wire translates the internal conversation model into the calling
// convention of each backend family. All functions are pure: they never
// mutate the input conversation.
package wire

import (
	"google.golang.org/genai"

	"github.com/microbemap/assistant/internal/domain"
	"github.com/microbemap/assistant/internal/provider/openaicompat"
)

// Temperature is fixed low to favor deterministic diagnostic answers.
const Temperature float32 = 0.2

// ToOpenAIMessages flattens a conversation into the linear {role, content}
// list OpenAI-compatible backends expect. The system instruction becomes a
// leading system entry; user turns map to user, model turns to assistant;
// multi-part turn content is joined with newlines.
func ToOpenAIMessages(conv domain.Conversation, system string) []openaicompat.ChatMessage {
	messages := make([]openaicompat.ChatMessage, 0, len(conv)+1)
	messages = append(messages, openaicompat.ChatMessage{Role: openaicompat.RoleSystem, Content: system})
	for _, turn := range conv {
		switch turn.Role {
		case domain.RoleUser:
			messages = append(messages, openaicompat.ChatMessage{Role: openaicompat.RoleUser, Content: turn.Text()})
		case domain.RoleModel:
			messages = append(messages, openaicompat.ChatMessage{Role: openaicompat.RoleAssistant, Content: turn.Text()})
		}
	}
	return messages
}

// ToGeminiContents passes turns through largely as-is: role plus text parts.
// The system instruction travels separately via GenerateContentConfig.
func ToGeminiContents(conv domain.Conversation) []*genai.Content {
	contents := make([]*genai.Content, len(conv))
	for i, turn := range conv {
		role := genai.RoleUser
		if turn.Role == domain.RoleModel {
			role = genai.RoleModel
		}
		parts := make([]*genai.Part, len(turn.Parts))
		for j, text := range turn.Parts {
			parts[j] = &genai.Part{Text: text}
		}
		contents[i] = &genai.Content{Role: role, Parts: parts}
	}
	return contents
}
