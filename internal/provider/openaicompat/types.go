// Package openaicompat provides the HTTP clients and wire types for the
// OpenAI-compatible backend family, reachable either directly with a bearer
// token or through the same-origin proxy endpoint.
package openaicompat

// ChatMessage is one entry in the flattened {role, content} message list.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Message roles understood by OpenAI-compatible backends.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatCompletionRequest is the subset of the chat completions request this
// service sends. Temperature is a pointer so zero survives serialization.
type ChatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature *float32      `json:"temperature,omitempty"`
}

// ChatCompletionResponse is the subset of the chat completions response this
// service reads.
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage,omitempty"`
}

// Choice is a single completion choice.
type Choice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// Usage reports token accounting from the upstream.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// FirstContent returns the content of the first choice, or "" when the
// upstream returned no choices.
func (r *ChatCompletionResponse) FirstContent() string {
	if len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// ProxyRequest is the body posted to the same-origin proxy endpoint. The
// proxy resolves the base URL and attaches the bearer token server-side.
type ProxyRequest struct {
	BaseURL     string        `json:"baseUrl,omitempty"`
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
}

// APIKeyHeader carries the credential to the proxy, distinct from the
// standard Authorization header the proxy sets itself.
const APIKeyHeader = "x-api-key"
