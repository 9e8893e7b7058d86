// Package provider selects and dispatches to the configured LLM backend: the
// first-party Gemini API, or an OpenAI-compatible endpoint reached either
// directly or through the same-origin proxy.
package provider

import (
	"strings"
	"sync"

	"github.com/microbemap/assistant/internal/prompt"
	"github.com/microbemap/assistant/internal/provider/gemini"
	"github.com/microbemap/assistant/internal/provider/openaicompat"
)

// Kind names a backend family or a well-known OpenAI-compatible provider.
type Kind string

const (
	KindGemini     Kind = "gemini"
	KindOpenAI     Kind = "openai"
	KindOpenRouter Kind = "openrouter"
	KindCustom     Kind = "custom"
)

// OpenRouterBaseURL is the documented base URL for OpenRouter.
const OpenRouterBaseURL = "https://openrouter.ai/api/v1"

// DefaultOpenAIModel is used for the OpenAI-compatible family when no model
// is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// Config is the process-wide, user-editable provider configuration. It is
// overwritten wholesale on save; Normalize back-fills defaults, never merges.
type Config struct {
	Kind         Kind                `json:"provider"`
	APIKey       string              `json:"apiKey"`
	Model        string              `json:"model,omitempty"`
	BaseURL      string              `json:"baseUrl,omitempty"`
	DirectClient bool                `json:"directClient"`
	ReportDetail prompt.ReportDetail `json:"reportDetail,omitempty"`
}

// Normalize returns a copy with defaults supplied for absent or invalid
// fields.
func (c Config) Normalize() Config {
	switch c.Kind {
	case KindGemini, KindOpenAI, KindOpenRouter, KindCustom:
	default:
		c.Kind = KindGemini
	}
	if c.Model == "" {
		if c.Kind == KindGemini {
			c.Model = gemini.DefaultModel
		} else {
			c.Model = DefaultOpenAIModel
		}
	}
	if c.ReportDetail != prompt.DetailNormal && c.ReportDetail != prompt.DetailMore {
		c.ReportDetail = prompt.DetailMore
	}
	return c
}

// ResolveBaseURL applies the base URL resolution rules: a well-known provider
// name maps to its documented URL, an explicit custom URL is used verbatim
// with any trailing slash stripped, and absent both the generic default wins.
func (c Config) ResolveBaseURL() string {
	switch c.Kind {
	case KindOpenAI:
		return openaicompat.DefaultBaseURL
	case KindOpenRouter:
		return OpenRouterBaseURL
	}
	if u := strings.TrimSpace(c.BaseURL); u != "" {
		return strings.TrimSuffix(u, "/")
	}
	return openaicompat.DefaultBaseURL
}

// Holder guards the current provider configuration and notifies a persistence
// hook on every overwrite.
type Holder struct {
	mu       sync.RWMutex
	cfg      Config
	onChange func(Config)
}

// NewHolder creates a holder seeded with the given configuration.
func NewHolder(cfg Config, onChange func(Config)) *Holder {
	return &Holder{cfg: cfg.Normalize(), onChange: onChange}
}

// Get returns the current configuration.
func (h *Holder) Get() Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cfg
}

// Set overwrites the configuration wholesale, back-filling defaults, and
// invokes the persistence hook.
func (h *Holder) Set(cfg Config) Config {
	normalized := cfg.Normalize()
	h.mu.Lock()
	h.cfg = normalized
	h.mu.Unlock()
	if h.onChange != nil {
		h.onChange(normalized)
	}
	return normalized
}
