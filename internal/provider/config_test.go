package provider

import (
	"testing"

	"github.com/microbemap/assistant/internal/prompt"
	"github.com/microbemap/assistant/internal/provider/gemini"
	"github.com/microbemap/assistant/internal/provider/openaicompat"
)

func TestConfigNormalize(t *testing.T) {
	t.Run("empty config gets gemini defaults", func(t *testing.T) {
		cfg := Config{}.Normalize()
		if cfg.Kind != KindGemini {
			t.Errorf("Kind = %v, want gemini", cfg.Kind)
		}
		if cfg.Model != gemini.DefaultModel {
			t.Errorf("Model = %v, want %v", cfg.Model, gemini.DefaultModel)
		}
		if cfg.ReportDetail != prompt.DetailMore {
			t.Errorf("ReportDetail = %v, want more", cfg.ReportDetail)
		}
	})

	t.Run("openai family gets openai default model", func(t *testing.T) {
		cfg := Config{Kind: KindOpenRouter}.Normalize()
		if cfg.Model != DefaultOpenAIModel {
			t.Errorf("Model = %v, want %v", cfg.Model, DefaultOpenAIModel)
		}
	})

	t.Run("unknown kind falls back to gemini", func(t *testing.T) {
		cfg := Config{Kind: "mystery"}.Normalize()
		if cfg.Kind != KindGemini {
			t.Errorf("Kind = %v, want gemini", cfg.Kind)
		}
	})

	t.Run("explicit values survive", func(t *testing.T) {
		cfg := Config{Kind: KindCustom, Model: "llama-3.1-70b", ReportDetail: prompt.DetailNormal}.Normalize()
		if cfg.Model != "llama-3.1-70b" {
			t.Errorf("Model = %v", cfg.Model)
		}
		if cfg.ReportDetail != prompt.DetailNormal {
			t.Errorf("ReportDetail = %v", cfg.ReportDetail)
		}
	})
}

func TestConfigResolveBaseURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{name: "openai ignores custom url", cfg: Config{Kind: KindOpenAI, BaseURL: "https://elsewhere.example"}, want: openaicompat.DefaultBaseURL},
		{name: "openrouter fixed url", cfg: Config{Kind: KindOpenRouter}, want: OpenRouterBaseURL},
		{name: "custom url verbatim", cfg: Config{Kind: KindCustom, BaseURL: "https://llm.lab.example/v1"}, want: "https://llm.lab.example/v1"},
		{name: "custom url trailing slash stripped", cfg: Config{Kind: KindCustom, BaseURL: "https://llm.lab.example/v1/"}, want: "https://llm.lab.example/v1"},
		{name: "custom without url falls back", cfg: Config{Kind: KindCustom}, want: openaicompat.DefaultBaseURL},
		{name: "custom whitespace url falls back", cfg: Config{Kind: KindCustom, BaseURL: "   "}, want: openaicompat.DefaultBaseURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.ResolveBaseURL(); got != tt.want {
				t.Errorf("ResolveBaseURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHolderSetNormalizesAndNotifies(t *testing.T) {
	var saved []Config
	h := NewHolder(Config{Kind: KindGemini, APIKey: "k"}, func(c Config) {
		saved = append(saved, c)
	})

	got := h.Set(Config{Kind: "bogus", APIKey: "k2"})

	if got.Kind != KindGemini {
		t.Errorf("Set returned Kind = %v, want gemini", got.Kind)
	}
	if len(saved) != 1 {
		t.Fatalf("onChange called %d times, want 1", len(saved))
	}
	if saved[0] != got {
		t.Errorf("persisted config %+v differs from returned %+v", saved[0], got)
	}
	if h.Get() != got {
		t.Errorf("Get() = %+v, want %+v", h.Get(), got)
	}
}

func TestHolderSetOverwritesWholesale(t *testing.T) {
	h := NewHolder(Config{Kind: KindCustom, APIKey: "k", BaseURL: "https://a.example"}, nil)
	h.Set(Config{Kind: KindCustom, APIKey: "k"})
	if got := h.Get().BaseURL; got != "" {
		t.Errorf("BaseURL = %q, want cleared", got)
	}
}
