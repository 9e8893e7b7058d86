package provider

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/microbemap/assistant/internal/domain"
	"github.com/microbemap/assistant/internal/extract"
	"github.com/microbemap/assistant/internal/prompt"
	"github.com/microbemap/assistant/internal/provider/gemini"
	"github.com/microbemap/assistant/internal/provider/openaicompat"
	"github.com/microbemap/assistant/internal/tokens"
	"github.com/microbemap/assistant/internal/wire"
)

// HelpQueryPrefix marks the transient user turn appended for a help call.
const HelpQueryPrefix = "HELP_QUERY: "

// attributionTitle is sent to aggregators that require attribution headers.
const attributionTitle = "MicrobeMap AI"

// Router decides, per call, which backend to contact and performs the network
// round trip. No retries: a call either succeeds or the caller sees the
// failure.
type Router struct {
	logger        *slog.Logger
	httpClient    *http.Client
	proxyEndpoint string
	appOrigin     string
	estimator     *tokens.Estimator
}

// Option configures the router.
type Option func(*Router)

// WithHTTPClient sets the HTTP client used for OpenAI-compatible calls.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Router) { r.httpClient = c }
}

// WithAppOrigin sets the origin sent in attribution headers.
func WithAppOrigin(origin string) Option {
	return func(r *Router) { r.appOrigin = origin }
}

// NewRouter creates a router. proxyEndpoint is the absolute URL of the
// same-origin proxy used in non-direct mode.
func NewRouter(logger *slog.Logger, proxyEndpoint string, opts ...Option) *Router {
	r := &Router{
		logger:        logger,
		httpClient:    http.DefaultClient,
		proxyEndpoint: proxyEndpoint,
		estimator:     tokens.NewEstimator(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Respond sends the full conversation to the configured backend and
// normalizes the raw reply into a StructuredResponse.
func (r *Router) Respond(ctx context.Context, cfg Config, conv domain.Conversation, lang string) (*domain.StructuredResponse, error) {
	raw, err := r.call(ctx, cfg, conv, prompt.System(lang, cfg.ReportDetail), true)
	if err != nil {
		return nil, err
	}
	return extract.Extract(raw)
}

// Help answers a free-form side query. The query travels as a transient user
// turn appended to an outbound copy only; the reply is plain text and is
// never run through the extractor.
func (r *Router) Help(ctx context.Context, cfg Config, conv domain.Conversation, query, lang string) (string, error) {
	helpConv := conv.AppendUser(HelpQueryPrefix + query)
	return r.call(ctx, cfg, helpConv, prompt.HelpSystem(lang), false)
}

// call implements the routing decision table.
func (r *Router) call(ctx context.Context, cfg Config, conv domain.Conversation, system string, jsonOnly bool) (string, error) {
	if cfg.APIKey == "" {
		return "", domain.ErrConfiguration("no API key configured")
	}
	cfg = cfg.Normalize()

	if cfg.Kind == KindGemini {
		return r.callGemini(ctx, cfg, conv, system, jsonOnly)
	}
	return r.callOpenAICompatible(ctx, cfg, conv, system)
}

func (r *Router) callGemini(ctx context.Context, cfg Config, conv domain.Conversation, system string, jsonOnly bool) (string, error) {
	client, err := gemini.NewClient(ctx, cfg.APIKey, cfg.Model)
	if err != nil {
		return "", err
	}
	r.logPromptSize(cfg, conv, system)
	return client.Generate(ctx, wire.ToGeminiContents(conv), system, jsonOnly)
}

func (r *Router) callOpenAICompatible(ctx context.Context, cfg Config, conv domain.Conversation, system string) (string, error) {
	messages := wire.ToOpenAIMessages(conv, system)
	r.logPromptSize(cfg, conv, system)

	if cfg.DirectClient {
		baseURL := cfg.ResolveBaseURL()
		opts := []openaicompat.ClientOption{
			openaicompat.WithBaseURL(baseURL),
			openaicompat.WithHTTPClient(r.httpClient),
		}
		// Aggregators that require attribution get it only in direct mode;
		// in proxy mode the browser origin is not ours to claim.
		if strings.Contains(baseURL, "openrouter.ai") {
			opts = append(opts,
				openaicompat.WithHeader("Referer", r.appOrigin),
				openaicompat.WithHeader("X-Title", attributionTitle),
			)
		}
		client := openaicompat.NewClient(cfg.APIKey, opts...)
		temp := wire.Temperature
		resp, err := client.CreateChatCompletion(ctx, &openaicompat.ChatCompletionRequest{
			Model:       cfg.Model,
			Messages:    messages,
			Temperature: &temp,
		})
		if err != nil {
			return "", err
		}
		return resp.FirstContent(), nil
	}

	proxy := openaicompat.NewProxyClient(r.proxyEndpoint, cfg.APIKey,
		openaicompat.WithProxyHTTPClient(r.httpClient))
	req := &openaicompat.ProxyRequest{
		Model:       cfg.Model,
		Messages:    messages,
		Temperature: wire.Temperature,
	}
	// Well-known kinds resolve server-side from an explicit URL; only pass
	// one when we have something other than the generic default.
	if u := cfg.ResolveBaseURL(); u != openaicompat.DefaultBaseURL {
		req.BaseURL = u
	}
	resp, err := proxy.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.FirstContent(), nil
}

func (r *Router) logPromptSize(cfg Config, conv domain.Conversation, system string) {
	if r.logger == nil {
		return
	}
	var b strings.Builder
	b.WriteString(system)
	for _, turn := range conv {
		b.WriteString("\n")
		b.WriteString(turn.Text())
	}
	r.logger.Debug("dispatching model call",
		slog.String("provider", string(cfg.Kind)),
		slog.String("model", cfg.Model),
		slog.Bool("direct", cfg.DirectClient),
		slog.Int("turns", len(conv)),
		slog.Int("prompt_tokens_estimate", r.estimator.Count(cfg.Model, b.String())),
	)
}
