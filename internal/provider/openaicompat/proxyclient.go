package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/microbemap/assistant/internal/domain"
)

// ProxyClient routes chat completion calls through the same-origin proxy
// endpoint instead of contacting the upstream directly. The API key travels
// in a dedicated header; the proxy attaches the bearer token itself.
type ProxyClient struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// ProxyClientOption configures the proxy client.
type ProxyClientOption func(*ProxyClient)

// WithProxyHTTPClient sets a custom HTTP client.
func WithProxyHTTPClient(httpClient *http.Client) ProxyClientOption {
	return func(c *ProxyClient) {
		c.httpClient = httpClient
	}
}

// NewProxyClient creates a client that posts to the given proxy endpoint URL.
func NewProxyClient(endpoint, apiKey string, opts ...ProxyClientOption) *ProxyClient {
	c := &ProxyClient{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateChatCompletion sends the proxy request and decodes the upstream
// OpenAI-compatible body the proxy passes through verbatim.
func (c *ProxyClient) CreateChatCompletion(ctx context.Context, req *ProxyRequest) (*ChatCompletionResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(APIKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, domain.ErrTransport(resp.StatusCode, string(respBody))
	}

	var result ChatCompletionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &result, nil
}
