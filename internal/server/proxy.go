package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/microbemap/assistant/internal/provider/openaicompat"
)

// ProxyPath is the same-origin endpoint the browser posts to in proxy mode.
const ProxyPath = "/api/chat"

// ProxyHandler forwards chat completion requests to an OpenAI-compatible
// upstream, attaching the bearer token server-side. The upstream body is
// passed through verbatim on success.
type ProxyHandler struct {
	httpClient *http.Client
}

// NewProxyHandler creates the proxy handler. A nil client falls back to
// http.DefaultClient.
func NewProxyHandler(httpClient *http.Client) *ProxyHandler {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ProxyHandler{httpClient: httpClient}
}

// proxyRequestBody mirrors openaicompat.ProxyRequest with a nullable
// temperature so an absent field gets the default.
type proxyRequestBody struct {
	BaseURL     string                     `json:"baseUrl"`
	Model       string                     `json:"model"`
	Messages    []openaicompat.ChatMessage `json:"messages"`
	Temperature *float32                   `json:"temperature"`
}

// HandleOptions answers the CORS preflight with permissive headers scoped to
// the request's origin.
func (h *ProxyHandler) HandleOptions(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = "*"
	}
	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+openaicompat.APIKeyHeader)
	w.Header().Set("Access-Control-Max-Age", "86400")
	w.WriteHeader(http.StatusNoContent)
}

// HandlePost forwards one chat completion round trip.
func (h *ProxyHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = "*"
	}

	var req proxyRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProxyError(w, origin, http.StatusBadRequest, "Invalid request body")
		return
	}

	apiKey := r.Header.Get(openaicompat.APIKeyHeader)
	if apiKey == "" {
		writeProxyError(w, origin, http.StatusBadRequest, "Missing API key")
		return
	}

	urlBase := strings.TrimSuffix(strings.TrimSpace(req.BaseURL), "/")
	if urlBase == "" {
		urlBase = openaicompat.DefaultBaseURL
	}
	model := req.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	temperature := float32(0.2)
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	upstreamBody, err := json.Marshal(openaicompat.ChatCompletionRequest{
		Model:       model,
		Messages:    req.Messages,
		Temperature: &temperature,
	})
	if err != nil {
		writeProxyError(w, origin, http.StatusInternalServerError, err.Error())
		return
	}

	upstreamReq, err := http.NewRequestWithContext(r.Context(), http.MethodPost,
		urlBase+"/chat/completions", bytes.NewReader(upstreamBody))
	if err != nil {
		writeProxyError(w, origin, http.StatusInternalServerError, err.Error())
		return
	}
	upstreamReq.Header.Set("Content-Type", "application/json")
	upstreamReq.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := h.httpClient.Do(upstreamReq)
	if err != nil {
		AddError(r.Context(), err)
		writeProxyError(w, origin, http.StatusInternalServerError, err.Error())
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		writeProxyError(w, origin, http.StatusInternalServerError, err.Error())
		return
	}

	// Pass the upstream body and status through verbatim.
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.WriteHeader(resp.StatusCode)
	w.Write(body)
}

func writeProxyError(w http.ResponseWriter, origin string, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
