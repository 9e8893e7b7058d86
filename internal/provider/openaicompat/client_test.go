package openaicompat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/microbemap/assistant/internal/domain"
	"github.com/microbemap/assistant/internal/testutil"
)

func completionBody(content string) string {
	b, _ := json.Marshal(ChatCompletionResponse{
		ID:      "chatcmpl-1",
		Object:  "chat.completion",
		Model:   "gpt-4o-mini",
		Choices: []Choice{{Message: ChatMessage{Role: RoleAssistant, Content: content}, FinishReason: "stop"}},
	})
	return string(b)
}

func TestCreateChatCompletion(t *testing.T) {
	var gotAuth, gotPath, gotReferer string
	var gotReq ChatCompletionRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotReferer = r.Header.Get("Referer")
		json.NewDecoder(r.Body).Decode(&gotReq)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionBody(`{"responseText":"ok"}`)))
	}))
	defer srv.Close()

	client := NewClient("sk-test",
		WithBaseURL(srv.URL+"/"),
		WithHeader("Referer", "https://lab.example"),
	)

	temp := float32(0.2)
	resp, err := client.CreateChatCompletion(context.Background(), &ChatCompletionRequest{
		Model:       "gpt-4o-mini",
		Messages:    []ChatMessage{{Role: RoleSystem, Content: "s"}, {Role: RoleUser, Content: "hi"}},
		Temperature: &temp,
	})
	if err != nil {
		t.Fatalf("CreateChatCompletion() error = %v", err)
	}

	if gotAuth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotPath != "/chat/completions" {
		t.Errorf("path = %q, want /chat/completions", gotPath)
	}
	if gotReferer != "https://lab.example" {
		t.Errorf("Referer = %q", gotReferer)
	}
	if gotReq.Temperature == nil || *gotReq.Temperature != 0.2 {
		t.Errorf("temperature = %v, want 0.2", gotReq.Temperature)
	}
	if got := resp.FirstContent(); got != `{"responseText":"ok"}` {
		t.Errorf("FirstContent() = %q", got)
	}
}

func TestCreateChatCompletionUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer srv.Close()

	client := NewClient("sk-bad", WithBaseURL(srv.URL))
	_, err := client.CreateChatCompletion(context.Background(), &ChatCompletionRequest{Model: "gpt-4o-mini"})
	if err == nil {
		t.Fatal("error = nil, want transport error")
	}
	if !domain.IsType(err, domain.ErrorTypeTransport) {
		t.Fatalf("error type = %v, want transport", err)
	}
	var de *domain.Error
	if !errors.As(err, &de) {
		t.Fatalf("error %v is not a domain error", err)
	}
	if de.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", de.StatusCode)
	}
	if de.Body == "" {
		t.Error("Body is empty, want upstream body")
	}
}

func TestFirstContentNoChoices(t *testing.T) {
	resp := &ChatCompletionResponse{}
	if got := resp.FirstContent(); got != "" {
		t.Errorf("FirstContent() = %q, want empty", got)
	}
}

func TestProxyClientSendsKeyHeader(t *testing.T) {
	var gotKey string
	var gotReq ProxyRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get(APIKeyHeader)
		json.NewDecoder(r.Body).Decode(&gotReq)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionBody("proxied")))
	}))
	defer srv.Close()

	client := NewProxyClient(srv.URL, "sk-proxy")
	resp, err := client.CreateChatCompletion(context.Background(), &ProxyRequest{
		BaseURL:     "https://llm.lab.example/v1",
		Model:       "gpt-4o-mini",
		Messages:    []ChatMessage{{Role: RoleUser, Content: "hi"}},
		Temperature: 0.2,
	})
	if err != nil {
		t.Fatalf("CreateChatCompletion() error = %v", err)
	}

	if gotKey != "sk-proxy" {
		t.Errorf("%s = %q", APIKeyHeader, gotKey)
	}
	if gotReq.BaseURL != "https://llm.lab.example/v1" {
		t.Errorf("forwarded baseUrl = %q", gotReq.BaseURL)
	}
	if got := resp.FirstContent(); got != "proxied" {
		t.Errorf("FirstContent() = %q", got)
	}
}

func TestCreateChatCompletionVCR(t *testing.T) {
	r, cleanup := testutil.NewVCRRecorder(t, "chat_completion")
	defer cleanup()

	client := NewClient("sk-recorded", WithHTTPClient(testutil.VCRHTTPClient(r)))
	resp, err := client.CreateChatCompletion(context.Background(), &ChatCompletionRequest{
		Model:    "gpt-4o-mini",
		Messages: []ChatMessage{{Role: RoleUser, Content: "ping"}},
	})
	if err != nil {
		t.Fatalf("CreateChatCompletion() error = %v", err)
	}
	if got := resp.FirstContent(); got == "" {
		t.Error("FirstContent() is empty, want recorded content")
	}
}
