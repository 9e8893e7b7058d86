package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/microbemap/assistant/internal/domain"
	"github.com/microbemap/assistant/internal/provider"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sessions := map[string]*domain.ChatSession{
		"P-1": {
			Info: domain.CaseInfo{ID: "P-1", Type: "ECBU", Count: "10^5"},
			Messages: []domain.ChatMessage{
				{Content: "What is the gender?", Kind: domain.MessageModel, Timestamp: created},
			},
			Conversation: domain.NewCaseConversation(domain.CaseInfo{ID: "P-1", Type: "ECBU", Count: "10^5"}),
			CreatedAt:    created,
		},
		"P-2": {
			Info:       domain.CaseInfo{ID: "P-2", Type: "hemoculture"},
			IsFinished: true,
			CreatedAt:  created.Add(time.Hour),
		},
	}

	if err := s.SaveSessions(ctx, sessions); err != nil {
		t.Fatalf("SaveSessions() error = %v", err)
	}

	loaded, err := s.LoadSessions(ctx)
	if err != nil {
		t.Fatalf("LoadSessions() error = %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d sessions, want 2", len(loaded))
	}
	p1 := loaded["P-1"]
	if p1 == nil {
		t.Fatal("P-1 missing")
	}
	if p1.Info.Count != "10^5" {
		t.Errorf("Count = %q", p1.Info.Count)
	}
	if len(p1.Conversation) != 1 || len(p1.Messages) != 1 {
		t.Errorf("conversation/messages = %d/%d, want 1/1", len(p1.Conversation), len(p1.Messages))
	}
	if !loaded["P-2"].IsFinished {
		t.Error("P-2 IsFinished lost")
	}

	// A save rewrites the table in full: removed sessions disappear.
	delete(sessions, "P-2")
	if err := s.SaveSessions(ctx, sessions); err != nil {
		t.Fatalf("SaveSessions() error = %v", err)
	}
	loaded, err = s.LoadSessions(ctx)
	if err != nil {
		t.Fatalf("LoadSessions() error = %v", err)
	}
	if len(loaded) != 1 {
		t.Errorf("loaded %d sessions after rewrite, want 1", len(loaded))
	}
}

func TestActiveSessionRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.LoadActiveSession(ctx)
	if err != nil {
		t.Fatalf("LoadActiveSession() error = %v", err)
	}
	if id != "" {
		t.Errorf("fresh store active id = %q, want empty", id)
	}

	if err := s.SaveActiveSession(ctx, "P-7"); err != nil {
		t.Fatalf("SaveActiveSession() error = %v", err)
	}
	id, err = s.LoadActiveSession(ctx)
	if err != nil {
		t.Fatalf("LoadActiveSession() error = %v", err)
	}
	if id != "P-7" {
		t.Errorf("active id = %q, want P-7", id)
	}

	// Saving empty clears the pointer.
	if err := s.SaveActiveSession(ctx, ""); err != nil {
		t.Fatalf("SaveActiveSession(\"\") error = %v", err)
	}
	id, err = s.LoadActiveSession(ctx)
	if err != nil {
		t.Fatalf("LoadActiveSession() error = %v", err)
	}
	if id != "" {
		t.Errorf("active id = %q, want cleared", id)
	}
}

func TestProviderConfigRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, ok, err := s.LoadProviderConfig(ctx)
	if err != nil {
		t.Fatalf("LoadProviderConfig() error = %v", err)
	}
	if ok {
		t.Error("fresh store reports a stored config")
	}

	cfg := provider.Config{Kind: provider.KindOpenRouter, APIKey: "sk", Model: "llama-3.1", DirectClient: true}
	if err := s.SaveProviderConfig(ctx, cfg); err != nil {
		t.Fatalf("SaveProviderConfig() error = %v", err)
	}

	got, ok, err := s.LoadProviderConfig(ctx)
	if err != nil {
		t.Fatalf("LoadProviderConfig() error = %v", err)
	}
	if !ok {
		t.Fatal("stored config not found")
	}
	if got != cfg {
		t.Errorf("config = %+v, want %+v", got, cfg)
	}

	// Overwrite wins.
	cfg.Model = "llama-3.3"
	if err := s.SaveProviderConfig(ctx, cfg); err != nil {
		t.Fatalf("SaveProviderConfig() error = %v", err)
	}
	got, _, err = s.LoadProviderConfig(ctx)
	if err != nil {
		t.Fatalf("LoadProviderConfig() error = %v", err)
	}
	if got.Model != "llama-3.3" {
		t.Errorf("Model = %q, want overwrite", got.Model)
	}
}
