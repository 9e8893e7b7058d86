// Package session owns the chat-session state machine: the session map, the
// active-session pointer, and the request/response cycle that turns model
// replies into display messages.
package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/microbemap/assistant/internal/domain"
	"github.com/microbemap/assistant/internal/provider"
	"github.com/microbemap/assistant/internal/storage"
)

// HelpPrefix routes a message to the help entry point instead of the
// diagnostic workflow.
const HelpPrefix = "/ai "

// User-visible failure texts.
const (
	startErrorText = "Error: Could not start the session."
	sendErrorText  = "There was an issue interpreting the AI's response. Please try again."
	helpErrorText  = "Failed to get help from AI."
)

// Responder abstracts the provider router.
type Responder interface {
	Respond(ctx context.Context, cfg provider.Config, conv domain.Conversation, lang string) (*domain.StructuredResponse, error)
	Help(ctx context.Context, cfg provider.Config, conv domain.Conversation, query, lang string) (string, error)
}

// SessionSummary is the sidebar projection of a session.
type SessionSummary struct {
	Info       domain.CaseInfo `json:"info"`
	IsFinished bool            `json:"isFinished"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Snapshot is the consumer contract: the active session's ordered messages,
// the loading flag, the quick replies, and the session list.
type Snapshot struct {
	ActiveID     string               `json:"activeId"`
	Messages     []domain.ChatMessage `json:"messages"`
	Loading      bool                 `json:"loading"`
	QuickReplies []string             `json:"quickReplies"`
	Sessions     []SessionSummary     `json:"sessions"`
}

// Manager drives the session state machine. All session mutations funnel
// through its mutex; model calls run outside the lock with a per-session
// single-flight guard, so at most one call per session is outstanding.
type Manager struct {
	mu           sync.Mutex
	sessions     map[string]*domain.ChatSession
	activeID     string
	quickReplies []string
	inFlight     map[string]bool
	// generation detects a delete (or delete-and-recreate) that happened
	// while a call was outstanding; the late result is then discarded.
	generation map[string]uint64

	responder Responder
	cfg       func() provider.Config
	store     storage.Store
	logger    *slog.Logger
	lang      string
	now       func() time.Time
}

// Option configures the manager.
type Option func(*Manager)

// WithClock overrides the timestamp source (tests).
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLanguage sets the language tag used for instructions.
func WithLanguage(lang string) Option {
	return func(m *Manager) { m.lang = lang }
}

// NewManager creates a manager seeded with the persisted session map and
// active pointer.
func NewManager(logger *slog.Logger, responder Responder, cfg func() provider.Config, store storage.Store, sessions map[string]*domain.ChatSession, activeID string, opts ...Option) *Manager {
	if sessions == nil {
		sessions = make(map[string]*domain.ChatSession)
	}
	if _, ok := sessions[activeID]; !ok {
		activeID = ""
	}
	m := &Manager{
		sessions:   sessions,
		activeID:   activeID,
		inFlight:   make(map[string]bool),
		generation: make(map[string]uint64),
		responder:  responder,
		cfg:        cfg,
		store:      store,
		logger:     logger,
		lang:       "en",
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// StartCase creates a session for the case and immediately requests the
// model's opening question. The case id must be unused.
func (m *Manager) StartCase(ctx context.Context, info domain.CaseInfo) error {
	if strings.TrimSpace(info.ID) == "" || strings.TrimSpace(info.Type) == "" {
		return &domain.Error{Type: domain.ErrorTypeInvalidRequest, Message: "case id and specimen type are required"}
	}
	// A missing credential is a configuration problem for the caller to fix,
	// not a chat bubble. Checked before any state is created.
	if m.cfg().APIKey == "" {
		return domain.ErrConfiguration("no API key configured")
	}

	m.mu.Lock()
	if _, exists := m.sessions[info.ID]; exists {
		m.mu.Unlock()
		return &domain.Error{Type: domain.ErrorTypeConflict, Message: "a case with this id already exists"}
	}
	sess := &domain.ChatSession{
		Info:         info,
		Messages:     []domain.ChatMessage{},
		Conversation: domain.NewCaseConversation(info),
		CreatedAt:    m.now(),
	}
	m.sessions[info.ID] = sess
	m.activeID = info.ID
	m.quickReplies = nil
	m.inFlight[info.ID] = true
	gen := m.generation[info.ID]
	conv := sess.Conversation
	m.persistLocked(ctx)
	m.mu.Unlock()

	resp, err := m.responder.Respond(ctx, m.cfg(), conv, m.lang)

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.settleLocked(ctx, info.ID, gen) {
		return nil
	}
	if err != nil {
		m.logger.Error("initial model call failed", slog.String("case", info.ID), slog.String("error", err.Error()))
		sess.Messages = append(sess.Messages, domain.ChatMessage{
			Content: startErrorText, Kind: domain.MessageError, Timestamp: m.now(),
		})
		m.persistLocked(ctx)
		return nil
	}
	m.applyResponseLocked(sess, conv, resp)
	m.persistLocked(ctx)
	return nil
}

// Send handles free text against the active session. A help-prefixed message
// goes to the help entry point and leaves the conversation untouched; any
// other text appends a user turn and runs the model-call cycle.
func (m *Manager) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return &domain.Error{Type: domain.ErrorTypeInvalidRequest, Message: "message text is required"}
	}
	if m.cfg().APIKey == "" {
		return domain.ErrConfiguration("no API key configured")
	}

	m.mu.Lock()
	sess, ok := m.sessions[m.activeID]
	if !ok {
		m.mu.Unlock()
		return &domain.Error{Type: domain.ErrorTypeNotFound, Message: "no active session"}
	}
	id := m.activeID
	if sess.IsFinished {
		m.mu.Unlock()
		return &domain.Error{Type: domain.ErrorTypeInvalidRequest, Message: "session is finished"}
	}
	if m.inFlight[id] {
		m.mu.Unlock()
		return &domain.Error{Type: domain.ErrorTypeBusy, Message: "a model call is already in flight for this session"}
	}

	sess.Messages = append(sess.Messages, domain.ChatMessage{
		Content: text, Kind: domain.MessageUser, Timestamp: m.now(),
	})

	if strings.HasPrefix(strings.ToLower(text), HelpPrefix) {
		query := strings.TrimSpace(text[len(HelpPrefix):])
		return m.sendHelp(ctx, sess, id, query)
	}

	before := sess.Conversation
	grown := before.AppendUser(text)
	sess.Conversation = grown
	m.inFlight[id] = true
	gen := m.generation[id]
	m.persistLocked(ctx)
	m.mu.Unlock()

	resp, err := m.responder.Respond(ctx, m.cfg(), grown, m.lang)

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.settleLocked(ctx, id, gen) {
		return nil
	}
	if err != nil {
		m.logger.Error("model call failed", slog.String("case", id), slog.String("error", err.Error()))
		// Roll back the speculative user turn so a retry does not leave an
		// unanswered duplicate in the history the model sees.
		sess.Conversation = before
		sess.Messages = append(sess.Messages, domain.ChatMessage{
			Content: sendErrorText, Kind: domain.MessageError, Timestamp: m.now(),
		})
		m.persistLocked(ctx)
		return nil
	}
	m.applyResponseLocked(sess, grown, resp)
	m.persistLocked(ctx)
	return nil
}

// sendHelp runs the help entry point. Called with the lock held; releases it
// for the network call. The conversation turn history is never modified.
func (m *Manager) sendHelp(ctx context.Context, sess *domain.ChatSession, id, query string) error {
	conv := sess.Conversation
	m.inFlight[id] = true
	gen := m.generation[id]
	m.persistLocked(ctx)
	m.mu.Unlock()

	helpText, err := m.responder.Help(ctx, m.cfg(), conv, query, m.lang)

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.settleLocked(ctx, id, gen) {
		return nil
	}
	if err != nil {
		m.logger.Error("help call failed", slog.String("case", id), slog.String("error", err.Error()))
		sess.Messages = append(sess.Messages, domain.ChatMessage{
			Content: helpErrorText, Kind: domain.MessageError, Timestamp: m.now(),
		})
	} else {
		sess.Messages = append(sess.Messages, domain.ChatMessage{
			Content: helpText, Kind: domain.MessageHelp, Timestamp: m.now(),
		})
	}
	m.persistLocked(ctx)
	return nil
}

// settleLocked clears the in-flight guard and reports whether the call's
// result still applies. A session deleted (or recreated) while the call was
// outstanding discards the late result instead of resurrecting state.
func (m *Manager) settleLocked(ctx context.Context, id string, gen uint64) bool {
	if _, exists := m.sessions[id]; !exists || m.generation[id] != gen {
		m.logger.Warn("discarding late model result for removed session", slog.String("case", id))
		return false
	}
	delete(m.inFlight, id)
	return true
}

// applyResponseLocked appends the model turn and derives display messages.
// The structured response is applied atomically: all of its messages, the
// grown conversation, and the quick replies land together.
func (m *Manager) applyResponseLocked(sess *domain.ChatSession, conv domain.Conversation, resp *domain.StructuredResponse) {
	serialized, err := json.Marshal(resp)
	if err != nil {
		// StructuredResponse is plain data; marshal cannot realistically
		// fail, but the narrative text alone still round-trips.
		serialized = []byte(resp.ResponseText)
	}
	sess.Conversation = conv.AppendModel(string(serialized))
	sess.Messages = append(sess.Messages, expand(resp, m.now())...)
	if resp.QuickReplies != nil {
		m.quickReplies = resp.QuickReplies
	} else {
		m.quickReplies = nil
	}
}

// expand derives display messages from a structured response. Exactly one of
// four mutually exclusive rules applies; all derived messages share one
// timestamp.
func expand(resp *domain.StructuredResponse, ts time.Time) []domain.ChatMessage {
	narrative := domain.ChatMessage{Content: resp.ResponseText, Kind: domain.MessageModel, Timestamp: ts}

	switch {
	case resp.IsFinalReport:
		return []domain.ChatMessage{narrative, {
			Content: "Final Report", Kind: domain.MessageFinalReport, Data: resp.FinalReport, Timestamp: ts,
		}}
	case resp.IsSensitivityReport:
		// The report card precedes the narrative, and only when the model
		// actually supplied the payload.
		if resp.SensitivityReport != nil {
			return []domain.ChatMessage{{
				Content: "Sensitivity Report", Kind: domain.MessageSensitivity, Data: resp.SensitivityReport, Timestamp: ts,
			}, narrative}
		}
		return []domain.ChatMessage{narrative}
	case resp.IsAntibioticInfoReport:
		return []domain.ChatMessage{narrative, {
			Content: "Antibiotic Info", Kind: domain.MessageAntibioticInfo, Data: resp.AntibioticInfoReport, Timestamp: ts,
		}}
	default:
		return []domain.ChatMessage{narrative}
	}
}

// Select switches the active session pointer. No side effects on any
// conversation.
func (m *Manager) Select(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return &domain.Error{Type: domain.ErrorTypeNotFound, Message: "unknown session id"}
	}
	m.activeID = id
	m.quickReplies = nil
	m.persistLocked(ctx)
	return nil
}

// Delete removes a session. If it was active, the most-recently-created
// remaining session becomes active, or the pointer clears when none remain.
// An outstanding model call for the session is discarded on arrival.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return &domain.Error{Type: domain.ErrorTypeNotFound, Message: "unknown session id"}
	}
	delete(m.sessions, id)
	delete(m.inFlight, id)
	m.generation[id]++

	if m.activeID == id {
		m.activeID = ""
		var newest *domain.ChatSession
		for _, s := range m.sessions {
			if newest == nil || s.CreatedAt.After(newest.CreatedAt) {
				newest = s
			}
		}
		if newest != nil {
			m.activeID = newest.Info.ID
		}
		m.quickReplies = nil
	}
	m.persistLocked(ctx)
	return nil
}

// Finish marks a session finished. Nothing inside the call cycle ever sets
// this; it is an explicit collaborator action.
func (m *Manager) Finish(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return &domain.Error{Type: domain.ErrorTypeNotFound, Message: "unknown session id"}
	}
	sess.IsFinished = true
	m.persistLocked(ctx)
	return nil
}

// Snapshot returns the consumer-facing view of the current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		ActiveID:     m.activeID,
		QuickReplies: append([]string(nil), m.quickReplies...),
		Sessions:     make([]SessionSummary, 0, len(m.sessions)),
	}
	for _, s := range m.sessions {
		snap.Sessions = append(snap.Sessions, SessionSummary{
			Info: s.Info, IsFinished: s.IsFinished, CreatedAt: s.CreatedAt,
		})
	}
	sort.Slice(snap.Sessions, func(i, j int) bool {
		return snap.Sessions[i].CreatedAt.After(snap.Sessions[j].CreatedAt)
	})
	if active, ok := m.sessions[m.activeID]; ok {
		snap.Messages = append([]domain.ChatMessage(nil), active.Messages...)
		snap.Loading = m.inFlight[m.activeID]
	}
	return snap
}

// Session returns a copy of one session for inspection.
func (m *Manager) Session(id string) (domain.ChatSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return domain.ChatSession{}, false
	}
	out := *sess
	out.Messages = append([]domain.ChatMessage(nil), sess.Messages...)
	out.Conversation = append(domain.Conversation(nil), sess.Conversation...)
	return out, true
}

// persistLocked rewrites all persisted records. Persistence failures are
// logged, not surfaced: durability is the store's concern, not the state
// machine's.
func (m *Manager) persistLocked(ctx context.Context) {
	if m.store == nil {
		return
	}
	if err := m.store.SaveSessions(ctx, m.sessions); err != nil {
		m.logger.Error("failed to persist sessions", slog.String("error", err.Error()))
	}
	if err := m.store.SaveActiveSession(ctx, m.activeID); err != nil {
		m.logger.Error("failed to persist active session", slog.String("error", err.Error()))
	}
}
