package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/microbemap/assistant/internal/domain"
	"github.com/microbemap/assistant/internal/provider"
	"github.com/microbemap/assistant/internal/session"
)

// SessionAPI is the subset of the session manager the handlers need.
type SessionAPI interface {
	StartCase(ctx context.Context, info domain.CaseInfo) error
	Send(ctx context.Context, text string) error
	Select(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Finish(ctx context.Context, id string) error
	Snapshot() session.Snapshot
	Session(id string) (domain.ChatSession, bool)
}

// Handlers wires the session controller and provider configuration to the
// JSON API consumed by the presentation layer.
type Handlers struct {
	sessions SessionAPI
	config   *provider.Holder
}

// NewHandlers creates the API handlers.
func NewHandlers(sessions SessionAPI, config *provider.Holder) *Handlers {
	return &Handlers{sessions: sessions, config: config}
}

// Mount registers all routes on the router.
func (h *Handlers) Mount(r chi.Router, proxy *ProxyHandler) {
	r.Post(ProxyPath, proxy.HandlePost)
	r.Options(ProxyPath, proxy.HandleOptions)

	r.Get("/api/state", h.handleState)
	r.Post("/api/sessions", h.handleStartCase)
	r.Get("/api/sessions/{id}", h.handleGetSession)
	r.Delete("/api/sessions/{id}", h.handleDeleteSession)
	r.Post("/api/sessions/{id}/select", h.handleSelectSession)
	r.Post("/api/sessions/{id}/finish", h.handleFinishSession)
	r.Post("/api/messages", h.handleSendMessage)
	r.Get("/api/config", h.handleGetConfig)
	r.Put("/api/config", h.handlePutConfig)
}

func (h *Handlers) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sessions.Snapshot())
}

func (h *Handlers) handleStartCase(w http.ResponseWriter, r *http.Request) {
	var info domain.CaseInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.sessions.StartCase(r.Context(), info); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.sessions.Snapshot())
}

func (h *Handlers) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.sessions.Send(r.Context(), body.Text); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.sessions.Snapshot())
}

func (h *Handlers) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessions.Session(chi.URLParam(r, "id"))
	if !ok {
		writeJSONError(w, http.StatusNotFound, "unknown session id")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handlers) handleSelectSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Select(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.sessions.Snapshot())
}

func (h *Handlers) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.sessions.Snapshot())
}

func (h *Handlers) handleFinishSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Finish(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.sessions.Snapshot())
}

func (h *Handlers) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.config.Get())
}

func (h *Handlers) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	var cfg provider.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, h.config.Set(cfg))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	AddError(r.Context(), err)
	var de *domain.Error
	if errors.As(err, &de) {
		writeJSONError(w, de.HTTPStatusCode(), de.Message)
		return
	}
	writeJSONError(w, http.StatusInternalServerError, err.Error())
}
