// Package storage defines the persistent key-value collaborator: three
// logical records (the session map, the active-session pointer, and the
// provider configuration), each read once at startup and rewritten in full
// on every change.
package storage

import (
	"context"

	"github.com/microbemap/assistant/internal/domain"
	"github.com/microbemap/assistant/internal/provider"
)

// Store persists chat sessions and user configuration.
type Store interface {
	// LoadSessions returns the full session map. A missing record yields an
	// empty map, not an error.
	LoadSessions(ctx context.Context) (map[string]*domain.ChatSession, error)

	// SaveSessions replaces the persisted session map wholesale.
	SaveSessions(ctx context.Context, sessions map[string]*domain.ChatSession) error

	// LoadActiveSession returns the active-session pointer, or "" when none
	// is recorded.
	LoadActiveSession(ctx context.Context) (string, error)

	// SaveActiveSession records the active-session pointer; "" clears it.
	SaveActiveSession(ctx context.Context, id string) error

	// LoadProviderConfig returns the stored configuration and whether one
	// was present.
	LoadProviderConfig(ctx context.Context) (provider.Config, bool, error)

	// SaveProviderConfig overwrites the stored configuration wholesale.
	SaveProviderConfig(ctx context.Context, cfg provider.Config) error

	Close() error
}
