// Package sqlite is the SQLite implementation of the persistent store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/microbemap/assistant/internal/domain"
	"github.com/microbemap/assistant/internal/provider"
	"github.com/microbemap/assistant/internal/storage"
)

// Store persists the session map and settings in a SQLite database.
type Store struct {
	db *sql.DB
}

var _ storage.Store = (*Store)(nil)

const (
	settingActiveSession  = "active_session"
	settingProviderConfig = "provider_config"
)

// New opens (or creates) the database at dbPath. Use ":memory:" for tests.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			case_id TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_created ON sessions(created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

func (s *Store) LoadSessions(ctx context.Context) (map[string]*domain.ChatSession, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT case_id, data FROM sessions`)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	defer rows.Close()

	sessions := make(map[string]*domain.ChatSession)
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		var sess domain.ChatSession
		if err := json.Unmarshal([]byte(data), &sess); err != nil {
			return nil, fmt.Errorf("failed to unmarshal session %s: %w", id, err)
		}
		sessions[id] = &sess
	}
	return sessions, rows.Err()
}

// SaveSessions rewrites the session map in full inside one transaction.
func (s *Store) SaveSessions(ctx context.Context, sessions map[string]*domain.ChatSession) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("failed to clear sessions: %w", err)
	}

	for id, sess := range sessions {
		data, err := json.Marshal(sess)
		if err != nil {
			return fmt.Errorf("failed to marshal session %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sessions (case_id, data, created_at) VALUES (?, ?, ?)`,
			id, string(data), sess.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert session %s: %w", id, err)
		}
	}

	return tx.Commit()
}

func (s *Store) LoadActiveSession(ctx context.Context) (string, error) {
	id, ok, err := s.loadSetting(ctx, settingActiveSession)
	if err != nil || !ok {
		return "", err
	}
	return id, nil
}

func (s *Store) SaveActiveSession(ctx context.Context, id string) error {
	if id == "" {
		_, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, settingActiveSession)
		return err
	}
	return s.saveSetting(ctx, settingActiveSession, id)
}

func (s *Store) LoadProviderConfig(ctx context.Context) (provider.Config, bool, error) {
	raw, ok, err := s.loadSetting(ctx, settingProviderConfig)
	if err != nil || !ok {
		return provider.Config{}, false, err
	}
	var cfg provider.Config
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return provider.Config{}, false, fmt.Errorf("failed to unmarshal provider config: %w", err)
	}
	return cfg, true, nil
}

func (s *Store) SaveProviderConfig(ctx context.Context, cfg provider.Config) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal provider config: %w", err)
	}
	return s.saveSetting(ctx, settingProviderConfig, string(data))
}

func (s *Store) loadSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to load setting %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) saveSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
