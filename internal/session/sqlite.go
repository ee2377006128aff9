package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/yourorg/pretriaged/internal/triage"
)

// SQLiteConfig configures the durable, SQLite-backed Store.
type SQLiteConfig struct {
	// DBPath is the file path for the SQLite database. Defaults to
	// ".data/pretriaged_sessions.db" if empty.
	DBPath string
}

func (c *SQLiteConfig) applyDefaults() {
	if c.DBPath == "" {
		c.DBPath = ".data/pretriaged_sessions.db"
	}
}

// SQLiteStore is a durable Store implementation. Grounded on the teacher's
// SQLite-backed persistent cache: a single-connection pool
// (SetMaxOpenConns(1)) that serializes all access, and state stored as a
// JSON blob.
type SQLiteStore struct {
	db     *sql.DB
	config SQLiteConfig
}

// NewSQLiteStore opens (or creates) the database at config.DBPath and
// ensures the schema exists.
func NewSQLiteStore(config SQLiteConfig) (*SQLiteStore, error) {
	config.applyDefaults()

	dir := filepath.Dir(config.DBPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("session: create dir %q: %w", dir, err)
	}

	db, err := sql.Open("sqlite", config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("session: open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db, config: config}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			turn_index INTEGER NOT NULL,
			state      BLOB    NOT NULL,
			updated_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("session: create sessions table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS session_events (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT    NOT NULL,
			event_type TEXT    NOT NULL,
			payload    BLOB,
			created_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("session: create session_events table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_session_events_session ON session_events(session_id)`)
	if err != nil {
		return fmt.Errorf("session: create session_events index: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Create(ctx context.Context, locale string) (*triage.TurnContext, error) {
	id := uuid.NewString()
	tc := triage.NewTurnContext(id, locale)

	data, err := json.Marshal(tc)
	if err != nil {
		return nil, fmt.Errorf("session: marshal new state: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, turn_index, state, updated_at) VALUES (?, ?, ?, ?)`,
		id, tc.TurnIndex, data, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("session: insert: %w", err)
	}

	return tc, nil
}

func (s *SQLiteStore) Get(ctx context.Context, sessionID string) (*triage.TurnContext, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM sessions WHERE session_id = ?`, sessionID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session: get: %w", err)
	}

	var tc triage.TurnContext
	if err := json.Unmarshal(data, &tc); err != nil {
		return nil, fmt.Errorf("session: unmarshal state: %w", err)
	}
	return &tc, nil
}

func (s *SQLiteStore) Update(ctx context.Context, sessionID string, expectedTurnIndex int, tc *triage.TurnContext) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("session: begin update tx: %w", err)
	}
	defer tx.Rollback()

	var currentTurnIndex int
	err = tx.QueryRowContext(ctx,
		`SELECT turn_index FROM sessions WHERE session_id = ?`, sessionID,
	).Scan(&currentTurnIndex)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("session: read turn_index: %w", err)
	}
	if currentTurnIndex != expectedTurnIndex {
		return ErrConflict
	}

	data, err := json.Marshal(tc)
	if err != nil {
		return fmt.Errorf("session: marshal updated state: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE sessions SET turn_index = ?, state = ?, updated_at = ? WHERE session_id = ?`,
		tc.TurnIndex, data, time.Now().UTC().UnixMilli(), sessionID,
	)
	if err != nil {
		return fmt.Errorf("session: update: %w", err)
	}

	return tx.Commit()
}

func (s *SQLiteStore) AppendEvent(ctx context.Context, sessionID string, eventType string, payload map[string]any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Warn("session: failed to marshal event payload", "session_id", sessionID, "event_type", eventType, "error", err)
		data = nil
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO session_events (session_id, event_type, payload, created_at) VALUES (?, ?, ?, ?)`,
		sessionID, eventType, data, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("session: append event: %w", err)
	}
	return nil
}

// Close releases the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
