// Package sqlite implements the relational log on a local SQLite file.
//
// The schema is created on first open and evolves additively: upgrade
// statements that fail because the column or table already exists are
// swallowed, which makes migration idempotent and forward-only.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sageai/sage-go-sdk/core"
	"github.com/sageai/sage-go-sdk/memory"
)

// Store implements memory.Log using SQLite via database/sql.
// Connections are pooled by database/sql; no transaction spans more than
// one logical write, so concurrent requests rely on SQLite's own locking.
type Store struct {
	db *sql.DB
}

var _ memory.Log = (*Store)(nil)

// New opens or creates the SQLite database at dbPath and bootstraps the
// schema.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversations (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL DEFAULT 'default',
		user_msg   TEXT NOT NULL,
		agent_msg  TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_conversations_session ON conversations(session_id, id);

	CREATE TABLE IF NOT EXISTS priorities (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL DEFAULT 'default',
		text       TEXT NOT NULL,
		active     INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_priorities_session ON priorities(session_id, id);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS summaries (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL DEFAULT 'default',
		summary    TEXT NOT NULL,
		turn_count INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_summaries_session ON summaries(session_id, id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// Additive upgrades from older schema versions. Errors mean the
	// column already exists and are intentionally ignored.
	s.db.Exec(`ALTER TABLE conversations ADD COLUMN session_id TEXT NOT NULL DEFAULT 'default'`)
	s.db.Exec(`ALTER TABLE priorities ADD COLUMN active INTEGER NOT NULL DEFAULT 1`)

	return nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// legacyTimeLayout is the timestamp format older stores wrote before the
// switch to RFC 3339.
const legacyTimeLayout = "2006-01-02 15:04:05"

func parseTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	t, err := time.Parse(legacyTimeLayout, s)
	if err != nil {
		log.Printf("[SQLITE] Unparseable timestamp %q: %v", s, err)
		return time.Time{}
	}
	return t
}

// AppendTurn inserts an immutable conversation row and returns its id.
func (s *Store) AppendTurn(ctx context.Context, sessionID, userMsg, agentMsg string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (session_id, user_msg, agent_msg, created_at) VALUES (?, ?, ?, ?)`,
		sessionID, userMsg, agentMsg, now())
	if err != nil {
		return 0, fmt.Errorf("%w: insert turn: %v", memory.ErrStorage, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: turn id: %v", memory.ErrStorage, err)
	}
	return id, nil
}

// AppendPriority inserts a priority row and returns its id.
// The active flag is written as true; retrieval does not read it yet.
func (s *Store) AppendPriority(ctx context.Context, sessionID, text string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO priorities (session_id, text, active, created_at) VALUES (?, ?, 1, ?)`,
		sessionID, text, now())
	if err != nil {
		return 0, fmt.Errorf("%w: insert priority: %v", memory.ErrStorage, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: priority id: %v", memory.ErrStorage, err)
	}
	return id, nil
}

// ListTurns returns at most limit most-recent turns in chronological order.
// The query selects newest-first for the LIMIT, then the slice is reversed
// so callers always see oldest-first.
func (s *Store) ListTurns(ctx context.Context, sessionID string, limit int) ([]core.Turn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, user_msg, agent_msg, created_at
		 FROM conversations WHERE session_id = ? ORDER BY id DESC LIMIT ?`,
		sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list turns: %v", memory.ErrStorage, err)
	}
	defer rows.Close()

	var turns []core.Turn
	for rows.Next() {
		var t core.Turn
		var createdAt string
		if err := rows.Scan(&t.ID, &t.SessionID, &t.UserMsg, &t.AgentMsg, &createdAt); err != nil {
			return nil, fmt.Errorf("%w: scan turn: %v", memory.ErrStorage, err)
		}
		t.CreatedAt = parseTime(createdAt)
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list turns: %v", memory.ErrStorage, err)
	}

	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// ListPriorities returns the session's priorities, newest first.
func (s *Store) ListPriorities(ctx context.Context, sessionID string) ([]core.Priority, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, text, active, created_at
		 FROM priorities WHERE session_id = ? ORDER BY id DESC`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: list priorities: %v", memory.ErrStorage, err)
	}
	defer rows.Close()

	var priorities []core.Priority
	for rows.Next() {
		var p core.Priority
		var createdAt string
		if err := rows.Scan(&p.ID, &p.SessionID, &p.Text, &p.Active, &createdAt); err != nil {
			return nil, fmt.Errorf("%w: scan priority: %v", memory.ErrStorage, err)
		}
		p.CreatedAt = parseTime(createdAt)
		priorities = append(priorities, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list priorities: %v", memory.ErrStorage, err)
	}
	return priorities, nil
}

// TurnCount returns the exact turn count for the session.
func (s *Store) TurnCount(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversations WHERE session_id = ?`, sessionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: turn count: %v", memory.ErrStorage, err)
	}
	return count, nil
}

// TotalTurns returns the turn count across all sessions.
func (s *Store) TotalTurns(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversations`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: total turns: %v", memory.ErrStorage, err)
	}
	return count, nil
}

// AppendSummary inserts a summary row and returns its id.
func (s *Store) AppendSummary(ctx context.Context, sessionID, summary string, turnCount int) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO summaries (session_id, summary, turn_count, created_at) VALUES (?, ?, ?, ?)`,
		sessionID, summary, turnCount, now())
	if err != nil {
		return 0, fmt.Errorf("%w: insert summary: %v", memory.ErrStorage, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: summary id: %v", memory.ErrStorage, err)
	}
	return id, nil
}

// LatestSummary returns the newest summary by insertion order, or "" when
// the session has none. Ordering is by id, not created_at: timestamps can
// collide at same-second resolution.
func (s *Store) LatestSummary(ctx context.Context, sessionID string) (string, error) {
	var summary string
	err := s.db.QueryRowContext(ctx,
		`SELECT summary FROM summaries WHERE session_id = ? ORDER BY id DESC LIMIT 1`,
		sessionID).Scan(&summary)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: latest summary: %v", memory.ErrStorage, err)
	}
	return summary, nil
}

// GetSetting returns the stored value for key, or def when unset.
func (s *Store) GetSetting(ctx context.Context, key, def string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return def, nil
	}
	if err != nil {
		return def, fmt.Errorf("%w: get setting: %v", memory.ErrStorage, err)
	}
	return value, nil
}

// SetSetting upserts a setting by key.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("%w: set setting: %v", memory.ErrStorage, err)
	}
	return nil
}

// ClearSession deletes the session's turns, priorities and summaries.
// Settings are global and survive.
func (s *Store) ClearSession(ctx context.Context, sessionID string) error {
	for _, table := range []string{"conversations", "priorities", "summaries"} {
		_, err := s.db.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE session_id = ?`, table), sessionID)
		if err != nil {
			return fmt.Errorf("%w: clear %s: %v", memory.ErrStorage, table, err)
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
