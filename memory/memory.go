package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/sageai/sage-go-sdk/core"
)

// Sentinel errors for the failure classes the facade distinguishes.
// Storage failures propagate to the caller; index and summarization
// failures are absorbed so a turn is never lost to a recall-only problem.
var (
	// ErrStorage wraps relational-log failures (store unreachable,
	// schema corrupt). Fatal to the current operation.
	ErrStorage = errors.New("memory: storage unavailable")

	// ErrIndexUnavailable wraps semantic-index failures. Queries degrade
	// to "no results"; upserts after a committed log write are logged
	// and swallowed.
	ErrIndexUnavailable = errors.New("memory: index unavailable")

	// ErrEmptySummary is returned by a Generator that produced no text.
	// The summarizer treats it like any generation failure: no summary
	// row is written and the triggering turn stays committed.
	ErrEmptySummary = errors.New("memory: generator returned empty summary")
)

// Entry type tags stored in semantic-index metadata. Deterministic entry
// ids are built from these, so every indexed document can be traced back
// to its relational-log row.
const (
	TypeConversation = "conversation"
	TypePriority     = "priority"
	TypeSummary      = "summary"
)

// EntryID builds the deterministic semantic-index id for a log row.
// Re-upserting the same row is idempotent, and a session's full id set is
// reconstructible from the log alone, which is what makes best-effort
// cleanup possible without a secondary index.
func EntryID(entryType, sessionID string, sourceID int64) string {
	return fmt.Sprintf("%s_%s_%d", entryType, sessionID, sourceID)
}

// Log is the relational, append-only source of truth: conversation turns,
// priorities, summaries and key/value settings.
//
// Implementations: sqlite (SDK-provided). Schema is created on first use
// and evolves additively; a failed "add column" because the column already
// exists is swallowed, not surfaced.
type Log interface {
	// AppendTurn inserts an immutable turn row and returns its id.
	// Ids are monotonically increasing per store.
	AppendTurn(ctx context.Context, sessionID, userMsg, agentMsg string) (int64, error)

	// AppendPriority inserts a priority row and returns its id.
	AppendPriority(ctx context.Context, sessionID, text string) (int64, error)

	// ListTurns returns at most limit most-recent turns, re-ordered to
	// chronological (oldest first). Callers never see reverse order.
	ListTurns(ctx context.Context, sessionID string, limit int) ([]core.Turn, error)

	// ListPriorities returns all priorities for the session, newest first.
	ListPriorities(ctx context.Context, sessionID string) ([]core.Priority, error)

	// TurnCount returns the exact number of turns for the session.
	// This drives the summarization trigger.
	TurnCount(ctx context.Context, sessionID string) (int, error)

	// TotalTurns returns the number of turns across all sessions.
	TotalTurns(ctx context.Context) (int, error)

	// AppendSummary inserts a summary row and returns its id.
	AppendSummary(ctx context.Context, sessionID, summary string, turnCount int) (int64, error)

	// LatestSummary returns the newest summary text by insertion order
	// (highest id, not timestamp; timestamps can collide at same-second
	// resolution). Returns "" when the session has no summary.
	LatestSummary(ctx context.Context, sessionID string) (string, error)

	// GetSetting returns the stored value for key, or def when unset.
	// A missing setting is never an error.
	GetSetting(ctx context.Context, key, def string) (string, error)

	// SetSetting upserts a setting by key. Settings are global, not
	// session-scoped; only the current value matters.
	SetSetting(ctx context.Context, key, value string) error

	// ClearSession deletes all turns, priorities and summaries for the
	// session. Settings are untouched.
	ClearSession(ctx context.Context, sessionID string) error

	// Close releases the underlying store.
	Close() error
}

// Entry is one document to upsert into the semantic index. The embedding
// is computed inside the index implementation, not by the caller.
type Entry struct {
	ID        string // deterministic, from EntryID
	Document  string
	SessionID string
	Type      string // TypeConversation, TypePriority or TypeSummary
	SourceID  int64  // relational-log row id
}

// Index is the semantic-retrieval backend: an approximate nearest-neighbor
// vector index configured for cosine distance.
//
// Implementations: chromem (SDK-provided, embedded and persistent).
type Index interface {
	// Upsert embeds entry.Document and stores it keyed by entry.ID.
	// Upserting the same id twice replaces the previous document.
	Upsert(ctx context.Context, entry Entry) error

	// Query returns up to k nearest neighbors restricted to sessionID,
	// ordered by ascending distance. An empty index yields an empty
	// result, never an error; k is clamped to the number of stored
	// entries before the underlying index sees it.
	Query(ctx context.Context, query string, k int, sessionID string) ([]core.Hit, error)

	// DeleteSession removes every entry whose metadata matches the
	// session. Best-effort cleanup, not a transactional guarantee.
	DeleteSession(ctx context.Context, sessionID string) error

	// Close releases index resources.
	Close() error
}

// Embedder converts text to vector embeddings.
// Implementations: mock (testing), onnx (local all-MiniLM-L6-v2), cached
// (ristretto read-through wrapper around either).
//
// The Embedder is an implementation detail of the Index: the facade never
// touches vectors, so an async or batched embedder can be swapped in
// without changing the Manager contract.
type Embedder interface {
	// Embed converts a single text to an embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int
}

// Generator is the opaque text-generation service the summarizer calls:
// text in, text out. Implementations: llm/anthropic (SDK-provided).
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
