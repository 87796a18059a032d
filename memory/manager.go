package memory

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/sageai/sage-go-sdk/core"
)

// Manager is the facade the orchestration layer consumes. It keeps the
// relational log and the semantic index in lockstep: every turn, priority
// and summary is written to the log first (source of truth) and then
// projected into exactly one index entry.
type Manager struct {
	log    Log
	index  Index
	gen    Generator
	config *Config
}

// Config holds Manager tunables.
type Config struct {
	// SummarizeEvery is the turn-count interval of the rolling
	// summarizer. The trigger fires synchronously inside RecordTurn
	// whenever count mod SummarizeEvery == 0.
	SummarizeEvery int
}

// DefaultConfig matches the behavior of the original assistant.
var DefaultConfig = &Config{
	SummarizeEvery: 20,
}

// NewManager creates a Manager over the given stores. gen may be nil, in
// which case periodic summarization is skipped entirely. A nil config or a
// non-positive SummarizeEvery falls back to DefaultConfig's interval.
func NewManager(l Log, idx Index, gen Generator, config *Config) *Manager {
	if config == nil || config.SummarizeEvery <= 0 {
		config = DefaultConfig
	}
	return &Manager{
		log:    l,
		index:  idx,
		gen:    gen,
		config: config,
	}
}

// RecordTurn persists one completed exchange. The log write must succeed
// and its failure propagates; the index write only degrades searchability
// on failure and is logged and swallowed. After the writes the turn count
// is checked and the summarizer may fire synchronously in this call path.
func (m *Manager) RecordTurn(ctx context.Context, sessionID, userMsg, agentMsg string) error {
	turnID, err := m.log.AppendTurn(ctx, sessionID, userMsg, agentMsg)
	if err != nil {
		return fmt.Errorf("record turn: %w", err)
	}

	combined := fmt.Sprintf("User: %s\nAssistant: %s", userMsg, agentMsg)
	entry := Entry{
		ID:        EntryID(TypeConversation, sessionID, turnID),
		Document:  combined,
		SessionID: sessionID,
		Type:      TypeConversation,
		SourceID:  turnID,
	}
	if err := m.index.Upsert(ctx, entry); err != nil {
		log.Printf("[MEMORY] Index upsert failed for turn %d (turn stays committed): %v", turnID, err)
	}

	count, err := m.log.TurnCount(ctx, sessionID)
	if err != nil {
		log.Printf("[MEMORY] Turn count failed, skipping summarization check: %v", err)
		return nil
	}
	if m.gen != nil && count > 0 && count%m.config.SummarizeEvery == 0 {
		if err := m.summarizeAt(ctx, sessionID, count); err != nil {
			log.Printf("[MEMORY] Summarization at turn %d abandoned: %v", count, err)
		}
	}

	return nil
}

// RecordPriority persists a user-stated priority and returns its row id.
func (m *Manager) RecordPriority(ctx context.Context, sessionID, text string) (int64, error) {
	priorityID, err := m.log.AppendPriority(ctx, sessionID, text)
	if err != nil {
		return 0, fmt.Errorf("record priority: %w", err)
	}

	entry := Entry{
		ID:        EntryID(TypePriority, sessionID, priorityID),
		Document:  "Priority: " + text,
		SessionID: sessionID,
		Type:      TypePriority,
		SourceID:  priorityID,
	}
	if err := m.index.Upsert(ctx, entry); err != nil {
		log.Printf("[MEMORY] Index upsert failed for priority %d: %v", priorityID, err)
	}

	return priorityID, nil
}

// RecallResult carries the three raw ingredients for BuildContext.
// Assembly is a separate, pure step.
type RecallResult struct {
	Turns   []core.Turn
	Hits    []core.Hit
	Summary string
}

// ColdStart reports whether the session has no recent history, so the
// orchestration layer can branch into its first-contact prompt.
func (r *RecallResult) ColdStart() bool {
	return len(r.Turns) == 0
}

// Recall gathers the last recentLimit turns (chronological), up to k
// semantic hits for query, and the latest rolling summary. A failing
// index query is treated as "no results" rather than failing the recall.
func (m *Manager) Recall(ctx context.Context, sessionID string, recentLimit int, query string, k int) (*RecallResult, error) {
	turns, err := m.log.ListTurns(ctx, sessionID, recentLimit)
	if err != nil {
		return nil, fmt.Errorf("recall: %w", err)
	}

	hits, err := m.index.Query(ctx, query, k, sessionID)
	if err != nil {
		log.Printf("[MEMORY] Semantic query failed, continuing without hits: %v", err)
		hits = nil
	}

	summary, err := m.log.LatestSummary(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("recall: %w", err)
	}

	return &RecallResult{Turns: turns, Hits: hits, Summary: summary}, nil
}

// SearchPriorities runs a semantic search and renders the hits as bullet
// lines for direct tool-result use. Mirrors Recall's degrade-to-empty
// behavior on index failure.
func (m *Manager) SearchPriorities(ctx context.Context, sessionID, query string, k int) string {
	hits, err := m.index.Query(ctx, query, k, sessionID)
	if err != nil {
		log.Printf("[MEMORY] Priority search failed: %v", err)
		hits = nil
	}
	if len(hits) == 0 {
		return "No relevant past priorities or context found."
	}

	lines := make([]string, 0, len(hits))
	for _, h := range hits {
		lines = append(lines, "- "+h.Document)
	}
	return strings.Join(lines, "\n")
}

// Forget clears the session from the relational log, then best-effort
// clears matching index entries. Index cleanup failure is logged and
// swallowed per the documented contract: Forget never fails for a
// recall-only problem once the log rows are gone.
func (m *Manager) Forget(ctx context.Context, sessionID string) error {
	if err := m.log.ClearSession(ctx, sessionID); err != nil {
		return fmt.Errorf("forget: %w", err)
	}
	if err := m.index.DeleteSession(ctx, sessionID); err != nil {
		log.Printf("[MEMORY] Index cleanup for session %s failed (suppressed): %v", sessionID, err)
	}
	return nil
}

// GetSetting returns the stored value for key, or def when unset.
func (m *Manager) GetSetting(ctx context.Context, key, def string) (string, error) {
	return m.log.GetSetting(ctx, key, def)
}

// SetSetting upserts a global setting.
func (m *Manager) SetSetting(ctx context.Context, key, value string) error {
	return m.log.SetSetting(ctx, key, value)
}

// DisplayName returns the stored user name, defaulting to "there" before
// onboarding has captured one.
func (m *Manager) DisplayName(ctx context.Context) string {
	name, err := m.log.GetSetting(ctx, "user_name", "there")
	if err != nil {
		return "there"
	}
	return name
}

// TotalTurns returns the exchange count across all sessions.
func (m *Manager) TotalTurns(ctx context.Context) (int, error) {
	return m.log.TotalTurns(ctx)
}

// TurnCount returns the exchange count for one session.
func (m *Manager) TurnCount(ctx context.Context, sessionID string) (int, error) {
	return m.log.TurnCount(ctx, sessionID)
}

// ListPriorities returns the session's priorities, newest first.
func (m *Manager) ListPriorities(ctx context.Context, sessionID string) ([]core.Priority, error) {
	return m.log.ListPriorities(ctx, sessionID)
}
