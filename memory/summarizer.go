package memory

import (
	"context"
	"fmt"
	"log"
	"strings"
)

const summaryInstruction = "Summarise this user's key priorities, recurring themes, and blockers " +
	"from these conversations into a concise priority snapshot (max 5 bullet points):"

// Summarize compresses the last window of turns into a rolling summary on
// demand, regardless of the periodic trigger. Callers normally never need
// this; RecordTurn fires it automatically every SummarizeEvery turns.
func (m *Manager) Summarize(ctx context.Context, sessionID string) error {
	if m.gen == nil {
		return fmt.Errorf("summarize: no generator configured")
	}
	count, err := m.log.TurnCount(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("summarize: %w", err)
	}
	if count == 0 {
		return nil
	}
	return m.summarizeAt(ctx, sessionID, count)
}

// summarizeAt renders the last window of turns as a transcript, asks the
// generator for a bullet snapshot and persists it to both stores. Nothing
// is written when generation fails or returns empty text, and the turn
// that triggered the call is never rolled back.
func (m *Manager) summarizeAt(ctx context.Context, sessionID string, turnCount int) error {
	turns, err := m.log.ListTurns(ctx, sessionID, m.config.SummarizeEvery)
	if err != nil {
		return err
	}
	if len(turns) == 0 {
		return nil
	}

	var b strings.Builder
	for _, t := range turns {
		b.WriteString("User: ")
		b.WriteString(t.UserMsg)
		b.WriteString("\nAssistant: ")
		b.WriteString(t.AgentMsg)
		b.WriteString("\n")
	}

	prompt := summaryInstruction + "\n\n" + b.String()

	summary, err := m.gen.Generate(ctx, prompt)
	if err != nil {
		return err
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return ErrEmptySummary
	}

	summaryID, err := m.log.AppendSummary(ctx, sessionID, summary, turnCount)
	if err != nil {
		return err
	}

	// Indexed under the triggering turn count, not the row id, so
	// summaries taken at different counts never collide.
	entry := Entry{
		ID:        EntryID(TypeSummary, sessionID, int64(turnCount)),
		Document:  "Summary: " + summary,
		SessionID: sessionID,
		Type:      TypeSummary,
		SourceID:  summaryID,
	}
	if err := m.index.Upsert(ctx, entry); err != nil {
		log.Printf("[SUMMARY] Index upsert failed for summary %d: %v", summaryID, err)
	}

	log.Printf("[SUMMARY] Session %s summarized at turn %d", sessionID, turnCount)
	return nil
}
