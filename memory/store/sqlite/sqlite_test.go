package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := New(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAppendAndListTurns(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id1, err := s.AppendTurn(ctx, "default", "hello", "hi there")
	if err != nil {
		t.Fatalf("append turn: %v", err)
	}
	id2, err := s.AppendTurn(ctx, "default", "second", "reply two")
	if err != nil {
		t.Fatalf("append turn: %v", err)
	}
	if id2 <= id1 {
		t.Errorf("expected monotonically increasing ids, got %d then %d", id1, id2)
	}

	turns, err := s.ListTurns(ctx, "default", 10)
	if err != nil {
		t.Fatalf("list turns: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	// Chronological order: oldest first, never reverse.
	if turns[0].UserMsg != "hello" || turns[1].UserMsg != "second" {
		t.Errorf("expected chronological order, got %q then %q", turns[0].UserMsg, turns[1].UserMsg)
	}
	if turns[0].AgentMsg != "hi there" {
		t.Errorf("expected verbatim round trip, got %q", turns[0].AgentMsg)
	}
	if turns[0].SessionID != "default" {
		t.Errorf("expected session 'default', got %q", turns[0].SessionID)
	}
}

func TestListTurnsLimit(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for i := 0; i < 5; i++ {
		if _, err := s.AppendTurn(ctx, "default", "msg", "reply"); err != nil {
			t.Fatalf("append turn: %v", err)
		}
	}

	turns, err := s.ListTurns(ctx, "default", 3)
	if err != nil {
		t.Fatalf("list turns: %v", err)
	}
	if len(turns) != 3 {
		t.Errorf("expected min(limit, count) = 3 turns, got %d", len(turns))
	}

	turns, err = s.ListTurns(ctx, "default", 10)
	if err != nil {
		t.Fatalf("list turns: %v", err)
	}
	if len(turns) != 5 {
		t.Errorf("expected all 5 turns, got %d", len(turns))
	}
}

func TestTurnCounts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.AppendTurn(ctx, "a", "one", "r")
	s.AppendTurn(ctx, "a", "two", "r")
	s.AppendTurn(ctx, "b", "three", "r")

	count, err := s.TurnCount(ctx, "a")
	if err != nil {
		t.Fatalf("turn count: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 turns in session a, got %d", count)
	}

	total, err := s.TotalTurns(ctx)
	if err != nil {
		t.Fatalf("total turns: %v", err)
	}
	if total != 3 {
		t.Errorf("expected 3 turns total, got %d", total)
	}
}

func TestPrioritiesNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.AppendPriority(ctx, "default", "ship the report")
	s.AppendPriority(ctx, "default", "review hiring plan")

	priorities, err := s.ListPriorities(ctx, "default")
	if err != nil {
		t.Fatalf("list priorities: %v", err)
	}
	if len(priorities) != 2 {
		t.Fatalf("expected 2 priorities, got %d", len(priorities))
	}
	if priorities[0].Text != "review hiring plan" {
		t.Errorf("expected newest first, got %q", priorities[0].Text)
	}
	if !priorities[0].Active {
		t.Error("expected priorities to be written active")
	}
}

func TestSettingsUpsert(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	got, err := s.GetSetting(ctx, "user_name", "fallback")
	if err != nil {
		t.Fatalf("get setting: %v", err)
	}
	if got != "fallback" {
		t.Errorf("expected caller default for missing key, got %q", got)
	}

	if err := s.SetSetting(ctx, "user_name", "A"); err != nil {
		t.Fatalf("set setting: %v", err)
	}
	if err := s.SetSetting(ctx, "user_name", "B"); err != nil {
		t.Fatalf("set setting: %v", err)
	}

	got, _ = s.GetSetting(ctx, "user_name", "")
	if got != "B" {
		t.Errorf("expected upsert to overwrite, got %q", got)
	}
}

func TestLatestSummaryByInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	got, err := s.LatestSummary(ctx, "default")
	if err != nil {
		t.Fatalf("latest summary: %v", err)
	}
	if got != "" {
		t.Errorf("expected no summary, got %q", got)
	}

	// Same-second inserts: ordering must come from id, not timestamp.
	s.AppendSummary(ctx, "default", "first snapshot", 20)
	s.AppendSummary(ctx, "default", "second snapshot", 40)

	got, _ = s.LatestSummary(ctx, "default")
	if got != "second snapshot" {
		t.Errorf("expected latest by id, got %q", got)
	}
}

func TestClearSessionLeavesOthersAndSettings(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.AppendTurn(ctx, "a", "msg", "reply")
	s.AppendPriority(ctx, "a", "goal")
	s.AppendSummary(ctx, "a", "snapshot", 20)
	s.AppendTurn(ctx, "b", "keep", "me")
	s.SetSetting(ctx, "user_name", "Ada")

	if err := s.ClearSession(ctx, "a"); err != nil {
		t.Fatalf("clear session: %v", err)
	}

	if count, _ := s.TurnCount(ctx, "a"); count != 0 {
		t.Errorf("expected 0 turns after clear, got %d", count)
	}
	if summary, _ := s.LatestSummary(ctx, "a"); summary != "" {
		t.Errorf("expected no summary after clear, got %q", summary)
	}
	if priorities, _ := s.ListPriorities(ctx, "a"); len(priorities) != 0 {
		t.Errorf("expected no priorities after clear, got %d", len(priorities))
	}

	if count, _ := s.TurnCount(ctx, "b"); count != 1 {
		t.Errorf("expected session b untouched, got %d turns", count)
	}
	if name, _ := s.GetSetting(ctx, "user_name", ""); name != "Ada" {
		t.Errorf("expected settings untouched, got %q", name)
	}
}

func TestReopenIsIdempotent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	s, err := New(path)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	s.AppendTurn(ctx, "default", "before reopen", "reply")
	s.Close()

	// Migration must tolerate an existing schema.
	s2, err := New(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer s2.Close()

	turns, err := s2.ListTurns(ctx, "default", 10)
	if err != nil {
		t.Fatalf("list turns: %v", err)
	}
	if len(turns) != 1 || turns[0].UserMsg != "before reopen" {
		t.Errorf("expected data to survive reopen, got %v", turns)
	}
}

func TestListTurnsParsesLegacyTimestamps(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	// Rows written by older store versions carry space-separated timestamps.
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (session_id, user_msg, agent_msg, created_at) VALUES (?, ?, ?, ?)`,
		"default", "old row", "old reply", "2025-03-14 09:26:53")
	if err != nil {
		t.Fatalf("insert legacy row: %v", err)
	}

	turns, err := s.ListTurns(ctx, "default", 10)
	if err != nil {
		t.Fatalf("list turns: %v", err)
	}
	if len(turns) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(turns))
	}
	if turns[0].CreatedAt.IsZero() {
		t.Errorf("expected legacy timestamp to parse, got zero time")
	}
	if got := turns[0].CreatedAt.Format(legacyTimeLayout); got != "2025-03-14 09:26:53" {
		t.Errorf("expected legacy timestamp preserved, got %q", got)
	}
}
