package core

import (
	"time"

	"github.com/google/uuid"
)

// DefaultSession is the session identifier used by single-user deployments.
// Sessions are created implicitly on first write; no registration exists.
const DefaultSession = "default"

// NewSessionID returns a fresh session identifier for callers that want
// more than the implicit default session.
func NewSessionID() string {
	return uuid.New().String()
}

// Turn is one completed user/assistant exchange. Turns are immutable once
// written; they are only ever removed by clearing a whole session.
type Turn struct {
	ID        int64
	SessionID string
	UserMsg   string
	AgentMsg  string
	CreatedAt time.Time
}

// Priority is a user-stated goal or priority captured for future recall.
// Active is reserved: it is written as true and never read by retrieval.
type Priority struct {
	ID        int64
	SessionID string
	Text      string
	Active    bool
	CreatedAt time.Time
}

// Summary is a rolling compression of the last window of turns, produced
// by the summarizer every fixed number of turns. Append-only; the latest
// summary per session is the one with the highest id.
type Summary struct {
	ID        int64
	SessionID string
	Text      string
	TurnCount int
	CreatedAt time.Time
}

// Hit is one semantic search result. Distance is cosine distance, ascending
// order means most similar first.
type Hit struct {
	Document string
	Metadata map[string]string
	Distance float32
}
