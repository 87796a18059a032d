// Package chromem implements the semantic index on chromem-go, a pure Go
// embedded vector database. Documents live in one collection and are
// scoped to a session through metadata filtering; similarity is cosine.
package chromem

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/sageai/sage-go-sdk/core"
	"github.com/sageai/sage-go-sdk/memory"
)

const collectionName = "conversation_memory"

// Index implements memory.Index on a chromem-go collection. Embeddings are
// computed inside the index by the configured Embedder, so callers only
// ever hand over text.
type Index struct {
	db  *chromem.DB
	col *chromem.Collection
	mu  sync.Mutex // serializes upsert/delete against count+query clamping
}

var _ memory.Index = (*Index)(nil)

// New creates an index persisted under dir. An empty dir keeps everything
// in memory, which is what the tests use.
func New(dir string, embedder memory.Embedder) (*Index, error) {
	var db *chromem.DB
	if dir == "" {
		db = chromem.NewDB()
	} else {
		var err error
		db, err = chromem.NewPersistentDB(dir, false)
		if err != nil {
			return nil, fmt.Errorf("open index: %w", err)
		}
	}

	embed := func(ctx context.Context, text string) ([]float32, error) {
		return embedder.Embed(ctx, text)
	}

	col, err := db.GetOrCreateCollection(collectionName, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &Index{db: db, col: col}, nil
}

// Upsert embeds entry.Document and stores it keyed by entry.ID. chromem
// replaces a document stored under an existing id, which together with the
// deterministic id scheme makes re-upserting idempotent.
func (i *Index) Upsert(ctx context.Context, entry memory.Entry) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	doc := chromem.Document{
		ID:      entry.ID,
		Content: entry.Document,
		Metadata: map[string]string{
			"session_id": entry.SessionID,
			"type":       entry.Type,
			"source_id":  fmt.Sprintf("%d", entry.SourceID),
		},
	}

	if err := i.col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("%w: add document %s: %v", memory.ErrIndexUnavailable, entry.ID, err)
	}
	return nil
}

// Query returns up to k nearest neighbors for the session, most similar
// first. k is clamped to the collection size; an empty collection yields
// an empty result rather than an error from the underlying index.
func (i *Index) Query(ctx context.Context, query string, k int, sessionID string) ([]core.Hit, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	total := i.col.Count()
	if total == 0 || k <= 0 {
		return nil, nil
	}
	if k > total {
		k = total
	}

	where := map[string]string{"session_id": sessionID}

	results, err := i.col.Query(ctx, query, k, where, nil)
	if err != nil {
		if isTooFewDocsError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: query: %v", memory.ErrIndexUnavailable, err)
	}

	hits := make([]core.Hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, core.Hit{
			Document: r.Content,
			Metadata: r.Metadata,
			// chromem reports cosine similarity, highest first; the
			// facade contract is cosine distance, lowest first.
			Distance: 1 - r.Similarity,
		})
	}
	return hits, nil
}

// DeleteSession removes every document whose metadata matches the session.
func (i *Index) DeleteSession(ctx context.Context, sessionID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.col.Count() == 0 {
		return nil
	}

	where := map[string]string{"session_id": sessionID}
	if err := i.col.Delete(ctx, where, nil); err != nil {
		return fmt.Errorf("%w: delete session %s: %v", memory.ErrIndexUnavailable, sessionID, err)
	}
	log.Printf("[CHROMEM] Cleared session %s", sessionID)
	return nil
}

// Close releases the index. chromem flushes on every write, so nothing is
// pending here.
func (i *Index) Close() error {
	return nil
}

// isTooFewDocsError matches chromem's error for nResults exceeding the
// number of documents, which can still occur under a concurrent delete
// between the count and the query.
func isTooFewDocsError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "nResults must be") || strings.Contains(msg, "number of documents")
}
