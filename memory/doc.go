// Package memory keeps a stateless model call feeling stateful.
//
// It persists conversation turns and user-stated priorities in two stores
// kept in lockstep: a relational log (ordered history, exact counts, source
// of truth) and a semantic index (vector similarity recall). On top of the
// stores sit a pure context assembler that merges the rolling summary,
// semantic hits and recent turns into one bounded prompt block, and a
// summarizer that compresses every fixed window of turns into a short
// bullet snapshot.
//
// Architecture:
//   - Log: relational append-only store (sqlite for the local SDK)
//   - Index: vector store with cosine similarity (chromem for the local SDK)
//   - Embedder: text-to-vector conversion, internal to the Index
//   - Generator: opaque text-generation call used by the summarizer
//   - Manager: the facade the orchestration layer consumes
//
// Write discipline: the log write must succeed before the index write is
// attempted. An index upsert failure after a committed log write degrades
// searchability only and is never surfaced to the caller.
package memory
