// Package rag defines the shared types and error taxonomy of the
// retrieval-augmented generation pipeline.
//
// The pipeline packages (embed, store, ingest, retrieve, answer, query)
// exchange Chunk and ScoredChunk values and attach the sentinel errors
// defined here to every failure, so callers can classify failures with
// errors.Is regardless of which component produced them.
package rag
