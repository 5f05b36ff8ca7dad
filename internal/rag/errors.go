package rag

import "errors"

// Sentinel errors for pipeline operations. Components wrap these with
// errors.Join or fmt.Errorf("%w") so the kind survives propagation;
// only errors checked with errors.Is() are defined here.
var (
	// ErrInvalidInput indicates malformed or empty input text.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDimensionMismatch indicates a vector whose length differs from
	// the configured embedding dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrModelUnavailable indicates the embedding or generation backend
	// is unreachable or timed out.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrGenerationFailed indicates the generation backend was reachable
	// but produced no usable output.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrStorageUnavailable indicates the document store is unreachable
	// or timed out.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
