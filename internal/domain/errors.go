package domain

import "errors"

var (
	// ErrMissingAPIKey is a fatal configuration error raised at construction.
	ErrMissingAPIKey = errors.New("configuration error: API key not set")

	// ErrNoDocuments means ingestion produced zero chunks.
	ErrNoDocuments = errors.New("no documents were processed")

	// ErrNotInitialized means a question was asked before the index was built.
	ErrNotInitialized = errors.New("system is not initialized")

	// ErrDimensionMismatch means a vector does not match the index dimensionality.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrInvalidChunkConfig means chunk_size/chunk_overlap violate 0 <= overlap < size.
	ErrInvalidChunkConfig = errors.New("invalid chunk configuration")
)
