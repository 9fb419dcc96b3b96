package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDimensionMismatch indicates an embedding width that disagrees
	// with the width already established for the store.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrCorruptIndex indicates durable state that could not be read back
	// into a consistent record list and embedding matrix.
	ErrCorruptIndex = errors.New("corrupt index")

	// ErrEmbeddingProvider indicates the external embedding call failed
	// or returned malformed data. No partial store mutation occurs.
	ErrEmbeddingProvider = errors.New("embedding provider failure")

	// ErrGeneration indicates the external generator call failed.
	ErrGeneration = errors.New("generation failure")

	// ErrEmbeddingUnavailable indicates no embedding service is configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates no LLM service is configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)
