package driven

import "github.com/custodia-labs/citeline/internal/core/domain"

// VectorStore owns the append-only collection of chunk records and their
// embeddings, and answers exact cosine-similarity queries over it.
//
// Implementations must keep records and embeddings parallel at all times:
// row i of the embedding matrix belongs to record i. Neither is ever
// mutated in place or deleted.
type VectorStore interface {
	// Add appends records with their embeddings and persists the store.
	// records and embeddings must have equal length; an empty call is a
	// no-op. Embedding width must match the store's established width,
	// otherwise domain.ErrDimensionMismatch is returned and nothing is
	// appended.
	Add(records []domain.ChunkRecord, embeddings [][]float32) error

	// Search returns the min(topK, Len()) most similar records to query,
	// most similar first. Scores are cosine similarities in [-1, 1].
	// Ties keep insertion order. An empty store returns an empty slice.
	Search(query []float32, topK int) ([]domain.SearchHit, error)

	// Len returns the number of stored chunk records.
	Len() int

	// Dimensions returns the established embedding width, 0 when empty.
	Dimensions() int

	// Close releases resources.
	Close() error
}
