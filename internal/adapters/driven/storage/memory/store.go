// Package memory provides an ephemeral in-memory vector store. It shares
// the search semantics of the flatfile store but persists nothing, which
// makes it the right backend for tests and throwaway sessions.
package memory

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/citeline/internal/core/domain"
	"github.com/custodia-labs/citeline/internal/core/ports/driven"
)

var _ driven.VectorStore = (*Store)(nil)

const normEpsilon = 1e-10

// Store is an append-only in-memory vector store with exact brute-force
// cosine-similarity search.
type Store struct {
	mu         sync.RWMutex
	dim        int
	records    []domain.ChunkRecord
	normalized [][]float32
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// Add appends records and embeddings.
func (s *Store) Add(records []domain.ChunkRecord, embeddings [][]float32) error {
	if len(records) != len(embeddings) {
		return fmt.Errorf("%w: %d records vs %d embeddings", domain.ErrInvalidInput, len(records), len(embeddings))
	}
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dim := s.dim
	if dim == 0 {
		dim = len(embeddings[0])
		if dim == 0 {
			return fmt.Errorf("%w: zero-width embedding", domain.ErrInvalidInput)
		}
	}
	for i, v := range embeddings {
		if len(v) != dim {
			return fmt.Errorf("%w: row %d has width %d, store width is %d", domain.ErrDimensionMismatch, i, len(v), dim)
		}
	}

	s.dim = dim
	s.records = append(s.records, records...)
	for _, v := range embeddings {
		s.normalized = append(s.normalized, normalize(v))
	}
	return nil
}

// Search returns the min(topK, Len()) most similar records, most similar
// first. Ties keep insertion order.
func (s *Store) Search(query []float32, topK int) ([]domain.SearchHit, error) {
	if topK < 1 {
		return nil, fmt.Errorf("%w: topK must be at least 1", domain.ErrInvalidInput)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.records) == 0 {
		return []domain.SearchHit{}, nil
	}
	if len(query) != s.dim {
		return nil, fmt.Errorf("%w: query width %d, store width %d", domain.ErrDimensionMismatch, len(query), s.dim)
	}

	q := normalize(query)
	scores := make([]float64, len(s.normalized))
	for i, row := range s.normalized {
		scores[i] = dot(q, row)
	}

	idxs := make([]int, len(scores))
	for i := range idxs {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(a, b int) bool { return scores[idxs[a]] > scores[idxs[b]] })

	if topK > len(idxs) {
		topK = len(idxs)
	}
	hits := make([]domain.SearchHit, 0, topK)
	for _, i := range idxs[:topK] {
		hits = append(hits, domain.SearchHit{Record: s.records[i], Score: scores[i]})
	}
	return hits, nil
}

// Len returns the number of stored chunk records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Dimensions returns the established embedding width, 0 when empty.
func (s *Store) Dimensions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dim
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	inv := 1.0 / (math.Sqrt(sum) + normEpsilon)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
