package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/citeline/internal/core/domain"
)

func rec(id string) domain.ChunkRecord {
	return domain.ChunkRecord{ID: id, SourceID: "src", Text: "text " + id, Metadata: map[string]any{}}
}

func TestEmptyStore(t *testing.T) {
	s := New()
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, s.Dimensions())

	hits, err := s.Search([]float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestRanking(t *testing.T) {
	s := New()
	require.NoError(t, s.Add(
		[]domain.ChunkRecord{rec("a"), rec("b"), rec("c")},
		[][]float32{{1, 0}, {0, 1}, {-1, 0}},
	))

	hits, err := s.Search([]float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "a", hits[0].Record.ID)
	assert.Equal(t, "b", hits[1].Record.ID)
	assert.Equal(t, "c", hits[2].Record.ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	assert.InDelta(t, 0.0, hits[1].Score, 1e-6)
	assert.InDelta(t, -1.0, hits[2].Score, 1e-6)
}

func TestDimensionMismatch(t *testing.T) {
	s := New()
	require.NoError(t, s.Add([]domain.ChunkRecord{rec("a")}, [][]float32{{1, 0, 0}}))

	err := s.Add([]domain.ChunkRecord{rec("b")}, [][]float32{{1, 0}})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	_, err = s.Search([]float32{1, 0}, 1)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestConcurrentSearchDuringAdd(t *testing.T) {
	s := New()
	require.NoError(t, s.Add([]domain.ChunkRecord{rec("seed")}, [][]float32{{1, 0}}))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				hits, err := s.Search([]float32{1, 0}, 5)
				assert.NoError(t, err)
				assert.NotEmpty(t, hits)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 100; j++ {
			assert.NoError(t, s.Add([]domain.ChunkRecord{rec("x")}, [][]float32{{0, 1}}))
		}
	}()
	wg.Wait()

	assert.Equal(t, 101, s.Len())
}
