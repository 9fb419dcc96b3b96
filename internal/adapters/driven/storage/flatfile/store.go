// Package flatfile provides the durable vector store. Chunk records are
// kept in a human-inspectable JSONL file, embeddings in a raw little-endian
// float32 matrix, and a JSON manifest binds the two together. The prepared
// search structure (the normalized matrix) is rebuilt in memory on load and
// never persisted, keeping the durable format independent of the search
// implementation.
package flatfile

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/citeline/internal/core/domain"
	"github.com/custodia-labs/citeline/internal/core/ports/driven"
	"github.com/custodia-labs/citeline/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// IndexVersion identifies the durable format. Bump on layout changes.
const IndexVersion = 1

// Durable artifact names within the data directory.
const (
	manifestFile = "manifest.json"
	recordsFile  = "records.jsonl"
	vectorsFile  = "vectors.f32"
)

// normEpsilon avoids division by zero when normalizing a zero vector.
const normEpsilon = 1e-10

// manifest describes the persisted index and how to interpret it.
type manifest struct {
	IndexVersion int    `json:"index_version"`
	Generation   uint64 `json:"generation"`
	CreatedAt    string `json:"created_at"`
	Records      int    `json:"records"`
	Dim          int    `json:"dim"`
	RecordFile   string `json:"record_file"`
	VectorFile   string `json:"vector_file"`
}

// Store is a durable, append-only vector store with exact brute-force
// cosine-similarity search.
//
// All mutating operations are serialized behind a single writer lock;
// searches proceed concurrently against the last consistent state.
type Store struct {
	mu         sync.RWMutex
	dir        string
	generation uint64
	dim        int
	records    []domain.ChunkRecord
	vectors    [][]float32 // raw embeddings, row i belongs to records[i]
	normalized [][]float32 // prepared search structure, rebuilt from vectors
}

// Open loads the store persisted in dir, creating the directory if needed.
// A directory without a manifest is an empty store. A manifest whose
// artifacts are missing or inconsistent yields domain.ErrCorruptIndex.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	s := &Store{dir: dir}
	if err := s.load(); err != nil {
		return nil, err
	}
	logger.Debug("Vector store opened: %d records, dim=%d, generation=%d", len(s.records), s.dim, s.generation)
	return s, nil
}

// Add appends records and embeddings, rebuilds the search structure over
// the full accumulated set and rewrites the durable artifacts.
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

	prevRecords, prevVectors := len(s.records), len(s.vectors)

	s.dim = dim
	s.records = append(s.records, records...)
	for _, v := range embeddings {
		row := make([]float32, len(v))
		copy(row, v)
		s.vectors = append(s.vectors, row)
	}
	s.rebuildNormalized()

	if err := s.persist(); err != nil {
		// Leave no partial state behind on a failed persist.
		s.records = s.records[:prevRecords]
		s.vectors = s.vectors[:prevVectors]
		s.rebuildNormalized()
		return fmt.Errorf("persisting index: %w", err)
	}

	logger.Debug("Added %d chunks (total %d)", len(records), len(s.records))
	return nil
}

// Search returns the min(topK, Len()) most similar records to query,
// most similar first. Ties keep insertion order.
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

// Close releases resources. The store holds no open handles between
// operations, so this only exists to satisfy the port.
func (s *Store) Close() error { return nil }

// rebuildNormalized recomputes the prepared search structure over the
// entire vector set. Caller must hold the write lock.
func (s *Store) rebuildNormalized() {
	s.normalized = make([][]float32, len(s.vectors))
	for i, v := range s.vectors {
		s.normalized[i] = normalize(v)
	}
}

// load restores records and vectors from the durable artifacts.
func (s *Store) load() error {
	mb, err := os.ReadFile(filepath.Join(s.dir, manifestFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil // empty store
	}
	if err != nil {
		return fmt.Errorf("reading manifest: %w", err)
	}

	var m manifest
	if err := json.Unmarshal(mb, &m); err != nil {
		return fmt.Errorf("%w: invalid manifest: %v", domain.ErrCorruptIndex, err)
	}
	if m.IndexVersion != IndexVersion {
		return fmt.Errorf("%w: unsupported index version %d", domain.ErrCorruptIndex, m.IndexVersion)
	}
	if m.Dim <= 0 && m.Records > 0 {
		return fmt.Errorf("%w: invalid dimension %d", domain.ErrCorruptIndex, m.Dim)
	}
	if m.RecordFile == "" {
		m.RecordFile = recordsFile
	}
	if m.VectorFile == "" {
		m.VectorFile = vectorsFile
	}

	records, err := loadRecords(filepath.Join(s.dir, m.RecordFile))
	if err != nil {
		return err
	}
	if len(records) != m.Records {
		return fmt.Errorf("%w: manifest says %d records, file has %d", domain.ErrCorruptIndex, m.Records, len(records))
	}

	vectors, err := loadVectors(filepath.Join(s.dir, m.VectorFile), m.Records, m.Dim)
	if err != nil {
		return err
	}

	s.generation = m.Generation
	s.dim = m.Dim
	s.records = records
	s.vectors = vectors
	s.rebuildNormalized()
	return nil
}

// persist rewrites all durable artifacts. Records and vectors go first via
// temp-file-then-rename; the manifest is written last so a crash between
// writes is detected as a count/size mismatch on the next load.
// Caller must hold the write lock.
func (s *Store) persist() error {
	if err := s.writeRecords(); err != nil {
		return err
	}
	if err := s.writeVectors(); err != nil {
		return err
	}

	m := manifest{
		IndexVersion: IndexVersion,
		Generation:   s.generation + 1,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
		Records:      len(s.records),
		Dim:          s.dim,
		RecordFile:   recordsFile,
		VectorFile:   vectorsFile,
	}
	mb, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := writeFileAtomic(filepath.Join(s.dir, manifestFile), mb); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	s.generation = m.Generation
	return nil
}

func (s *Store) writeRecords() error {
	path := filepath.Join(s.dir, recordsFile)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating record file: %w", err)
	}
	bw := bufio.NewWriter(f)
	for _, r := range s.records {
		line, err := json.Marshal(r)
		if err != nil {
			f.Close()
			return err
		}
		if _, err := bw.Write(line); err != nil {
			f.Close()
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			f.Close()
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (s *Store) writeVectors() error {
	path := filepath.Join(s.dir, vectorsFile)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating vector file: %w", err)
	}
	bw := bufio.NewWriter(f)
	for _, row := range s.vectors {
		if err := binary.Write(bw, binary.LittleEndian, row); err != nil {
			f.Close()
			return fmt.Errorf("writing vectors: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func loadRecords(path string) ([]domain.ChunkRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open record file: %v", domain.ErrCorruptIndex, err)
	}
	defer f.Close()

	var out []domain.ChunkRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var r domain.ChunkRecord
		if err := json.Unmarshal(line, &r); err != nil {
			return nil, fmt.Errorf("%w: invalid record line: %v", domain.ErrCorruptIndex, err)
		}
		out = append(out, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading record file: %v", domain.ErrCorruptIndex, err)
	}
	return out, nil
}

func loadVectors(path string, rows, dim int) ([][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open vector file: %v", domain.ErrCorruptIndex, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: cannot stat vector file: %v", domain.ErrCorruptIndex, err)
	}
	expected := int64(rows) * int64(dim) * 4
	if st.Size() != expected {
		return nil, fmt.Errorf("%w: vector file is %d bytes, want %d (records=%d dim=%d)",
			domain.ErrCorruptIndex, st.Size(), expected, rows, dim)
	}

	flat := make([]float32, rows*dim)
	if err := binary.Read(io.LimitReader(f, expected), binary.LittleEndian, flat); err != nil {
		return nil, fmt.Errorf("%w: reading vectors: %v", domain.ErrCorruptIndex, err)
	}

	out := make([][]float32, rows)
	for i := 0; i < rows; i++ {
		out[i] = flat[i*dim : (i+1)*dim : (i+1)*dim]
	}
	return out, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// normalize returns v scaled to unit L2 norm, with a small epsilon in the
// denominator so zero vectors stay zero instead of dividing by zero.
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
