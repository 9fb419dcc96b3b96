// Package chunker splits document text into overlapping, bounded-length
// passages suitable for independent embedding and retrieval.
package chunker

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/citeline/internal/core/domain"
)

// DefaultChunkSize is the default window width in characters.
const DefaultChunkSize = 800

// DefaultOverlap is the default number of overlapping characters
// between consecutive windows.
const DefaultOverlap = 120

// minSentenceBreak is the minimum-viable-chunk floor: a sentence-boundary
// adjustment is only taken when the break falls beyond this many characters
// into the window, preventing degenerate tiny chunks.
const minSentenceBreak = 200

// Chunker produces passages via a sliding window over normalized text.
// The window prefers to end just after the last ". " it contains rather
// than split mid-sentence.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the window width in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between windows in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker. Overlap must be strictly less than the chunk size;
// otherwise the window cannot advance and New returns an error.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.overlap >= c.chunkSize {
		return nil, fmt.Errorf("chunker: overlap %d must be less than chunk size %d", c.overlap, c.chunkSize)
	}

	return c, nil
}

// ChunkSize returns the configured window width.
func (c *Chunker) ChunkSize() int { return c.chunkSize }

// Overlap returns the configured window overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// Chunk splits text into passages. The input is whitespace-normalized
// first: runs of whitespace collapse to a single space and surrounding
// whitespace is stripped. Empty normalized input yields no chunks.
func (c *Chunker) Chunk(text string) []string {
	normalized := normalizeWhitespace(text)
	if normalized == "" {
		return nil
	}

	runes := []rune(normalized)
	n := len(runes)

	var chunks []string
	start := 0

	for start < n {
		end := start + c.chunkSize
		if end > n {
			end = n
		}

		// Prefer a sentence boundary when the window does not reach
		// the end of the text.
		if end < n {
			if last := lastSentenceBreak(runes[start:end]); last > minSentenceBreak {
				end = start + last + 1
			}
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end >= n {
			break
		}

		// A sentence-boundary shrink can leave the window shorter than
		// the overlap; the window must still move forward.
		next := end - c.overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

// BuildRecords maps chunks to chunk records for sourceID. Chunk IDs are
// deterministic: "{sourceID}::chunk_{n}" with a 1-based n. A nil metadata
// map is replaced with an empty one on every record.
func BuildRecords(sourceID string, chunks []string, metadata map[string]any) []domain.ChunkRecord {
	if metadata == nil {
		metadata = map[string]any{}
	}

	records := make([]domain.ChunkRecord, 0, len(chunks))
	for i, text := range chunks {
		records = append(records, domain.ChunkRecord{
			ID:       fmt.Sprintf("%s::chunk_%d", sourceID, i+1),
			SourceID: sourceID,
			Text:     text,
			Metadata: metadata,
		})
	}
	return records
}

// normalizeWhitespace collapses every run of whitespace to a single space
// and strips leading/trailing whitespace.
func normalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// lastSentenceBreak returns the index of the '.' in the last ". "
// occurrence within window, or -1 when there is none.
func lastSentenceBreak(window []rune) int {
	for i := len(window) - 2; i >= 0; i-- {
		if window[i] == '.' && window[i+1] == ' ' {
			return i
		}
	}
	return -1
}
