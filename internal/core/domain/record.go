package domain

// ChunkRecord is a retrievable passage of an ingested document.
// Records are append-only: once written to the index they are
// never edited or deleted.
type ChunkRecord struct {
	// ID uniquely identifies the chunk. It is derived deterministically
	// from the source: "{source_id}::chunk_{n}" with a 1-based n.
	ID string `json:"chunk_id"`

	// SourceID is the caller-supplied identifier of the originating
	// document. Re-ingesting the same SourceID appends new chunks.
	SourceID string `json:"source_id"`

	// Text is the whitespace-normalized passage content. Never empty.
	Text string `json:"text"`

	// Metadata contains arbitrary caller-supplied key-value pairs.
	Metadata map[string]any `json:"metadata"`
}

// SearchHit pairs a chunk record with a cosine similarity score.
// Hits are ephemeral; they are created per query and never persisted.
type SearchHit struct {
	// Record is the matched chunk.
	Record ChunkRecord

	// Score is the cosine similarity in [-1, 1].
	// 1 means identical direction, 0 orthogonal, -1 opposite.
	Score float64
}

// MaxQuoteChars is the maximum length of a citation quote before truncation.
const MaxQuoteChars = 260

// Citation links an answer back to the retrieved chunk supporting it.
type Citation struct {
	ChunkID  string  `json:"chunk_id"`
	SourceID string  `json:"source_id"`
	Score    float64 `json:"score"`
	Quote    string  `json:"quote"`
}

// NewCitation derives a citation from a search hit. The quote is the chunk
// text, truncated to MaxQuoteChars runes with an ellipsis marker when needed.
func NewCitation(hit SearchHit) Citation {
	return Citation{
		ChunkID:  hit.Record.ID,
		SourceID: hit.Record.SourceID,
		Score:    hit.Score,
		Quote:    TruncateQuote(hit.Record.Text),
	}
}

// TruncateQuote shortens text to at most MaxQuoteChars runes, appending an
// ellipsis when truncation occurred.
func TruncateQuote(text string) string {
	runes := []rune(text)
	if len(runes) <= MaxQuoteChars {
		return text
	}
	return string(runes[:MaxQuoteChars]) + "…"
}
