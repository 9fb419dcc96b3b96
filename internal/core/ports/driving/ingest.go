package driving

import "context"

// MaxDocumentChars is the upper bound on ingested document length.
const MaxDocumentChars = 1_000_000

// IngestResult reports the outcome of an ingestion.
type IngestResult struct {
	// SourceID echoes the caller-supplied identifier.
	SourceID string `json:"source_id"`

	// ChunksAdded is the number of chunk records created.
	// Zero when the normalized text was empty.
	ChunksAdded int `json:"chunks_added"`
}

// Ingestor chunks a document, embeds the chunks and appends them to the
// vector store. The store is only mutated after embeddings have been
// obtained successfully; a provider failure leaves no partial state.
type Ingestor interface {
	Ingest(ctx context.Context, sourceID, text string, metadata map[string]any) (IngestResult, error)
}
