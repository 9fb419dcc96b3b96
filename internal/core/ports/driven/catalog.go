package driven

import (
	"context"
	"time"
)

// IngestionRecord is one row of the ingestion audit trail.
type IngestionRecord struct {
	// SourceID is the caller-supplied source identifier.
	SourceID string

	// ChunksAdded is how many chunk records the ingestion produced.
	ChunksAdded int

	// IngestedAt is when the ingestion completed.
	IngestedAt time.Time
}

// SourceCatalog records every ingestion so duplicate source IDs stay
// observable. This is an optional service - when nil, ingestion proceeds
// without audit.
type SourceCatalog interface {
	// RecordIngestion appends an audit row. Repeated source IDs append
	// additional rows; nothing is replaced.
	RecordIngestion(ctx context.Context, sourceID string, chunksAdded int) error

	// ListSources returns all ingestion rows, most recent first.
	ListSources(ctx context.Context) ([]IngestionRecord, error)

	// Close releases resources.
	Close() error
}
