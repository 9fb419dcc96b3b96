package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/citeline/internal/chunker"
	"github.com/custodia-labs/citeline/internal/core/domain"
	"github.com/custodia-labs/citeline/internal/core/ports/driven"
	"github.com/custodia-labs/citeline/internal/core/ports/driving"
	"github.com/custodia-labs/citeline/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// IngestService chunks documents, embeds the chunks and appends them to
// the vector store. The store is only touched after every embedding has
// been obtained, so a provider failure leaves no partial state.
type IngestService struct {
	chunker  *chunker.Chunker
	embedder driven.EmbeddingService
	store    driven.VectorStore
	catalog  driven.SourceCatalog // optional
}

// NewIngestService creates an ingestion service. catalog may be nil, in
// which case no audit trail is kept.
func NewIngestService(
	ch *chunker.Chunker,
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	catalog driven.SourceCatalog,
) *IngestService {
	return &IngestService{
		chunker:  ch,
		embedder: embedder,
		store:    store,
		catalog:  catalog,
	}
}

// Ingest splits text into chunks, embeds them and appends the records to
// the store. Repeated source IDs append; earlier chunks are never replaced.
func (s *IngestService) Ingest(ctx context.Context, sourceID, text string, metadata map[string]any) (driving.IngestResult, error) {
	if strings.TrimSpace(sourceID) == "" {
		return driving.IngestResult{}, fmt.Errorf("%w: source_id is required", domain.ErrInvalidInput)
	}
	if len([]rune(text)) < 1 {
		return driving.IngestResult{}, fmt.Errorf("%w: text is required", domain.ErrInvalidInput)
	}
	if n := len([]rune(text)); n > driving.MaxDocumentChars {
		return driving.IngestResult{}, fmt.Errorf("%w: text is %d characters, maximum is %d", domain.ErrInvalidInput, n, driving.MaxDocumentChars)
	}

	chunks := s.chunker.Chunk(text)
	records := chunker.BuildRecords(sourceID, chunks, metadata)
	if len(records) == 0 {
		logger.Debug("Ingest %s: nothing to index after normalization", sourceID)
		return driving.IngestResult{SourceID: sourceID, ChunksAdded: 0}, nil
	}

	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.Text
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return driving.IngestResult{}, fmt.Errorf("embedding %d chunks: %w", len(records), err)
	}
	if len(embeddings) != len(records) {
		return driving.IngestResult{}, fmt.Errorf("%w: got %d embeddings for %d chunks", domain.ErrEmbeddingProvider, len(embeddings), len(records))
	}

	if err := s.store.Add(records, embeddings); err != nil {
		return driving.IngestResult{}, fmt.Errorf("storing chunks: %w", err)
	}

	if s.catalog != nil {
		// Audit failure never fails the ingestion itself.
		if err := s.catalog.RecordIngestion(ctx, sourceID, len(records)); err != nil {
			logger.Warn("Recording ingestion of %s in catalog: %v", sourceID, err)
		}
	}

	logger.Info("Ingested %s: %d chunks", sourceID, len(records))
	return driving.IngestResult{SourceID: sourceID, ChunksAdded: len(records)}, nil
}
