package cli

import (
	"context"
	"strings"
	"time"

	"github.com/custodia-labs/citeline/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/citeline/internal/chunker"
	"github.com/custodia-labs/citeline/internal/core/ports/driven"
	"github.com/custodia-labs/citeline/internal/core/services"
	"github.com/custodia-labs/citeline/internal/retrieval"
)

// stubEmbedder maps texts onto a tiny topic space for predictable search.
type stubEmbedder struct{}

func (s *stubEmbedder) vec(text string) []float32 {
	v := make([]float32, 2)
	t := strings.ToLower(text)
	if strings.Contains(t, "fastapi") {
		v[0] = 1
	}
	if strings.Contains(t, "streamlit") {
		v[1] = 1
	}
	return v
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return s.vec(text), nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = s.vec(t)
	}
	return out, nil
}

func (s *stubEmbedder) Dimensions() int                { return 2 }
func (s *stubEmbedder) ModelName() string              { return "stub-embed" }
func (s *stubEmbedder) Ping(ctx context.Context) error { return nil }
func (s *stubEmbedder) Close() error                   { return nil }

type stubLLM struct {
	answer string
}

func (s *stubLLM) Generate(ctx context.Context, system, question, contextBlock string) (string, error) {
	return s.answer, nil
}

func (s *stubLLM) ModelName() string              { return "stub-llm" }
func (s *stubLLM) Ping(ctx context.Context) error { return nil }
func (s *stubLLM) Close() error                   { return nil }

type stubCatalog struct {
	rows []driven.IngestionRecord
}

func (s *stubCatalog) RecordIngestion(ctx context.Context, sourceID string, chunksAdded int) error {
	s.rows = append(s.rows, driven.IngestionRecord{
		SourceID:    sourceID,
		ChunksAdded: chunksAdded,
		IngestedAt:  time.Now().UTC(),
	})
	return nil
}

func (s *stubCatalog) ListSources(ctx context.Context) ([]driven.IngestionRecord, error) {
	out := make([]driven.IngestionRecord, len(s.rows))
	copy(out, s.rows)
	return out, nil
}

func (s *stubCatalog) Close() error { return nil }

// setupTestServices wires stub-backed services into the package-level
// service variables and returns a cleanup that restores the old ones.
func setupTestServices() func() {
	oldIngest := ingestService
	oldAsk := askService
	oldStore := vectorStore
	oldCatalog := sourceCatalog

	store := memory.New()
	embedder := &stubEmbedder{}
	llm := &stubLLM{answer: "FastAPI is a web framework."}
	catalog := &stubCatalog{}

	ch, err := chunker.New()
	if err != nil {
		panic(err)
	}

	ingestService = services.NewIngestService(ch, embedder, store, catalog)
	askService = services.NewAskService(embedder, store, llm, retrieval.NewGuardrail(1), 0)
	vectorStore = store
	sourceCatalog = catalog

	return func() {
		ingestService = oldIngest
		askService = oldAsk
		vectorStore = oldStore
		sourceCatalog = oldCatalog
	}
}

// seedIndex ingests one document through the wired test services.
func seedIndex() error {
	_, err := ingestService.Ingest(context.Background(), "demo", "FastAPI is a web framework.", nil)
	return err
}
