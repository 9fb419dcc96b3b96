package cli

import (
	"fmt"
	"os"

	"github.com/custodia-labs/citeline/internal/adapters/driven/config/file"
	"github.com/custodia-labs/citeline/internal/adapters/driven/embedding"
	embeddingollama "github.com/custodia-labs/citeline/internal/adapters/driven/embedding/ollama"
	embeddingopenai "github.com/custodia-labs/citeline/internal/adapters/driven/embedding/openai"
	llmollama "github.com/custodia-labs/citeline/internal/adapters/driven/llm/ollama"
	llmopenai "github.com/custodia-labs/citeline/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/citeline/internal/adapters/driven/storage/flatfile"
	"github.com/custodia-labs/citeline/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/citeline/internal/chunker"
	"github.com/custodia-labs/citeline/internal/core/ports/driven"
	"github.com/custodia-labs/citeline/internal/core/services"
	"github.com/custodia-labs/citeline/internal/logger"
	"github.com/custodia-labs/citeline/internal/retrieval"
)

// initServices wires the full service graph from configuration. needLLM
// controls whether an answer generator is constructed; ingestion-only
// commands skip it so they work without an LLM configured.
func initServices(needLLM bool) error {
	if ingestService != nil && (!needLLM || askService != nil) {
		return nil
	}

	cfg, err := file.Load(cfgPath)
	if err != nil {
		return err
	}
	if dataDir != "" {
		cfg.Storage.DataDir = dataDir
	}
	defaultTopK = cfg.Retrieval.TopK
	listenAddr = cfg.Server.ListenAddr

	dir, err := cfg.DataDir()
	if err != nil {
		return err
	}

	store, err := flatfile.Open(dir)
	if err != nil {
		return fmt.Errorf("opening vector store: %w", err)
	}
	closers = append(closers, store)
	vectorStore = store

	catalog, err := sqlite.NewCatalog(dir)
	if err != nil {
		// The catalog is an audit trail; its absence degrades, not fails.
		logger.Warn("Opening source catalog: %v", err)
	} else {
		closers = append(closers, catalog)
		sourceCatalog = catalog
	}

	embedder, err := buildEmbedder(cfg.Embedding)
	if err != nil {
		return err
	}
	closers = append(closers, embedder)

	ch, err := chunker.New(
		chunker.WithChunkSize(cfg.Chunking.ChunkSize),
		chunker.WithOverlap(cfg.Chunking.Overlap),
	)
	if err != nil {
		return fmt.Errorf("configuring chunker: %w", err)
	}

	ingestService = services.NewIngestService(ch, embedder, store, sourceCatalog)

	if needLLM {
		llm, err := buildLLM(cfg.LLM)
		if err != nil {
			return err
		}
		closers = append(closers, llm)

		guardrail := retrieval.NewGuardrail(cfg.Retrieval.MinContextChars)
		askService = services.NewAskService(embedder, store, llm, guardrail, cfg.Retrieval.TopK)
	}

	return nil
}

func buildEmbedder(cfg file.ProviderConfig) (driven.EmbeddingService, error) {
	var inner driven.EmbeddingService

	switch cfg.Provider {
	case "openai", "":
		svc, err := embeddingopenai.NewEmbeddingService(embeddingopenai.Config{
			APIKey:     os.Getenv("OPENAI_API_KEY"),
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("configuring embedding provider: %w", err)
		}
		inner = svc
	case "ollama":
		inner = embeddingollama.NewEmbeddingService(embeddingollama.Config{
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}

	return embedding.NewRateLimited(inner, embedding.RateLimitConfig{
		RequestsPerSecond: cfg.RequestsPerSecond,
	}), nil
}

func buildLLM(cfg file.ProviderConfig) (driven.LLMService, error) {
	switch cfg.Provider {
	case "openai", "":
		svc, err := llmopenai.NewLLMService(llmopenai.Config{
			APIKey:      os.Getenv("OPENAI_API_KEY"),
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("configuring llm provider: %w", err)
		}
		return svc, nil
	case "ollama":
		return llmollama.NewLLMService(llmollama.Config{
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
		}), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
