package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/citeline/internal/core/domain"
	"github.com/custodia-labs/citeline/internal/core/ports/driven"
	"github.com/custodia-labs/citeline/internal/core/ports/driving"
	"github.com/custodia-labs/citeline/internal/logger"
	"github.com/custodia-labs/citeline/internal/retrieval"
)

// Ensure AskService implements the interface.
var _ driving.Asker = (*AskService)(nil)

// DefaultTopK is the number of chunks retrieved when the caller does not
// choose one.
const DefaultTopK = 5

// AskService answers questions over the ingested corpus. Retrieved context
// must pass the sufficiency guardrail before the model is consulted;
// refusals are successful answers, not errors.
type AskService struct {
	embedder  driven.EmbeddingService
	store     driven.VectorStore
	llm       driven.LLMService
	guardrail retrieval.Guardrail
	topK      int
}

// NewAskService creates an ask service. Non-positive defaultTopK falls
// back to DefaultTopK.
func NewAskService(
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	llm driven.LLMService,
	guardrail retrieval.Guardrail,
	defaultTopK int,
) *AskService {
	if defaultTopK <= 0 {
		defaultTopK = DefaultTopK
	}
	return &AskService{
		embedder:  embedder,
		store:     store,
		llm:       llm,
		guardrail: guardrail,
		topK:      defaultTopK,
	}
}

// Ask retrieves the topK most relevant chunks, checks the assembled
// context against the guardrail and generates a cited answer.
func (s *AskService) Ask(ctx context.Context, question string, topK int) (domain.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return domain.Answer{}, fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}
	if n := len([]rune(question)); n > driving.MaxQuestionChars {
		return domain.Answer{}, fmt.Errorf("%w: question is %d characters, maximum is %d", domain.ErrInvalidInput, n, driving.MaxQuestionChars)
	}
	if topK <= 0 {
		topK = s.topK
	}

	queryEmbedding, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("embedding question: %w", err)
	}

	hits, err := s.store.Search(queryEmbedding, topK)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("searching index: %w", err)
	}

	contextBlock := retrieval.BuildContext(hits)
	citations := retrieval.Citations(hits)

	if !s.guardrail.Enough(contextBlock) {
		logger.Debug("Guardrail refused: %d context characters from %d hits", len([]rune(contextBlock)), len(hits))
		return domain.Answer{
			Answer:        RefusalAnswer,
			UsedContext:   false,
			Citations:     citations,
			RefusalReason: domain.RefusalInsufficientContext,
		}, nil
	}

	answer, err := s.llm.Generate(ctx, SystemPrompt, question, contextBlock)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("generating answer: %w", err)
	}

	// The model may still refuse despite sufficient context.
	if domain.IsModelRefusal(answer) {
		return domain.Answer{
			Answer:        answer,
			UsedContext:   true,
			Citations:     citations,
			RefusalReason: domain.RefusalModelRefused,
		}, nil
	}

	return domain.Answer{
		Answer:      answer,
		UsedContext: true,
		Citations:   citations,
	}, nil
}
