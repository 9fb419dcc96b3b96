// Package retrieval turns ranked search hits into the textual context
// block that grounds generation, and decides whether that context is
// substantial enough to attempt an answer at all.
package retrieval

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/citeline/internal/core/domain"
)

// DefaultMinContextChars is the default sufficiency threshold.
const DefaultMinContextChars = 400

// BuildContext renders hits into a single context block. Each hit becomes a
// header line with chunk id, source id and the score to 3 decimal places,
// followed by the chunk text. Hits are rendered in the order given; the
// caller is expected to pass them rank-ordered. Empty input yields "".
func BuildContext(hits []domain.SearchHit) string {
	if len(hits) == 0 {
		return ""
	}

	parts := make([]string, 0, len(hits))
	for _, hit := range hits {
		parts = append(parts, fmt.Sprintf(
			"[%s | source=%s | score=%.3f]\n%s\n",
			hit.Record.ID, hit.Record.SourceID, hit.Score, hit.Record.Text,
		))
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// Citations derives one citation per hit, preserving order.
// Always returns a non-nil slice so callers serialize [] rather than null.
func Citations(hits []domain.SearchHit) []domain.Citation {
	citations := make([]domain.Citation, 0, len(hits))
	for _, hit := range hits {
		citations = append(citations, domain.NewCitation(hit))
	}
	return citations
}

// Guardrail gates answer attempts on the bulk of assembled context.
// It is purely syntactic: it measures size, not semantic relevance.
type Guardrail struct {
	// MinContextChars is the minimum context length, in runes, required
	// to attempt generation.
	MinContextChars int
}

// NewGuardrail creates a guardrail with the given threshold.
// Non-positive thresholds fall back to DefaultMinContextChars.
func NewGuardrail(minContextChars int) Guardrail {
	if minContextChars <= 0 {
		minContextChars = DefaultMinContextChars
	}
	return Guardrail{MinContextChars: minContextChars}
}

// Enough reports whether context is long enough to permit generation.
func (g Guardrail) Enough(context string) bool {
	return len([]rune(context)) >= g.MinContextChars
}
