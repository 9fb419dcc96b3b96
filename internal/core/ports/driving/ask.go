package driving

import (
	"context"

	"github.com/custodia-labs/citeline/internal/core/domain"
)

// MaxQuestionChars is the upper bound on question length.
const MaxQuestionChars = 5_000

// Asker answers a question from the ingested corpus. topK <= 0 selects the
// configured default. Refusals (insufficient context, model refusal) are
// successful answers carrying a refusal reason, never errors.
type Asker interface {
	Ask(ctx context.Context, question string, topK int) (domain.Answer, error)
}
