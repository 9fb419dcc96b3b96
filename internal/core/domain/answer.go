package domain

import "strings"

// RefusalReason explains why the system declined to ground an answer.
// Refusals are successful responses, not errors: the caller can tell
// "the system worked and declined" apart from "the system broke".
type RefusalReason string

const (
	// RefusalNone marks an answer that was grounded in retrieved context.
	RefusalNone RefusalReason = ""

	// RefusalInsufficientContext means retrieval produced too little
	// evidence to attempt generation.
	RefusalInsufficientContext RefusalReason = "insufficient_context"

	// RefusalModelRefused means generation was attempted but the model
	// declined to answer from the supplied context.
	RefusalModelRefused RefusalReason = "model_refused"
)

// Answer is the outcome of asking a question.
type Answer struct {
	// Answer is the generated (or refusal) text.
	Answer string `json:"answer"`

	// UsedContext is true only when evidence was sufficient and
	// generation was attempted.
	UsedContext bool `json:"used_context"`

	// Citations lists the retrieved chunks, most similar first.
	// Preserved on refusals of either kind.
	Citations []Citation `json:"citations"`

	// RefusalReason is empty for grounded answers.
	RefusalReason RefusalReason `json:"refusal_reason,omitempty"`
}

// refusalPrefixes are the openings that mark a model-originated refusal.
// The typographic apostrophe variant shows up with some chat models.
var refusalPrefixes = []string{
	"i don't know",
	"i do not know",
	"i don’t know",
}

// IsModelRefusal reports whether generated text opens with a known
// refusal phrasing, matched case-insensitively.
func IsModelRefusal(answer string) bool {
	lower := strings.ToLower(strings.TrimSpace(answer))
	for _, p := range refusalPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}
